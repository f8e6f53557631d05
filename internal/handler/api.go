package handler

import (
	"github.com/mindpause/internal/service"
	"gorm.io/gorm"
)

// API 는 HTTP 핸들러가 공유하는 의존성 묶음이다.
type API struct {
	db            *gorm.DB
	users         *service.UserService
	emotions      *service.EmotionService
	challenges    *service.ChallengeService
	badges        *service.BadgeService
	tokens        *service.TokenService
	community     *service.CommunityService
	chat          *service.ChatService
	notifications *service.NotificationService
	system        *service.SystemSettingService
	uploadDir     string
	uploadURL     string
}

// NewAPI 는 서비스 일체를 조립한 핸들러 집합을 만든다.
func NewAPI(db *gorm.DB, uploadDir, uploadURL string) *API {
	systemService := service.NewSystemSettingService(db)
	tokenService := service.NewTokenService(db)

	return &API{
		db:            db,
		users:         service.NewUserService(db),
		emotions:      service.NewEmotionService(db),
		challenges:    service.NewChallengeService(db),
		badges:        service.NewBadgeService(db),
		tokens:        tokenService,
		community:     service.NewCommunityService(db),
		chat:          service.NewChatService(db, systemService, tokenService),
		notifications: service.NewNotificationService(db),
		system:        systemService,
		uploadDir:     uploadDir,
		uploadURL:     uploadURL,
	}
}

// DB 는 내부 gorm 인스턴스를 노출한다.
func (a *API) DB() *gorm.DB {
	return a.db
}

// Seed 는 구독 플랜·챌린지 템플릿 같은 기본 데이터를 채운다.
func (a *API) Seed() error {
	if err := a.tokens.SeedDefaultPlans(); err != nil {
		return err
	}
	return a.challenges.SeedDefaultTemplates()
}
