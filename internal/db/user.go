package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// 구독 티어 상수. SubscriptionPlan.Tier 와 User.Tier 가 공유한다.
const (
	TierFree       = "FREE"
	TierPremium    = "PREMIUM"
	TierEnterprise = "ENTERPRISE"
)

// User 는 서비스 이용자 모델이다.
// Tier 는 활성 구독이 없을 때의 폴백 티어로 쓰인다.
type User struct {
	gorm.Model
	Email           string `gorm:"size:191;uniqueIndex;not null"`
	Password        string `gorm:"not null"`
	Nickname        string `gorm:"size:60;not null"`
	Tier            string `gorm:"size:20;default:FREE"`
	IsAdmin         bool   `gorm:"default:false"`
	ProfileImageURL string `gorm:"size:500"`
}

// EnsureAdmin 은 제공된 이메일·비밀번호가 모두 비어 있지 않고 해당 계정이
// 없을 때 bcrypt 해시와 함께 관리자 계정을 생성한다.
func EnsureAdmin(email, password string) error {
	trimmedEmail := strings.TrimSpace(email)
	trimmedPassword := strings.TrimSpace(password)
	if trimmedEmail == "" || trimmedPassword == "" {
		return nil
	}

	if DB == nil {
		return errors.New("database not initialized")
	}

	var existing User
	if err := DB.Where("email = ?", trimmedEmail).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		return DB.Create(&User{
			Email:    trimmedEmail,
			Password: string(hashed),
			Nickname: "관리자",
			Tier:     TierEnterprise,
			IsAdmin:  true,
		}).Error
	}

	return nil
}
