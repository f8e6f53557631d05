package service

import (
	"fmt"
	"time"

	"github.com/mindpause/internal/db"
	"github.com/mindpause/internal/metrics"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BadgeService 는 배지 평가·영속화·알림 발행을 담당한다.
// 배지 카탈로그는 metrics.DefaultBadgeRules 의 정적 규칙을 쓴다.
type BadgeService struct {
	db    *gorm.DB
	rules []metrics.BadgeRule
	now   func() time.Time
}

// BadgeView 는 배지 목록 화면의 한 칸이다. 미획득 배지도 포함한다.
type BadgeView struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Earned      bool       `json:"earned"`
	EarnedAt    *time.Time `json:"earnedAt,omitempty"`
}

// NewBadgeService 는 BadgeService 를 생성한다.
func NewBadgeService(gdb *gorm.DB) *BadgeService {
	return &BadgeService{db: gdb, rules: metrics.DefaultBadgeRules(), now: time.Now}
}

// WithClock 은 테스트에서 현재 시각 주입을 허용한다.
func (s *BadgeService) WithClock(now func() time.Time) *BadgeService {
	if now != nil {
		s.now = now
	}
	return s
}

// collectStats 는 배지 평가에 필요한 활동 지표를 모은다.
func (s *BadgeService) collectStats(userID uint) (metrics.BadgeStats, error) {
	var stats metrics.BadgeStats

	var totalLogs int64
	if err := s.db.Model(&db.EmotionLog{}).Where("user_id = ?", userID).Count(&totalLogs).Error; err != nil {
		return stats, fmt.Errorf("count emotion logs: %w", err)
	}

	var dates []time.Time
	if err := s.db.Model(&db.EmotionLog{}).
		Where("user_id = ?", userID).
		Pluck("log_date", &dates).Error; err != nil {
		return stats, fmt.Errorf("load log dates: %w", err)
	}

	var completedChallenges int64
	if err := s.db.Model(&db.UserChallenge{}).
		Where("user_id = ? AND is_completed = ?", userID, true).
		Count(&completedChallenges).Error; err != nil {
		return stats, fmt.Errorf("count completed challenges: %w", err)
	}

	var likesReceived int64
	if err := s.db.Model(&db.PostLike{}).
		Joins("JOIN posts ON posts.id = post_likes.post_id").
		Where("posts.user_id = ? AND post_likes.deleted_at IS NULL", userID).
		Count(&likesReceived).Error; err != nil {
		return stats, fmt.Errorf("count likes received: %w", err)
	}

	var commentsWritten int64
	if err := s.db.Model(&db.Comment{}).Where("user_id = ?", userID).Count(&commentsWritten).Error; err != nil {
		return stats, fmt.Errorf("count comments: %w", err)
	}

	stats.TotalEmotionLogs = int(totalLogs)
	stats.CurrentStreak = metrics.CurrentStreak(dates, s.now())
	stats.CompletedChallenges = int(completedChallenges)
	stats.LikesReceived = int(likesReceived)
	stats.CommentsWritten = int(commentsWritten)
	return stats, nil
}

// earnedMap 은 저장된 획득 기록을 배지 ID → 획득 시각 맵으로 읽는다.
func (s *BadgeService) earnedMap(userID uint) (map[string]time.Time, error) {
	var rows []db.UserBadge
	if err := s.db.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load user badges: %w", err)
	}

	earned := make(map[string]time.Time, len(rows))
	for _, row := range rows {
		earned[row.BadgeID] = row.EarnedAt
	}
	return earned, nil
}

// Evaluate 는 현재 활동 지표로 배지를 재평가하고, 새로 해금된 배지를
// 영속화한 뒤 알림을 쌓는다. 이미 획득한 배지의 EarnedAt 은 건드리지
// 않으며 같은 입력으로 다시 불러도 결과가 달라지지 않는다.
func (s *BadgeService) Evaluate(userID uint) (newlyUnlocked []string, err error) {
	stats, err := s.collectStats(userID)
	if err != nil {
		return nil, err
	}

	earned, err := s.earnedMap(userID)
	if err != nil {
		return nil, err
	}

	satisfied := metrics.EvaluateBadges(s.rules, stats)
	_, newlyUnlocked = metrics.MergeEarned(earned, satisfied, s.now())
	if len(newlyUnlocked) == 0 {
		return nil, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for _, badgeID := range newlyUnlocked {
			row := db.UserBadge{UserID: userID, BadgeID: badgeID, EarnedAt: s.now()}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				return fmt.Errorf("save badge %s: %w", badgeID, err)
			}

			rule, ok := s.ruleByID(badgeID)
			if !ok {
				continue
			}
			notification := db.Notification{
				UserID:  userID,
				Type:    db.NotificationTypeBadge,
				Title:   fmt.Sprintf("새 배지 획득: %s %s", rule.Icon, rule.Name),
				Body:    rule.Description,
				LinkURL: "/profile/badges",
			}
			if err := tx.Create(&notification).Error; err != nil {
				return fmt.Errorf("create badge notification: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return newlyUnlocked, nil
}

func (s *BadgeService) ruleByID(id string) (metrics.BadgeRule, bool) {
	for _, rule := range s.rules {
		if rule.ID == id {
			return rule, true
		}
	}
	return metrics.BadgeRule{}, false
}

// List 는 전체 카탈로그를 획득 여부와 함께 돌려준다.
func (s *BadgeService) List(userID uint) ([]BadgeView, error) {
	earned, err := s.earnedMap(userID)
	if err != nil {
		return nil, err
	}

	views := make([]BadgeView, 0, len(s.rules))
	for _, rule := range s.rules {
		view := BadgeView{
			ID:          rule.ID,
			Name:        rule.Name,
			Description: rule.Description,
			Icon:        rule.Icon,
		}
		if earnedAt, ok := earned[rule.ID]; ok {
			view.Earned = true
			at := earnedAt
			view.EarnedAt = &at
		}
		views = append(views, view)
	}
	return views, nil
}
