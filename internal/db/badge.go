package db

import (
	"time"

	"gorm.io/gorm"
)

// UserBadge 는 배지 획득 기록이다.
// 배지 카탈로그 자체는 정적(metrics.DefaultBadgeRules)이므로 획득 행만 저장한다.
// EarnedAt 은 최초 충족 시각이며 재평가로 갱신되지 않는다.
type UserBadge struct {
	gorm.Model
	UserID   uint   `gorm:"index;index:idx_user_badge_unique,unique"`
	BadgeID  string `gorm:"size:50;index:idx_user_badge_unique,unique"`
	EarnedAt time.Time
}

// TableName 은 획득 유일 인덱스가 user_id + badge_id 에 걸리게 한다.
func (UserBadge) TableName() string {
	return "user_badges"
}
