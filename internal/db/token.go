package db

import (
	"time"

	"gorm.io/gorm"
)

// SubscriptionPlan 은 티어별 토큰 한도를 정의한다.
// 관리자가 수정할 수 있도록 코드 상수 대신 테이블로 관리한다.
type SubscriptionPlan struct {
	gorm.Model
	Tier              string `gorm:"size:20;uniqueIndex;not null"`
	Name              string `gorm:"size:100;not null"`
	Description       string `gorm:"size:500"`
	MonthlyTokenLimit int    `gorm:"not null"`
	DailyTokenLimit   int    `gorm:"not null"`
	PriceMonthly      int    `gorm:"default:0"` // KRW
	IsActive          bool   `gorm:"default:true"`
	DisplayOrder      int    `gorm:"default:0"`
}

// TokenQuota 는 사용자별 토큰 사용량 캐시다.
// 월 한도는 플랜에서 동적으로 가져오고 여기에는 누적 사용량만 둔다.
// LastResetAt 은 월간 리셋 기준 시각으로, 리셋마다 정확히 한 달씩 전진한다.
type TokenQuota struct {
	gorm.Model
	UserID           uint `gorm:"uniqueIndex;not null"`
	CurrentMonthUsed int  `gorm:"default:0;not null"`
	CurrentDayUsed   int  `gorm:"default:0;not null"`
	BonusTokens      int  `gorm:"default:0;not null"`
	LastResetAt      time.Time
	LastDailyResetAt time.Time
}

// TokenUsage 는 AI 요청 한 건의 토큰 사용 내역이다. 일별 집계에 쓰인다.
type TokenUsage struct {
	gorm.Model
	UserID         uint  `gorm:"index;not null"`
	ConversationID *uint `gorm:"index"`
	InputTokens    int   `gorm:"not null"`
	OutputTokens   int   `gorm:"not null"`
	TotalTokens    int   `gorm:"not null"`
	ModelName      string `gorm:"size:100"`
	Purpose        string `gorm:"size:50"`
}

// TableName 은 집계 쿼리에서 참조하는 테이블명을 고정한다.
func (TokenUsage) TableName() string {
	return "token_usage"
}
