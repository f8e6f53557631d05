package db

import (
	"time"

	"gorm.io/gorm"
)

// 챌린지 승인 상태. 사용자 제안 챌린지는 관리자 승인 후에만 노출된다.
const (
	ChallengeStatusPending  = "pending"
	ChallengeStatusApproved = "approved"
	ChallengeStatusRejected = "rejected"
)

// 챌린지 타입. streak 은 감정 기록과 연동해 자동 체크인된다.
const (
	ChallengeTypeStreak    = "streak"
	ChallengeTypeCommunity = "community"
)

// ChallengeTemplate 은 사용자가 챌린지를 만들 때 고르는 정적 카탈로그다.
type ChallengeTemplate struct {
	gorm.Model
	Title               string `gorm:"size:100;not null"`
	Description         string `gorm:"size:500;not null"`
	ChallengeType       string `gorm:"size:20;not null"`
	DefaultDurationDays int    `gorm:"not null"`
	DefaultTargetCount  int    `gorm:"not null"`
	Icon                string `gorm:"size:10"`
	RewardBadge         string `gorm:"size:50"`
	IsActive            bool   `gorm:"default:true"`
}

// Challenge 는 템플릿에서 생성된 챌린지 인스턴스다.
// 생성 직후에는 pending 상태이며 승인된 것만 목록에 노출된다.
type Challenge struct {
	gorm.Model
	TemplateID     *uint
	Template       *ChallengeTemplate `gorm:"constraint:OnDelete:SET NULL"`
	CreatedBy      uint               `gorm:"index"`
	Title          string             `gorm:"size:100;not null"`
	Description    string             `gorm:"size:500;not null"`
	ChallengeType  string             `gorm:"size:20;not null"`
	DurationDays   int                `gorm:"not null"`
	TargetCount    int                `gorm:"not null"`
	Icon           string             `gorm:"size:10"`
	RewardBadge    string             `gorm:"size:50"`
	Status         string             `gorm:"size:20;default:pending;index"`
	RejectedReason string             `gorm:"size:500"`
	StartDate      time.Time
	EndDate        time.Time
}

// UserChallenge 는 사용자의 챌린지 참여 상태다.
// CompletedCount 는 단조 증가하고, BestStreak >= CurrentStreak 불변식을 지킨다.
// LastActivityDate 는 스트릭 연속성 판정에 쓰인다.
type UserChallenge struct {
	gorm.Model
	UserID           uint      `gorm:"index;index:idx_user_challenge_unique,unique"`
	ChallengeID      uint      `gorm:"index;index:idx_user_challenge_unique,unique"`
	Challenge        Challenge `gorm:"constraint:OnDelete:CASCADE"`
	JoinedAt         time.Time
	CurrentStreak    int  `gorm:"default:0"`
	BestStreak       int  `gorm:"default:0"`
	CompletedCount   int  `gorm:"default:0"`
	IsCompleted      bool `gorm:"default:false"`
	CompletedAt      *time.Time
	GaveUpAt         *time.Time
	LastActivityDate *time.Time
}

// TableName 은 참여 유일 인덱스가 user_id + challenge_id 에 걸리게 한다.
func (UserChallenge) TableName() string {
	return "user_challenges"
}

// ChallengeCheckin 은 일 단위 체크인 기록이다.
// UserChallengeID + CheckinDate 유일 인덱스로 하루 중복 체크인을 막는다.
type ChallengeCheckin struct {
	gorm.Model
	UserChallengeID uint          `gorm:"index;index:idx_challenge_checkin_unique,unique"`
	UserChallenge   UserChallenge `gorm:"constraint:OnDelete:CASCADE"`
	CheckinDate     time.Time     `gorm:"index:idx_challenge_checkin_unique,unique"`
	Source          string        `gorm:"size:20"`
	Note            string        `gorm:"size:500"`
}

// TableName 은 체크인 유일 인덱스 대상 테이블명을 고정한다.
func (ChallengeCheckin) TableName() string {
	return "challenge_checkins"
}
