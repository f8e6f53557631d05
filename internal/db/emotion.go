package db

import (
	"time"

	"gorm.io/gorm"
)

// EmotionLog 는 하루 한 건의 감정 기록이다.
// UserID + LogDate 유일 인덱스로 "하루 한 번" 규칙을 DB 차원에서 보장한다.
// EmotionValue 는 -5 ~ +5 범위의 정수, AIFeedback 은 기록 직후 생성된
// 코치 피드백을 캐시해 둔 것이다. 생성 이후 수정 경로는 없다.
type EmotionLog struct {
	gorm.Model
	UserID       uint      `gorm:"index;index:idx_emotion_log_unique,unique"`
	User         User      `gorm:"constraint:OnDelete:CASCADE"`
	LogDate      time.Time `gorm:"index:idx_emotion_log_unique,unique"`
	EmotionValue int       `gorm:"not null"`
	EmotionLabel string    `gorm:"size:50;not null"`
	EmotionEmoji string    `gorm:"size:10;not null"`
	Note         string    `gorm:"type:text"`
	AIFeedback   string    `gorm:"type:text"`
}

// TableName 은 유일 인덱스가 user_id + log_date 에 걸리도록 테이블명을 고정한다.
func (EmotionLog) TableName() string {
	return "emotion_logs"
}
