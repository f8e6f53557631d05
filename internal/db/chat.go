package db

import "gorm.io/gorm"

// 메시지 발화자 구분.
const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

// Conversation 은 AI 코치와의 대화 묶음이다.
type Conversation struct {
	gorm.Model
	UserID    uint   `gorm:"index;not null"`
	User      User   `gorm:"constraint:OnDelete:CASCADE"`
	Title     string `gorm:"size:200"`
	Character string `gorm:"size:50"`
}

// Message 는 대화 내 단일 메시지다. 토큰 수는 응답 수신 시점에 채워진다.
type Message struct {
	gorm.Model
	ConversationID uint         `gorm:"index;not null"`
	Conversation   Conversation `gorm:"constraint:OnDelete:CASCADE"`
	Role           string       `gorm:"size:20;not null"`
	Content        string       `gorm:"type:text;not null"`
	InputTokens    int          `gorm:"default:0"`
	OutputTokens   int          `gorm:"default:0"`
}
