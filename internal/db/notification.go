package db

import "gorm.io/gorm"

// 알림 종류.
const (
	NotificationTypeBadge     = "badge"
	NotificationTypeChallenge = "challenge"
	NotificationTypeComment   = "comment"
	NotificationTypeSystem    = "system"
)

// Notification 은 사용자 알림이다. 배지 해금·챌린지 완료 등
// 상태 변화 이벤트가 이곳으로 흘러든다.
type Notification struct {
	gorm.Model
	UserID  uint   `gorm:"index;not null"`
	Type    string `gorm:"size:20;not null"`
	Title   string `gorm:"size:200;not null"`
	Body    string `gorm:"size:500"`
	LinkURL string `gorm:"size:500"`
	IsRead  bool   `gorm:"default:false;index"`
}
