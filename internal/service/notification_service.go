package service

import (
	"errors"
	"fmt"

	"github.com/mindpause/internal/db"
	"gorm.io/gorm"
)

// ErrNotificationNotFound 는 알림이 없을 때 반환된다.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService 는 알림 조회·읽음 처리를 담당한다.
// 알림 생성은 각 도메인 서비스가 자기 트랜잭션 안에서 수행한다.
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService 는 NotificationService 를 생성한다.
func NewNotificationService(gdb *gorm.DB) *NotificationService {
	return &NotificationService{db: gdb}
}

// List 는 알림을 최신순으로 limit 건 조회한다.
func (s *NotificationService) List(userID uint, limit int) ([]db.Notification, error) {
	if limit < 1 || limit > 100 {
		limit = 30
	}

	var notifications []db.Notification
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// UnreadCount 는 읽지 않은 알림 수를 센다.
func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	var count int64
	if err := s.db.Model(&db.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead 는 본인 알림 한 건을 읽음 처리한다.
func (s *NotificationService) MarkRead(userID, notificationID uint) error {
	result := s.db.Model(&db.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if result.Error != nil {
		return fmt.Errorf("mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead 는 모든 알림을 읽음 처리한다.
func (s *NotificationService) MarkAllRead(userID uint) error {
	if err := s.db.Model(&db.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error; err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// Announce 는 관리자 공지 알림을 전체 사용자에게 발행한다.
func (s *NotificationService) Announce(title, body string) error {
	var userIDs []uint
	if err := s.db.Model(&db.User{}).Pluck("id", &userIDs).Error; err != nil {
		return fmt.Errorf("load user ids: %w", err)
	}
	if len(userIDs) == 0 {
		return nil
	}

	notifications := make([]db.Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		notifications = append(notifications, db.Notification{
			UserID: userID,
			Type:   db.NotificationTypeSystem,
			Title:  title,
			Body:   body,
		})
	}
	if err := s.db.Create(&notifications).Error; err != nil {
		return fmt.Errorf("create announcements: %w", err)
	}
	return nil
}
