package service

import (
	"testing"
	"time"

	"github.com/mindpause/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupBadgeTestDB(t *testing.T) func() {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file:badge_service_test?mode=memory&cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.User{}, &db.EmotionLog{}, &db.UserChallenge{}, &db.Post{}, &db.PostLike{}, &db.Comment{}, &db.UserBadge{}, &db.Notification{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb

	return func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func TestBadgeServiceUnlocksFirstLog(t *testing.T) {
	cleanup := setupBadgeTestDB(t)
	defer cleanup()

	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	svc := NewBadgeService(db.DB).WithClock(fixedClock(now))

	// 기록이 없으면 아무것도 해금되지 않는다
	unlocked, err := svc.Evaluate(1)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if len(unlocked) != 0 {
		t.Fatalf("expected no badges, got %v", unlocked)
	}

	log := db.EmotionLog{UserID: 1, LogDate: now, EmotionValue: 2, EmotionLabel: "좋음", EmotionEmoji: "😊"}
	if err := db.DB.Create(&log).Error; err != nil {
		t.Fatalf("create log: %v", err)
	}

	unlocked, err = svc.Evaluate(1)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if len(unlocked) != 1 || unlocked[0] != "first-log" {
		t.Fatalf("expected first-log badge, got %v", unlocked)
	}

	// 해금 알림이 쌓인다
	var notifications int64
	if err := db.DB.Model(&db.Notification{}).
		Where("user_id = ? AND type = ?", 1, db.NotificationTypeBadge).
		Count(&notifications).Error; err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	if notifications != 1 {
		t.Fatalf("expected 1 badge notification, got %d", notifications)
	}
}

func TestBadgeServiceEvaluateIsIdempotent(t *testing.T) {
	cleanup := setupBadgeTestDB(t)
	defer cleanup()

	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	svc := NewBadgeService(db.DB).WithClock(fixedClock(now))

	log := db.EmotionLog{UserID: 2, LogDate: now, EmotionValue: 1, EmotionLabel: "좋음", EmotionEmoji: "😊"}
	if err := db.DB.Create(&log).Error; err != nil {
		t.Fatalf("create log: %v", err)
	}

	if _, err := svc.Evaluate(2); err != nil {
		t.Fatalf("first Evaluate returned error: %v", err)
	}

	var first db.UserBadge
	if err := db.DB.Where("user_id = ? AND badge_id = ?", 2, "first-log").First(&first).Error; err != nil {
		t.Fatalf("load badge: %v", err)
	}

	// 이후 평가에서 획득 일시가 바뀌거나 중복 해금되지 않는다
	svc.WithClock(fixedClock(now.AddDate(0, 0, 10)))
	unlocked, err := svc.Evaluate(2)
	if err != nil {
		t.Fatalf("second Evaluate returned error: %v", err)
	}
	if len(unlocked) != 0 {
		t.Fatalf("expected no new badges, got %v", unlocked)
	}

	var reloaded db.UserBadge
	if err := db.DB.Where("user_id = ? AND badge_id = ?", 2, "first-log").First(&reloaded).Error; err != nil {
		t.Fatalf("reload badge: %v", err)
	}
	if !reloaded.EarnedAt.Equal(first.EarnedAt) {
		t.Fatalf("expected earned date kept, got %v vs %v", reloaded.EarnedAt, first.EarnedAt)
	}
}

func TestBadgeServiceStreakBadges(t *testing.T) {
	cleanup := setupBadgeTestDB(t)
	defer cleanup()

	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	svc := NewBadgeService(db.DB).WithClock(fixedClock(now))

	// 오늘 포함 7일 연속 기록
	for daysBack := 0; daysBack < 7; daysBack++ {
		log := db.EmotionLog{
			UserID:       3,
			LogDate:      now.AddDate(0, 0, -daysBack),
			EmotionValue: 0,
			EmotionLabel: "보통",
			EmotionEmoji: "😐",
		}
		if err := db.DB.Create(&log).Error; err != nil {
			t.Fatalf("create log: %v", err)
		}
	}

	unlocked, err := svc.Evaluate(3)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}

	got := map[string]bool{}
	for _, id := range unlocked {
		got[id] = true
	}
	for _, want := range []string{"first-log", "streak-3", "streak-7"} {
		if !got[want] {
			t.Fatalf("expected %s unlocked, got %v", want, unlocked)
		}
	}
}

func TestBadgeServiceListIncludesLockedBadges(t *testing.T) {
	cleanup := setupBadgeTestDB(t)
	defer cleanup()

	svc := NewBadgeService(db.DB)

	views, err := svc.List(4)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(views) != 6 {
		t.Fatalf("expected 6 catalog badges, got %d", len(views))
	}
	for _, view := range views {
		if view.Earned {
			t.Fatalf("expected no earned badges for new user, got %s", view.ID)
		}
	}
}
