package service

import (
	"errors"
	"testing"
	"time"

	"github.com/mindpause/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupEmotionTestDB(t *testing.T) func() {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file:emotion_service_test?mode=memory&cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.User{}, &db.EmotionLog{}); err != nil {
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

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestEmotionServiceCreateOnePerDay(t *testing.T) {
	cleanup := setupEmotionTestDB(t)
	defer cleanup()

	now := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	svc := NewEmotionService(db.DB).WithClock(fixedClock(now))

	log, err := svc.CreateLog(EmotionLogInput{UserID: 1, EmotionValue: 3, Note: "좋은 하루"})
	if err != nil {
		t.Fatalf("CreateLog returned error: %v", err)
	}
	if log.ID == 0 {
		t.Fatal("expected log to have ID")
	}
	if log.EmotionLabel == "" || log.EmotionEmoji == "" {
		t.Fatalf("expected label and emoji to be filled, got %q %q", log.EmotionLabel, log.EmotionEmoji)
	}

	// 같은 날 두 번째 기록은 거부
	if _, err := svc.CreateLog(EmotionLogInput{UserID: 1, EmotionValue: 2}); !errors.Is(err, ErrEmotionLogExists) {
		t.Fatalf("expected ErrEmotionLogExists, got %v", err)
	}

	// 다른 사용자는 무관
	if _, err := svc.CreateLog(EmotionLogInput{UserID: 2, EmotionValue: -1}); err != nil {
		t.Fatalf("CreateLog for another user returned error: %v", err)
	}
}

func TestEmotionServiceRejectsOutOfRangeValue(t *testing.T) {
	cleanup := setupEmotionTestDB(t)
	defer cleanup()

	svc := NewEmotionService(db.DB)

	if _, err := svc.CreateLog(EmotionLogInput{UserID: 1, EmotionValue: 6}); !errors.Is(err, ErrEmotionValueRange) {
		t.Fatalf("expected ErrEmotionValueRange for 6, got %v", err)
	}
	if _, err := svc.CreateLog(EmotionLogInput{UserID: 1, EmotionValue: -6}); !errors.Is(err, ErrEmotionValueRange) {
		t.Fatalf("expected ErrEmotionValueRange for -6, got %v", err)
	}
}

func TestEmotionServiceStatsStreak(t *testing.T) {
	cleanup := setupEmotionTestDB(t)
	defer cleanup()

	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	svc := NewEmotionService(db.DB).WithClock(fixedClock(now))

	// 어제부터 3일 연속, 그 전에 하루 공백
	for _, daysBack := range []int{1, 2, 3, 5} {
		_, err := svc.CreateLog(EmotionLogInput{
			UserID:       7,
			LogDate:      now.AddDate(0, 0, -daysBack),
			EmotionValue: 1,
		})
		if err != nil {
			t.Fatalf("CreateLog(-%d) returned error: %v", daysBack, err)
		}
	}

	stats, err := svc.Stats(7)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}

	if stats.CurrentStreak != 3 {
		t.Fatalf("expected current streak 3, got %d", stats.CurrentStreak)
	}
	if stats.LongestStreak != 3 {
		t.Fatalf("expected longest streak 3, got %d", stats.LongestStreak)
	}
	if stats.TotalLogs != 4 {
		t.Fatalf("expected 4 total logs, got %d", stats.TotalLogs)
	}
	if stats.StreakMessage == "" {
		t.Fatal("expected non-empty streak message")
	}
}

func TestEmotionServiceChartOrdersByDate(t *testing.T) {
	cleanup := setupEmotionTestDB(t)
	defer cleanup()

	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	svc := NewEmotionService(db.DB).WithClock(fixedClock(now))

	for _, daysBack := range []int{2, 0, 1} {
		if _, err := svc.CreateLog(EmotionLogInput{
			UserID:       3,
			LogDate:      now.AddDate(0, 0, -daysBack),
			EmotionValue: daysBack,
		}); err != nil {
			t.Fatalf("CreateLog returned error: %v", err)
		}
	}

	points, err := svc.Chart(3, 7)
	if err != nil {
		t.Fatalf("Chart returned error: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i-1].Date >= points[i].Date {
			t.Fatalf("expected ascending dates, got %s before %s", points[i-1].Date, points[i].Date)
		}
	}
}

func TestEmotionServiceDeleteChecksOwner(t *testing.T) {
	cleanup := setupEmotionTestDB(t)
	defer cleanup()

	svc := NewEmotionService(db.DB)

	log, err := svc.CreateLog(EmotionLogInput{UserID: 1, EmotionValue: 0})
	if err != nil {
		t.Fatalf("CreateLog returned error: %v", err)
	}

	if err := svc.DeleteLog(2, log.ID); !errors.Is(err, ErrEmotionLogNotFound) {
		t.Fatalf("expected ErrEmotionLogNotFound for other user, got %v", err)
	}
	if err := svc.DeleteLog(1, log.ID); err != nil {
		t.Fatalf("DeleteLog returned error: %v", err)
	}
}
