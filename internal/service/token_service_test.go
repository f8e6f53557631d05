package service

import (
	"errors"
	"testing"
	"time"

	"github.com/mindpause/internal/db"
	"github.com/mindpause/internal/metrics"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTokenTestDB(t *testing.T) func() {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file:token_service_test?mode=memory&cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.User{}, &db.SubscriptionPlan{}, &db.TokenQuota{}, &db.TokenUsage{}); err != nil {
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

func createTestUser(t *testing.T, tier string) uint {
	t.Helper()
	user := db.User{Email: time.Now().Format("150405.000000000") + tier + "@test.dev", Password: "x", Nickname: "테스트", Tier: tier}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user.ID
}

func TestTokenServiceSeedDefaultPlans(t *testing.T) {
	cleanup := setupTokenTestDB(t)
	defer cleanup()

	svc := NewTokenService(db.DB)
	if err := svc.SeedDefaultPlans(); err != nil {
		t.Fatalf("SeedDefaultPlans returned error: %v", err)
	}
	// 재실행해도 중복 생성 없음
	if err := svc.SeedDefaultPlans(); err != nil {
		t.Fatalf("second SeedDefaultPlans returned error: %v", err)
	}

	var count int64
	if err := db.DB.Model(&db.SubscriptionPlan{}).Count(&count).Error; err != nil {
		t.Fatalf("count plans: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 plans, got %d", count)
	}

	var free db.SubscriptionPlan
	if err := db.DB.Where("tier = ?", db.TierFree).First(&free).Error; err != nil {
		t.Fatalf("find free plan: %v", err)
	}
	if free.MonthlyTokenLimit != 50000 || free.DailyTokenLimit != 5000 {
		t.Fatalf("unexpected free plan limits: %d/%d", free.MonthlyTokenLimit, free.DailyTokenLimit)
	}
}

func TestTokenServiceRecordUsageAndSummary(t *testing.T) {
	cleanup := setupTokenTestDB(t)
	defer cleanup()

	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService(db.DB).WithClock(fixedClock(now))
	if err := svc.SeedDefaultPlans(); err != nil {
		t.Fatalf("SeedDefaultPlans returned error: %v", err)
	}

	userID := createTestUser(t, db.TierFree)

	if _, err := svc.RecordUsage(UsageRecordInput{UserID: userID, InputTokens: 30000, OutputTokens: 18000, ModelName: "gpt-4o-mini", Purpose: "chat"}); err != nil {
		t.Fatalf("RecordUsage returned error: %v", err)
	}

	summary, err := svc.Summary(userID)
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}
	if summary.Tier != db.TierFree {
		t.Fatalf("unexpected tier: %s", summary.Tier)
	}
	if summary.Quota.CurrentMonthUsed != 48000 {
		t.Fatalf("expected 48000 used, got %d", summary.Quota.CurrentMonthUsed)
	}
	if summary.State.UsagePercent != 96 {
		t.Fatalf("expected 96%%, got %v", summary.State.UsagePercent)
	}
	if summary.State.Threshold != metrics.ThresholdCritical {
		t.Fatalf("expected critical threshold, got %s", summary.State.Threshold)
	}
}

func TestTokenServiceCheckQuotaExceeded(t *testing.T) {
	cleanup := setupTokenTestDB(t)
	defer cleanup()

	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService(db.DB).WithClock(fixedClock(now))
	if err := svc.SeedDefaultPlans(); err != nil {
		t.Fatalf("SeedDefaultPlans returned error: %v", err)
	}

	userID := createTestUser(t, db.TierFree)

	// 일간 한도(5000)에 도달시킨다
	if _, err := svc.RecordUsage(UsageRecordInput{UserID: userID, InputTokens: 3000, OutputTokens: 2000}); err != nil {
		t.Fatalf("RecordUsage returned error: %v", err)
	}

	err := svc.CheckQuota(userID, 100)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestTokenServiceDailyRollover(t *testing.T) {
	cleanup := setupTokenTestDB(t)
	defer cleanup()

	day1 := time.Date(2026, 8, 15, 23, 0, 0, 0, time.UTC)
	svc := NewTokenService(db.DB).WithClock(fixedClock(day1))
	if err := svc.SeedDefaultPlans(); err != nil {
		t.Fatalf("SeedDefaultPlans returned error: %v", err)
	}

	userID := createTestUser(t, db.TierFree)

	if _, err := svc.RecordUsage(UsageRecordInput{UserID: userID, InputTokens: 4000, OutputTokens: 1000}); err != nil {
		t.Fatalf("RecordUsage returned error: %v", err)
	}
	if err := svc.CheckQuota(userID, 100); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected daily quota exceeded, got %v", err)
	}

	// 다음 날이 되면 일간 사용량만 리셋된다
	day2 := day1.AddDate(0, 0, 1)
	svc.WithClock(fixedClock(day2))

	if err := svc.CheckQuota(userID, 100); err != nil {
		t.Fatalf("expected quota available next day, got %v", err)
	}

	quota, err := svc.GetOrCreateQuota(userID)
	if err != nil {
		t.Fatalf("GetOrCreateQuota returned error: %v", err)
	}
	if quota.CurrentDayUsed != 0 {
		t.Fatalf("expected daily usage reset, got %d", quota.CurrentDayUsed)
	}
	if quota.CurrentMonthUsed != 5000 {
		t.Fatalf("expected monthly usage kept, got %d", quota.CurrentMonthUsed)
	}
}

func TestTokenServiceMonthlyRollover(t *testing.T) {
	cleanup := setupTokenTestDB(t)
	defer cleanup()

	month1 := time.Date(2026, 7, 10, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService(db.DB).WithClock(fixedClock(month1))
	if err := svc.SeedDefaultPlans(); err != nil {
		t.Fatalf("SeedDefaultPlans returned error: %v", err)
	}

	userID := createTestUser(t, db.TierPremium)

	if _, err := svc.RecordUsage(UsageRecordInput{UserID: userID, InputTokens: 20000, OutputTokens: 10000}); err != nil {
		t.Fatalf("RecordUsage returned error: %v", err)
	}

	svc.WithClock(fixedClock(month1.AddDate(0, 1, 5)))
	summary, err := svc.Summary(userID)
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}
	if summary.Quota.CurrentMonthUsed != 0 {
		t.Fatalf("expected monthly usage reset, got %d", summary.Quota.CurrentMonthUsed)
	}
	if summary.Quota.LastResetAt.Before(month1.AddDate(0, 1, 0)) {
		t.Fatalf("expected LastResetAt advanced, got %v", summary.Quota.LastResetAt)
	}
}

func TestTokenServiceBonusTokensExtendMonthly(t *testing.T) {
	cleanup := setupTokenTestDB(t)
	defer cleanup()

	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	svc := NewTokenService(db.DB).WithClock(fixedClock(now))
	if err := svc.SeedDefaultPlans(); err != nil {
		t.Fatalf("SeedDefaultPlans returned error: %v", err)
	}

	userID := createTestUser(t, db.TierPremium)

	// 월간 한도(500000) 직전까지 사용. 일간 한도는 넉넉한 프리미엄 기준.
	quota, err := svc.GetOrCreateQuota(userID)
	if err != nil {
		t.Fatalf("GetOrCreateQuota returned error: %v", err)
	}
	quota.CurrentMonthUsed = 499900
	if err := db.DB.Save(quota).Error; err != nil {
		t.Fatalf("save quota: %v", err)
	}

	if err := svc.CheckQuota(userID, 1000); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected monthly quota exceeded, got %v", err)
	}

	if err := svc.AddBonusTokens(userID, 5000); err != nil {
		t.Fatalf("AddBonusTokens returned error: %v", err)
	}
	if err := svc.CheckQuota(userID, 1000); err != nil {
		t.Fatalf("expected bonus to extend monthly quota, got %v", err)
	}

	// 보너스는 잔여량만 늘리고 사용률에는 반영되지 않는다
	summary, err := svc.Summary(userID)
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}
	if summary.State.UsagePercent <= 95 {
		t.Fatalf("expected usage percent unaffected by bonus, got %v", summary.State.UsagePercent)
	}
	if summary.State.MonthlyRemaining != 5100 {
		t.Fatalf("expected remaining 5100 with bonus, got %d", summary.State.MonthlyRemaining)
	}
}

func TestTokenServiceRejectsNegativeUsage(t *testing.T) {
	cleanup := setupTokenTestDB(t)
	defer cleanup()

	svc := NewTokenService(db.DB)
	if _, err := svc.RecordUsage(UsageRecordInput{UserID: 1, InputTokens: -1}); err == nil {
		t.Fatal("expected error for negative token count")
	}
}
