package service

import (
	"testing"

	"github.com/mindpause/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSystemSettingTestDB(t *testing.T) func() {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file:system_setting_service_test?mode=memory&cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.SystemSetting{}); err != nil {
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

func TestSystemSettingServiceDefaults(t *testing.T) {
	cleanup := setupSystemSettingTestDB(t)
	defer cleanup()

	svc := NewSystemSettingService(db.DB)

	settings, err := svc.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings returned error: %v", err)
	}
	if settings.SiteName != "마음쉼표" {
		t.Fatalf("unexpected default site name: %s", settings.SiteName)
	}
	if settings.AIProvider != AIProviderOpenAI {
		t.Fatalf("unexpected default provider: %s", settings.AIProvider)
	}
}

func TestSystemSettingServiceUpdateRoundTrip(t *testing.T) {
	cleanup := setupSystemSettingTestDB(t)
	defer cleanup()

	svc := NewSystemSettingService(db.DB)

	updated, err := svc.UpdateSettings(SystemSettingsInput{
		SiteName:          "  마음쉼표 베타  ",
		AIProvider:        "DeepSeek",
		DeepSeekAPIKey:    " sk-test ",
		CoachSystemPrompt: "따뜻하게 답해주세요",
	})
	if err != nil {
		t.Fatalf("UpdateSettings returned error: %v", err)
	}
	if updated.SiteName != "마음쉼표 베타" {
		t.Fatalf("expected trimmed site name, got %q", updated.SiteName)
	}
	if updated.AIProvider != AIProviderDeepSeek {
		t.Fatalf("expected deepseek provider, got %s", updated.AIProvider)
	}

	reloaded, err := svc.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings returned error: %v", err)
	}
	if reloaded.DeepSeekAPIKey != "sk-test" {
		t.Fatalf("expected trimmed api key, got %q", reloaded.DeepSeekAPIKey)
	}
	if reloaded.CoachSystemPrompt != "따뜻하게 답해주세요" {
		t.Fatalf("unexpected prompt: %q", reloaded.CoachSystemPrompt)
	}

	// 빈 서비스 이름은 기본값으로 복원
	restored, err := svc.UpdateSettings(SystemSettingsInput{SiteName: "  ", AIProvider: "unknown"})
	if err != nil {
		t.Fatalf("second UpdateSettings returned error: %v", err)
	}
	if restored.SiteName != "마음쉼표" {
		t.Fatalf("expected default site name restored, got %q", restored.SiteName)
	}
	if restored.AIProvider != AIProviderOpenAI {
		t.Fatalf("expected provider fallback to openai, got %s", restored.AIProvider)
	}
}
