package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mindpause/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// AIProviderOpenAI 는 OpenAI 호환 API 를 사용한다.
	AIProviderOpenAI = "openai"
	// AIProviderDeepSeek 는 DeepSeek API 를 사용한다.
	AIProviderDeepSeek = "deepseek"
)

// ErrAIAPIKeyMissing 은 필요한 AI 플랫폼 API Key 가 없을 때 반환된다.
var ErrAIAPIKeyMissing = errors.New("api key is required")

// SystemSettings 는 관리자 화면에서 설정 가능한 시스템 정보다.
type SystemSettings struct {
	SiteName          string
	AIProvider        string
	OpenAIAPIKey      string
	DeepSeekAPIKey    string
	CoachSystemPrompt string
}

// SystemSettingsInput 은 시스템 설정 갱신 입력이다.
type SystemSettingsInput struct {
	SiteName          string
	AIProvider        string
	OpenAIAPIKey      string
	DeepSeekAPIKey    string
	CoachSystemPrompt string
}

// SystemSettingService 는 시스템 설정의 조회·갱신을 담당한다.
type SystemSettingService struct {
	db *gorm.DB
}

// NewSystemSettingService 는 SystemSettingService 를 생성한다.
func NewSystemSettingService(gdb *gorm.DB) *SystemSettingService {
	return &SystemSettingService{db: gdb}
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

var settingKeys = []string{
	db.SettingKeySiteName,
	db.SettingKeyAIProvider,
	db.SettingKeyOpenAIAPIKey,
	db.SettingKeyDeepSeekAPIKey,
	db.SettingKeyCoachSystemPrompt,
}

// GetSettings 는 시스템 설정을 읽고, 미설정 항목에는 기본값을 돌려준다.
func (s *SystemSettingService) GetSettings() (SystemSettings, error) {
	result := SystemSettings{SiteName: "마음쉼표", AIProvider: AIProviderOpenAI}

	var records []db.SystemSetting
	if err := s.db.Where("key IN ?", settingKeys).Find(&records).Error; err != nil {
		return result, fmt.Errorf("load system settings: %w", err)
	}

	for _, record := range records {
		switch record.Key {
		case db.SettingKeySiteName:
			if strings.TrimSpace(record.Value) != "" {
				result.SiteName = record.Value
			}
		case db.SettingKeyAIProvider:
			if provider := normalizeAIProvider(record.Value); provider != "" {
				result.AIProvider = provider
			}
		case db.SettingKeyOpenAIAPIKey:
			result.OpenAIAPIKey = record.Value
		case db.SettingKeyDeepSeekAPIKey:
			result.DeepSeekAPIKey = record.Value
		case db.SettingKeyCoachSystemPrompt:
			result.CoachSystemPrompt = record.Value
		}
	}

	return result, nil
}

// UpdateSettings 는 시스템 설정을 저장한다. 서비스 이름이 비어 있으면 기본값으로 되돌린다.
func (s *SystemSettingService) UpdateSettings(input SystemSettingsInput) (SystemSettings, error) {
	provider := normalizeAIProvider(input.AIProvider)
	if provider == "" {
		provider = AIProviderOpenAI
	}

	sanitized := SystemSettings{
		SiteName:          strings.TrimSpace(input.SiteName),
		AIProvider:        provider,
		OpenAIAPIKey:      strings.TrimSpace(input.OpenAIAPIKey),
		DeepSeekAPIKey:    strings.TrimSpace(input.DeepSeekAPIKey),
		CoachSystemPrompt: strings.TrimSpace(input.CoachSystemPrompt),
	}

	if sanitized.SiteName == "" {
		sanitized.SiteName = "마음쉼표"
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := upsertSetting(tx, db.SettingKeySiteName, sanitized.SiteName); err != nil {
			return err
		}
		if err := upsertSetting(tx, db.SettingKeyAIProvider, sanitized.AIProvider); err != nil {
			return err
		}
		if err := upsertSetting(tx, db.SettingKeyOpenAIAPIKey, sanitized.OpenAIAPIKey); err != nil {
			return err
		}
		if err := upsertSetting(tx, db.SettingKeyDeepSeekAPIKey, sanitized.DeepSeekAPIKey); err != nil {
			return err
		}
		return upsertSetting(tx, db.SettingKeyCoachSystemPrompt, sanitized.CoachSystemPrompt)
	})
	if err != nil {
		return SystemSettings{}, fmt.Errorf("update system settings: %w", err)
	}

	return sanitized, nil
}

func upsertSetting(tx *gorm.DB, key, value string) error {
	setting := db.SystemSetting{Key: key, Value: value}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&setting).Error; err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}

func normalizeAIProvider(provider string) string {
	switch strings.TrimSpace(strings.ToLower(provider)) {
	case AIProviderOpenAI:
		return AIProviderOpenAI
	case AIProviderDeepSeek:
		return AIProviderDeepSeek
	default:
		return ""
	}
}

func defaultHTTPClient() httpDoer {
	return &http.Client{Timeout: 180 * time.Second}
}
