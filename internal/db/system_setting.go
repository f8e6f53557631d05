package db

import "gorm.io/gorm"

// SystemSetting 은 관리자 화면에서 수정 가능한 시스템 키-값 설정이다.
type SystemSetting struct {
	gorm.Model
	Key   string `gorm:"size:100;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// TableName 은 명명 일관성을 위해 테이블명을 고정한다.
func (SystemSetting) TableName() string {
	return "system_settings"
}

const (
	// SettingKeySiteName 은 서비스 이름.
	SettingKeySiteName = "site_name"
	// SettingKeyAIProvider 는 사용할 AI 플랫폼(openai/deepseek).
	SettingKeyAIProvider = "ai_provider"
	// SettingKeyOpenAIAPIKey 는 OpenAI API Key.
	SettingKeyOpenAIAPIKey = "openai_api_key"
	// SettingKeyDeepSeekAPIKey 는 DeepSeek API Key.
	SettingKeyDeepSeekAPIKey = "deepseek_api_key"
	// SettingKeyCoachSystemPrompt 는 AI 코치 시스템 프롬프트 커스터마이징.
	SettingKeyCoachSystemPrompt = "coach_system_prompt"
)
