package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mindpause/internal/db"
	"gorm.io/gorm"
)

// ErrConversationNotFound 는 대화가 없거나 접근 불가할 때 반환된다.
var ErrConversationNotFound = errors.New("conversation not found")

// defaultCoachPrompt 는 관리자가 프롬프트를 설정하지 않았을 때 쓰는
// AI 코치 기본 시스템 프롬프트다.
const defaultCoachPrompt = `당신은 '마음쉼표'의 따뜻한 마음 코치입니다.
사용자의 감정을 판단하지 않고 공감하며, 짧고 부드러운 한국어로 답합니다.
의학적 진단이나 처방은 하지 않고, 위기 신호가 보이면 전문가 상담을 권합니다.`

// 대화 한 건에 전달하는 최근 메시지 수와 응답 토큰 상한.
const (
	chatHistoryLimit  = 20
	chatMaxTokens     = 800
	chatTemperature   = 0.7
	estimatedCallCost = 1000
)

// ChatService 는 AI 코치 대화를 담당한다. 호출 전 토큰 할당량을
// 검사하고 호출 후 사용량을 적재한다.
type ChatService struct {
	db       *gorm.DB
	settings *SystemSettingService
	tokens   *TokenService
	client   *aiChatClient
}

// ChatReply 는 한 번의 발화 처리 결과다.
type ChatReply struct {
	Conversation db.Conversation
	UserMessage  db.Message
	Assistant    db.Message
}

// NewChatService 는 ChatService 를 생성한다.
func NewChatService(gdb *gorm.DB, settings *SystemSettingService, tokens *TokenService) *ChatService {
	return &ChatService{
		db:       gdb,
		settings: settings,
		tokens:   tokens,
		client:   newAIChatClient("gpt-4o-mini", "deepseek-chat"),
	}
}

// SetHTTPClient 는 테스트에서 HTTP 클라이언트 주입을 허용한다.
func (s *ChatService) SetHTTPClient(client httpDoer) {
	s.client.SetHTTPClient(client)
}

// SetOpenAIBaseURL 은 테스트용 엔드포인트 교체를 허용한다.
func (s *ChatService) SetOpenAIBaseURL(base string) {
	s.client.SetOpenAIBaseURL(base)
}

// SetDeepSeekBaseURL 은 테스트용 엔드포인트 교체를 허용한다.
func (s *ChatService) SetDeepSeekBaseURL(base string) {
	s.client.SetDeepSeekBaseURL(base)
}

// ListConversations 는 사용자의 대화 목록을 최신순으로 돌려준다.
func (s *ChatService) ListConversations(userID uint) ([]db.Conversation, error) {
	var conversations []db.Conversation
	if err := s.db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&conversations).Error; err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return conversations, nil
}

// GetConversation 은 본인 소유 대화와 메시지를 돌려준다.
func (s *ChatService) GetConversation(userID, conversationID uint) (*db.Conversation, []db.Message, error) {
	var conversation db.Conversation
	if err := s.db.Where("id = ? AND user_id = ?", conversationID, userID).
		First(&conversation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrConversationNotFound
		}
		return nil, nil, fmt.Errorf("find conversation: %w", err)
	}

	var messages []db.Message
	if err := s.db.Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return nil, nil, fmt.Errorf("list messages: %w", err)
	}
	return &conversation, messages, nil
}

// DeleteConversation 은 본인 소유 대화와 메시지를 삭제한다.
func (s *ChatService) DeleteConversation(userID, conversationID uint) error {
	var conversation db.Conversation
	if err := s.db.Where("id = ? AND user_id = ?", conversationID, userID).
		First(&conversation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConversationNotFound
		}
		return fmt.Errorf("find conversation: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", conversationID).Delete(&db.Message{}).Error; err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		return tx.Delete(&conversation).Error
	})
}

// systemPrompt 는 관리자 설정 프롬프트가 있으면 그것을, 없으면 기본
// 코치 프롬프트를 돌려준다.
func systemPrompt(settings SystemSettings) string {
	if prompt := strings.TrimSpace(settings.CoachSystemPrompt); prompt != "" {
		return prompt
	}
	return defaultCoachPrompt
}

// SendMessage 는 사용자 발화를 저장하고 AI 코치 응답을 받아 기록한다.
// conversationID 가 0 이면 새 대화를 연다. 호출 전 할당량을 검사하며
// 초과 시 ErrQuotaExceeded 로 포장된 오류를 돌려준다.
func (s *ChatService) SendMessage(ctx context.Context, userID, conversationID uint, content string) (*ChatReply, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("메시지를 입력해주세요")
	}

	if err := s.tokens.CheckQuota(userID, estimatedCallCost); err != nil {
		return nil, err
	}

	settings, err := s.settings.GetSettings()
	if err != nil {
		return nil, err
	}

	var conversation db.Conversation
	if conversationID == 0 {
		conversation = db.Conversation{UserID: userID, Title: conversationTitle(content)}
		if err := s.db.Create(&conversation).Error; err != nil {
			return nil, fmt.Errorf("create conversation: %w", err)
		}
	} else {
		if err := s.db.Where("id = ? AND user_id = ?", conversationID, userID).
			First(&conversation).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrConversationNotFound
			}
			return nil, fmt.Errorf("find conversation: %w", err)
		}
	}

	var recent []db.Message
	if err := s.db.Where("conversation_id = ?", conversation.ID).
		Order("created_at DESC").
		Limit(chatHistoryLimit).
		Find(&recent).Error; err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	history := make([]chatMessage, 0, len(recent)+1)
	for i := len(recent) - 1; i >= 0; i-- {
		history = append(history, chatMessage{Role: recent[i].Role, Content: recent[i].Content})
	}
	history = append(history, chatMessage{Role: db.MessageRoleUser, Content: content})

	reply, err := s.client.callWithSettings(ctx, settings, aiChatRequest{
		SystemPrompt: systemPrompt(settings),
		History:      history,
		MaxTokens:    chatMaxTokens,
		Temperature:  chatTemperature,
	})
	if err != nil {
		return nil, err
	}

	userMessage := db.Message{
		ConversationID: conversation.ID,
		Role:           db.MessageRoleUser,
		Content:        content,
		InputTokens:    reply.PromptTokens,
	}
	assistantMessage := db.Message{
		ConversationID: conversation.ID,
		Role:           db.MessageRoleAssistant,
		Content:        reply.Content,
		OutputTokens:   reply.CompletionTokens,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&userMessage).Error; err != nil {
			return fmt.Errorf("save user message: %w", err)
		}
		if err := tx.Create(&assistantMessage).Error; err != nil {
			return fmt.Errorf("save assistant message: %w", err)
		}
		return tx.Model(&conversation).Update("updated_at", time.Now()).Error
	})
	if err != nil {
		return nil, err
	}

	conversationID = conversation.ID
	if _, err := s.tokens.RecordUsage(UsageRecordInput{
		UserID:         userID,
		ConversationID: &conversationID,
		InputTokens:    reply.PromptTokens,
		OutputTokens:   reply.CompletionTokens,
		ModelName:      providerModelLabel(settings),
		Purpose:        "chat",
	}); err != nil {
		return nil, err
	}

	return &ChatReply{
		Conversation: conversation,
		UserMessage:  userMessage,
		Assistant:    assistantMessage,
	}, nil
}

// EmotionFeedback 은 감정 기록 한 건에 대한 짧은 코치 피드백을 생성한다.
// API Key 미설정 등 호출 불가 상황이면 빈 문자열과 원인 오류를 돌려주고,
// 호출자는 피드백 없이 기록만 남길 수 있다.
func (s *ChatService) EmotionFeedback(ctx context.Context, userID uint, log db.EmotionLog) (string, error) {
	if err := s.tokens.CheckQuota(userID, estimatedCallCost); err != nil {
		return "", err
	}

	settings, err := s.settings.GetSettings()
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(
		"오늘의 감정: %s %s (점수 %d). 메모: %s\n이 기록에 두세 문장의 따뜻한 피드백을 주세요.",
		log.EmotionLabel, log.EmotionEmoji, log.EmotionValue, log.Note,
	)

	reply, err := s.client.callWithSettings(ctx, settings, aiChatRequest{
		SystemPrompt: systemPrompt(settings),
		History:      []chatMessage{{Role: db.MessageRoleUser, Content: prompt}},
		MaxTokens:    300,
		Temperature:  chatTemperature,
	})
	if err != nil {
		return "", err
	}

	if _, err := s.tokens.RecordUsage(UsageRecordInput{
		UserID:       userID,
		InputTokens:  reply.PromptTokens,
		OutputTokens: reply.CompletionTokens,
		ModelName:    providerModelLabel(settings),
		Purpose:      "emotion_feedback",
	}); err != nil {
		return "", err
	}

	return reply.Content, nil
}

// conversationTitle 은 첫 발화에서 대화 제목을 만든다.
func conversationTitle(content string) string {
	runes := []rune(content)
	if len(runes) > 30 {
		return string(runes[:30]) + "…"
	}
	return content
}

func providerModelLabel(settings SystemSettings) string {
	if normalizeAIProvider(settings.AIProvider) == AIProviderDeepSeek {
		return "deepseek-chat"
	}
	return "gpt-4o-mini"
}
