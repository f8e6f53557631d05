package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mindpause/internal/db"
	"github.com/mindpause/internal/service"
)

type chatMessagePayload struct {
	ConversationID uint   `json:"conversationId"`
	Content        string `json:"content"`
}

func messageToPayload(message db.Message) gin.H {
	return gin.H{
		"id":        message.ID,
		"role":      message.Role,
		"content":   message.Content,
		"createdAt": message.CreatedAt,
	}
}

// ListConversations 는 대화 목록을 돌려준다.
func (a *API) ListConversations(c *gin.Context) {
	user := a.currentUser(c)

	conversations, err := a.chat.ListConversations(user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "대화 목록 조회에 실패했습니다")
		return
	}

	items := make([]gin.H, 0, len(conversations))
	for _, conversation := range conversations {
		items = append(items, gin.H{
			"id":        conversation.ID,
			"title":     conversation.Title,
			"updatedAt": conversation.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"conversations": items})
}

// GetConversation 은 대화와 메시지 목록을 돌려준다.
func (a *API) GetConversation(c *gin.Context) {
	user := a.currentUser(c)

	conversationID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	conversation, messages, err := a.chat.GetConversation(user.ID, conversationID)
	if err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			respondError(c, http.StatusNotFound, "대화를 찾을 수 없습니다")
			return
		}
		respondError(c, http.StatusInternalServerError, "대화 조회에 실패했습니다")
		return
	}

	items := make([]gin.H, 0, len(messages))
	for _, message := range messages {
		items = append(items, messageToPayload(message))
	}
	c.JSON(http.StatusOK, gin.H{
		"conversation": gin.H{"id": conversation.ID, "title": conversation.Title},
		"messages":     items,
	})
}

// SendChatMessage 는 코치에게 메시지를 보내고 응답을 돌려준다.
// conversationId 가 0 이면 새 대화를 연다.
func (a *API) SendChatMessage(c *gin.Context) {
	user := a.currentUser(c)

	var payload chatMessagePayload
	if !bindJSON(c, &payload, "요청 형식이 올바르지 않습니다") {
		return
	}

	reply, err := a.chat.SendMessage(c.Request.Context(), user.ID, payload.ConversationID, payload.Content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuotaExceeded):
			respondError(c, http.StatusTooManyRequests, err.Error())
		case errors.Is(err, service.ErrConversationNotFound):
			respondError(c, http.StatusNotFound, "대화를 찾을 수 없습니다")
		case errors.Is(err, service.ErrAIAPIKeyMissing):
			respondError(c, http.StatusServiceUnavailable, "AI 설정이 완료되지 않았습니다")
		default:
			respondError(c, http.StatusBadGateway, "코치 응답 생성에 실패했습니다")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversationId": reply.Conversation.ID,
		"userMessage":    messageToPayload(reply.UserMessage),
		"assistant":      messageToPayload(reply.Assistant),
	})
}

// DeleteConversation 은 대화를 삭제한다.
func (a *API) DeleteConversation(c *gin.Context) {
	user := a.currentUser(c)

	conversationID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.chat.DeleteConversation(user.ID, conversationID); err != nil {
		if errors.Is(err, service.ErrConversationNotFound) {
			respondError(c, http.StatusNotFound, "대화를 찾을 수 없습니다")
			return
		}
		respondError(c, http.StatusInternalServerError, "대화 삭제에 실패했습니다")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "삭제되었습니다"})
}
