package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mindpause/internal/service"
)

type tierPayload struct {
	Tier string `json:"tier"`
}

type bonusPayload struct {
	Amount int `json:"amount"`
}

type rejectPayload struct {
	Reason string `json:"reason"`
}

type announcePayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type systemSettingsPayload struct {
	SiteName          string `json:"siteName"`
	AIProvider        string `json:"aiProvider"`
	OpenAIAPIKey      string `json:"openaiApiKey"`
	DeepSeekAPIKey    string `json:"deepseekApiKey"`
	CoachSystemPrompt string `json:"coachSystemPrompt"`
}

// AdminListUsers 는 사용자 목록을 페이지 조회한다.
func (a *API) AdminListUsers(c *gin.Context) {
	page := parseIntQuery(c, "page", 1)
	pageSize := parseIntQuery(c, "pageSize", 20)

	users, total, err := a.users.ListUsers(page, pageSize)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "사용자 조회에 실패했습니다")
		return
	}

	items := make([]gin.H, 0, len(users))
	for i := range users {
		items = append(items, userToPayload(&users[i]))
	}
	c.JSON(http.StatusOK, gin.H{"users": items, "total": total, "page": page})
}

// AdminSetUserTier 는 사용자 티어를 변경한다.
func (a *API) AdminSetUserTier(c *gin.Context) {
	userID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload tierPayload
	if !bindJSON(c, &payload, "요청 형식이 올바르지 않습니다") {
		return
	}

	if err := a.users.SetTier(userID, strings.ToUpper(strings.TrimSpace(payload.Tier))); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "사용자를 찾을 수 없습니다")
			return
		}
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "티어가 변경되었습니다"})
}

// AdminAddBonusTokens 는 사용자에게 보너스 토큰을 지급한다.
func (a *API) AdminAddBonusTokens(c *gin.Context) {
	userID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload bonusPayload
	if !bindJSON(c, &payload, "요청 형식이 올바르지 않습니다") {
		return
	}

	if err := a.tokens.AddBonusTokens(userID, payload.Amount); err != nil {
		respondError(c, http.StatusBadRequest, "보너스 토큰 지급에 실패했습니다")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "보너스 토큰이 지급되었습니다"})
}

// AdminListPendingChallenges 는 승인 대기 챌린지를 돌려준다.
func (a *API) AdminListPendingChallenges(c *gin.Context) {
	challenges, err := a.challenges.ListPending()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "대기 챌린지 조회에 실패했습니다")
		return
	}

	items := make([]gin.H, 0, len(challenges))
	for _, challenge := range challenges {
		payload := challengeToPayload(challenge)
		payload["createdBy"] = challenge.CreatedBy
		items = append(items, payload)
	}
	c.JSON(http.StatusOK, gin.H{"challenges": items})
}

// AdminApproveChallenge 는 챌린지를 승인한다.
func (a *API) AdminApproveChallenge(c *gin.Context) {
	challengeID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.challenges.Approve(challengeID); err != nil {
		if errors.Is(err, service.ErrChallengeNotFound) {
			respondError(c, http.StatusNotFound, "대기 중인 챌린지를 찾을 수 없습니다")
			return
		}
		respondError(c, http.StatusInternalServerError, "챌린지 승인에 실패했습니다")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "승인되었습니다"})
}

// AdminRejectChallenge 는 챌린지를 사유와 함께 반려한다.
func (a *API) AdminRejectChallenge(c *gin.Context) {
	challengeID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload rejectPayload
	if !bindJSON(c, &payload, "요청 형식이 올바르지 않습니다") {
		return
	}

	if err := a.challenges.Reject(challengeID, strings.TrimSpace(payload.Reason)); err != nil {
		if errors.Is(err, service.ErrChallengeNotFound) {
			respondError(c, http.StatusNotFound, "대기 중인 챌린지를 찾을 수 없습니다")
			return
		}
		respondError(c, http.StatusInternalServerError, "챌린지 반려에 실패했습니다")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "반려되었습니다"})
}

// AdminAnnounce 는 전체 공지 알림을 발행한다.
func (a *API) AdminAnnounce(c *gin.Context) {
	var payload announcePayload
	if !bindJSON(c, &payload, "요청 형식이 올바르지 않습니다") {
		return
	}

	title := strings.TrimSpace(payload.Title)
	if title == "" {
		respondError(c, http.StatusBadRequest, "공지 제목을 입력해주세요")
		return
	}

	if err := a.notifications.Announce(title, strings.TrimSpace(payload.Body)); err != nil {
		respondError(c, http.StatusInternalServerError, "공지 발행에 실패했습니다")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "공지가 발행되었습니다"})
}

// AdminGetSystemSettings 는 시스템 설정을 돌려준다. API Key 는 마스킹한다.
func (a *API) AdminGetSystemSettings(c *gin.Context) {
	settings, err := a.system.GetSettings()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "설정 조회에 실패했습니다")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"siteName":          settings.SiteName,
		"aiProvider":        settings.AIProvider,
		"openaiApiKeySet":   settings.OpenAIAPIKey != "",
		"deepseekApiKeySet": settings.DeepSeekAPIKey != "",
		"coachSystemPrompt": settings.CoachSystemPrompt,
	})
}

// AdminUpdateSystemSettings 는 시스템 설정을 저장한다.
func (a *API) AdminUpdateSystemSettings(c *gin.Context) {
	var payload systemSettingsPayload
	if !bindJSON(c, &payload, "요청 형식이 올바르지 않습니다") {
		return
	}

	// 빈 키는 "변경 없음"으로 취급해 기존 값을 유지한다.
	current, err := a.system.GetSettings()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "설정 조회에 실패했습니다")
		return
	}
	if strings.TrimSpace(payload.OpenAIAPIKey) == "" {
		payload.OpenAIAPIKey = current.OpenAIAPIKey
	}
	if strings.TrimSpace(payload.DeepSeekAPIKey) == "" {
		payload.DeepSeekAPIKey = current.DeepSeekAPIKey
	}

	updated, err := a.system.UpdateSettings(service.SystemSettingsInput{
		SiteName:          payload.SiteName,
		AIProvider:        payload.AIProvider,
		OpenAIAPIKey:      payload.OpenAIAPIKey,
		DeepSeekAPIKey:    payload.DeepSeekAPIKey,
		CoachSystemPrompt: payload.CoachSystemPrompt,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "설정 저장에 실패했습니다")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"siteName":   updated.SiteName,
		"aiProvider": updated.AIProvider,
	})
}
