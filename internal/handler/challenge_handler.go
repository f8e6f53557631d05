package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mindpause/internal/db"
	"github.com/mindpause/internal/service"
)

type challengeCreatePayload struct {
	TemplateID   *uint  `json:"templateId"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Type         string `json:"type"`
	DurationDays int    `json:"durationDays"`
	TargetCount  int    `json:"targetCount"`
	Icon         string `json:"icon"`
}

type checkinPayload struct {
	Note string `json:"note"`
}

func challengeToPayload(challenge db.Challenge) gin.H {
	return gin.H{
		"id":           challenge.ID,
		"title":        challenge.Title,
		"description":  challenge.Description,
		"type":         challenge.ChallengeType,
		"durationDays": challenge.DurationDays,
		"targetCount":  challenge.TargetCount,
		"icon":         challenge.Icon,
		"rewardBadge":  challenge.RewardBadge,
		"status":       challenge.Status,
		"startDate":    challenge.StartDate.Format(dateFormat),
		"endDate":      challenge.EndDate.Format(dateFormat),
	}
}

func progressToPayload(progress service.ChallengeProgress) gin.H {
	payload := gin.H{
		"challenge":       challengeToPayload(progress.Challenge),
		"currentStreak":   progress.UserChallenge.CurrentStreak,
		"bestStreak":      progress.UserChallenge.BestStreak,
		"completedCount":  progress.UserChallenge.CompletedCount,
		"isCompleted":     progress.UserChallenge.IsCompleted,
		"progressPercent": progress.ProgressPercent,
		"progressColor":   progress.ProgressColor,
		"checkedInToday":  progress.CheckedInToday,
		"joinedAt":        progress.UserChallenge.JoinedAt,
	}
	if progress.UserChallenge.CompletedAt != nil {
		payload["completedAt"] = progress.UserChallenge.CompletedAt
	}
	return payload
}

// ListChallengeTemplates 는 챌린지 템플릿 카탈로그를 돌려준다.
func (a *API) ListChallengeTemplates(c *gin.Context) {
	templates, err := a.challenges.ListTemplates()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "템플릿 조회에 실패했습니다")
		return
	}

	items := make([]gin.H, 0, len(templates))
	for _, template := range templates {
		items = append(items, gin.H{
			"id":                  template.ID,
			"title":               template.Title,
			"description":         template.Description,
			"type":                template.ChallengeType,
			"defaultDurationDays": template.DefaultDurationDays,
			"defaultTargetCount":  template.DefaultTargetCount,
			"icon":                template.Icon,
		})
	}
	c.JSON(http.StatusOK, gin.H{"templates": items})
}

// ListChallenges 는 승인된 챌린지 목록을 돌려준다.
func (a *API) ListChallenges(c *gin.Context) {
	challenges, err := a.challenges.ListApproved()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "챌린지 조회에 실패했습니다")
		return
	}

	items := make([]gin.H, 0, len(challenges))
	for _, challenge := range challenges {
		items = append(items, challengeToPayload(challenge))
	}
	c.JSON(http.StatusOK, gin.H{"challenges": items})
}

// CreateChallenge 는 챌린지를 제안한다. 관리자면 즉시 승인된다.
func (a *API) CreateChallenge(c *gin.Context) {
	user := a.currentUser(c)

	var payload challengeCreatePayload
	if !bindJSON(c, &payload, "요청 형식이 올바르지 않습니다") {
		return
	}

	challenge, err := a.challenges.CreateChallenge(service.ChallengeCreateInput{
		UserID:       user.ID,
		TemplateID:   payload.TemplateID,
		Title:        payload.Title,
		Description:  payload.Description,
		Type:         payload.Type,
		DurationDays: payload.DurationDays,
		TargetCount:  payload.TargetCount,
		Icon:         payload.Icon,
	}, user.IsAdmin)
	if err != nil {
		if errors.Is(err, service.ErrChallengeNotFound) {
			respondError(c, http.StatusNotFound, "템플릿을 찾을 수 없습니다")
			return
		}
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{"challenge": challengeToPayload(*challenge)})
}

// JoinChallenge 는 챌린지에 참여한다.
func (a *API) JoinChallenge(c *gin.Context) {
	user := a.currentUser(c)

	challengeID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := a.challenges.Join(user.ID, challengeID); err != nil {
		switch {
		case errors.Is(err, service.ErrChallengeNotFound):
			respondError(c, http.StatusNotFound, "챌린지를 찾을 수 없습니다")
		case errors.Is(err, service.ErrAlreadyJoined):
			respondError(c, http.StatusConflict, "이미 참여 중인 챌린지입니다")
		default:
			respondError(c, http.StatusInternalServerError, "챌린지 참여에 실패했습니다")
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "챌린지에 참여했어요"})
}

// CheckInChallenge 는 오늘의 수동 체크인을 기록한다.
func (a *API) CheckInChallenge(c *gin.Context) {
	user := a.currentUser(c)

	challengeID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload checkinPayload
	if c.Request.ContentLength > 0 && !bindJSON(c, &payload, "요청 형식이 올바르지 않습니다") {
		return
	}

	participation, err := a.challenges.CheckIn(user.ID, challengeID, service.CheckinSourceManual, payload.Note)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotJoined):
			respondError(c, http.StatusNotFound, "참여 중인 챌린지가 아닙니다")
		case errors.Is(err, service.ErrAlreadyCheckedIn):
			respondError(c, http.StatusConflict, "오늘은 이미 체크인했어요")
		case errors.Is(err, service.ErrChallengeFinished):
			respondError(c, http.StatusConflict, "이미 끝난 챌린지입니다")
		default:
			respondError(c, http.StatusInternalServerError, "체크인에 실패했습니다")
		}
		return
	}

	newBadges, err := a.badges.Evaluate(user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "배지 평가에 실패했습니다")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"currentStreak":  participation.CurrentStreak,
		"bestStreak":     participation.BestStreak,
		"completedCount": participation.CompletedCount,
		"isCompleted":    participation.IsCompleted,
		"newBadges":      newBadges,
	})
}

// GiveUpChallenge 는 챌린지를 포기 처리한다.
func (a *API) GiveUpChallenge(c *gin.Context) {
	user := a.currentUser(c)

	challengeID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.challenges.GiveUp(user.ID, challengeID); err != nil {
		switch {
		case errors.Is(err, service.ErrNotJoined):
			respondError(c, http.StatusNotFound, "참여 중인 챌린지가 아닙니다")
		case errors.Is(err, service.ErrChallengeFinished):
			respondError(c, http.StatusConflict, "이미 끝난 챌린지입니다")
		default:
			respondError(c, http.StatusInternalServerError, "포기 처리에 실패했습니다")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "챌린지를 포기했어요"})
}

// ListMyChallenges 는 내 챌린지 진행 현황을 돌려준다.
func (a *API) ListMyChallenges(c *gin.Context) {
	user := a.currentUser(c)

	progresses, err := a.challenges.MyChallenges(user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "내 챌린지 조회에 실패했습니다")
		return
	}

	items := make([]gin.H, 0, len(progresses))
	for _, progress := range progresses {
		items = append(items, progressToPayload(progress))
	}
	c.JSON(http.StatusOK, gin.H{"challenges": items})
}
