package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mindpause/internal/db"
	"github.com/mindpause/internal/service"
)

const dateFormat = "2006-01-02"

type emotionLogPayload struct {
	LogDate      string `json:"logDate"`
	EmotionValue int    `json:"emotionValue"`
	EmotionLabel string `json:"emotionLabel"`
	EmotionEmoji string `json:"emotionEmoji"`
	Note         string `json:"note"`
}

func emotionLogToPayload(log db.EmotionLog) gin.H {
	return gin.H{
		"id":           log.ID,
		"logDate":      log.LogDate.Format(dateFormat),
		"emotionValue": log.EmotionValue,
		"emotionLabel": log.EmotionLabel,
		"emotionEmoji": log.EmotionEmoji,
		"note":         log.Note,
		"aiFeedback":   log.AIFeedback,
		"createdAt":    log.CreatedAt,
	}
}

// CreateEmotionLog 는 오늘의 감정을 기록한다. 기록 성공 시 streak 챌린지
// 자동 체크인과 배지 재평가가 이어지고, 가능하면 AI 피드백도 생성한다.
// AI 호출 실패는 기록 자체를 막지 않는다.
func (a *API) CreateEmotionLog(c *gin.Context) {
	user := a.currentUser(c)

	var payload emotionLogPayload
	if !bindJSON(c, &payload, "요청 형식이 올바르지 않습니다") {
		return
	}

	input := service.EmotionLogInput{
		UserID:       user.ID,
		EmotionValue: payload.EmotionValue,
		EmotionLabel: payload.EmotionLabel,
		EmotionEmoji: payload.EmotionEmoji,
		Note:         payload.Note,
	}
	if payload.LogDate != "" {
		logDate, err := time.Parse(dateFormat, payload.LogDate)
		if err != nil {
			respondError(c, http.StatusBadRequest, "날짜 형식은 YYYY-MM-DD 입니다")
			return
		}
		input.LogDate = logDate
	}

	log, err := a.emotions.CreateLog(input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmotionLogExists):
			respondError(c, http.StatusConflict, "오늘은 이미 감정을 기록했어요")
		case errors.Is(err, service.ErrEmotionValueRange):
			respondError(c, http.StatusBadRequest, "감정 점수는 -5 ~ +5 사이여야 합니다")
		default:
			respondError(c, http.StatusInternalServerError, "감정 기록에 실패했습니다")
		}
		return
	}

	if feedback, err := a.chat.EmotionFeedback(c.Request.Context(), user.ID, *log); err == nil && feedback != "" {
		if err := a.emotions.SetAIFeedback(log.ID, feedback); err == nil {
			log.AIFeedback = feedback
		}
	}

	completed, err := a.challenges.AutoCheckinStreaks(user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "챌린지 체크인에 실패했습니다")
		return
	}

	newBadges, err := a.badges.Evaluate(user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "배지 평가에 실패했습니다")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"log":                 emotionLogToPayload(*log),
		"completedChallenges": len(completed),
		"newBadges":           newBadges,
	})
}

// GetTodayEmotionLog 는 오늘 기록 여부를 돌려준다.
func (a *API) GetTodayEmotionLog(c *gin.Context) {
	user := a.currentUser(c)

	log, err := a.emotions.TodayLog(user.ID)
	if err != nil {
		if errors.Is(err, service.ErrEmotionLogNotFound) {
			c.JSON(http.StatusOK, gin.H{"log": nil})
			return
		}
		respondError(c, http.StatusInternalServerError, "오늘 기록 조회에 실패했습니다")
		return
	}

	c.JSON(http.StatusOK, gin.H{"log": emotionLogToPayload(*log)})
}

// ListEmotionLogs 는 기간 또는 최근 기록을 조회한다.
func (a *API) ListEmotionLogs(c *gin.Context) {
	user := a.currentUser(c)

	startRaw := c.Query("start")
	endRaw := c.Query("end")

	var (
		logs []db.EmotionLog
		err  error
	)
	if startRaw != "" && endRaw != "" {
		start, parseErr := time.Parse(dateFormat, startRaw)
		if parseErr != nil {
			respondError(c, http.StatusBadRequest, "날짜 형식은 YYYY-MM-DD 입니다")
			return
		}
		end, parseErr := time.Parse(dateFormat, endRaw)
		if parseErr != nil {
			respondError(c, http.StatusBadRequest, "날짜 형식은 YYYY-MM-DD 입니다")
			return
		}
		logs, err = a.emotions.ListRange(user.ID, start, end.AddDate(0, 0, 1))
	} else {
		logs, err = a.emotions.ListRecent(user.ID, parseIntQuery(c, "limit", 30))
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, "감정 기록 조회에 실패했습니다")
		return
	}

	items := make([]gin.H, 0, len(logs))
	for _, log := range logs {
		items = append(items, emotionLogToPayload(log))
	}
	c.JSON(http.StatusOK, gin.H{"logs": items})
}

// GetEmotionStats 는 스트릭과 기간 평균 지표를 돌려준다.
func (a *API) GetEmotionStats(c *gin.Context) {
	user := a.currentUser(c)

	stats, err := a.emotions.Stats(user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "통계 계산에 실패했습니다")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"currentStreak": stats.CurrentStreak,
		"longestStreak": stats.LongestStreak,
		"totalLogs":     stats.TotalLogs,
		"streakMessage": stats.StreakMessage,
		"week": gin.H{
			"average":     stats.WeekStats.Average,
			"recordCount": stats.WeekStats.RecordCount,
		},
		"month": gin.H{
			"average":     stats.MonthStats.Average,
			"recordCount": stats.MonthStats.RecordCount,
		},
	})
}

// GetEmotionChart 는 감정 추이 차트 데이터를 돌려준다.
func (a *API) GetEmotionChart(c *gin.Context) {
	user := a.currentUser(c)

	points, err := a.emotions.Chart(user.ID, parseIntQuery(c, "days", 30))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "차트 데이터 조회에 실패했습니다")
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": points})
}

// DeleteEmotionLog 는 본인 감정 기록을 삭제한다.
func (a *API) DeleteEmotionLog(c *gin.Context) {
	user := a.currentUser(c)

	logID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.emotions.DeleteLog(user.ID, logID); err != nil {
		if errors.Is(err, service.ErrEmotionLogNotFound) {
			respondError(c, http.StatusNotFound, "감정 기록을 찾을 수 없습니다")
			return
		}
		respondError(c, http.StatusInternalServerError, "감정 기록 삭제에 실패했습니다")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "삭제되었습니다"})
}
