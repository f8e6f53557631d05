package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mindpause/internal/metrics"
	"github.com/mindpause/internal/service"
)

// GetDashboard 는 홈 화면에 필요한 지표를 한 번에 모아 돌려준다.
// 스트릭 카드, 토큰 카드, 오늘 기록 여부, 내 챌린지, 최근 배지가 포함된다.
func (a *API) GetDashboard(c *gin.Context) {
	user := a.currentUser(c)

	stats, err := a.emotions.Stats(user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "통계 계산에 실패했습니다")
		return
	}

	var todayLogged bool
	if _, err := a.emotions.TodayLog(user.ID); err == nil {
		todayLogged = true
	} else if !errors.Is(err, service.ErrEmotionLogNotFound) {
		respondError(c, http.StatusInternalServerError, "오늘 기록 조회에 실패했습니다")
		return
	}

	summary, err := a.tokens.Summary(user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "토큰 사용량 조회에 실패했습니다")
		return
	}

	progresses, err := a.challenges.MyChallenges(user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "내 챌린지 조회에 실패했습니다")
		return
	}

	badges, err := a.badges.List(user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "배지 조회에 실패했습니다")
		return
	}

	unread, err := a.notifications.UnreadCount(user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "알림 조회에 실패했습니다")
		return
	}

	earnedBadges := make([]gin.H, 0, len(badges))
	for _, badge := range badges {
		if !badge.Earned {
			continue
		}
		earnedBadges = append(earnedBadges, gin.H{
			"id":       badge.ID,
			"name":     badge.Name,
			"icon":     badge.Icon,
			"earnedAt": badge.EarnedAt,
		})
	}

	challengeItems := make([]gin.H, 0, len(progresses))
	for _, progress := range progresses {
		if progress.UserChallenge.IsCompleted {
			continue
		}
		challengeItems = append(challengeItems, progressToPayload(progress))
	}

	c.JSON(http.StatusOK, gin.H{
		"streak": gin.H{
			"current": stats.CurrentStreak,
			"longest": stats.LongestStreak,
			"message": stats.StreakMessage,
		},
		"todayLogged": todayLogged,
		"weekAverage": stats.WeekStats.Average,
		"tokens": gin.H{
			"tier":         summary.Tier,
			"tierName":     summary.TierName,
			"tierColor":    metrics.TierColor(summary.Tier),
			"usagePercent": summary.State.UsagePercent,
			"threshold":    string(summary.State.Threshold),
			"usageColor":   metrics.UsageColor(summary.State.Threshold),
		},
		"activeChallenges":   challengeItems,
		"earnedBadges":       earnedBadges,
		"unreadNotification": unread,
	})
}
