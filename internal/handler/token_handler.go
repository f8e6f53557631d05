package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mindpause/internal/metrics"
)

// GetTokenSummary 는 대시보드 토큰 카드용 할당량 상태를 돌려준다.
func (a *API) GetTokenSummary(c *gin.Context) {
	user := a.currentUser(c)

	summary, err := a.tokens.Summary(user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "토큰 사용량 조회에 실패했습니다")
		return
	}

	state := summary.State
	c.JSON(http.StatusOK, gin.H{
		"tier":             summary.Tier,
		"tierName":         summary.TierName,
		"tierColor":        metrics.TierColor(summary.Tier),
		"usagePercent":     state.UsagePercent,
		"threshold":        string(state.Threshold),
		"usageColor":       metrics.UsageColor(state.Threshold),
		"monthlyLimit":     summary.Plan.MonthlyTokenLimit,
		"monthlyUsed":      summary.Quota.CurrentMonthUsed,
		"monthlyRemaining": state.MonthlyRemaining,
		"dailyLimit":       summary.Plan.DailyTokenLimit,
		"dailyUsed":        summary.Quota.CurrentDayUsed,
		"dailyRemaining":   state.DailyRemaining,
		"bonusTokens":      summary.Quota.BonusTokens,
		"nextResetAt":      state.NextResetAt,
		"daysUntilReset":   state.DaysUntilReset,
		"resetOverdue":     state.ResetOverdue,
	})
}

// ListTokenHistory 는 토큰 사용 내역을 페이지 조회한다.
func (a *API) ListTokenHistory(c *gin.Context) {
	user := a.currentUser(c)

	page := parseIntQuery(c, "page", 1)
	pageSize := parseIntQuery(c, "pageSize", 20)

	items, total, err := a.tokens.History(user.ID, page, pageSize)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "사용 내역 조회에 실패했습니다")
		return
	}

	rows := make([]gin.H, 0, len(items))
	for _, item := range items {
		rows = append(rows, gin.H{
			"id":           item.ID,
			"inputTokens":  item.InputTokens,
			"outputTokens": item.OutputTokens,
			"totalTokens":  item.TotalTokens,
			"modelName":    item.ModelName,
			"purpose":      item.Purpose,
			"createdAt":    item.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"items": rows,
		"total": total,
		"page":  page,
	})
}

// GetTokenDailyBreakdown 은 일별 사용량 집계를 돌려준다.
func (a *API) GetTokenDailyBreakdown(c *gin.Context) {
	user := a.currentUser(c)

	rows, err := a.tokens.DailyBreakdown(user.ID, parseIntQuery(c, "days", 30))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "일별 집계 조회에 실패했습니다")
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": rows})
}
