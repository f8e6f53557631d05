package metrics

import (
	"fmt"
	"math"
	"time"
)

// QuotaThreshold 는 월간 사용률에 따른 경고 단계를 나타낸다.
type QuotaThreshold string

const (
	// ThresholdNormal 은 사용률 80% 미만.
	ThresholdNormal QuotaThreshold = "normal"
	// ThresholdLow 는 사용률 80% 이상 95% 미만.
	ThresholdLow QuotaThreshold = "low"
	// ThresholdCritical 은 사용률 95% 이상.
	ThresholdCritical QuotaThreshold = "critical"
)

// QuotaInput 은 평가에 필요한 할당량 스냅샷이다.
// 값의 갱신·리셋은 외부(서비스 계층)의 책임이며 여기서는 읽기만 한다.
type QuotaInput struct {
	MonthlyLimit int
	MonthlyUsed  int
	DailyLimit   int
	DailyUsed    int
	BonusTokens  int
	LastResetAt  time.Time
}

// QuotaState 는 화면 표시용으로 가공한 할당량 상태다.
//
// UsagePercent 는 보너스 토큰을 제외한 월 한도 기준으로 계산한다.
// 보너스가 남아 있어도 게이지가 비어 보이지 않게 하려는 제품 결정이므로
// MonthlyRemaining(보너스 포함)과 기준이 다른 것이 맞다.
type QuotaState struct {
	UsagePercent     float64
	Threshold        QuotaThreshold
	MonthlyRemaining int
	DailyRemaining   int
	NextResetAt      time.Time
	DaysUntilReset   int
	ResetOverdue     bool
}

// UsageDecision 은 사용 요청 허용 여부를 담는다.
// 월간·일간 한도는 서로 독립적으로 검사되며 둘 다 통과해야 허용된다.
type UsageDecision struct {
	Allowed   bool
	MonthlyOK bool
	DailyOK   bool
}

// EvaluateQuota 는 할당량 스냅샷을 표시용 상태로 변환한다.
// 리셋 기한이 지났어도 실패하지 않고 DaysUntilReset 을 0 으로 고정한 채
// ResetOverdue 플래그만 세운다. 실제 리셋은 외부 잡의 몫이다.
func EvaluateQuota(in QuotaInput, now time.Time) (QuotaState, error) {
	if in.MonthlyLimit <= 0 {
		return QuotaState{}, fmt.Errorf("%w: monthly limit must be positive", ErrInvalidInput)
	}
	if in.MonthlyUsed < 0 || in.DailyUsed < 0 || in.BonusTokens < 0 {
		return QuotaState{}, fmt.Errorf("%w: negative usage", ErrInvalidInput)
	}

	percent := float64(in.MonthlyUsed) / float64(in.MonthlyLimit) * 100

	state := QuotaState{
		UsagePercent:     percent,
		Threshold:        ClassifyUsage(percent),
		MonthlyRemaining: maxInt(0, in.MonthlyLimit+in.BonusTokens-in.MonthlyUsed),
		DailyRemaining:   maxInt(0, in.DailyLimit-in.DailyUsed),
		NextResetAt:      in.LastResetAt.AddDate(0, 1, 0),
	}

	days := int(math.Ceil(state.NextResetAt.Sub(now).Hours() / 24))
	if days < 0 {
		days = 0
		state.ResetOverdue = true
	}
	state.DaysUntilReset = days

	return state, nil
}

// ClassifyUsage 는 사용률을 경고 단계로 분류한다.
// 경계값은 포함 관계가 정확해야 한다: 80.0 은 low, 95.0 은 critical.
func ClassifyUsage(percent float64) QuotaThreshold {
	switch {
	case percent >= 95:
		return ThresholdCritical
	case percent >= 80:
		return ThresholdLow
	default:
		return ThresholdNormal
	}
}

// CheckUsage 는 delta 만큼의 추가 사용이 가능한지 판정한다.
// 월간 한도에는 보너스 토큰이 합산되고, 일간 한도는 별도로 검사된다.
func CheckUsage(in QuotaInput, delta int) UsageDecision {
	if delta < 0 {
		delta = 0
	}

	decision := UsageDecision{
		MonthlyOK: in.MonthlyUsed+delta <= in.MonthlyLimit+in.BonusTokens,
		DailyOK:   in.DailyUsed+delta <= in.DailyLimit,
	}
	decision.Allowed = decision.MonthlyOK && decision.DailyOK

	return decision
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
