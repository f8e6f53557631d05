package metrics

import (
	"errors"
	"testing"
	"time"
)

func TestClassifyUsageBoundaries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		percent float64
		want    QuotaThreshold
	}{
		{0, ThresholdNormal},
		{79.999, ThresholdNormal},
		{80.0, ThresholdLow},
		{94.999, ThresholdLow},
		{95.0, ThresholdCritical},
		{120, ThresholdCritical},
	}

	for _, tc := range cases {
		if got := ClassifyUsage(tc.percent); got != tc.want {
			t.Fatalf("ClassifyUsage(%.3f) = %s, want %s", tc.percent, got, tc.want)
		}
	}
}

func TestEvaluateQuotaCritical(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	in := QuotaInput{
		MonthlyLimit: 10000,
		MonthlyUsed:  9600,
		DailyLimit:   2000,
		DailyUsed:    500,
		LastResetAt:  now.AddDate(0, 0, -10),
	}

	state, err := EvaluateQuota(in, now)
	if err != nil {
		t.Fatalf("EvaluateQuota returned error: %v", err)
	}

	if state.UsagePercent != 96.0 {
		t.Fatalf("expected usage percent 96.0, got %.2f", state.UsagePercent)
	}
	if state.Threshold != ThresholdCritical {
		t.Fatalf("expected critical threshold, got %s", state.Threshold)
	}
	if state.MonthlyRemaining != 400 {
		t.Fatalf("expected remaining 400, got %d", state.MonthlyRemaining)
	}
	if state.ResetOverdue {
		t.Fatal("reset should not be overdue")
	}
}

func TestEvaluateQuotaBonusTokenAsymmetry(t *testing.T) {
	t.Parallel()

	// 보너스 토큰은 잔여량에는 합산되지만 게이지 사용률에는 반영되지 않는다
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	in := QuotaInput{
		MonthlyLimit: 10000,
		MonthlyUsed:  9600,
		BonusTokens:  2000,
		DailyLimit:   2000,
		LastResetAt:  now.AddDate(0, 0, -10),
	}

	state, err := EvaluateQuota(in, now)
	if err != nil {
		t.Fatalf("EvaluateQuota returned error: %v", err)
	}

	if state.MonthlyRemaining != 2400 {
		t.Fatalf("expected effective remaining 2400, got %d", state.MonthlyRemaining)
	}
	if state.UsagePercent != 96.0 || state.Threshold != ThresholdCritical {
		t.Fatalf("usage percent must ignore bonus: got %.2f / %s", state.UsagePercent, state.Threshold)
	}
}

func TestEvaluateQuotaToleratesOveruse(t *testing.T) {
	t.Parallel()

	// used > limit 인 상태도 그대로 렌더링할 수 있어야 한다
	now := time.Now()
	in := QuotaInput{
		MonthlyLimit: 1000,
		MonthlyUsed:  1500,
		DailyLimit:   100,
		DailyUsed:    300,
		LastResetAt:  now.AddDate(0, 0, -5),
	}

	state, err := EvaluateQuota(in, now)
	if err != nil {
		t.Fatalf("EvaluateQuota returned error: %v", err)
	}

	if state.MonthlyRemaining != 0 || state.DailyRemaining != 0 {
		t.Fatalf("remaining must clamp at 0, got monthly=%d daily=%d", state.MonthlyRemaining, state.DailyRemaining)
	}
	if state.Threshold != ThresholdCritical {
		t.Fatalf("expected critical threshold, got %s", state.Threshold)
	}
}

func TestEvaluateQuotaOverdueReset(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	in := QuotaInput{
		MonthlyLimit: 1000,
		LastResetAt:  now.AddDate(0, -2, 0), // 리셋 기한이 한 달 지남
	}

	state, err := EvaluateQuota(in, now)
	if err != nil {
		t.Fatalf("EvaluateQuota returned error: %v", err)
	}

	if state.DaysUntilReset != 0 {
		t.Fatalf("overdue reset must clamp days to 0, got %d", state.DaysUntilReset)
	}
	if !state.ResetOverdue {
		t.Fatal("expected ResetOverdue flag")
	}
}

func TestEvaluateQuotaRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	if _, err := EvaluateQuota(QuotaInput{MonthlyLimit: 0}, time.Now()); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero limit, got %v", err)
	}
	if _, err := EvaluateQuota(QuotaInput{MonthlyLimit: 100, MonthlyUsed: -1}, time.Now()); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative usage, got %v", err)
	}
}

func TestCheckUsageIndependentLimits(t *testing.T) {
	t.Parallel()

	in := QuotaInput{
		MonthlyLimit: 10000,
		MonthlyUsed:  100,
		DailyLimit:   500,
		DailyUsed:    500,
	}

	// 월간 여유가 있어도 일간 한도 초과면 거부
	decision := CheckUsage(in, 1)
	if decision.Allowed {
		t.Fatal("expected request blocked by daily limit")
	}
	if !decision.MonthlyOK || decision.DailyOK {
		t.Fatalf("unexpected decision: %+v", decision)
	}

	// 반대로 일간 여유가 있어도 월간 초과면 거부
	in = QuotaInput{
		MonthlyLimit: 1000,
		MonthlyUsed:  1000,
		DailyLimit:   500,
		DailyUsed:    0,
	}
	decision = CheckUsage(in, 1)
	if decision.Allowed {
		t.Fatal("expected request blocked by monthly limit")
	}

	// 보너스 토큰이 월간 한도를 넓혀준다
	in.BonusTokens = 10
	decision = CheckUsage(in, 1)
	if !decision.Allowed {
		t.Fatal("expected bonus tokens to allow request")
	}
}
