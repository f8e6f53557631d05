package metrics

import (
	"math"
	"strings"
	"testing"
)

func TestStreakMessageTierBoundaries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		streak int
		want   string
	}{
		{-3, "오늘부터"},
		{0, "오늘부터"},
		{1, "좋은 습관"},
		{6, "좋은 습관"},
		{7, "일주일 연속"},
		{13, "일주일 연속"},
		{14, "2주 연속"},
		{29, "2주 연속"},
		{30, "한 달 연속"},
		{1000, "한 달 연속"},
	}

	for _, tc := range cases {
		got := StreakMessage(tc.streak)
		if !strings.Contains(got, tc.want) {
			t.Fatalf("StreakMessage(%d) = %q, want substring %q", tc.streak, got, tc.want)
		}
	}
}

func TestUsageColor(t *testing.T) {
	t.Parallel()

	if got := UsageColor(ThresholdNormal); got != "mint" {
		t.Fatalf("normal color = %s", got)
	}
	if got := UsageColor(ThresholdLow); got != "warning" {
		t.Fatalf("low color = %s", got)
	}
	if got := UsageColor(ThresholdCritical); got != "error" {
		t.Fatalf("critical color = %s", got)
	}
}

func TestProgressColorBoundaries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		percent float64
		want    string
	}{
		{-10, "neutral"},
		{0, "neutral"},
		{49.9, "neutral"},
		{50, "primary"},
		{99.9, "primary"},
		{100, "success"},
		{250, "success"},
	}

	for _, tc := range cases {
		if got := ProgressColor(tc.percent); got != tc.want {
			t.Fatalf("ProgressColor(%.1f) = %s, want %s", tc.percent, got, tc.want)
		}
	}
}

func TestScoreFaceTotalOverDomain(t *testing.T) {
	t.Parallel()

	// 범위를 벗어난 점수도 패닉 없이 버킷에 흡수되어야 한다
	for score := -100; score <= 100; score++ {
		label, emoji := ScoreFace(score)
		if label == "" || emoji == "" {
			t.Fatalf("ScoreFace(%d) returned empty mapping", score)
		}
	}

	if label, _ := ScoreFace(0); label != "보통" {
		t.Fatalf("ScoreFace(0) = %s, want 보통", label)
	}
	if label, _ := ScoreFace(3); label != "아주 좋음" {
		t.Fatalf("ScoreFace(3) = %s, want 아주 좋음", label)
	}
}

func TestRatingStars(t *testing.T) {
	t.Parallel()

	cases := []struct {
		rating float64
		want   int
	}{
		{math.NaN(), 0},
		{-1, 0},
		{0, 0},
		{2.4, 2},
		{2.5, 3},
		{5, 5},
		{9.9, 5},
	}

	for _, tc := range cases {
		if got := RatingStars(tc.rating); got != tc.want {
			t.Fatalf("RatingStars(%.1f) = %d, want %d", tc.rating, got, tc.want)
		}
	}
}
