package metrics

import "math"

// 표시용 매핑 함수 모음.
// 전부 전 구간에서 정의된 전함수이며, 구간 경계는 닫힌-열린 구간으로 통일한다.

// StreakMessage 는 스트릭 길이에 맞는 응원 문구를 고른다.
// 구간: 0 / 1~6 / 7~13 / 14~29 / 30 이상.
func StreakMessage(streak int) string {
	switch {
	case streak <= 0:
		return "오늘부터 새로운 스트릭을 시작해보세요! 💪"
	case streak < 7:
		return "좋은 습관을 만들어가고 있어요! 계속 진행해보세요! 🌟"
	case streak < 14:
		return "일주일 연속 달성! 정말 대단해요! 🎯"
	case streak < 30:
		return "2주 연속! 이미 습관이 자리잡았어요! 🔥"
	default:
		return "한 달 연속 달성! 챌린지 마스터이시네요! 👑"
	}
}

// UsageColor 는 할당량 경고 단계를 UI 색상 토큰으로 변환한다.
func UsageColor(threshold QuotaThreshold) string {
	switch threshold {
	case ThresholdCritical:
		return "error"
	case ThresholdLow:
		return "warning"
	default:
		return "mint"
	}
}

// ProgressColor 는 진행률을 게이지 색상 토큰으로 변환한다.
func ProgressColor(percent float64) string {
	switch {
	case percent >= 100:
		return "success"
	case percent >= 50:
		return "primary"
	default:
		return "neutral"
	}
}

// TierColor 는 구독 티어별 카드 색상 토큰을 반환한다.
func TierColor(tier string) string {
	switch tier {
	case "PREMIUM":
		return "violet"
	case "ENTERPRISE":
		return "amber"
	default:
		return "mint"
	}
}

// ScoreFace 는 감정 점수를 라벨·이모지 버킷으로 매핑한다.
// 점수 범위를 벗어나는 값도 가장 가까운 버킷으로 흡수한다.
func ScoreFace(score int) (label, emoji string) {
	switch {
	case score >= 3:
		return "아주 좋음", "😄"
	case score >= 1:
		return "좋음", "😊"
	case score == 0:
		return "보통", "😐"
	case score >= -2:
		return "안좋음", "😟"
	default:
		return "매우 안좋음", "😢"
	}
}

// RatingStars 는 평점을 0~5 사이 별 개수로 반올림한다.
func RatingStars(rating float64) int {
	if math.IsNaN(rating) || rating <= 0 {
		return 0
	}
	stars := int(math.Round(rating))
	if stars > 5 {
		stars = 5
	}
	return stars
}
