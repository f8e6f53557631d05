package metrics

import "time"

// BadgeStats 는 배지 판정에 쓰이는 누적 통계 스냅샷이다.
type BadgeStats struct {
	TotalEmotionLogs    int
	CurrentStreak       int
	CompletedChallenges int
	LikesReceived       int
	CommentsWritten     int
}

// BadgeRule 은 단일 배지의 해금 조건이다.
// 조건들은 서로 독립적이므로 평가 순서는 결과에 영향을 주지 않는다.
type BadgeRule struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Satisfied   func(BadgeStats) bool
}

// DefaultBadgeRules 는 기본 배지 카탈로그를 반환한다.
// 규칙은 모두 임계값 비교이며 카탈로그는 정적이다.
func DefaultBadgeRules() []BadgeRule {
	return []BadgeRule{
		{
			ID:          "first-log",
			Name:        "첫 시작",
			Description: "첫 감정 기록을 남겼어요",
			Icon:        "🌱",
			Satisfied:   func(s BadgeStats) bool { return s.TotalEmotionLogs >= 1 },
		},
		{
			ID:          "streak-3",
			Name:        "3일 연속",
			Description: "3일 연속으로 기록했어요",
			Icon:        "🔥",
			Satisfied:   func(s BadgeStats) bool { return s.CurrentStreak >= 3 },
		},
		{
			ID:          "streak-7",
			Name:        "일주일 연속",
			Description: "7일 연속으로 기록했어요",
			Icon:        "⭐",
			Satisfied:   func(s BadgeStats) bool { return s.CurrentStreak >= 7 },
		},
		{
			ID:          "empathy-fairy",
			Name:        "공감 요정",
			Description: "커뮤니티에서 10개의 공감을 받았어요",
			Icon:        "🧚",
			Satisfied:   func(s BadgeStats) bool { return s.LikesReceived >= 10 },
		},
		{
			ID:          "challenge-master",
			Name:        "챌린지 마스터",
			Description: "첫 챌린지를 완료했어요",
			Icon:        "🏆",
			Satisfied:   func(s BadgeStats) bool { return s.CompletedChallenges >= 1 },
		},
		{
			ID:          "communicator",
			Name:        "소통왕",
			Description: "댓글 50개를 작성했어요",
			Icon:        "👑",
			Satisfied:   func(s BadgeStats) bool { return s.CommentsWritten >= 50 },
		},
	}
}

// EvaluateBadges 는 조건을 충족한 배지 ID 목록을 규칙 순서대로 반환한다.
func EvaluateBadges(rules []BadgeRule, stats BadgeStats) []string {
	satisfied := make([]string, 0, len(rules))
	for _, rule := range rules {
		if rule.Satisfied != nil && rule.Satisfied(stats) {
			satisfied = append(satisfied, rule.ID)
		}
	}
	return satisfied
}

// MergeEarned 는 충족된 배지를 기존 획득 내역에 합친다.
// 이미 획득한 배지의 획득 시각은 재평가되어도 바뀌지 않으며,
// 새로 충족된 배지만 now 시각으로 기록된다. 배지는 회수되지 않는다.
func MergeEarned(earned map[string]time.Time, satisfied []string, now time.Time) (merged map[string]time.Time, newlyUnlocked []string) {
	merged = make(map[string]time.Time, len(earned)+len(satisfied))
	for id, at := range earned {
		merged[id] = at
	}

	for _, id := range satisfied {
		if _, ok := merged[id]; ok {
			continue
		}
		merged[id] = now
		newlyUnlocked = append(newlyUnlocked, id)
	}

	return merged, newlyUnlocked
}
