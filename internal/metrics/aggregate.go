package metrics

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidInput 은 집계 입력이 유효하지 않을 때 반환된다.
// 잘못된 값을 조용히 보정하지 않고 즉시 호출자에게 알린다.
var ErrInvalidInput = errors.New("invalid aggregate input")

// ScoreRecord 는 하루 단위 집계 대상이 되는 단일 기록이다.
// 감정 기록과 챌린지 체크인을 모두 이 형태로 환원해 계산한다.
type ScoreRecord struct {
	RecordedAt time.Time
	Score      float64
}

// PeriodStats 는 구간 평균과 함께 기록 수를 명시적으로 담는다.
// 평균 0 과 "기록 없음"을 구분하려면 RecordCount 를 확인해야 한다.
type PeriodStats struct {
	Average     float64
	RecordCount int
}

// dateKey 는 시각을 자정 기준 날짜로 정규화한다.
func dateKey(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func uniqueDays(times []time.Time) map[time.Time]struct{} {
	days := make(map[time.Time]struct{}, len(times))
	for _, t := range times {
		days[dateKey(t)] = struct{}{}
	}
	return days
}

// CurrentStreak 는 today 를 기준으로 거슬러 올라가며 연속 기록 일수를 센다.
// 오늘 기록이 아직 없어도 어제까지의 연속은 유지되지만,
// 오늘 이전의 하루라도 비어 있으면 그 지점에서 끊긴다.
func CurrentStreak(recordDays []time.Time, today time.Time) int {
	if len(recordDays) == 0 {
		return 0
	}

	days := uniqueDays(recordDays)
	cursor := dateKey(today)

	if _, ok := days[cursor]; !ok {
		// 오늘은 아직 체크 전일 수 있으므로 어제부터 센다
		cursor = cursor.AddDate(0, 0, -1)
	}

	streak := 0
	for {
		if _, ok := days[cursor]; !ok {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}

	return streak
}

// LongestStreak 는 전체 기록에서 가장 길었던 연속 일수를 한 번의 순회로 구한다.
// 항상 CurrentStreak 이상의 값을 가진다.
func LongestStreak(recordDays []time.Time) int {
	days := uniqueDays(recordDays)
	if len(days) == 0 {
		return 0
	}

	longest := 0
	for day := range days {
		// 연속 구간의 시작일에서만 길이를 센다
		if _, ok := days[day.AddDate(0, 0, -1)]; ok {
			continue
		}

		run := 0
		cursor := day
		for {
			if _, ok := days[cursor]; !ok {
				break
			}
			run++
			cursor = cursor.AddDate(0, 0, 1)
		}

		if run > longest {
			longest = run
		}
	}

	return longest
}

// Streaks 는 현재 스트릭과 최장 스트릭을 함께 반환한다.
func Streaks(recordDays []time.Time, today time.Time) (current, longest int) {
	return CurrentStreak(recordDays, today), LongestStreak(recordDays)
}

// PeriodAverage 는 [start, end) 구간에 속한 기록의 점수 평균을 계산한다.
// 기록이 없으면 평균 0 에 RecordCount 0 을 반환하며 NaN 을 만들지 않는다.
func PeriodAverage(records []ScoreRecord, start, end time.Time) (PeriodStats, error) {
	var stats PeriodStats
	var sum float64

	for _, record := range records {
		if math.IsNaN(record.Score) || math.IsInf(record.Score, 0) {
			return PeriodStats{}, fmt.Errorf("%w: non-finite score", ErrInvalidInput)
		}

		at := record.RecordedAt
		if at.Before(start) || !at.Before(end) {
			continue
		}

		sum += record.Score
		stats.RecordCount++
	}

	if stats.RecordCount > 0 {
		stats.Average = sum / float64(stats.RecordCount)
	}

	return stats, nil
}

// ProgressPercent 는 목표 대비 진행률을 0~100 으로 환산한다.
// target 이 0 이면 0 을 반환하고 0 으로 나누지 않는다.
func ProgressPercent(completed, target int) (float64, error) {
	if completed < 0 {
		return 0, fmt.Errorf("%w: negative completed count", ErrInvalidInput)
	}
	if target < 0 {
		return 0, fmt.Errorf("%w: negative target count", ErrInvalidInput)
	}
	if target == 0 {
		return 0, nil
	}

	percent := float64(completed) / float64(target) * 100
	return math.Min(percent, 100), nil
}
