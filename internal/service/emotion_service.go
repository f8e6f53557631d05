package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/mindpause/internal/db"
	"github.com/mindpause/internal/metrics"
	"gorm.io/gorm"
)

var (
	// ErrEmotionLogExists 는 같은 날짜에 이미 감정 기록이 있을 때 반환된다.
	ErrEmotionLogExists = errors.New("emotion log already exists for this date")
	// ErrEmotionLogNotFound 는 감정 기록이 없을 때 반환된다.
	ErrEmotionLogNotFound = errors.New("emotion log not found")
	// ErrEmotionValueRange 는 감정 점수가 허용 범위를 벗어날 때 반환된다.
	ErrEmotionValueRange = errors.New("emotion value must be between -5 and 5")
)

// EmotionService 는 감정 기록의 생성·조회·통계를 담당한다.
type EmotionService struct {
	db  *gorm.DB
	now func() time.Time
}

// EmotionLogInput 은 감정 기록 생성 입력이다.
type EmotionLogInput struct {
	UserID       uint
	LogDate      time.Time
	EmotionValue int
	EmotionLabel string
	EmotionEmoji string
	Note         string
}

// EmotionStats 는 대시보드·통계 화면이 소비하는 파생 지표 묶음이다.
type EmotionStats struct {
	CurrentStreak int
	LongestStreak int
	TotalLogs     int64
	WeekStats     metrics.PeriodStats
	MonthStats    metrics.PeriodStats
	StreakMessage string
}

// EmotionChartPoint 는 감정 추이 차트의 한 점이다.
type EmotionChartPoint struct {
	Date  string `json:"date"`
	Value int    `json:"value"`
	Emoji string `json:"emoji"`
}

// NewEmotionService 는 EmotionService 를 생성한다.
func NewEmotionService(gdb *gorm.DB) *EmotionService {
	return &EmotionService{db: gdb, now: time.Now}
}

// WithClock 은 테스트에서 현재 시각 주입을 허용한다.
func (s *EmotionService) WithClock(now func() time.Time) *EmotionService {
	if now != nil {
		s.now = now
	}
	return s
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// CreateLog 는 하루 한 건 규칙을 지키며 감정 기록을 생성한다.
// LogDate 가 영(zero) 값이면 오늘 날짜를 사용한다.
func (s *EmotionService) CreateLog(input EmotionLogInput) (*db.EmotionLog, error) {
	if input.EmotionValue < -5 || input.EmotionValue > 5 {
		return nil, ErrEmotionValueRange
	}

	logDate := input.LogDate
	if logDate.IsZero() {
		logDate = s.now()
	}
	logDate = truncateToDay(logDate)

	var count int64
	if err := s.db.Model(&db.EmotionLog{}).
		Where("user_id = ? AND log_date = ?", input.UserID, logDate).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check existing log: %w", err)
	}
	if count > 0 {
		return nil, ErrEmotionLogExists
	}

	label := input.EmotionLabel
	emoji := input.EmotionEmoji
	if label == "" || emoji == "" {
		faceLabel, faceEmoji := metrics.ScoreFace(input.EmotionValue)
		if label == "" {
			label = faceLabel
		}
		if emoji == "" {
			emoji = faceEmoji
		}
	}

	log := db.EmotionLog{
		UserID:       input.UserID,
		LogDate:      logDate,
		EmotionValue: input.EmotionValue,
		EmotionLabel: label,
		EmotionEmoji: emoji,
		Note:         input.Note,
	}
	if err := s.db.Create(&log).Error; err != nil {
		return nil, fmt.Errorf("create emotion log: %w", err)
	}

	return &log, nil
}

// SetAIFeedback 은 기록 생성 직후 생성된 코치 피드백을 캐시한다.
func (s *EmotionService) SetAIFeedback(logID uint, feedback string) error {
	result := s.db.Model(&db.EmotionLog{}).Where("id = ?", logID).Update("ai_feedback", feedback)
	if result.Error != nil {
		return fmt.Errorf("save ai feedback: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrEmotionLogNotFound
	}
	return nil
}

// TodayLog 는 오늘의 감정 기록을 돌려준다. 없으면 ErrEmotionLogNotFound.
func (s *EmotionService) TodayLog(userID uint) (*db.EmotionLog, error) {
	today := truncateToDay(s.now())

	var log db.EmotionLog
	err := s.db.Where("user_id = ? AND log_date = ?", userID, today).First(&log).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmotionLogNotFound
		}
		return nil, fmt.Errorf("find today log: %w", err)
	}
	return &log, nil
}

// ListRange 는 [start, end) 구간의 감정 기록을 날짜 오름차순으로 조회한다.
func (s *EmotionService) ListRange(userID uint, start, end time.Time) ([]db.EmotionLog, error) {
	var logs []db.EmotionLog
	if err := s.db.Where("user_id = ? AND log_date >= ? AND log_date < ?", userID, start, end).
		Order("log_date ASC").
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list emotion logs: %w", err)
	}
	return logs, nil
}

// ListRecent 는 최근 기록을 최신순으로 limit 건 조회한다.
func (s *EmotionService) ListRecent(userID uint, limit int) ([]db.EmotionLog, error) {
	if limit < 1 || limit > 100 {
		limit = 30
	}

	var logs []db.EmotionLog
	if err := s.db.Where("user_id = ?", userID).
		Order("log_date DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list recent logs: %w", err)
	}
	return logs, nil
}

// DeleteLog 는 본인 소유 감정 기록을 삭제한다.
func (s *EmotionService) DeleteLog(userID, logID uint) error {
	result := s.db.Where("id = ? AND user_id = ?", logID, userID).Delete(&db.EmotionLog{})
	if result.Error != nil {
		return fmt.Errorf("delete emotion log: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrEmotionLogNotFound
	}
	return nil
}

// logDates 는 스트릭 계산용 기록 날짜 목록을 모은다.
func (s *EmotionService) logDates(userID uint) ([]time.Time, error) {
	var dates []time.Time
	if err := s.db.Model(&db.EmotionLog{}).
		Where("user_id = ?", userID).
		Order("log_date ASC").
		Pluck("log_date", &dates).Error; err != nil {
		return nil, fmt.Errorf("load log dates: %w", err)
	}
	return dates, nil
}

// Stats 는 스트릭·주간·월간 파생 지표를 계산한다.
func (s *EmotionService) Stats(userID uint) (*EmotionStats, error) {
	dates, err := s.logDates(userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	current, longest := metrics.Streaks(dates, now)

	var total int64
	if err := s.db.Model(&db.EmotionLog{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count emotion logs: %w", err)
	}

	today := truncateToDay(now)
	weekStart := today.AddDate(0, 0, -6)
	monthStart := today.AddDate(0, 0, -29)
	end := today.AddDate(0, 0, 1)

	monthLogs, err := s.ListRange(userID, monthStart, end)
	if err != nil {
		return nil, err
	}

	weekRecords := make([]metrics.ScoreRecord, 0, len(monthLogs))
	monthRecords := make([]metrics.ScoreRecord, 0, len(monthLogs))
	for _, log := range monthLogs {
		record := metrics.ScoreRecord{RecordedAt: log.LogDate, Score: float64(log.EmotionValue)}
		monthRecords = append(monthRecords, record)
		if !log.LogDate.Before(weekStart) {
			weekRecords = append(weekRecords, record)
		}
	}

	weekStats, err := metrics.PeriodAverage(weekRecords, weekStart, end)
	if err != nil {
		return nil, fmt.Errorf("week stats: %w", err)
	}
	monthStats, err := metrics.PeriodAverage(monthRecords, monthStart, end)
	if err != nil {
		return nil, fmt.Errorf("month stats: %w", err)
	}

	return &EmotionStats{
		CurrentStreak: current,
		LongestStreak: longest,
		TotalLogs:     total,
		WeekStats:     weekStats,
		MonthStats:    monthStats,
		StreakMessage: metrics.StreakMessage(current),
	}, nil
}

// Chart 는 최근 days 일간 감정 추이 차트 데이터를 돌려준다.
func (s *EmotionService) Chart(userID uint, days int) ([]EmotionChartPoint, error) {
	if days < 1 || days > 365 {
		days = 30
	}

	today := truncateToDay(s.now())
	start := today.AddDate(0, 0, -(days - 1))
	logs, err := s.ListRange(userID, start, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	points := make([]EmotionChartPoint, 0, len(logs))
	for _, log := range logs {
		points = append(points, EmotionChartPoint{
			Date:  log.LogDate.Format("2006-01-02"),
			Value: log.EmotionValue,
			Emoji: log.EmotionEmoji,
		})
	}
	return points, nil
}
