package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/mindpause/internal/db"
	"github.com/mindpause/internal/metrics"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrChallengeNotFound 는 챌린지가 없거나 접근 불가할 때 반환된다.
	ErrChallengeNotFound = errors.New("challenge not found")
	// ErrAlreadyJoined 는 이미 참여 중인 챌린지에 다시 참여할 때 반환된다.
	ErrAlreadyJoined = errors.New("already joined this challenge")
	// ErrNotJoined 는 참여하지 않은 챌린지를 조작할 때 반환된다.
	ErrNotJoined = errors.New("not joined this challenge")
	// ErrAlreadyCheckedIn 은 오늘 이미 체크인했을 때 반환된다.
	ErrAlreadyCheckedIn = errors.New("already checked in today")
	// ErrChallengeFinished 는 완료·포기한 챌린지를 조작할 때 반환된다.
	ErrChallengeFinished = errors.New("challenge already finished")
)

// 체크인 출처. 감정 기록 연동 자동 체크인과 수동 체크인을 구분한다.
const (
	CheckinSourceManual  = "manual"
	CheckinSourceEmotion = "emotion_log"
)

// ChallengeService 는 챌린지 카탈로그·참여·체크인 흐름을 담당한다.
type ChallengeService struct {
	db  *gorm.DB
	now func() time.Time
}

// ChallengeCreateInput 은 챌린지 생성 입력이다.
type ChallengeCreateInput struct {
	UserID       uint
	TemplateID   *uint
	Title        string
	Description  string
	Type         string
	DurationDays int
	TargetCount  int
	Icon         string
}

// ChallengeProgress 는 참여 챌린지의 진행 표시용 묶음이다.
type ChallengeProgress struct {
	UserChallenge   db.UserChallenge
	Challenge       db.Challenge
	ProgressPercent float64
	ProgressColor   string
	CheckedInToday  bool
}

// NewChallengeService 는 ChallengeService 를 생성한다.
func NewChallengeService(gdb *gorm.DB) *ChallengeService {
	return &ChallengeService{db: gdb, now: time.Now}
}

// WithClock 은 테스트에서 현재 시각 주입을 허용한다.
func (s *ChallengeService) WithClock(now func() time.Time) *ChallengeService {
	if now != nil {
		s.now = now
	}
	return s
}

// SeedDefaultTemplates 는 기본 챌린지 템플릿이 없을 때 채워 넣는다.
func (s *ChallengeService) SeedDefaultTemplates() error {
	var count int64
	if err := s.db.Model(&db.ChallengeTemplate{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count templates: %w", err)
	}
	if count > 0 {
		return nil
	}

	templates := []db.ChallengeTemplate{
		{Title: "3일 감정 기록", Description: "3일 연속 감정을 기록해요", ChallengeType: db.ChallengeTypeStreak, DefaultDurationDays: 3, DefaultTargetCount: 3, Icon: "📝", RewardBadge: "streak-3", IsActive: true},
		{Title: "일주일 감정 기록", Description: "7일 연속 감정을 기록해요", ChallengeType: db.ChallengeTypeStreak, DefaultDurationDays: 7, DefaultTargetCount: 7, Icon: "🔥", RewardBadge: "streak-7", IsActive: true},
		{Title: "감사 일기 쓰기", Description: "매일 감사한 일 하나를 적어요", ChallengeType: db.ChallengeTypeCommunity, DefaultDurationDays: 14, DefaultTargetCount: 14, Icon: "🙏", IsActive: true},
		{Title: "마음 나누기", Description: "커뮤니티에 내 이야기를 나눠요", ChallengeType: db.ChallengeTypeCommunity, DefaultDurationDays: 7, DefaultTargetCount: 3, Icon: "💬", IsActive: true},
	}
	if err := s.db.Create(&templates).Error; err != nil {
		return fmt.Errorf("seed templates: %w", err)
	}
	return nil
}

// ListTemplates 는 활성 템플릿 카탈로그를 돌려준다.
func (s *ChallengeService) ListTemplates() ([]db.ChallengeTemplate, error) {
	var templates []db.ChallengeTemplate
	if err := s.db.Where("is_active = ?", true).Order("id ASC").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

// CreateChallenge 는 챌린지를 생성한다. 일반 사용자의 제안은 pending 으로
// 시작하고, isAdmin 이면 즉시 승인된다. 템플릿을 지정하면 빈 필드를
// 템플릿 기본값으로 채운다.
func (s *ChallengeService) CreateChallenge(input ChallengeCreateInput, isAdmin bool) (*db.Challenge, error) {
	challenge := db.Challenge{
		TemplateID:    input.TemplateID,
		CreatedBy:     input.UserID,
		Title:         input.Title,
		Description:   input.Description,
		ChallengeType: input.Type,
		DurationDays:  input.DurationDays,
		TargetCount:   input.TargetCount,
		Icon:          input.Icon,
		Status:        db.ChallengeStatusPending,
	}

	if input.TemplateID != nil {
		var template db.ChallengeTemplate
		if err := s.db.First(&template, *input.TemplateID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrChallengeNotFound
			}
			return nil, fmt.Errorf("find template: %w", err)
		}
		if challenge.Title == "" {
			challenge.Title = template.Title
		}
		if challenge.Description == "" {
			challenge.Description = template.Description
		}
		if challenge.ChallengeType == "" {
			challenge.ChallengeType = template.ChallengeType
		}
		if challenge.DurationDays == 0 {
			challenge.DurationDays = template.DefaultDurationDays
		}
		if challenge.TargetCount == 0 {
			challenge.TargetCount = template.DefaultTargetCount
		}
		if challenge.Icon == "" {
			challenge.Icon = template.Icon
		}
		challenge.RewardBadge = template.RewardBadge
	}

	if challenge.Title == "" {
		return nil, errors.New("챌린지 제목을 입력해주세요")
	}
	if challenge.ChallengeType == "" {
		challenge.ChallengeType = db.ChallengeTypeCommunity
	}
	if challenge.DurationDays <= 0 {
		challenge.DurationDays = 7
	}
	if challenge.TargetCount <= 0 {
		challenge.TargetCount = challenge.DurationDays
	}

	now := s.now()
	challenge.StartDate = truncateToDay(now)
	challenge.EndDate = challenge.StartDate.AddDate(0, 0, challenge.DurationDays)

	if isAdmin {
		challenge.Status = db.ChallengeStatusApproved
	}

	if err := s.db.Create(&challenge).Error; err != nil {
		return nil, fmt.Errorf("create challenge: %w", err)
	}
	return &challenge, nil
}

// ListApproved 는 승인된 챌린지 목록을 돌려준다.
func (s *ChallengeService) ListApproved() ([]db.Challenge, error) {
	var challenges []db.Challenge
	if err := s.db.Where("status = ?", db.ChallengeStatusApproved).
		Order("created_at DESC").
		Find(&challenges).Error; err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	return challenges, nil
}

// ListPending 은 관리자 승인 대기 목록을 돌려준다.
func (s *ChallengeService) ListPending() ([]db.Challenge, error) {
	var challenges []db.Challenge
	if err := s.db.Where("status = ?", db.ChallengeStatusPending).
		Order("created_at ASC").
		Find(&challenges).Error; err != nil {
		return nil, fmt.Errorf("list pending challenges: %w", err)
	}
	return challenges, nil
}

// Approve 는 대기 중 챌린지를 승인한다.
func (s *ChallengeService) Approve(challengeID uint) error {
	result := s.db.Model(&db.Challenge{}).
		Where("id = ? AND status = ?", challengeID, db.ChallengeStatusPending).
		Update("status", db.ChallengeStatusApproved)
	if result.Error != nil {
		return fmt.Errorf("approve challenge: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrChallengeNotFound
	}
	return nil
}

// Reject 는 대기 중 챌린지를 사유와 함께 반려한다.
func (s *ChallengeService) Reject(challengeID uint, reason string) error {
	result := s.db.Model(&db.Challenge{}).
		Where("id = ? AND status = ?", challengeID, db.ChallengeStatusPending).
		Updates(map[string]interface{}{
			"status":          db.ChallengeStatusRejected,
			"rejected_reason": reason,
		})
	if result.Error != nil {
		return fmt.Errorf("reject challenge: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrChallengeNotFound
	}
	return nil
}

// Join 은 승인된 챌린지에 참여한다. 중복 참여는 ErrAlreadyJoined.
func (s *ChallengeService) Join(userID, challengeID uint) (*db.UserChallenge, error) {
	var challenge db.Challenge
	if err := s.db.Where("id = ? AND status = ?", challengeID, db.ChallengeStatusApproved).
		First(&challenge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("find challenge: %w", err)
	}

	var count int64
	if err := s.db.Model(&db.UserChallenge{}).
		Where("user_id = ? AND challenge_id = ?", userID, challengeID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check participation: %w", err)
	}
	if count > 0 {
		return nil, ErrAlreadyJoined
	}

	participation := db.UserChallenge{
		UserID:      userID,
		ChallengeID: challengeID,
		JoinedAt:    s.now(),
	}
	if err := s.db.Create(&participation).Error; err != nil {
		return nil, fmt.Errorf("join challenge: %w", err)
	}
	return &participation, nil
}

// findActiveParticipation 은 완료·포기하지 않은 참여 행을 찾는다.
func (s *ChallengeService) findActiveParticipation(userID, challengeID uint) (*db.UserChallenge, error) {
	var participation db.UserChallenge
	err := s.db.Where("user_id = ? AND challenge_id = ?", userID, challengeID).
		First(&participation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotJoined
		}
		return nil, fmt.Errorf("find participation: %w", err)
	}
	if participation.IsCompleted || participation.GaveUpAt != nil {
		return nil, ErrChallengeFinished
	}
	return &participation, nil
}

// CheckIn 은 오늘의 체크인을 기록하고 스트릭·완료 상태를 전진시킨다.
// 어제 체크인이 없으면 CurrentStreak 은 1 로 초기화되고, BestStreak 과
// CompletedCount 는 절대 감소하지 않는다.
func (s *ChallengeService) CheckIn(userID, challengeID uint, source, note string) (*db.UserChallenge, error) {
	participation, err := s.findActiveParticipation(userID, challengeID)
	if err != nil {
		return nil, err
	}

	today := truncateToDay(s.now())

	if source == "" {
		source = CheckinSourceManual
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		checkin := db.ChallengeCheckin{
			UserChallengeID: participation.ID,
			CheckinDate:     today,
			Source:          source,
			Note:            note,
		}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&checkin)
		if result.Error != nil {
			return fmt.Errorf("create checkin: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyCheckedIn
		}

		if participation.LastActivityDate != nil &&
			truncateToDay(*participation.LastActivityDate).Equal(today.AddDate(0, 0, -1)) {
			participation.CurrentStreak++
		} else {
			participation.CurrentStreak = 1
		}
		if participation.CurrentStreak > participation.BestStreak {
			participation.BestStreak = participation.CurrentStreak
		}
		participation.CompletedCount++
		participation.LastActivityDate = &today

		var challenge db.Challenge
		if err := tx.First(&challenge, participation.ChallengeID).Error; err != nil {
			return fmt.Errorf("find challenge: %w", err)
		}
		if challenge.TargetCount > 0 && participation.CompletedCount >= challenge.TargetCount {
			participation.IsCompleted = true
			completedAt := s.now()
			participation.CompletedAt = &completedAt
		}

		return tx.Save(participation).Error
	})
	if err != nil {
		return nil, err
	}

	return participation, nil
}

// AutoCheckinStreaks 는 감정 기록 생성 시 streak 타입 참여 챌린지에
// 자동 체크인한다. 오늘 이미 체크인된 챌린지는 조용히 건너뛴다.
// 이번 호출로 완료 상태가 된 참여 목록을 돌려준다.
func (s *ChallengeService) AutoCheckinStreaks(userID uint) ([]db.UserChallenge, error) {
	var participations []db.UserChallenge
	if err := s.db.Joins("JOIN challenges ON challenges.id = user_challenges.challenge_id").
		Where("user_challenges.user_id = ? AND user_challenges.is_completed = ? AND user_challenges.gave_up_at IS NULL", userID, false).
		Where("challenges.challenge_type = ?", db.ChallengeTypeStreak).
		Find(&participations).Error; err != nil {
		return nil, fmt.Errorf("list streak participations: %w", err)
	}

	var completed []db.UserChallenge
	for _, participation := range participations {
		updated, err := s.CheckIn(userID, participation.ChallengeID, CheckinSourceEmotion, "")
		if err != nil {
			if errors.Is(err, ErrAlreadyCheckedIn) || errors.Is(err, ErrChallengeFinished) {
				continue
			}
			return nil, err
		}
		if updated.IsCompleted {
			completed = append(completed, *updated)
		}
	}
	return completed, nil
}

// GiveUp 은 챌린지 참여를 포기 처리한다. 기록은 지우지 않는다.
func (s *ChallengeService) GiveUp(userID, challengeID uint) error {
	participation, err := s.findActiveParticipation(userID, challengeID)
	if err != nil {
		return err
	}

	now := s.now()
	participation.GaveUpAt = &now
	if err := s.db.Save(participation).Error; err != nil {
		return fmt.Errorf("give up challenge: %w", err)
	}
	return nil
}

// MyChallenges 는 참여 중·완료한 챌린지 진행 현황을 돌려준다.
func (s *ChallengeService) MyChallenges(userID uint) ([]ChallengeProgress, error) {
	var participations []db.UserChallenge
	if err := s.db.Preload("Challenge").
		Where("user_id = ? AND gave_up_at IS NULL", userID).
		Order("created_at DESC").
		Find(&participations).Error; err != nil {
		return nil, fmt.Errorf("list my challenges: %w", err)
	}

	today := truncateToDay(s.now())
	progresses := make([]ChallengeProgress, 0, len(participations))
	for _, participation := range participations {
		percent, err := metrics.ProgressPercent(participation.CompletedCount, participation.Challenge.TargetCount)
		if err != nil {
			return nil, fmt.Errorf("progress percent: %w", err)
		}
		checkedInToday := participation.LastActivityDate != nil &&
			truncateToDay(*participation.LastActivityDate).Equal(today)

		progresses = append(progresses, ChallengeProgress{
			UserChallenge:   participation,
			Challenge:       participation.Challenge,
			ProgressPercent: percent,
			ProgressColor:   metrics.ProgressColor(percent),
			CheckedInToday:  checkedInToday,
		})
	}
	return progresses, nil
}

// CompletedCount 는 배지 평가용 완료 챌린지 수를 센다.
func (s *ChallengeService) CompletedCount(userID uint) (int64, error) {
	var count int64
	if err := s.db.Model(&db.UserChallenge{}).
		Where("user_id = ? AND is_completed = ?", userID, true).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count completed challenges: %w", err)
	}
	return count, nil
}
