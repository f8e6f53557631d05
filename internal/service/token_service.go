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
	// ErrPlanNotFound 는 티어에 해당하는 구독 플랜이 없을 때 반환된다.
	ErrPlanNotFound = errors.New("subscription plan not found")
	// ErrQuotaExceeded 는 토큰 한도 초과로 요청이 거부될 때 반환된다.
	ErrQuotaExceeded = errors.New("token quota exceeded")
)

// TokenService 는 토큰 사용량 추적과 할당량 판정을 담당한다.
// 한도 수치는 SubscriptionPlan 에서, 누적 사용량은 TokenQuota 캐시에서 읽는다.
type TokenService struct {
	db  *gorm.DB
	now func() time.Time
}

// UsageRecordInput 은 AI 호출 한 건의 토큰 기록 입력이다.
type UsageRecordInput struct {
	UserID         uint
	ConversationID *uint
	InputTokens    int
	OutputTokens   int
	ModelName      string
	Purpose        string
}

// QuotaSummary 는 대시보드 토큰 카드가 소비하는 표시용 묶음이다.
type QuotaSummary struct {
	Tier     string
	TierName string
	State    metrics.QuotaState
	Quota    db.TokenQuota
	Plan     db.SubscriptionPlan
}

// DailyUsage 는 일별 토큰 사용 집계 한 줄이다.
type DailyUsage struct {
	Date         string
	TotalTokens  int
	InputTokens  int
	OutputTokens int
}

// NewTokenService 는 TokenService 를 생성한다.
func NewTokenService(gdb *gorm.DB) *TokenService {
	return &TokenService{db: gdb, now: time.Now}
}

// WithClock 은 테스트에서 현재 시각 주입을 허용한다.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	if now != nil {
		s.now = now
	}
	return s
}

// SeedDefaultPlans 는 기본 구독 플랜이 없을 때 생성한다. 이미 있으면 건너뛴다.
func (s *TokenService) SeedDefaultPlans() error {
	plans := []db.SubscriptionPlan{
		{
			Tier:              db.TierFree,
			Name:              "무료",
			Description:       "감정 기록과 가벼운 AI 대화를 위한 기본 플랜",
			MonthlyTokenLimit: 50000,
			DailyTokenLimit:   5000,
			DisplayOrder:      1,
			IsActive:          true,
		},
		{
			Tier:              db.TierPremium,
			Name:              "프리미엄",
			Description:       "매일 충분한 AI 코칭을 위한 플랜",
			MonthlyTokenLimit: 500000,
			DailyTokenLimit:   50000,
			PriceMonthly:      9900,
			DisplayOrder:      2,
			IsActive:          true,
		},
		{
			Tier:              db.TierEnterprise,
			Name:              "기업",
			Description:       "사실상 무제한 토큰의 기업용 플랜",
			MonthlyTokenLimit: 999999999,
			DailyTokenLimit:   999999999,
			DisplayOrder:      3,
			IsActive:          true,
		},
	}

	for _, plan := range plans {
		if err := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tier"}},
			DoNothing: true,
		}).Create(&plan).Error; err != nil {
			return fmt.Errorf("seed plan %s: %w", plan.Tier, err)
		}
	}

	return nil
}

// PlanForUser 는 사용자의 티어에 맞는 활성 플랜을 조회한다.
// 티어가 비어 있거나 플랜이 없으면 FREE 플랜으로 폴백한다.
func (s *TokenService) PlanForUser(userID uint) (*db.SubscriptionPlan, error) {
	var user db.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	tier := user.Tier
	if tier == "" {
		tier = db.TierFree
	}

	var plan db.SubscriptionPlan
	err := s.db.Where("tier = ? AND is_active = ?", tier, true).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) && tier != db.TierFree {
		err = s.db.Where("tier = ? AND is_active = ?", db.TierFree, true).First(&plan).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("find plan: %w", err)
	}

	return &plan, nil
}

// GetOrCreateQuota 는 사용자의 할당량 캐시를 조회하고 없으면 생성한다.
func (s *TokenService) GetOrCreateQuota(userID uint) (*db.TokenQuota, error) {
	var quota db.TokenQuota
	err := s.db.Where("user_id = ?", userID).First(&quota).Error
	if err == nil {
		return &quota, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find token quota: %w", err)
	}

	now := s.now()
	quota = db.TokenQuota{
		UserID:           userID,
		LastResetAt:      now,
		LastDailyResetAt: now,
	}
	if err := s.db.Create(&quota).Error; err != nil {
		return nil, fmt.Errorf("create token quota: %w", err)
	}

	return &quota, nil
}

// rolloverQuota 는 날짜·월이 바뀐 경우 사용량을 리셋한다. 쓰기 경로에서만 호출한다.
func (s *TokenService) rolloverQuota(tx *gorm.DB, quota *db.TokenQuota) error {
	now := s.now()
	changed := false

	if sameDay := sameCalendarDay(quota.LastDailyResetAt, now); !sameDay {
		quota.CurrentDayUsed = 0
		quota.LastDailyResetAt = now
		changed = true
	}

	// 월간 리셋 기준은 last_reset_at + 1개월. 밀린 경우 따라잡을 때까지 전진시킨다.
	for !quota.LastResetAt.IsZero() && !now.Before(quota.LastResetAt.AddDate(0, 1, 0)) {
		quota.CurrentMonthUsed = 0
		quota.LastResetAt = quota.LastResetAt.AddDate(0, 1, 0)
		changed = true
	}

	if !changed {
		return nil
	}
	return tx.Save(quota).Error
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// quotaInput 은 플랜과 캐시를 metrics 평가 입력으로 환원한다.
func quotaInput(plan *db.SubscriptionPlan, quota *db.TokenQuota) metrics.QuotaInput {
	return metrics.QuotaInput{
		MonthlyLimit: plan.MonthlyTokenLimit,
		MonthlyUsed:  quota.CurrentMonthUsed,
		DailyLimit:   plan.DailyTokenLimit,
		DailyUsed:    quota.CurrentDayUsed,
		BonusTokens:  quota.BonusTokens,
		LastResetAt:  quota.LastResetAt,
	}
}

// CheckQuota 는 estimatedTokens 만큼의 사용이 가능한지 사전 검사한다.
// 월간·일간 어느 한쪽이라도 초과면 ErrQuotaExceeded 를 반환한다.
func (s *TokenService) CheckQuota(userID uint, estimatedTokens int) error {
	plan, err := s.PlanForUser(userID)
	if err != nil {
		return err
	}

	quota, err := s.GetOrCreateQuota(userID)
	if err != nil {
		return err
	}
	if err := s.rolloverQuota(s.db, quota); err != nil {
		return fmt.Errorf("rollover quota: %w", err)
	}

	decision := metrics.CheckUsage(quotaInput(plan, quota), estimatedTokens)
	if decision.Allowed {
		return nil
	}

	if !decision.MonthlyOK {
		remaining := plan.MonthlyTokenLimit + quota.BonusTokens - quota.CurrentMonthUsed
		return fmt.Errorf("%w: 월간 토큰 한도를 초과했습니다 (잔여 %d 토큰)", ErrQuotaExceeded, maxIntValue(0, remaining))
	}
	remaining := plan.DailyTokenLimit - quota.CurrentDayUsed
	return fmt.Errorf("%w: 일간 토큰 한도를 초과했습니다 (잔여 %d 토큰)", ErrQuotaExceeded, maxIntValue(0, remaining))
}

// RecordUsage 는 토큰 사용 내역을 적재하고 할당량 캐시를 갱신한다.
func (s *TokenService) RecordUsage(input UsageRecordInput) (*db.TokenUsage, error) {
	if input.InputTokens < 0 || input.OutputTokens < 0 {
		return nil, fmt.Errorf("%w: negative token count", metrics.ErrInvalidInput)
	}

	total := input.InputTokens + input.OutputTokens
	usage := db.TokenUsage{
		UserID:         input.UserID,
		ConversationID: input.ConversationID,
		InputTokens:    input.InputTokens,
		OutputTokens:   input.OutputTokens,
		TotalTokens:    total,
		ModelName:      input.ModelName,
		Purpose:        input.Purpose,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&usage).Error; err != nil {
			return fmt.Errorf("create token usage: %w", err)
		}

		quota, err := s.GetOrCreateQuota(input.UserID)
		if err != nil {
			return err
		}
		if err := s.rolloverQuota(tx, quota); err != nil {
			return fmt.Errorf("rollover quota: %w", err)
		}

		quota.CurrentMonthUsed += total
		quota.CurrentDayUsed += total
		return tx.Save(quota).Error
	})
	if err != nil {
		return nil, err
	}

	return &usage, nil
}

// Summary 는 토큰 카드 표시에 필요한 할당량 상태를 평가해 돌려준다.
func (s *TokenService) Summary(userID uint) (*QuotaSummary, error) {
	plan, err := s.PlanForUser(userID)
	if err != nil {
		return nil, err
	}

	quota, err := s.GetOrCreateQuota(userID)
	if err != nil {
		return nil, err
	}
	if err := s.rolloverQuota(s.db, quota); err != nil {
		return nil, fmt.Errorf("rollover quota: %w", err)
	}

	state, err := metrics.EvaluateQuota(quotaInput(plan, quota), s.now())
	if err != nil {
		return nil, fmt.Errorf("evaluate quota: %w", err)
	}

	return &QuotaSummary{
		Tier:     plan.Tier,
		TierName: plan.Name,
		State:    state,
		Quota:    *quota,
		Plan:     *plan,
	}, nil
}

// History 는 토큰 사용 내역을 최신순으로 페이지 조회한다.
func (s *TokenService) History(userID uint, page, pageSize int) ([]db.TokenUsage, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var total int64
	if err := s.db.Model(&db.TokenUsage{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count token usage: %w", err)
	}

	var items []db.TokenUsage
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("list token usage: %w", err)
	}

	return items, total, nil
}

// DailyBreakdown 은 최근 days 일간의 일별 사용량을 집계한다.
func (s *TokenService) DailyBreakdown(userID uint, days int) ([]DailyUsage, error) {
	if days < 1 {
		days = 30
	}
	if days > 365 {
		days = 365
	}

	start := s.now().AddDate(0, 0, -(days - 1))
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())

	var rows []DailyUsage
	if err := s.db.Model(&db.TokenUsage{}).
		Select("date(created_at) AS date, SUM(total_tokens) AS total_tokens, SUM(input_tokens) AS input_tokens, SUM(output_tokens) AS output_tokens").
		Where("user_id = ? AND created_at >= ?", userID, startDay).
		Group("date(created_at)").
		Order("date ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("aggregate daily usage: %w", err)
	}

	return rows, nil
}

// AddBonusTokens 는 관리자가 보너스 토큰을 지급할 때 쓰인다.
func (s *TokenService) AddBonusTokens(userID uint, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("%w: bonus amount must be positive", metrics.ErrInvalidInput)
	}

	quota, err := s.GetOrCreateQuota(userID)
	if err != nil {
		return err
	}

	quota.BonusTokens += amount
	if err := s.db.Save(quota).Error; err != nil {
		return fmt.Errorf("add bonus tokens: %w", err)
	}
	return nil
}

func maxIntValue(a, b int) int {
	if a > b {
		return a
	}
	return b
}
