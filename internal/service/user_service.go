package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mindpause/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound 는 사용자가 존재하지 않을 때 반환된다.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken 은 이미 등록된 이메일로 가입할 때 반환된다.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials 는 이메일·비밀번호가 일치하지 않을 때 반환된다.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// UserService 는 가입·로그인·프로필 관리를 담당한다.
type UserService struct {
	db *gorm.DB
}

// RegisterInput 은 회원 가입 입력이다.
type RegisterInput struct {
	Email    string
	Password string
	Nickname string
}

// ProfileUpdateInput 은 프로필 수정 입력이다. 빈 필드는 건드리지 않는다.
type ProfileUpdateInput struct {
	Nickname        string
	ProfileImageURL string
}

// NewUserService 는 UserService 를 생성한다.
func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{db: gdb}
}

// Register 는 이메일 중복을 확인하고 bcrypt 해시와 함께 사용자를 생성한다.
func (s *UserService) Register(input RegisterInput) (*db.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	nickname := strings.TrimSpace(input.Nickname)
	password := input.Password

	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.New("올바른 이메일을 입력해주세요")
	}
	if len(password) < 8 {
		return nil, errors.New("비밀번호는 8자 이상이어야 합니다")
	}
	if nickname == "" {
		return nil, errors.New("닉네임을 입력해주세요")
	}

	var count int64
	if err := s.db.Model(&db.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := db.User{
		Email:    email,
		Password: string(hashed),
		Nickname: nickname,
		Tier:     db.TierFree,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return &user, nil
}

// Authenticate 는 이메일·비밀번호를 확인해 사용자를 돌려준다.
// 계정 부재와 비밀번호 불일치를 구분하지 않는다.
func (s *UserService) Authenticate(email, password string) (*db.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user db.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// GetUser 는 ID 로 사용자를 조회한다.
func (s *UserService) GetUser(userID uint) (*db.User, error) {
	var user db.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// UpdateProfile 은 닉네임·프로필 이미지를 수정한다.
func (s *UserService) UpdateProfile(userID uint, input ProfileUpdateInput) (*db.User, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if nickname := strings.TrimSpace(input.Nickname); nickname != "" {
		updates["nickname"] = nickname
	}
	if imageURL := strings.TrimSpace(input.ProfileImageURL); imageURL != "" {
		updates["profile_image_url"] = imageURL
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// ChangePassword 는 기존 비밀번호 확인 후 새 비밀번호로 교체한다.
func (s *UserService) ChangePassword(userID uint, current, next string) error {
	user, err := s.GetUser(userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	if len(next) < 8 {
		return errors.New("비밀번호는 8자 이상이어야 합니다")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.db.Model(user).Update("password", string(hashed)).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// ListUsers 는 관리자용 사용자 목록을 페이지 조회한다.
func (s *UserService) ListUsers(page, pageSize int) ([]db.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var total int64
	if err := s.db.Model(&db.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	var users []db.User
	if err := s.db.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

// SetTier 는 관리자가 사용자 티어를 변경할 때 쓰인다.
func (s *UserService) SetTier(userID uint, tier string) error {
	switch tier {
	case db.TierFree, db.TierPremium, db.TierEnterprise:
	default:
		return fmt.Errorf("unknown tier: %s", tier)
	}

	result := s.db.Model(&db.User{}).Where("id = ?", userID).Update("tier", tier)
	if result.Error != nil {
		return fmt.Errorf("update tier: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
