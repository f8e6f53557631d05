package service

import (
	"errors"
	"testing"

	"github.com/mindpause/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupUserTestDB(t *testing.T) func() {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file:user_service_test?mode=memory&cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.User{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb

	return func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func TestUserServiceRegisterAndAuthenticate(t *testing.T) {
	cleanup := setupUserTestDB(t)
	defer cleanup()

	svc := NewUserService(db.DB)

	user, err := svc.Register(RegisterInput{
		Email:    "Hana@Example.com",
		Password: "secret-password",
		Nickname: "하나",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Email != "hana@example.com" {
		t.Fatalf("expected lowercased email, got %s", user.Email)
	}
	if user.Tier != db.TierFree {
		t.Fatalf("expected FREE tier, got %s", user.Tier)
	}
	if user.Password == "secret-password" {
		t.Fatal("expected hashed password")
	}

	// 중복 가입 거부 (대소문자 무시)
	if _, err := svc.Register(RegisterInput{Email: "HANA@example.com", Password: "another-pass", Nickname: "둘"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	if _, err := svc.Authenticate("hana@example.com", "secret-password"); err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if _, err := svc.Authenticate("hana@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Authenticate("nobody@example.com", "secret-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestUserServiceRegisterValidation(t *testing.T) {
	cleanup := setupUserTestDB(t)
	defer cleanup()

	svc := NewUserService(db.DB)

	if _, err := svc.Register(RegisterInput{Email: "not-an-email", Password: "secret-password", Nickname: "x"}); err == nil {
		t.Fatal("expected error for invalid email")
	}
	if _, err := svc.Register(RegisterInput{Email: "a@b.com", Password: "short", Nickname: "x"}); err == nil {
		t.Fatal("expected error for short password")
	}
	if _, err := svc.Register(RegisterInput{Email: "a@b.com", Password: "secret-password", Nickname: " "}); err == nil {
		t.Fatal("expected error for empty nickname")
	}
}

func TestUserServiceChangePassword(t *testing.T) {
	cleanup := setupUserTestDB(t)
	defer cleanup()

	svc := NewUserService(db.DB)

	user, err := svc.Register(RegisterInput{Email: "pw@test.dev", Password: "old-password", Nickname: "변경"})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if err := svc.ChangePassword(user.ID, "wrong", "new-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := svc.ChangePassword(user.ID, "old-password", "new-password"); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}
	if _, err := svc.Authenticate("pw@test.dev", "new-password"); err != nil {
		t.Fatalf("Authenticate with new password returned error: %v", err)
	}
}

func TestUserServiceSetTier(t *testing.T) {
	cleanup := setupUserTestDB(t)
	defer cleanup()

	svc := NewUserService(db.DB)

	user, err := svc.Register(RegisterInput{Email: "tier@test.dev", Password: "secret-password", Nickname: "티어"})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if err := svc.SetTier(user.ID, db.TierPremium); err != nil {
		t.Fatalf("SetTier returned error: %v", err)
	}
	reloaded, err := svc.GetUser(user.ID)
	if err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}
	if reloaded.Tier != db.TierPremium {
		t.Fatalf("expected PREMIUM, got %s", reloaded.Tier)
	}

	if err := svc.SetTier(user.ID, "GOLD"); err == nil {
		t.Fatal("expected error for unknown tier")
	}
	if err := svc.SetTier(9999, db.TierFree); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
