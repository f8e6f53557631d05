package db

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DB 는 전역 데이터베이스 연결 인스턴스다
var DB *gorm.DB

// Init 은 데이터베이스 연결을 초기화하고 자동 마이그레이션을 수행한다.
// databasePath 가 비어 있으면 기본값 mindpause.db 를 사용한다.
func Init(databasePath string) error {
	path := strings.TrimSpace(databasePath)
	if path == "" {
		path = "mindpause.db"
	}

	if err := ensureParentDir(path); err != nil {
		return err
	}

	var err error
	DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return err
	}

	// 핵심 모델 테이블 자동 마이그레이션
	if err = DB.AutoMigrate(
		&User{},
		&EmotionLog{},
		&ChallengeTemplate{},
		&Challenge{},
		&UserChallenge{},
		&ChallengeCheckin{},
		&SubscriptionPlan{},
		&TokenQuota{},
		&TokenUsage{},
		&UserBadge{},
		&Post{},
		&Comment{},
		&PostLike{},
		&Conversation{},
		&Message{},
		&Notification{},
		&SystemSetting{},
	); err != nil {
		return err
	}

	return nil
}

func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
