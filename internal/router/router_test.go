package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mindpause/internal/db"
	"github.com/mindpause/internal/handler"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouterTest(t *testing.T) (*gin.Engine, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file:router_test?mode=memory&cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := gdb.AutoMigrate(
		&db.User{}, &db.EmotionLog{},
		&db.ChallengeTemplate{}, &db.Challenge{}, &db.UserChallenge{}, &db.ChallengeCheckin{},
		&db.SubscriptionPlan{}, &db.TokenQuota{}, &db.TokenUsage{},
		&db.UserBadge{}, &db.Post{}, &db.Comment{}, &db.PostLike{},
		&db.Conversation{}, &db.Message{}, &db.Notification{}, &db.SystemSetting{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	db.DB = gdb

	api := handler.NewAPI(gdb, t.TempDir(), "/static/uploads")
	if err := api.Seed(); err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	r := SetupRouter(api, "test-secret", t.TempDir(), "/static/uploads")

	return r, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, payload interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestRouterPing(t *testing.T) {
	r, cleanup := setupRouterTest(t)
	defer cleanup()

	rr := doJSON(t, r, http.MethodGet, "/ping", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRouterAuthGate(t *testing.T) {
	r, cleanup := setupRouterTest(t)
	defer cleanup()

	// 비로그인 접근은 401
	rr := doJSON(t, r, http.MethodGet, "/api/dashboard", nil, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	// 가입하면 세션이 열리고 대시보드 접근 가능
	rr = doJSON(t, r, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "router@test.dev",
		"password": "secret-password",
		"nickname": "라우터",
	}, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 on register, got %d: %s", rr.Code, rr.Body.String())
	}

	cookies := rr.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected session cookie")
	}

	rr = doJSON(t, r, http.MethodGet, "/api/dashboard", nil, cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on dashboard, got %d: %s", rr.Code, rr.Body.String())
	}

	// 일반 사용자는 관리자 라우트 접근 불가
	rr = doJSON(t, r, http.MethodGet, "/api/admin/users", nil, cookies)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on admin route, got %d", rr.Code)
	}
}

func TestRouterEmotionFlow(t *testing.T) {
	r, cleanup := setupRouterTest(t)
	defer cleanup()

	rr := doJSON(t, r, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "flow@test.dev",
		"password": "secret-password",
		"nickname": "기록러",
	}, nil)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 on register, got %d", rr.Code)
	}
	cookies := rr.Result().Cookies()

	// AI 설정이 없으므로 피드백 없이 기록만 남는다
	rr = doJSON(t, r, http.MethodPost, "/api/emotions", map[string]interface{}{
		"emotionValue": 3,
		"note":         "산책했다",
	}, cookies)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 on emotion log, got %d: %s", rr.Code, rr.Body.String())
	}

	// 같은 날 재기록은 409
	rr = doJSON(t, r, http.MethodPost, "/api/emotions", map[string]interface{}{
		"emotionValue": 1,
	}, cookies)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate log, got %d", rr.Code)
	}

	rr = doJSON(t, r, http.MethodGet, "/api/emotions/stats", nil, cookies)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on stats, got %d", rr.Code)
	}

	var stats struct {
		CurrentStreak int `json:"currentStreak"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}
	if stats.CurrentStreak != 1 {
		t.Fatalf("expected streak 1, got %d", stats.CurrentStreak)
	}
}
