package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/moneywise/internal/config"
	"github.com/tbourn/moneywise/internal/http/middleware"
	"github.com/tbourn/moneywise/internal/mailer"
	"github.com/tbourn/moneywise/internal/repo"
	"github.com/tbourn/moneywise/internal/services"
)

const testSecret = "router-test-secret"

type stubAnalyzer struct{ calls int }

func (s *stubAnalyzer) AcquireAndAnalyze(_ context.Context, _, prompt string, _ any) (string, error) {
	s.calls++
	return "analysis of " + prompt, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:router_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB, *stubAnalyzer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	an := &stubAnalyzer{}

	cfg := config.Config{
		APIBasePath:    "/api/v1",
		RateRPS:        100,
		RateBurst:      20,
		Auth:           config.AuthConfig{JWTSecret: testSecret},
		Reminders:      config.ReminderConfig{CronSecret: "cron-s3cret"},
		IdempotencyTTL: time.Hour,
		OTEL:           config.OTELConfig{ServiceName: "test-svc"},
	}
	r := gin.New()
	RegisterRoutes(r, db, cfg, Collaborators{
		Analyzer: an,
		Notifier: services.NewReminderNotifier(db, mailer.LogMailer{}, time.UTC),
	})
	return r, db, an
}

func bearer(t *testing.T, sub string) string {
	t.Helper()
	claims := middleware.Claims{
		Email: sub + "@example.com",
		Name:  "Test " + sub,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + tok
}

func serve(r *gin.Engine, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes_HealthMetricsAndHeaders(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := serve(r, http.MethodGet, "/healthz", "", "Origin", "https://app.example.com")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /healthz = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("ACAO=%q", got)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" || w.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("security headers missing: %v", w.Header())
	}

	w = serve(r, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics code=%d len=%d", w.Code, w.Body.Len())
	}
}

func TestRegisterRoutes_Fallbacks(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := serve(r, http.MethodGet, "/nope", "")
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), `"code":"not_found"`) {
		t.Fatalf("NoRoute: %d %s", w.Code, w.Body.String())
	}
	w = serve(r, http.MethodDelete, "/healthz", "")
	if w.Code != http.StatusMethodNotAllowed || !strings.Contains(w.Body.String(), `"code":"method_not_allowed"`) {
		t.Fatalf("NoMethod: %d %s", w.Code, w.Body.String())
	}
}

func TestRegisterRoutes_APIRequiresToken(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := serve(r, http.MethodGet, "/api/v1/expenses", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body["code"] != "unauthorized" || body["request_id"] == "" {
		t.Fatalf("unexpected envelope: %v", body)
	}
}

func TestRegisterRoutes_ExpenseCreateIsIdempotentAndTouchesUser(t *testing.T) {
	r, db, _ := newTestRouter(t)
	auth := bearer(t, "u1")
	body := `{"amount":"12.50","category":"eating out","date":"2026-10-15"}`

	first := serve(r, http.MethodPost, "/api/v1/expenses", body, "Authorization", auth, "Idempotency-Key", "abc-123")
	if first.Code != http.StatusCreated {
		t.Fatalf("first create: %d %s", first.Code, first.Body.String())
	}
	second := serve(r, http.MethodPost, "/api/v1/expenses", body, "Authorization", auth, "Idempotency-Key", "abc-123")
	if second.Code != http.StatusCreated || second.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("replay: %d replayed=%q", second.Code, second.Header().Get("Idempotent-Replayed"))
	}

	var a, b struct {
		ID       string `json:"id"`
		Category string `json:"category"`
	}
	_ = json.Unmarshal(first.Body.Bytes(), &a)
	_ = json.Unmarshal(second.Body.Bytes(), &b)
	if a.ID == "" || a.ID != b.ID || a.Category != "Eating Out" {
		t.Fatalf("first=%+v second=%+v", a, b)
	}

	n, _, err := repo.ExpensesStats(context.Background(), db, "u1", repo.ExpenseFilter{})
	if err != nil || n != 1 {
		t.Fatalf("expenses stored=%d err=%v", n, err)
	}
	u, err := repo.GetUser(context.Background(), db, "u1")
	if err != nil || u.Email != "u1@example.com" {
		t.Fatalf("user=%+v err=%v", u, err)
	}

	// Another user reusing the key gets a fresh resource.
	other := serve(r, http.MethodPost, "/api/v1/expenses", body, "Authorization", bearer(t, "u2"), "Idempotency-Key", "abc-123")
	if other.Code != http.StatusCreated || other.Header().Get("Idempotent-Replayed") != "" {
		t.Fatalf("other user: %d", other.Code)
	}
}

func TestRegisterRoutes_InvalidIdempotencyKey(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := serve(r, http.MethodPost, "/api/v1/expenses", `{"amount":"1"}`,
		"Authorization", bearer(t, "u1"), "Idempotency-Key", "has spaces")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestRegisterRoutes_AnalysisAndReminders(t *testing.T) {
	r, _, an := newTestRouter(t)
	auth := bearer(t, "u1")

	w := serve(r, http.MethodPost, "/api/v1/analysis", `{"prompt":"budget tips"}`, "Authorization", auth)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "analysis of budget tips") || an.calls != 1 {
		t.Fatalf("analysis: %d %s", w.Code, w.Body.String())
	}

	due := time.Now().UTC().AddDate(0, 0, 3).Format("2006-01-02")
	w = serve(r, http.MethodPost, "/api/v1/reminders",
		`{"title":"Rent","amount":"900","due_date":"`+due+`"}`, "Authorization", auth)
	if w.Code != http.StatusCreated {
		t.Fatalf("create reminder: %d %s", w.Code, w.Body.String())
	}

	w = serve(r, http.MethodPost, "/api/v1/reminders/process", "", "Authorization", auth)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"processed":1`) {
		t.Fatalf("process: %d %s", w.Code, w.Body.String())
	}
}

func TestRegisterRoutes_CronSecret(t *testing.T) {
	r, _, _ := newTestRouter(t)

	if w := serve(r, http.MethodPost, "/cron/reminders", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("no secret: %d", w.Code)
	}
	if w := serve(r, http.MethodPost, "/cron/reminders", "", "Authorization", bearer(t, "u1")); w.Code != http.StatusUnauthorized {
		t.Fatalf("user token accepted as cron secret: %d", w.Code)
	}
	w := serve(r, http.MethodPost, "/cron/reminders", "", "Authorization", "Bearer cron-s3cret")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"processed":0`) {
		t.Fatalf("cron: %d %s", w.Code, w.Body.String())
	}
}

func TestIdempotencyStore_DuplicateRememberIsNotAnError(t *testing.T) {
	db := newTestDB(t)
	s := idempotencyStore{db: db, ttl: time.Minute}
	ctx := context.Background()

	if err := s.Remember(ctx, "u1", "POST /x", "k", "r1", http.StatusCreated); err != nil {
		t.Fatalf("first: %v", err)
	}
	if err := s.Remember(ctx, "u1", "POST /x", "k", "r2", http.StatusCreated); err != nil {
		t.Fatalf("duplicate: %v", err)
	}
	id, found, err := s.Lookup(ctx, "u1", "POST /x", "k", time.Now().UTC())
	if err != nil || !found || id != "r1" {
		t.Fatalf("lookup = %q %v %v", id, found, err)
	}
	if _, found, _ := s.Lookup(ctx, "u1", "POST /x", "k", time.Now().Add(2*time.Minute)); found {
		t.Fatalf("expired record found")
	}
}
