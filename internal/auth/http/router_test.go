package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	authdomain "github.com/dcamposl/inventario/internal/auth/domain"
	authhttp "github.com/dcamposl/inventario/internal/auth/http"
	authrepo "github.com/dcamposl/inventario/internal/auth/repository"
	"github.com/dcamposl/inventario/internal/auth/service"
	"github.com/dcamposl/inventario/internal/common/clock"
	"github.com/dcamposl/inventario/internal/common/constants"
	"github.com/dcamposl/inventario/internal/common/logger"
	"github.com/dcamposl/inventario/internal/common/session"
)

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type mockUserRepo struct {
	findByUsernameFunc func(ctx context.Context, username string) (authdomain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user authdomain.User) error { return nil }

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (authdomain.User, error) {
	if m.findByUsernameFunc != nil {
		return m.findByUsernameFunc(ctx, username)
	}
	return authdomain.User{}, authrepo.ErrUserNotFound
}

func (m *mockUserRepo) FindByID(ctx context.Context, id authdomain.ID) (authdomain.User, error) {
	return authdomain.User{}, authrepo.ErrUserNotFound
}

type mockHasher struct {
	compareFunc func(hash string, password string) error
}

func (m *mockHasher) Hash(password string) (string, error) { return "hashed_" + password, nil }

func (m *mockHasher) Compare(hash string, password string) error {
	if m.compareFunc != nil {
		return m.compareFunc(hash, password)
	}
	return nil
}

type mockIDGenerator struct{}

func (m *mockIDGenerator) NewID() (string, error) {
	return "00000000-0000-0000-0000-000000000001", nil
}

const testSecret = "test-secret-that-is-long-enough!"

func setupHandler(t *testing.T) (*authhttp.Handler, *mockUserRepo, *mockHasher) {
	t.Helper()

	repo := &mockUserRepo{}
	hasher := &mockHasher{}
	// Seeded from the real clock so issued cookies survive expiry validation.
	mockClock := clock.NewMockClock(time.Now().UTC().Truncate(time.Second))
	log, err := logger.New("", "test", "info")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	issuer := service.NewTokenIssuer(testSecret, &mockIDGenerator{}, 8*time.Hour, mockClock)
	svc := service.NewAuthService(repo, hasher, &mockIDGenerator{}, issuer, mockClock, log)

	return authhttp.NewHandler(svc, 5*time.Second, log), repo, hasher
}

func stubUser(repo *mockUserRepo) {
	repo.findByUsernameFunc = func(ctx context.Context, username string) (authdomain.User, error) {
		if username != "alice" {
			return authdomain.User{}, authrepo.ErrUserNotFound
		}
		return authdomain.User{
			ID:           "user-1",
			Username:     "alice",
			PasswordHash: "hashed_secret123",
		}, nil
	}
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == constants.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestLogin_Success_JSON(t *testing.T) {
	h, repo, hasher := setupHandler(t)
	stubUser(repo)
	hasher.compareFunc = func(hash string, password string) error {
		if hash != "hashed_secret123" || password != "secret123" {
			return errors.New("password mismatch")
		}
		return nil
	}

	body, _ := json.Marshal(map[string]string{"username": "alice", "password": "secret123"})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	cookie := sessionCookie(rec)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected session cookie to be set")
	}
	if !cookie.HttpOnly {
		t.Error("expected session cookie to be HttpOnly")
	}

	claims, err := session.ParseToken(cookie.Value, []byte(testSecret))
	if err != nil {
		t.Fatalf("expected cookie token to parse, got %v", err)
	}
	if claims.Username != "alice" {
		t.Errorf("expected claims for alice, got %+v", claims)
	}

	var resp struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Username != "alice" {
		t.Errorf("expected username alice in body, got %s", resp.Username)
	}
}

func TestLogin_Success_Form(t *testing.T) {
	h, repo, _ := setupHandler(t)
	stubUser(repo)

	form := url.Values{"username": {"alice"}, "password": {"secret123"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if sessionCookie(rec) == nil {
		t.Error("expected session cookie to be set")
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h, repo, hasher := setupHandler(t)
	stubUser(repo)
	hasher.compareFunc = func(hash string, password string) error {
		return errors.New("password mismatch")
	}

	body, _ := json.Marshal(map[string]string{"username": "alice", "password": "wrong"})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	var env errorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if env.Code != "UNAUTHORIZED" {
		t.Errorf("expected code UNAUTHORIZED, got %s", env.Code)
	}
	if sessionCookie(rec) != nil {
		t.Error("expected no session cookie on failed login")
	}
}

func TestLogin_UnknownUser_SameAsWrongPassword(t *testing.T) {
	h, _, _ := setupHandler(t)

	body, _ := json.Marshal(map[string]string{"username": "nobody", "password": "secret123"})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestLogin_InvalidJSON(t *testing.T) {
	h, _, _ := setupHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	var env errorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if env.Code != "INVALID_JSON" {
		t.Errorf("expected code INVALID_JSON, got %s", env.Code)
	}
}

func TestLogin_MethodNotAllowed(t *testing.T) {
	h, _, _ := setupHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	h, _, _ := setupHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rec := httptest.NewRecorder()

	h.Logout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	cookie := sessionCookie(rec)
	if cookie == nil {
		t.Fatal("expected expired session cookie")
	}
	if cookie.Value != "" || cookie.MaxAge >= 0 {
		t.Errorf("expected cookie to be cleared, got value=%q maxAge=%d", cookie.Value, cookie.MaxAge)
	}
}

func TestSession_BehindGate(t *testing.T) {
	h, repo, _ := setupHandler(t)
	stubUser(repo)
	log, _ := logger.New("", "test", "info")

	gate := session.Middleware(testSecret, log)
	protected := gate(http.HandlerFunc(h.Session))

	// no token
	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d", rec.Code)
	}

	// log in, replay the cookie
	body, _ := json.Marshal(map[string]string{"username": "alice", "password": "secret123"})
	loginReq := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	loginReq.Header.Set("Content-Type", "application/json")
	loginRec := httptest.NewRecorder()
	h.Login(loginRec, loginReq)
	cookie := sessionCookie(loginRec)
	if cookie == nil {
		t.Fatal("expected login to set session cookie")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 with cookie, got %d", rec.Code)
	}
	var resp struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Username != "alice" {
		t.Errorf("expected username alice, got %s", resp.Username)
	}
}
