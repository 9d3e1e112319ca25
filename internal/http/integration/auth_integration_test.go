package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/JeanCalmon10/madr/internal/config"
	"github.com/JeanCalmon10/madr/internal/db"
	apphttp "github.com/JeanCalmon10/madr/internal/http"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const testJWTSecret = "integration-test-secret"

func testConfig() config.Config {
	return config.Config{
		Env:                 "test",
		JWTSecret:           testJWTSecret,
		JWTAccessTTLMinutes: 30,
		BcryptCost:          4,
		LoginRateLimit:      1000,
		LoginRateWindowS:    60,
	}
}

// setupTestRouter wires the full router against a live database. The suite
// skips when TEST_DB_DSN is not set.
func setupTestRouter(t *testing.T) (*gin.Engine, *pgxpool.Pool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")

	if dsn == "" {
		t.Skip("TEST_DB_DSN not set; skipping integration tests")
	}

	ctx := context.Background()

	if err := db.RunMigrations(ctx, dsn); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)

	if err != nil {
		t.Fatalf("create pgx pool: %v", err)
	}

	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE books, romancists, users RESTART IDENTITY CASCADE`)

	if err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return apphttp.NewRouter(logger, pool, nil, testConfig()), pool
}

func postJSON(router *gin.Engine, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func do(router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func register(t *testing.T, router *gin.Engine, username, email, password string) int64 {
	t.Helper()

	body := fmt.Sprintf(`{"username": %q, "email": %q, "password": %q}`, username, email, password)
	rec := postJSON(router, "/users", body, "")

	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status = %d (body %s)", email, rec.Code, rec.Body.String())
	}

	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("register response leaks password material: %s", rec.Body.String())
	}

	var created struct {
		ID int64 `json:"id"`
	}

	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("register response: %v", err)
	}

	return created.ID
}

func login(t *testing.T, router *gin.Engine, email, password string) string {
	t.Helper()

	form := url.Values{"username": {email}, "password": {password}}

	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status = %d (body %s)", email, rec.Code, rec.Body.String())
	}

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}

	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("login response: %v", err)
	}

	if body.TokenType != "bearer" {
		t.Fatalf("token_type = %q, want bearer", body.TokenType)
	}

	return body.AccessToken
}

func TestRegisterLoginAndMe(t *testing.T) {
	router, _ := setupTestRouter(t)

	id := register(t, router, "Jean", "j@test.com", "secret")

	// wrong password: 401 with the fixed detail and a bearer challenge
	form := url.Values{"username": {"j@test.com"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: status = %d", rec.Code)
	}

	var errBody map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &errBody)

	if errBody["detail"] != "Invalid email or password" {
		t.Errorf("detail = %q", errBody["detail"])
	}

	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Errorf("WWW-Authenticate = %q", rec.Header().Get("WWW-Authenticate"))
	}

	// correct password: token resolves to the registered user
	token := login(t, router, "j@test.com", "secret")

	rec = do(router, http.MethodGet, "/users/me", token)

	if rec.Code != http.StatusOK {
		t.Fatalf("/users/me: status = %d (body %s)", rec.Code, rec.Body.String())
	}

	var me struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}

	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("me response: %v", err)
	}

	if me.ID != id || me.Username != "Jean" || me.Email != "j@test.com" {
		t.Errorf("unexpected identity %+v", me)
	}
}

func TestDeleteOtherUserForbidden(t *testing.T) {
	router, _ := setupTestRouter(t)

	aliceID := register(t, router, "Alice", "alice@test.com", "secret-a")
	register(t, router, "Bob", "bob@test.com", "secret-b")

	bobToken := login(t, router, "bob@test.com", "secret-b")

	rec := do(router, http.MethodDelete, fmt.Sprintf("/users/%d", aliceID), bobToken)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 (body %s)", rec.Code, rec.Body.String())
	}

	// alice is untouched
	rec = do(router, http.MethodGet, fmt.Sprintf("/users/%d", aliceID), "")

	if rec.Code != http.StatusOK {
		t.Fatalf("alice should still exist, got %d", rec.Code)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	router, _ := setupTestRouter(t)

	id := register(t, router, "Carol", "carol@test.com", "secret")

	claims := jwt.RegisteredClaims{
		Subject:   fmt.Sprintf("%d", id),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Minute)),
	}

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))

	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}

	rec := do(router, http.MethodGet, "/users/me", expired)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Errorf("WWW-Authenticate = %q, want Bearer", rec.Header().Get("WWW-Authenticate"))
	}
}

func TestDeletedUserTokenRejected(t *testing.T) {
	router, pool := setupTestRouter(t)

	id := register(t, router, "Dave", "dave@test.com", "secret")
	token := login(t, router, "dave@test.com", "secret")

	// the account goes away while the token is still cryptographically valid
	_, err := pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, id)

	if err != nil {
		t.Fatalf("delete user: %v", err)
	}

	rec := do(router, http.MethodGet, "/users/me", token)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestRefreshIssuesNewTokenSameSubject(t *testing.T) {
	router, _ := setupTestRouter(t)

	register(t, router, "Eve", "eve@test.com", "secret")
	token := login(t, router, "eve@test.com", "secret")

	rec := postJSON(router, "/auth/refresh_token", "", token)

	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: status = %d (body %s)", rec.Code, rec.Body.String())
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}

	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("refresh response: %v", err)
	}

	// the old token is not revoked: both still authenticate
	for _, tok := range []string{token, body.AccessToken} {
		rec := do(router, http.MethodGet, "/users/me", tok)

		if rec.Code != http.StatusOK {
			t.Errorf("token rejected after refresh: %d", rec.Code)
		}
	}
}
