package auth

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ayatskii/panel-sub002/internal/cache"
	"github.com/ayatskii/panel-sub002/internal/client"
	dbpkg "github.com/ayatskii/panel-sub002/internal/db"
)

type authTransport struct {
	mu      sync.Mutex
	calls   map[string]int
	bodies  map[string][]map[string]string
	respond func(path string, body map[string]string) (int, string)
}

func newAuthTransport(respond func(path string, body map[string]string) (int, string)) *authTransport {
	return &authTransport{calls: map[string]int{}, bodies: map[string][]map[string]string{}, respond: respond}
}

func (a *authTransport) Do(_ context.Context, req *http.Request) (*http.Response, error) {
	body := map[string]string{}
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(raw, &body)
	}
	a.mu.Lock()
	a.calls[req.URL.Path]++
	a.bodies[req.URL.Path] = append(a.bodies[req.URL.Path], body)
	a.mu.Unlock()
	status, payload := a.respond(req.URL.Path, body)
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(payload)),
	}, nil
}

func (a *authTransport) Close() error { return nil }

func (a *authTransport) count(path string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[path]
}

func signedToken(t *testing.T, exp time.Time, username string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp":      exp.Unix(),
		"username": username,
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return tok
}

func openSessionTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := dbpkg.OpenState(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("OpenState() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestLoginPersistsRefreshTokenAndReusesAccessToken(t *testing.T) {
	ctx := context.Background()
	db := openSessionTestDB(t)
	access := signedToken(t, time.Now().Add(time.Hour), "alice")
	tr := newAuthTransport(func(path string, body map[string]string) (int, string) {
		if path == loginPath {
			if body["username"] != "alice" || body["password"] != "s3cret" {
				return http.StatusUnauthorized, `{"detail":"No active account found with the given credentials"}`
			}
			return http.StatusOK, `{"access":"` + access + `","refresh":"refresh-1"}`
		}
		return http.StatusNotFound, `{"detail":"unexpected"}`
	})

	s, err := Open(ctx, db, client.New(tr), "prod", Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if s.LoggedIn() {
		t.Fatalf("expected fresh session to be logged out")
	}
	if err := s.Login(ctx, "alice", "s3cret"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	row, err := dbpkg.NewQueries(db).GetState(ctx, "prod", RefreshTokenKey)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if row.Value != "refresh-1" {
		t.Fatalf("expected persisted refresh token, got %q", row.Value)
	}

	for i := 0; i < 3; i++ {
		tok, err := s.Token()
		if err != nil {
			t.Fatalf("Token() error = %v", err)
		}
		if tok.AccessToken != access {
			t.Fatalf("expected login access token to be reused")
		}
	}
	if got := tr.count(refreshPath); got != 0 {
		t.Fatalf("expected no refresh calls, got %d", got)
	}
}

func TestLoginRejectedCredentials(t *testing.T) {
	tr := newAuthTransport(func(string, map[string]string) (int, string) {
		return http.StatusUnauthorized, `{"detail":"No active account found with the given credentials"}`
	})
	db := openSessionTestDB(t)
	s, err := Open(context.Background(), db, client.New(tr), "prod", Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	err = s.Login(context.Background(), "alice", "wrong")
	if !client.IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
	if s.LoggedIn() {
		t.Fatalf("expected session to stay logged out")
	}
}

func TestOpenRehydratesAndRefreshesWithRotation(t *testing.T) {
	ctx := context.Background()
	db := openSessionTestDB(t)
	if err := dbpkg.NewQueries(db).PutState(ctx, "prod", RefreshTokenKey, "refresh-1"); err != nil {
		t.Fatalf("PutState() error = %v", err)
	}
	fresh := signedToken(t, time.Now().Add(time.Hour), "alice")
	tr := newAuthTransport(func(path string, body map[string]string) (int, string) {
		if path == refreshPath && body["refresh"] == "refresh-1" {
			return http.StatusOK, `{"access":"` + fresh + `","refresh":"refresh-2"}`
		}
		return http.StatusBadRequest, `{"detail":"bad refresh"}`
	})

	s, err := Open(ctx, db, client.New(tr), "prod", Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !s.LoggedIn() {
		t.Fatalf("expected persisted refresh token to rehydrate the session")
	}
	tok, err := s.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok.AccessToken != fresh {
		t.Fatalf("unexpected access token %q", tok.AccessToken)
	}
	if _, err := s.Token(); err != nil {
		t.Fatalf("second Token() error = %v", err)
	}
	if got := tr.count(refreshPath); got != 1 {
		t.Fatalf("expected a single refresh call, got %d", got)
	}
	row, err := dbpkg.NewQueries(db).GetState(ctx, "prod", RefreshTokenKey)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if row.Value != "refresh-2" {
		t.Fatalf("expected rotated refresh token to be persisted, got %q", row.Value)
	}

	other, err := Open(ctx, db, client.New(tr), "staging", Options{})
	if err != nil {
		t.Fatalf("Open(staging) error = %v", err)
	}
	if other.LoggedIn() {
		t.Fatalf("expected refresh token to be scoped per context")
	}
	if _, err := other.Token(); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestExpiredAccessTokenIsRefreshed(t *testing.T) {
	ctx := context.Background()
	db := openSessionTestDB(t)
	stale := signedToken(t, time.Now().Add(-time.Minute), "alice")
	fresh := signedToken(t, time.Now().Add(time.Hour), "alice")
	tr := newAuthTransport(func(path string, _ map[string]string) (int, string) {
		switch path {
		case loginPath:
			return http.StatusOK, `{"access":"` + stale + `","refresh":"refresh-1"}`
		case refreshPath:
			return http.StatusOK, `{"access":"` + fresh + `"}`
		}
		return http.StatusNotFound, `{}`
	})
	s, err := Open(ctx, db, client.New(tr), "prod", Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Login(ctx, "alice", "s3cret"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	tok, err := s.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if tok.AccessToken != fresh {
		t.Fatalf("expected refreshed access token")
	}
	row, err := dbpkg.NewQueries(db).GetState(ctx, "prod", RefreshTokenKey)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if row.Value != "refresh-1" {
		t.Fatalf("expected refresh token to be kept when not rotated, got %q", row.Value)
	}
}

func TestRejectedRefreshTokenEndsSession(t *testing.T) {
	ctx := context.Background()
	db := openSessionTestDB(t)
	if err := dbpkg.NewQueries(db).PutState(ctx, "prod", RefreshTokenKey, "revoked"); err != nil {
		t.Fatalf("PutState() error = %v", err)
	}
	tr := newAuthTransport(func(string, map[string]string) (int, string) {
		return http.StatusUnauthorized, `{"detail":"Token is invalid or expired","code":"token_not_valid"}`
	})
	s, err := Open(ctx, db, client.New(tr), "prod", Options{})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := s.Token(); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if s.LoggedIn() {
		t.Fatalf("expected session to be cleared")
	}
	if _, err := dbpkg.NewQueries(db).GetState(ctx, "prod", RefreshTokenKey); !errors.Is(err, dbpkg.ErrNotFound) {
		t.Fatalf("expected refresh token to be deleted, got %v", err)
	}
}

func TestLogoutResetsCache(t *testing.T) {
	ctx := context.Background()
	db := openSessionTestDB(t)
	access := signedToken(t, time.Now().Add(time.Hour), "alice")
	tr := newAuthTransport(func(string, map[string]string) (int, string) {
		return http.StatusOK, `{"access":"` + access + `","refresh":"refresh-1"}`
	})
	m := cache.NewManager(cache.Options{})
	t.Cleanup(m.Close)
	s, err := Open(ctx, db, client.New(tr), "prod", Options{Cache: m})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Login(ctx, "alice", "s3cret"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	q := cache.QueryDef[struct{}, string]{
		Name:    "whoami",
		Execute: func(context.Context, struct{}) (string, error) { return "alice", nil },
	}
	if _, err := cache.Fetch(ctx, m, q, struct{}{}); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("expected one cached entry, got %d", m.Len())
	}

	if err := s.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("expected cache to be reset, got %d entries", m.Len())
	}
	if s.LoggedIn() {
		t.Fatalf("expected session to be logged out")
	}
	if _, err := s.Token(); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn after logout, got %v", err)
	}
}

func TestTokenClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := signedToken(t, exp, "alice")
	got, err := ExpiresAt(raw)
	if err != nil {
		t.Fatalf("ExpiresAt() error = %v", err)
	}
	if !got.Equal(exp) {
		t.Fatalf("expected exp %s, got %s", exp, got)
	}
	if name := Username(raw); name != "alice" {
		t.Fatalf("expected username alice, got %q", name)
	}
	if _, err := ExpiresAt("not-a-jwt"); err == nil {
		t.Fatalf("expected malformed token to fail")
	}
}
