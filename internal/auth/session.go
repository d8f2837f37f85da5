// Package auth keeps the login state of one context: the refresh token in the
// local state file and the current access token in memory.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/ayatskii/panel-sub002/internal/cache"
	"github.com/ayatskii/panel-sub002/internal/client"
	dbpkg "github.com/ayatskii/panel-sub002/internal/db"
	"github.com/ayatskii/panel-sub002/internal/logging"
)

const (
	// RefreshTokenKey is the client_state key the refresh token is stored under.
	RefreshTokenKey = "refreshToken"

	loginPath   = "/api/auth/login/"
	refreshPath = "/api/auth/token/refresh/"

	refreshTimeout = 30 * time.Second
)

var (
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrSessionExpired = errors.New("session expired, log in again")
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// Session owns the auth state of one context for the life of the process.
type Session struct {
	api     *client.APIClient
	state   *dbpkg.Queries
	context string
	cache   *cache.Manager
	logger  *slog.Logger

	mu      sync.Mutex
	refresh string
	reuse   oauth2.TokenSource
}

type Options struct {
	// Cache is reset on logout. Optional.
	Cache  *cache.Manager
	Logger *slog.Logger
}

// Open rehydrates the session of contextName from the state file. api must be
// an unauthenticated client; it is only used for login and refresh calls.
func Open(ctx context.Context, db *sql.DB, api *client.APIClient, contextName string, opts Options) (*Session, error) {
	if db == nil {
		return nil, fmt.Errorf("state database is required")
	}
	if api == nil {
		return nil, fmt.Errorf("api client is required")
	}
	contextName = strings.TrimSpace(contextName)
	if contextName == "" {
		return nil, fmt.Errorf("context name is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Session{
		api:     api,
		state:   dbpkg.NewQueries(db),
		context: contextName,
		cache:   opts.Cache,
		logger:  logger,
	}
	row, err := s.state.GetState(ctx, contextName, RefreshTokenKey)
	switch {
	case err == nil:
		s.refresh = row.Value
	case errors.Is(err, dbpkg.ErrNotFound):
	default:
		return nil, fmt.Errorf("load session: %w", err)
	}
	s.reuse = oauth2.ReuseTokenSource(nil, refreshingSource{s})
	return s, nil
}

func (s *Session) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh != ""
}

// Login exchanges credentials for a token pair. The refresh token is persisted,
// the access token stays in memory.
func (s *Session) Login(ctx context.Context, username, password string) error {
	var pair tokenPair
	if err := s.api.Post(ctx, loginPath, Credentials{Username: username, Password: password}, &pair); err != nil {
		return err
	}
	if pair.Access == "" || pair.Refresh == "" {
		return fmt.Errorf("login response is missing tokens")
	}
	if err := s.state.PutState(ctx, s.context, RefreshTokenKey, pair.Refresh); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.mu.Lock()
	s.refresh = pair.Refresh
	s.reuse = oauth2.ReuseTokenSource(accessToken(pair.Access), refreshingSource{s})
	s.mu.Unlock()
	s.logger.Info("logged in", "context", s.context, "username", username)
	return nil
}

// Logout clears the persisted refresh token and drops every cached result.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.refresh = ""
	s.reuse = oauth2.ReuseTokenSource(nil, refreshingSource{s})
	s.mu.Unlock()
	if s.cache != nil {
		s.cache.Reset()
	}
	if err := s.state.DeleteState(ctx, s.context, RefreshTokenKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Token returns a valid access token, refreshing it when the current one expired.
func (s *Session) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	src := s.reuse
	s.mu.Unlock()
	return src.Token()
}

// TokenSource is what the authenticated API client is built with.
func (s *Session) TokenSource() oauth2.TokenSource { return s }

func (s *Session) refreshAccess() (*oauth2.Token, error) {
	s.mu.Lock()
	refresh := s.refresh
	s.mu.Unlock()
	if refresh == "" {
		return nil, ErrNotLoggedIn
	}

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	var pair tokenPair
	err := s.api.Post(ctx, refreshPath, map[string]string{"refresh": refresh}, &pair)
	if err != nil {
		if client.IsStatus(err, 401) {
			s.logger.Warn("refresh token rejected", "context", s.context)
			if clearErr := s.Logout(ctx); clearErr != nil {
				s.logger.Warn("clear rejected session failed", "context", s.context, "error", clearErr.Error())
			}
			return nil, fmt.Errorf("%w: %v", ErrSessionExpired, err)
		}
		return nil, err
	}
	if pair.Access == "" {
		return nil, fmt.Errorf("refresh response is missing the access token")
	}
	if pair.Refresh != "" && pair.Refresh != refresh {
		if err := s.state.PutState(ctx, s.context, RefreshTokenKey, pair.Refresh); err != nil {
			return nil, fmt.Errorf("persist rotated refresh token: %w", err)
		}
		s.mu.Lock()
		s.refresh = pair.Refresh
		s.mu.Unlock()
	}
	s.logger.Debug("access token refreshed", "context", s.context)
	return accessToken(pair.Access), nil
}

type refreshingSource struct{ s *Session }

func (r refreshingSource) Token() (*oauth2.Token, error) { return r.s.refreshAccess() }

// accessToken reads the expiry from the exp claim. The signature is not
// checked; the server does that.
func accessToken(raw string) *oauth2.Token {
	tok := &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}
	if exp, err := ExpiresAt(raw); err == nil {
		tok.Expiry = exp
	}
	return tok
}

// ExpiresAt returns the exp claim of an access token.
func ExpiresAt(raw string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, fmt.Errorf("parse access token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("read exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, fmt.Errorf("access token has no exp claim")
	}
	return exp.Time, nil
}

// Username returns the subject-like claim of an access token for display.
func Username(raw string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return ""
	}
	for _, key := range []string{"username", "email", "sub", "user_id"} {
		if v, ok := claims[key]; ok && v != nil {
			return strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return ""
}
