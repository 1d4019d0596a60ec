package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"nezhabot/internal/models"
)

// TokenState is the lifecycle state of the token manager
type TokenState int

const (
	StateUninitialized TokenState = iota
	StateInitializing
	StateReady
	StateRefreshing
	// StateFailed follows a refresh whose fallback login failed. The
	// previous token is kept but the dashboard is likely to reject it.
	StateFailed
)

func (s TokenState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateRefreshing:
		return "refreshing"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Authenticator issues dashboard tokens
type Authenticator interface {
	Login(ctx context.Context, username, password string) (models.LoginResponse, error)
	RefreshToken(ctx context.Context, token string) (models.LoginResponse, error)
}

// Credentials are the dashboard login of the single operator
type Credentials struct {
	Username string
	Password string
}

// TokenManager owns the dashboard token: it acquires it, caches it in the
// credential store and refreshes or reacquires it on demand.
type TokenManager struct {
	auth  Authenticator
	store CredentialStore
	creds Credentials

	mu     sync.RWMutex
	token  string
	expiry time.Time
	state  TokenState

	refreshGroup singleflight.Group
}

// NewTokenManager creates an uninitialized manager
func NewTokenManager(auth Authenticator, store CredentialStore, creds Credentials) *TokenManager {
	return &TokenManager{
		auth:  auth,
		store: store,
		creds: creds,
		state: StateUninitialized,
	}
}

// InitTokenManager creates a manager and initializes it
func InitTokenManager(ctx context.Context, auth Authenticator, store CredentialStore, creds Credentials) (*TokenManager, error) {
	tm := NewTokenManager(auth, store, creds)
	if err := tm.Initialize(ctx); err != nil {
		return nil, err
	}
	return tm, nil
}

// Initialize adopts a stored token without validating it, or logs in when
// the store is empty. A failed login fails initialization.
func (tm *TokenManager) Initialize(ctx context.Context) error {
	tm.setState(StateInitializing)

	token, ok, err := tm.store.Get(ctx)
	if err != nil {
		log.Printf("[TOKEN] Could not read credential store: %v", err)
	}
	if ok && token != "" {
		tm.mu.Lock()
		tm.token = token
		tm.expiry = tokenExpiry(token)
		tm.state = StateReady
		tm.mu.Unlock()
		log.Printf("[TOKEN] Adopted cached token %s", tokenPreview(token))
		return nil
	}

	if err := tm.login(ctx); err != nil {
		tm.setState(StateUninitialized)
		return fmt.Errorf("failed to initialize token manager: %w", err)
	}
	tm.setState(StateReady)
	return nil
}

// Refresh renews the token. A failing refresh-token call, whatever its
// cause, falls back to exactly one full login. Only a failed login is
// returned.
func (tm *TokenManager) Refresh(ctx context.Context) error {
	_, err, _ := tm.refreshGroup.Do("refresh", func() (any, error) {
		return nil, tm.refresh(ctx)
	})
	return err
}

func (tm *TokenManager) refresh(ctx context.Context) error {
	tm.setState(StateRefreshing)

	resp, err := tm.auth.RefreshToken(ctx, tm.CurrentToken())
	if err == nil && resp.Token != "" {
		tm.adopt(resp)
		if err := tm.store.Put(ctx, resp.Token); err != nil {
			log.Printf("[TOKEN] Refreshed token could not be persisted: %v", err)
		}
		tm.setState(StateReady)
		log.Printf("[TOKEN] Token refreshed, expires %s", resp.Expire)
		return nil
	}
	if err == nil {
		err = fmt.Errorf("empty token in refresh response")
	}

	log.Printf("[TOKEN] Refresh failed, perhaps the token is expired. Acquiring new token")
	log.Printf("[TOKEN] The error message is: %v", err)
	if err := tm.login(ctx); err != nil {
		tm.setState(StateFailed)
		return err
	}
	tm.setState(StateReady)
	return nil
}

// login exchanges the operator credentials for a fresh token and persists it
func (tm *TokenManager) login(ctx context.Context) error {
	resp, err := tm.auth.Login(ctx, tm.creds.Username, tm.creds.Password)
	if err != nil {
		return &AuthError{Op: "login", Err: err}
	}
	if resp.Token == "" {
		return &AuthError{Op: "login", Err: fmt.Errorf("empty token in login response")}
	}

	tm.adopt(resp)
	if err := tm.store.Put(ctx, resp.Token); err != nil {
		log.Printf("[TOKEN] New token could not be persisted: %v", err)
	}
	log.Printf("[TOKEN] Logged in as %s, token %s", tm.creds.Username, tokenPreview(resp.Token))
	return nil
}

func (tm *TokenManager) adopt(resp models.LoginResponse) {
	expiry := parseExpire(resp.Expire)
	if expiry.IsZero() {
		expiry = tokenExpiry(resp.Token)
	}

	tm.mu.Lock()
	tm.token = resp.Token
	tm.expiry = expiry
	tm.mu.Unlock()
}

// CurrentToken returns the in-memory token
func (tm *TokenManager) CurrentToken() string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.token
}

// Expiry returns the best known expiry of the current token, zero if unknown.
// It is informational only.
func (tm *TokenManager) Expiry() time.Time {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.expiry
}

// State returns the lifecycle state
func (tm *TokenManager) State() TokenState {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.state
}

func (tm *TokenManager) setState(s TokenState) {
	tm.mu.Lock()
	tm.state = s
	tm.mu.Unlock()
}

// tokenExpiry reads the exp claim of a JWT without verifying its signature.
// The dashboard signs with its own secret; the bot only wants the date.
func tokenExpiry(token string) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

func parseExpire(expire string) time.Time {
	if expire == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, expire)
	if err != nil {
		return time.Time{}
	}
	return t
}

// tokenPreview shortens a token for logs
func tokenPreview(token string) string {
	if len(token) > 10 {
		return token[:10] + "..."
	}
	return "***"
}

// TokenPreview is tokenPreview for other packages
func TokenPreview(token string) string {
	return tokenPreview(token)
}
