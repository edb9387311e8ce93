// Session lifecycle: token hydration, sign in, registration, sign out
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/minhvu/tcbsync/internal/models"
	"github.com/minhvu/tcbsync/internal/shared"
)

// TokenKey is the fixed name under which the session token is persisted.
const TokenKey = "session_token"

// TokenStore persists the session token across process restarts.
// Implemented by repositories.CredentialRepository; a nil store degrades to
// an in-memory session.
type TokenStore interface {
	Get(name string) (string, error)
	Put(name, value string) error
	Delete(name string) error
}

// SessionManager owns the authentication token and the current user identity.
//
// It is the single writer of the ambient credential: it implements
// [oauth2.TokenSource], so the authorized transport reads the token under the
// manager's lock at request time. Everything else holds read-only access
// through that transport.
type SessionManager struct {
	mu      sync.RWMutex
	token   string
	user    *models.User
	loading bool

	api    *Client
	store  TokenStore
	logger *log.Logger
}

// NewSessionManager creates a SessionManager and the authorized transport the
// rest of the client issues requests through.
func NewSessionManager(baseURL string, base *http.Client, store TokenStore, logger *log.Logger) *SessionManager {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	m := &SessionManager{
		loading: true,
		store:   store,
		logger:  logger,
	}
	m.api = NewClient(baseURL, base, m)
	return m
}

// Token implements [oauth2.TokenSource]. It fails when no session is
// established, which stops authorized requests before they leave the process.
func (m *SessionManager) Token() (*oauth2.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" {
		return nil, fmt.Errorf("%w: no session token", shared.ErrNotAuthenticated)
	}
	return &oauth2.Token{AccessToken: m.token, TokenType: "Bearer"}, nil
}

// Client returns the authorized transport. Every component that talks to the
// service does so through this client.
func (m *SessionManager) Client() *Client {
	return m.api
}

// Loading reports whether initial session resolution is still in flight.
// Views gate all navigation decisions until this turns false.
func (m *SessionManager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// CurrentUser returns the authenticated identity, or nil when signed out.
func (m *SessionManager) CurrentUser() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Initialize hydrates the session from the persisted token, if any, and
// resolves the current identity. Resolution failures tear the session down
// and are not returned to the caller; a stale token is an expected state, not
// an error. Initialize always finishes with loading false.
func (m *SessionManager) Initialize(ctx context.Context) error {
	defer m.finishLoading()

	if m.store == nil {
		return nil
	}

	token, err := m.store.Get(TokenKey)
	if err != nil {
		return fmt.Errorf("failed to read persisted token: %w", err)
	}
	if token == "" {
		return nil
	}

	m.setToken(token)

	user, err := m.fetchIdentity(ctx)
	if err != nil {
		m.logger.Warn("session hydration failed, clearing token", "err", err)
		m.teardown()
		return nil
	}

	m.setUser(user)
	m.logger.Debug("session hydrated", "user", user.Username)
	return nil
}

// SignIn exchanges credentials for a token, persists it, and resolves the
// identity. On any failure the session is torn down and the caller gets an
// error wrapping [shared.ErrAuthFailed] with the service's message.
func (m *SessionManager) SignIn(ctx context.Context, username, password string) error {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	resp, err := m.api.PostForm(ctx, "/api/auth/token", form)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	return m.establish(ctx, resp)
}

// Register provisions a new account and establishes a session with the
// returned token. Failure semantics match SignIn.
func (m *SessionManager) Register(ctx context.Context, username, password string) error {
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return fmt.Errorf("failed to encode registration: %w", err)
	}

	resp, err := m.api.PostPublic(ctx, "/api/auth/register", payload)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	return m.establish(ctx, resp)
}

// SignOut clears the persisted token, the in-memory token, and the user.
// Safe to call when already signed out.
func (m *SessionManager) SignOut() error {
	if m.store != nil {
		if err := m.store.Delete(TokenKey); err != nil {
			return fmt.Errorf("failed to delete persisted token: %w", err)
		}
	}
	m.teardown()
	return nil
}

// establish consumes a token-minting response: persist the token, set it as
// the ambient credential, and resolve the identity.
func (m *SessionManager) establish(ctx context.Context, resp *APIResponse) error {
	if !resp.OK() {
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, resp.Detail())
	}

	var token models.Token
	if err := json.Unmarshal(resp.Body, &token); err != nil || token.AccessToken == "" {
		return fmt.Errorf("%w: malformed token response", shared.ErrAuthFailed)
	}

	if m.store != nil {
		if err := m.store.Put(TokenKey, token.AccessToken); err != nil {
			return fmt.Errorf("failed to persist token: %w", err)
		}
	}
	m.setToken(token.AccessToken)

	user, err := m.fetchIdentity(ctx)
	if err != nil {
		m.teardown()
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	m.setUser(user)
	return nil
}

// fetchIdentity resolves the current user through the authorized transport.
func (m *SessionManager) fetchIdentity(ctx context.Context) (*models.User, error) {
	resp, err := m.api.Get(ctx, "/api/auth/me")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: %s", shared.ErrAuthFailed, resp.Detail())
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var user models.User
	if err := json.Unmarshal(resp.Body, &user); err != nil {
		return nil, fmt.Errorf("failed to decode identity: %w", err)
	}
	return &user, nil
}

func (m *SessionManager) setToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

func (m *SessionManager) setUser(user *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = user
}

func (m *SessionManager) teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.user = nil
}

func (m *SessionManager) finishLoading() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loading = false
}
