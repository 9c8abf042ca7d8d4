// Package auth owns the OAuth credential lifecycle: initial grants,
// freshness checks and serialized per-user refresh.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/reellists/listgen/internal/domain"
	"github.com/reellists/listgen/internal/store"
)

// OAuthClient is the external token endpoint.
type OAuthClient interface {
	Exchange(ctx context.Context, code string) (*domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
}

// CredentialStore is the slice of the persistence contract the manager needs.
type CredentialStore interface {
	GetCredential(ctx context.Context, userID string) (*domain.UserCredential, error)
	PutCredential(ctx context.Context, cred *domain.UserCredential) error
}

// Manager keeps each user's token pair usable. A token is treated as expired
// a safety margin before its real expiry, so a token that passes the check
// cannot lapse mid-request.
type Manager struct {
	store  CredentialStore
	oauth  OAuthClient
	margin time.Duration
	log    zerolog.Logger
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewManager(st CredentialStore, oauth OAuthClient, margin time.Duration, log zerolog.Logger) *Manager {
	return &Manager{
		store:  st,
		oauth:  oauth,
		margin: margin,
		log:    log,
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
}

// userLock returns the mutex serializing refreshes for one user, so two
// concurrent callers never trigger two refresh calls.
func (m *Manager) userLock(userID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[userID] = l
	}
	return l
}

// StoreInitialGrant exchanges an authorization code and persists the pair.
func (m *Manager) StoreInitialGrant(ctx context.Context, userID, code string) error {
	pair, err := m.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange grant for %s: %w", userID, err)
	}
	return m.persist(ctx, userID, pair)
}

// GetToken returns the stored access token without a freshness check.
func (m *Manager) GetToken(ctx context.Context, userID string) (string, error) {
	cred, err := m.store.GetCredential(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", domain.ErrNotAuthenticated
		}
		return "", fmt.Errorf("load credential for %s: %w", userID, err)
	}
	return cred.AccessToken, nil
}

// EnsureValidToken returns an access token guaranteed to outlive the safety
// margin, refreshing first if needed. A failed refresh is terminal for the
// user's run: it surfaces as ErrRefreshFailed and is never retried here.
func (m *Manager) EnsureValidToken(ctx context.Context, userID string) (string, error) {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	cred, err := m.store.GetCredential(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", domain.ErrNotAuthenticated
		}
		return "", fmt.Errorf("load credential for %s: %w", userID, err)
	}

	if m.now().Before(cred.ExpiresAt.Add(-m.margin)) {
		return cred.AccessToken, nil
	}
	return m.refreshLocked(ctx, cred)
}

// Refresh forces a refresh regardless of the stored expiry.
func (m *Manager) Refresh(ctx context.Context, userID string) (string, error) {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	cred, err := m.store.GetCredential(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", domain.ErrNotAuthenticated
		}
		return "", fmt.Errorf("load credential for %s: %w", userID, err)
	}
	return m.refreshLocked(ctx, cred)
}

func (m *Manager) refreshLocked(ctx context.Context, cred *domain.UserCredential) (string, error) {
	pair, err := m.oauth.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		m.log.Warn().Err(err).Str("user", cred.UserID).Msg("token refresh rejected, user must re-authorize")
		return "", fmt.Errorf("refresh for %s: %w", cred.UserID, domain.ErrRefreshFailed)
	}
	if err := m.persist(ctx, cred.UserID, pair); err != nil {
		return "", err
	}
	return pair.AccessToken, nil
}

// persist writes both tokens and the expiry as one record, so a reader never
// observes a fresh access token with a stale expiry.
func (m *Manager) persist(ctx context.Context, userID string, pair *domain.TokenPair) error {
	cred := &domain.UserCredential{
		UserID:       userID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    m.now().Add(time.Duration(pair.ExpiresIn) * time.Second),
	}
	if err := m.store.PutCredential(ctx, cred); err != nil {
		return fmt.Errorf("persist credential for %s: %w", userID, err)
	}
	return nil
}
