package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reellists/listgen/internal/domain"
	"github.com/reellists/listgen/internal/store"
)

type memStore struct {
	creds map[string]domain.UserCredential
}

func newMemStore() *memStore {
	return &memStore{creds: make(map[string]domain.UserCredential)}
}

func (m *memStore) GetCredential(_ context.Context, userID string) (*domain.UserCredential, error) {
	cred, ok := m.creds[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &cred, nil
}

func (m *memStore) PutCredential(_ context.Context, cred *domain.UserCredential) error {
	m.creds[cred.UserID] = *cred
	return nil
}

type fakeOAuth struct {
	refreshCalls  int
	exchangeCalls int
	fail          bool
}

func (f *fakeOAuth) Exchange(context.Context, string) (*domain.TokenPair, error) {
	f.exchangeCalls++
	if f.fail {
		return nil, errors.New("invalid grant")
	}
	return &domain.TokenPair{AccessToken: "access-0", RefreshToken: "refresh-0", ExpiresIn: 7200}, nil
}

func (f *fakeOAuth) Refresh(context.Context, string) (*domain.TokenPair, error) {
	f.refreshCalls++
	if f.fail {
		return nil, errors.New("invalid refresh token")
	}
	return &domain.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1", ExpiresIn: 7200}, nil
}

func newTestManager(st CredentialStore, oauth OAuthClient, now time.Time) *Manager {
	m := NewManager(st, oauth, 5*time.Minute, zerolog.Nop())
	m.now = func() time.Time { return now }
	return m
}

func TestEnsureValidTokenFreshTokenSkipsRefresh(t *testing.T) {
	now := time.Now()
	st := newMemStore()
	st.creds["alice"] = domain.UserCredential{
		UserID: "alice", AccessToken: "live", RefreshToken: "r", ExpiresAt: now.Add(time.Hour),
	}
	oauth := &fakeOAuth{}
	m := newTestManager(st, oauth, now)

	for i := 0; i < 2; i++ {
		token, err := m.EnsureValidToken(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, "live", token)
	}
	assert.Zero(t, oauth.refreshCalls, "fresh token must never trigger a refresh")
}

func TestEnsureValidTokenRefreshesOnceWithinMargin(t *testing.T) {
	now := time.Now()
	st := newMemStore()
	// Inside the 5-minute safety margin: treated as expired.
	st.creds["alice"] = domain.UserCredential{
		UserID: "alice", AccessToken: "stale", RefreshToken: "r", ExpiresAt: now.Add(2 * time.Minute),
	}
	oauth := &fakeOAuth{}
	m := newTestManager(st, oauth, now)

	token, err := m.EnsureValidToken(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "access-1", token)

	// Second immediate call sees the refreshed expiry and does not refresh.
	token, err = m.EnsureValidToken(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "access-1", token)
	assert.Equal(t, 1, oauth.refreshCalls)
}

func TestEnsureValidTokenPersistsPairAtomically(t *testing.T) {
	now := time.Now()
	st := newMemStore()
	st.creds["alice"] = domain.UserCredential{
		UserID: "alice", AccessToken: "stale", RefreshToken: "old", ExpiresAt: now.Add(-time.Minute),
	}
	m := newTestManager(st, &fakeOAuth{}, now)

	_, err := m.EnsureValidToken(context.Background(), "alice")
	require.NoError(t, err)

	stored := st.creds["alice"]
	assert.Equal(t, "access-1", stored.AccessToken)
	assert.Equal(t, "refresh-1", stored.RefreshToken)
	assert.Equal(t, now.Add(7200*time.Second), stored.ExpiresAt, "expiry must be written with the tokens")
}

func TestEnsureValidTokenRefreshFailure(t *testing.T) {
	now := time.Now()
	st := newMemStore()
	st.creds["alice"] = domain.UserCredential{
		UserID: "alice", AccessToken: "stale", RefreshToken: "bad", ExpiresAt: now.Add(-time.Minute),
	}
	m := newTestManager(st, &fakeOAuth{fail: true}, now)

	_, err := m.EnsureValidToken(context.Background(), "alice")
	assert.ErrorIs(t, err, domain.ErrRefreshFailed)

	stored := st.creds["alice"]
	assert.Equal(t, "stale", stored.AccessToken, "failed refresh must not clobber stored state")
}

func TestEnsureValidTokenUnknownUser(t *testing.T) {
	m := newTestManager(newMemStore(), &fakeOAuth{}, time.Now())
	_, err := m.EnsureValidToken(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestStoreInitialGrant(t *testing.T) {
	now := time.Now()
	st := newMemStore()
	oauth := &fakeOAuth{}
	m := newTestManager(st, oauth, now)

	require.NoError(t, m.StoreInitialGrant(context.Background(), "bob", "auth-code"))
	assert.Equal(t, 1, oauth.exchangeCalls)

	token, err := m.GetToken(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, "access-0", token)
}
