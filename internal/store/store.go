// Package store persists user credentials and configurations behind a
// key-value contract. Two backends exist: Redis (default deployment) and
// Postgres, selected by config.
package store

import (
	"context"
	"errors"

	"github.com/reellists/listgen/internal/domain"
)

// ErrNotFound is returned when no record exists for the requested user.
var ErrNotFound = errors.New("store: record not found")

// Store is the persistence contract. Single-key operations are atomic; no
// cross-key transactional guarantees are assumed.
type Store interface {
	GetCredential(ctx context.Context, userID string) (*domain.UserCredential, error)
	PutCredential(ctx context.Context, cred *domain.UserCredential) error
	DeleteCredential(ctx context.Context, userID string) error

	GetConfiguration(ctx context.Context, userID string) (*domain.UserConfiguration, error)
	PutConfiguration(ctx context.Context, cfg *domain.UserConfiguration) error
	ListConfigurations(ctx context.Context) ([]domain.UserConfiguration, error)

	Ping(ctx context.Context) error
}
