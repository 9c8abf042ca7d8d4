package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reellists/listgen/internal/domain"
)

// PostgresStore keeps credentials and configurations in two upsert-only
// tables, for deployments that already run the relational store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS user_credentials (
	user_id       TEXT PRIMARY KEY,
	access_token  TEXT NOT NULL,
	refresh_token TEXT NOT NULL,
	expires_at    TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS user_configurations (
	user_id         TEXT PRIMARY KEY,
	time_period     TEXT NOT NULL,
	genre_filters   TEXT[] NOT NULL DEFAULT '{}',
	list_name       TEXT NOT NULL,
	last_run_at     TIMESTAMPTZ,
	last_run_status TEXT NOT NULL DEFAULT ''
);`

// Migrate creates the tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetCredential(ctx context.Context, userID string) (*domain.UserCredential, error) {
	cred := &domain.UserCredential{}
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, access_token, refresh_token, expires_at
		 FROM user_credentials WHERE user_id = $1`,
		userID,
	).Scan(&cred.UserID, &cred.AccessToken, &cred.RefreshToken, &cred.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query credential for %s: %w", userID, err)
	}
	return cred, nil
}

func (s *PostgresStore) PutCredential(ctx context.Context, cred *domain.UserCredential) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_credentials (user_id, access_token, refresh_token, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE
		 SET access_token = $2, refresh_token = $3, expires_at = $4`,
		cred.UserID, cred.AccessToken, cred.RefreshToken, cred.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("upsert credential for %s: %w", cred.UserID, err)
	}
	return nil
}

func (s *PostgresStore) DeleteCredential(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM user_credentials WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete credential for %s: %w", userID, err)
	}
	return nil
}

func (s *PostgresStore) GetConfiguration(ctx context.Context, userID string) (*domain.UserConfiguration, error) {
	cfg := &domain.UserConfiguration{}
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, time_period, genre_filters, list_name,
		        COALESCE(last_run_at, 'epoch'::timestamptz), last_run_status
		 FROM user_configurations WHERE user_id = $1`,
		userID,
	).Scan(&cfg.UserID, &cfg.TimePeriod, &cfg.GenreFilters, &cfg.ListName, &cfg.LastRunAt, &cfg.LastRunStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query configuration for %s: %w", userID, err)
	}
	return cfg, nil
}

func (s *PostgresStore) PutConfiguration(ctx context.Context, cfg *domain.UserConfiguration) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_configurations (user_id, time_period, genre_filters, list_name, last_run_at, last_run_status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id) DO UPDATE
		 SET time_period = $2, genre_filters = $3, list_name = $4, last_run_at = $5, last_run_status = $6`,
		cfg.UserID, cfg.TimePeriod, cfg.GenreFilters, cfg.ListName, cfg.LastRunAt, cfg.LastRunStatus,
	)
	if err != nil {
		return fmt.Errorf("upsert configuration for %s: %w", cfg.UserID, err)
	}
	return nil
}

func (s *PostgresStore) ListConfigurations(ctx context.Context) ([]domain.UserConfiguration, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, time_period, genre_filters, list_name,
		        COALESCE(last_run_at, 'epoch'::timestamptz), last_run_status
		 FROM user_configurations ORDER BY user_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query configurations: %w", err)
	}
	defer rows.Close()

	var configs []domain.UserConfiguration
	for rows.Next() {
		var cfg domain.UserConfiguration
		if err := rows.Scan(&cfg.UserID, &cfg.TimePeriod, &cfg.GenreFilters, &cfg.ListName, &cfg.LastRunAt, &cfg.LastRunStatus); err != nil {
			return nil, fmt.Errorf("scan configuration: %w", err)
		}
		configs = append(configs, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate configurations: %w", err)
	}
	return configs, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
