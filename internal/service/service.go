// Package service wires the per-user recommendation pipeline and the
// nightly batch orchestrator over it.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/reellists/listgen/internal/domain"
	"github.com/reellists/listgen/internal/recommend"
	"github.com/reellists/listgen/internal/store"
	"github.com/reellists/listgen/internal/trakt"
)

// Collaborator contracts, narrow so tests can substitute fakes.

type TokenSource interface {
	EnsureValidToken(ctx context.Context, userID string) (string, error)
}

type HistorySource interface {
	History(ctx context.Context, accessToken, userID string, windowStart time.Time) ([]domain.WatchEvent, error)
}

type CandidateGenerator interface {
	Generate(ctx context.Context, req recommend.Request) ([]domain.Candidate, error)
}

type CandidateEnricher interface {
	Enrich(ctx context.Context, candidates []domain.Candidate, watchedIDs map[int64]struct{}) []domain.EnrichedCandidate
}

type ListSyncer interface {
	Sync(ctx context.Context, accessToken, userID, listName string, items domain.RankedList) (*trakt.ListSyncResult, error)
}

type ConfigStore interface {
	GetConfiguration(ctx context.Context, userID string) (*domain.UserConfiguration, error)
	PutConfiguration(ctx context.Context, cfg *domain.UserConfiguration) error
	ListConfigurations(ctx context.Context) ([]domain.UserConfiguration, error)
}

type Service struct {
	configs     ConfigStore
	tokens      TokenSource
	history     HistorySource
	generator   CandidateGenerator
	enricher    CandidateEnricher
	syncer      ListSyncer
	log         zerolog.Logger
	concurrency int
	now         func() time.Time
}

func New(configs ConfigStore, tokens TokenSource, history HistorySource, generator CandidateGenerator,
	enricher CandidateEnricher, syncer ListSyncer, concurrency int, log zerolog.Logger) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		configs:     configs,
		tokens:      tokens,
		history:     history,
		generator:   generator,
		enricher:    enricher,
		syncer:      syncer,
		log:         log,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// RunOnDemand executes the pipeline once for a single user, synchronously.
// The configuration is persisted on success (this is how a configuration is
// first created); the specific error kind is returned for display.
func (s *Service) RunOnDemand(ctx context.Context, cfg domain.UserConfiguration) (domain.RunResult, *trakt.ListSyncResult, error) {
	ranked, syncRes, err := s.runPipeline(ctx, cfg)
	result := s.buildResult(cfg.UserID, len(ranked), err)
	s.persistRun(ctx, cfg, result)
	return result, syncRes, err
}

// runPipeline is the per-user sequence: token → history → generate →
// enrich/filter/rank → sync.
func (s *Service) runPipeline(ctx context.Context, cfg domain.UserConfiguration) (domain.RankedList, *trakt.ListSyncResult, error) {
	token, err := s.tokens.EnsureValidToken(ctx, cfg.UserID)
	if err != nil {
		return nil, nil, err
	}

	windowStart := s.now().AddDate(0, 0, -cfg.TimePeriod.Days())
	events, err := s.history.History(ctx, token, cfg.UserID, windowStart)
	if err != nil {
		return nil, nil, err
	}
	if len(events) == 0 {
		// Short-circuit before spending AI quota.
		return nil, nil, domain.ErrNoHistory
	}

	candidates, err := s.generateWithFallback(ctx, recommend.Request{
		History:      events,
		GenreFilters: cfg.GenreFilters,
	})
	if err != nil {
		return nil, nil, err
	}

	watched := make(map[int64]struct{}, len(events))
	for _, ev := range events {
		if ev.TMDBID != 0 {
			watched[ev.TMDBID] = struct{}{}
		}
	}

	enriched := s.enricher.Enrich(ctx, candidates, watched)
	filtered := recommend.FilterByGenre(enriched, cfg.GenreFilters)
	ranked := recommend.Rank(filtered)
	if len(ranked) == 0 {
		return nil, nil, domain.ErrEmptyResult
	}

	syncRes, err := s.syncer.Sync(ctx, token, cfg.UserID, cfg.ListName, ranked)
	if err != nil {
		return nil, nil, err
	}
	return ranked, syncRes, nil
}

// generateWithFallback gives the AI step one fallback attempt with a
// simplified prompt after an AI or parse failure. A second failure surfaces
// as that attempt's error kind; the run never silently degrades to an empty
// list.
func (s *Service) generateWithFallback(ctx context.Context, req recommend.Request) ([]domain.Candidate, error) {
	candidates, err := s.generator.Generate(ctx, req)
	if err == nil {
		return candidates, nil
	}
	if !domain.IsAIServiceError(err) && !domain.IsUnparsableResponse(err) {
		return nil, err
	}

	s.log.Warn().Err(err).Msg("generation failed, retrying with simplified prompt")
	req.Simplified = true
	return s.generator.Generate(ctx, req)
}

func (s *Service) buildResult(userID string, itemCount int, err error) domain.RunResult {
	result := domain.RunResult{
		UserID:    userID,
		Success:   err == nil,
		ItemCount: itemCount,
		Timestamp: s.now().UTC(),
	}
	if err != nil {
		result.ItemCount = 0
		result.ErrorKind, result.Message = categorizeError(err)
	}
	return result
}

// persistRun records lastRunAt/lastRunStatus. A configuration is created on
// first success; failures only update configurations that already exist.
func (s *Service) persistRun(ctx context.Context, cfg domain.UserConfiguration, result domain.RunResult) {
	cfg.LastRunAt = result.Timestamp
	if result.Success {
		cfg.LastRunStatus = domain.RunSuccess
	} else {
		cfg.LastRunStatus = domain.RunFailed
		if _, err := s.configs.GetConfiguration(ctx, cfg.UserID); errors.Is(err, store.ErrNotFound) {
			return
		}
	}
	if err := s.configs.PutConfiguration(ctx, &cfg); err != nil {
		s.log.Error().Err(err).Str("user", cfg.UserID).Msg("persist run metadata failed")
	}
}

// categorizeError maps a pipeline failure to a stable error kind for run
// accounting and API responses.
func categorizeError(err error) (string, string) {
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		return "not_authenticated", "user has not authorized the tracking service"
	case errors.Is(err, domain.ErrRefreshFailed):
		return "refresh_failed", "stored refresh token was rejected, re-authorization required"
	case errors.Is(err, domain.ErrNoHistory):
		return "no_history", "no watch events found in the configured window"
	case errors.Is(err, domain.ErrEmptyResult):
		return "no_recommendations", "no candidates survived enrichment and filtering"
	case domain.IsUnparsableResponse(err):
		return "unparsable_response", "ai response could not be parsed"
	case domain.IsAIServiceError(err):
		return "ai_service_error", "ai suggestion service failed"
	case domain.IsListAPIError(err):
		return "list_api_error", "remote list endpoint failed"
	case domain.IsUpstreamError(err):
		return "upstream_error", "upstream service failed"
	default:
		return "internal_error", "an unexpected error occurred"
	}
}
