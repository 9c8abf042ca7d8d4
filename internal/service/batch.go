package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/reellists/listgen/internal/domain"
)

// RunNightly runs the pipeline for every stored user configuration. Each
// user executes inside its own failure boundary: a failed stage is
// classified and recorded, and the batch moves on. Fan-out is capped by the
// configured concurrency to avoid exhausting shared AI and metadata quotas.
func (s *Service) RunNightly(ctx context.Context) ([]domain.RunResult, domain.BatchSummary, error) {
	start := time.Now()

	configs, err := s.configs.ListConfigurations(ctx)
	if err != nil {
		return nil, domain.BatchSummary{}, fmt.Errorf("list user configurations: %w", err)
	}

	results := make([]domain.RunResult, len(configs))
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.concurrency) // semaphore

	for i, cfg := range configs {
		wg.Add(1)
		go func(idx int, cfg domain.UserConfiguration) {
			defer wg.Done()
			sem <- struct{}{}        // acquire
			defer func() { <-sem }() // release

			results[idx] = s.runUserForBatch(ctx, cfg)
		}(i, cfg)
	}
	wg.Wait()

	summary := domain.BatchSummary{ProcessingTimeMs: time.Since(start).Milliseconds()}
	for _, r := range results {
		if r.Success {
			summary.SuccessCount++
		} else {
			summary.FailedCount++
		}
	}

	s.log.Info().Int("users", len(configs)).
		Int("success", summary.SuccessCount).
		Int("failed", summary.FailedCount).
		Int64("elapsed_ms", summary.ProcessingTimeMs).
		Msg("nightly batch finished")

	return results, summary, nil
}

// runUserForBatch is the per-user failure boundary for the nightly batch.
func (s *Service) runUserForBatch(ctx context.Context, cfg domain.UserConfiguration) domain.RunResult {
	ranked, _, err := s.runPipeline(ctx, cfg)
	result := s.buildResult(cfg.UserID, len(ranked), err)
	if err != nil {
		s.log.Warn().Str("user", cfg.UserID).Str("error_kind", result.ErrorKind).Err(err).Msg("nightly run failed for user")
	}
	s.persistRun(ctx, cfg, result)
	return result
}
