package recommend

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/reellists/listgen/internal/domain"
	"github.com/reellists/listgen/internal/tmdb"
)

const (
	// ListSize is the final published list length.
	ListSize = 20
	// Post-filter truncation keeps the 70/30 split where both buckets can
	// supply it.
	rankedSimilarTarget = 14
)

// MetadataSearcher is the external metadata/search service.
type MetadataSearcher interface {
	SearchMovie(ctx context.Context, title string, year int) ([]tmdb.Movie, error)
}

type Enricher struct {
	meta MetadataSearcher
	log  zerolog.Logger
}

func NewEnricher(meta MetadataSearcher, log zerolog.Logger) *Enricher {
	return &Enricher{meta: meta, log: log}
}

// Enrich resolves each candidate to a canonical metadata record. Candidates
// with no acceptable match, no mappable genres, an already watched id or a
// duplicate resolution are dropped, never failed: unresolvable AI titles are
// an expected, common outcome. Per-item upstream failures are logged and the
// item skipped.
func (e *Enricher) Enrich(ctx context.Context, candidates []domain.Candidate, watchedIDs map[int64]struct{}) []domain.EnrichedCandidate {
	out := make([]domain.EnrichedCandidate, 0, len(candidates))
	resolved := make(map[int64]struct{}, len(candidates))

	for _, c := range candidates {
		results, err := e.meta.SearchMovie(ctx, c.Title, c.Year)
		if err != nil {
			var ue *domain.UpstreamError
			if errors.As(err, &ue) {
				e.log.Warn().Str("title", c.Title).Int("status", ue.Status).Msg("metadata lookup failed, candidate dropped")
			} else {
				e.log.Warn().Err(err).Str("title", c.Title).Msg("metadata lookup failed, candidate dropped")
			}
			continue
		}

		movie, ok := bestMatch(results, c.Title)
		if !ok {
			continue
		}
		if _, watched := watchedIDs[movie.ID]; watched {
			continue
		}
		if _, dup := resolved[movie.ID]; dup {
			continue
		}
		genres := tmdb.GenreNames(movie.GenreIDs)
		if len(genres) == 0 {
			continue
		}

		resolved[movie.ID] = struct{}{}
		out = append(out, domain.EnrichedCandidate{
			TitleID: movie.ID,
			Title:   movie.Title,
			Genres:  genres,
			Rating:  movie.VoteAverage,
			Year:    movie.Year(),
			Bucket:  c.Bucket,
		})
	}
	return out
}

// bestMatch picks the canonical record for a title: an exact normalized
// title match wins; otherwise the highest-popularity result, ties broken by
// rating and then by result order. Deterministic for identical search
// responses.
func bestMatch(results []tmdb.Movie, title string) (tmdb.Movie, bool) {
	if len(results) == 0 {
		return tmdb.Movie{}, false
	}

	want := titleKey(title, 0)
	for _, m := range results {
		if titleKey(m.Title, 0) == want {
			return m, true
		}
	}

	best := results[0]
	for _, m := range results[1:] {
		if m.Popularity > best.Popularity ||
			(m.Popularity == best.Popularity && m.VoteAverage > best.VoteAverage) {
			best = m
		}
	}
	return best, true
}

// FilterByGenre retains items whose genre set intersects the filters. With
// no filters configured it is a no-op.
func FilterByGenre(items []domain.EnrichedCandidate, filters []string) []domain.EnrichedCandidate {
	if len(filters) == 0 {
		return items
	}

	wanted := make(map[string]struct{}, len(filters))
	for _, f := range filters {
		wanted[titleKey(f, 0)] = struct{}{}
	}

	out := make([]domain.EnrichedCandidate, 0, len(items))
	for _, item := range items {
		for _, g := range item.Genres {
			if _, ok := wanted[titleKey(g, 0)]; ok {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// Rank orders similar-bucket items above diverse ones, preserving generator
// order within each bucket as the relevance proxy, and truncates to ListSize
// while keeping the 70/30 split where possible. When filtering has thinned a
// bucket the other backfills; fewer than ListSize items is acceptable.
func Rank(items []domain.EnrichedCandidate) domain.RankedList {
	var similar, diverse []domain.EnrichedCandidate
	for _, item := range items {
		if item.Bucket == domain.BucketDiverse {
			diverse = append(diverse, item)
		} else {
			similar = append(similar, item)
		}
	}

	takeSim := min(len(similar), rankedSimilarTarget)
	takeDiv := min(len(diverse), ListSize-rankedSimilarTarget)

	if short := rankedSimilarTarget - takeSim; short > 0 {
		takeDiv = min(len(diverse), takeDiv+short)
	}
	if short := (ListSize - rankedSimilarTarget) - takeDiv; short > 0 {
		takeSim = min(len(similar), takeSim+short)
	}

	ranked := make(domain.RankedList, 0, takeSim+takeDiv)
	ranked = append(ranked, similar[:takeSim]...)
	ranked = append(ranked, diverse[:takeDiv]...)
	return ranked
}
