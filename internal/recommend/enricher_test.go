package recommend

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reellists/listgen/internal/domain"
	"github.com/reellists/listgen/internal/tmdb"
)

type fakeMetadata struct {
	results map[string][]tmdb.Movie
	err     error
}

func (f *fakeMetadata) SearchMovie(_ context.Context, title string, _ int) ([]tmdb.Movie, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results[title], nil
}

func movie(id int64, title string, popularity, rating float64, genreIDs ...int) tmdb.Movie {
	if len(genreIDs) == 0 {
		genreIDs = []int{18} // drama
	}
	return tmdb.Movie{ID: id, Title: title, Popularity: popularity, VoteAverage: rating, GenreIDs: genreIDs, ReleaseDate: "1995-01-01"}
}

func TestEnrichPrefersExactTitleMatch(t *testing.T) {
	meta := &fakeMetadata{results: map[string][]tmdb.Movie{
		"Heat": {
			movie(2, "Heat Wave", 99.0, 9.0),
			movie(1, "Heat", 10.0, 7.0),
		},
	}}
	e := NewEnricher(meta, zerolog.Nop())

	got := e.Enrich(context.Background(), []domain.Candidate{{Title: "Heat", Bucket: domain.BucketSimilar}}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].TitleID, "exact normalized title beats popularity")
}

func TestEnrichTieBreaksByPopularityThenRating(t *testing.T) {
	meta := &fakeMetadata{results: map[string][]tmdb.Movie{
		"Dune": {
			movie(1, "Dune Part One", 50.0, 6.0),
			movie(2, "Dune Saga", 80.0, 7.0),
			movie(3, "Dune Rising", 80.0, 8.5),
		},
	}}
	e := NewEnricher(meta, zerolog.Nop())

	got := e.Enrich(context.Background(), []domain.Candidate{{Title: "Dune", Bucket: domain.BucketSimilar}}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].TitleID)
}

func TestEnrichDrops(t *testing.T) {
	meta := &fakeMetadata{results: map[string][]tmdb.Movie{
		"Unknown":  nil,
		"Watched":  {movie(10, "Watched", 1, 1)},
		"NoGenres": {{ID: 11, Title: "NoGenres", GenreIDs: []int{424242}}},
		"Twin A":   {movie(12, "Twin", 1, 1)},
		"Twin B":   {movie(12, "Twin", 1, 1)},
		"Kept":     {movie(13, "Kept", 1, 1)},
	}}
	e := NewEnricher(meta, zerolog.Nop())

	candidates := []domain.Candidate{
		{Title: "Unknown"}, {Title: "Watched"}, {Title: "NoGenres"},
		{Title: "Twin A"}, {Title: "Twin B"}, {Title: "Kept"},
	}
	got := e.Enrich(context.Background(), candidates, map[int64]struct{}{10: {}})

	require.Len(t, got, 2)
	assert.Equal(t, int64(12), got[0].TitleID)
	assert.Equal(t, int64(13), got[1].TitleID)
	assert.NotEmpty(t, got[0].Genres)
}

func TestEnrichSkipsItemOnUpstreamError(t *testing.T) {
	e := NewEnricher(&fakeMetadata{err: &domain.UpstreamError{Service: "tmdb", Status: 503}}, zerolog.Nop())
	got := e.Enrich(context.Background(), []domain.Candidate{{Title: "Heat"}}, nil)
	assert.Empty(t, got, "per-item upstream failures are dropped, not surfaced")
}

func TestFilterByGenre(t *testing.T) {
	items := []domain.EnrichedCandidate{
		{TitleID: 1, Genres: []string{"drama", "crime"}},
		{TitleID: 2, Genres: []string{"comedy"}},
		{TitleID: 3, Genres: []string{"Crime"}},
	}

	assert.Equal(t, items, FilterByGenre(items, nil), "no filters is a no-op")

	got := FilterByGenre(items, []string{"crime"})
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].TitleID)
	assert.Equal(t, int64(3), got[1].TitleID, "genre matching is case-insensitive")
}

func enriched(bucket domain.Bucket, n int) []domain.EnrichedCandidate {
	out := make([]domain.EnrichedCandidate, n)
	for i := range out {
		out[i] = domain.EnrichedCandidate{
			TitleID: int64(i + 1),
			Title:   fmt.Sprintf("%s %d", bucket, i),
			Genres:  []string{"drama"},
			Bucket:  bucket,
		}
	}
	return out
}

func TestRankSimilarFirstWithRatio(t *testing.T) {
	items := append(enriched(domain.BucketSimilar, 28), enriched(domain.BucketDiverse, 12)...)

	ranked := Rank(items)
	require.Len(t, ranked, ListSize)

	for i := 0; i < rankedSimilarTarget; i++ {
		assert.Equal(t, domain.BucketSimilar, ranked[i].Bucket)
		assert.Equal(t, fmt.Sprintf("similar %d", i), ranked[i].Title, "generator order preserved within bucket")
	}
	for i := rankedSimilarTarget; i < ListSize; i++ {
		assert.Equal(t, domain.BucketDiverse, ranked[i].Bucket)
	}
}

func TestRankBackfillsThinBucket(t *testing.T) {
	// Filtering wiped out the diverse bucket; similar backfills to 20.
	ranked := Rank(enriched(domain.BucketSimilar, 30))
	require.Len(t, ranked, ListSize)

	// Not enough items combined: proceed with fewer instead of failing.
	short := append(enriched(domain.BucketSimilar, 5), enriched(domain.BucketDiverse, 3)...)
	assert.Len(t, Rank(short), 8)

	assert.Empty(t, Rank(nil))
}
