package trakt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/reellists/listgen/internal/domain"
)

const (
	historyPageLimit = 100
	// Guard against runaway pagination; 50 pages covers 5000 events.
	maxHistoryPages = 50
	historyRetries  = 3
)

type historyItem struct {
	WatchedAt time.Time `json:"watched_at"`
	Movie     struct {
		Title  string   `json:"title"`
		Year   int      `json:"year"`
		Genres []string `json:"genres"`
		IDs    struct {
			Trakt int64 `json:"trakt"`
			TMDB  int64 `json:"tmdb"`
		} `json:"ids"`
	} `json:"movie"`
}

// History returns the user's movie watch events within [windowStart, now],
// deduplicated by title id. Pages arrive newest-first; fetching stops as soon
// as a page's oldest event predates the window, so the number of requests is
// bounded by the requested period. An empty window yields an empty slice,
// not an error.
func (c *Client) History(ctx context.Context, accessToken, userID string, windowStart time.Time) ([]domain.WatchEvent, error) {
	var events []domain.WatchEvent
	seen := make(map[int64]struct{})
	now := time.Now()

	for page := 1; page <= maxHistoryPages; page++ {
		items, err := c.historyPage(ctx, accessToken, userID, windowStart, page)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			break
		}

		crossedWindow := false
		for _, item := range items {
			if item.WatchedAt.Before(windowStart) {
				crossedWindow = true
				continue
			}
			if item.WatchedAt.After(now) {
				// Clock skew upstream; keep the window [windowStart, now].
				continue
			}
			id := item.Movie.IDs.Trakt
			if id == 0 || item.Movie.Title == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				// Newest-first order: the first occurrence is the most
				// recent watch, keep it.
				continue
			}
			seen[id] = struct{}{}
			events = append(events, domain.WatchEvent{
				TitleID:   id,
				TMDBID:    item.Movie.IDs.TMDB,
				Title:     item.Movie.Title,
				Year:      item.Movie.Year,
				WatchedAt: item.WatchedAt,
				Genres:    item.Movie.Genres,
			})
		}

		if crossedWindow || len(items) < historyPageLimit {
			break
		}
	}

	c.log.Debug().Str("user", userID).Int("events", len(events)).Msg("fetched watch history")
	return events, nil
}

// historyPage fetches one page with bounded retries on transient failures.
func (c *Client) historyPage(ctx context.Context, accessToken, userID string, windowStart time.Time, page int) ([]historyItem, error) {
	var items []historyItem

	op := func() error {
		items = nil
		resp, err := c.http.R().
			SetContext(ctx).
			SetAuthToken(accessToken).
			SetQueryParams(map[string]string{
				"page":       strconv.Itoa(page),
				"limit":      strconv.Itoa(historyPageLimit),
				"start_date": windowStart.UTC().Format(time.RFC3339),
				"extended":   "full",
			}).
			SetResult(&items).
			Get(fmt.Sprintf("/users/%s/history/movies", userID))
		if err != nil {
			return &domain.UpstreamError{Service: "trakt", Msg: err.Error()}
		}
		if resp.IsError() {
			ue := &domain.UpstreamError{Service: "trakt", Status: resp.StatusCode(), Msg: resp.Status()}
			if !ue.Transient() {
				return backoff.Permanent(ue)
			}
			return ue
		}
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), historyRetries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		var ue *domain.UpstreamError
		if errors.As(err, &ue) {
			c.log.Warn().Str("user", userID).Int("page", page).Int("status", ue.Status).Msg("history page failed")
		}
		return nil, fmt.Errorf("history page %d for %s: %w", page, userID, err)
	}
	return items, nil
}
