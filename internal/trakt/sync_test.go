package trakt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reellists/listgen/internal/domain"
)

// fakeListService is an in-memory stand-in for the remote list resource.
type fakeListService struct {
	nextID  int64
	lists   map[int64]string  // id -> name
	items   map[int64][]int64 // id -> tmdb ids
	unknown map[int64]bool    // tmdb ids the service rejects
	creates int
	clears  int
}

func newFakeListService() *fakeListService {
	return &fakeListService{nextID: 100, lists: map[int64]string{}, items: map[int64][]int64{}, unknown: map[int64]bool{}}
}

func (f *fakeListService) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := chi.NewRouter()

	mux.Get("/users/alice/lists", func(w http.ResponseWriter, r *http.Request) {
		var out []map[string]any
		for id, name := range f.lists {
			out = append(out, map[string]any{"name": name, "ids": map[string]any{"trakt": id}})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	})

	mux.Post("/users/alice/lists", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name    string `json:"name"`
			Privacy string `json:"privacy"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "private", req.Privacy)

		f.creates++
		f.nextID++
		f.lists[f.nextID] = req.Name
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"name": req.Name, "ids": map[string]any{"trakt": f.nextID}})
	})

	mux.Delete("/users/alice/lists/{listID}/items", func(w http.ResponseWriter, r *http.Request) {
		f.clears++
		var id int64
		fmt.Sscanf(chi.URLParam(r, "listID"), "%d", &id)
		f.items[id] = nil
		w.WriteHeader(http.StatusNoContent)
	})

	mux.Post("/users/alice/lists/{listID}/items", func(w http.ResponseWriter, r *http.Request) {
		var id int64
		fmt.Sscanf(chi.URLParam(r, "listID"), "%d", &id)

		var req addItemsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var resp addItemsResponse
		for _, m := range req.Movies {
			if f.unknown[m.IDs.TMDB] {
				resp.NotFound.Movies = append(resp.NotFound.Movies, m)
				continue
			}
			f.items[id] = append(f.items[id], m.IDs.TMDB)
			resp.Added.Movies++
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(&resp)
	})

	return httptest.NewServer(mux)
}

func rankedItems(ids ...int64) domain.RankedList {
	out := make(domain.RankedList, len(ids))
	for i, id := range ids {
		out[i] = domain.EnrichedCandidate{TitleID: id, Title: fmt.Sprintf("Movie %d", id), Genres: []string{"drama"}}
	}
	return out
}

func TestSyncCreatesAbsentList(t *testing.T) {
	svc := newFakeListService()
	srv := svc.server(t)
	defer srv.Close()

	syncer := NewSyncer(newTestClient(srv.URL), zerolog.Nop())
	res, err := syncer.Sync(context.Background(), "token", "alice", "AI Recommendations", rankedItems(1, 2, 3))
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.Equal(t, 3, res.ItemsAdded)
	assert.Equal(t, []int64{1, 2, 3}, svc.items[res.ListID])
	assert.Zero(t, svc.clears)
}

func TestSyncReplacesPresentList(t *testing.T) {
	svc := newFakeListService()
	svc.lists[42] = "AI Recommendations"
	svc.items[42] = []int64{9, 8, 7}
	srv := svc.server(t)
	defer srv.Close()

	syncer := NewSyncer(newTestClient(srv.URL), zerolog.Nop())
	res, err := syncer.Sync(context.Background(), "token", "alice", "AI Recommendations", rankedItems(1, 2))
	require.NoError(t, err)

	assert.False(t, res.Created)
	assert.Equal(t, int64(42), res.ListID)
	assert.Equal(t, []int64{1, 2}, svc.items[42], "stale entries must not accumulate")
	assert.Equal(t, 1, svc.clears)
	assert.Zero(t, svc.creates)
}

func TestSyncIsIdempotent(t *testing.T) {
	svc := newFakeListService()
	srv := svc.server(t)
	defer srv.Close()

	syncer := NewSyncer(newTestClient(srv.URL), zerolog.Nop())
	items := rankedItems(5, 6, 7)

	first, err := syncer.Sync(context.Background(), "token", "alice", "Weekly Picks", items)
	require.NoError(t, err)
	second, err := syncer.Sync(context.Background(), "token", "alice", "Weekly Picks", items)
	require.NoError(t, err)

	assert.Equal(t, first.ListID, second.ListID)
	assert.Equal(t, 1, svc.creates, "second sync must reuse the existing list")
	assert.Equal(t, []int64{5, 6, 7}, svc.items[first.ListID])
}

func TestSyncNameMatchIsCaseSensitive(t *testing.T) {
	svc := newFakeListService()
	svc.lists[42] = "weekly picks"
	srv := svc.server(t)
	defer srv.Close()

	syncer := NewSyncer(newTestClient(srv.URL), zerolog.Nop())
	res, err := syncer.Sync(context.Background(), "token", "alice", "Weekly Picks", rankedItems(1))
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.NotEqual(t, int64(42), res.ListID)
}

func TestSyncSkipsUnknownTitles(t *testing.T) {
	svc := newFakeListService()
	svc.unknown[2] = true
	srv := svc.server(t)
	defer srv.Close()

	syncer := NewSyncer(newTestClient(srv.URL), zerolog.Nop())
	res, err := syncer.Sync(context.Background(), "token", "alice", "Picks", rankedItems(1, 2, 3))
	require.NoError(t, err, "a rejected item must not fail the sync")

	assert.Equal(t, 2, res.ItemsAdded)
	assert.Equal(t, 1, res.ItemsSkipped)
}

func TestSyncUnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	syncer := NewSyncer(newTestClient(srv.URL), zerolog.Nop())
	_, err := syncer.Sync(context.Background(), "token", "alice", "Picks", rankedItems(1))
	assert.True(t, domain.IsListAPIError(err), "endpoint-level failures are hard errors, got %v", err)
}

func TestExchangeAndRefresh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/token", r.URL.Path)
		var req tokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		switch req.GrantType {
		case "authorization_code":
			assert.Equal(t, "the-code", req.Code)
		case "refresh_token":
			assert.Equal(t, "the-refresh", req.RefreshToken)
		default:
			t.Errorf("unexpected grant type %q", req.GrantType)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(domain.TokenPair{AccessToken: "a", RefreshToken: "r", ExpiresIn: 7200})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	pair, err := c.Exchange(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, int64(7200), pair.ExpiresIn)

	pair, err = c.Refresh(context.Background(), "the-refresh")
	require.NoError(t, err)
	assert.Equal(t, "a", pair.AccessToken)
}
