package trakt

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/reellists/listgen/internal/domain"
)

// Syncer reconciles a remote named list with a locally computed ranked set.
// The list is fully replaced on every sync, so repeating a sync with the
// same items converges to the same remote state.
type Syncer struct {
	client *Client
	log    zerolog.Logger
}

func NewSyncer(client *Client, log zerolog.Logger) *Syncer {
	return &Syncer{client: client, log: log}
}

type ListSyncResult struct {
	ListID       int64  `json:"list_id"`
	Created      bool   `json:"created"`
	ItemsAdded   int    `json:"items_added"`
	ItemsSkipped int    `json:"items_skipped"`
	URL          string `json:"url"`
}

// Sync creates the list if absent (exact, case-sensitive name match) or
// clears it otherwise, then repopulates it with items. Titles the list
// service does not recognize are logged and skipped; failures to reach the
// endpoint at all surface as ListAPIError.
func (s *Syncer) Sync(ctx context.Context, accessToken, userID, listName string, items domain.RankedList) (*ListSyncResult, error) {
	lists, err := s.client.Lists(ctx, accessToken, userID)
	if err != nil {
		return nil, err
	}

	var listID int64
	for _, l := range lists {
		if l.Name == listName {
			listID = l.ID
			break
		}
	}

	created := false
	if listID != 0 {
		if err := s.client.ClearList(ctx, accessToken, userID, listID); err != nil {
			return nil, err
		}
	} else {
		listID, err = s.client.CreateList(ctx, accessToken, userID, listName)
		if err != nil {
			return nil, err
		}
		created = true
	}

	titleIDs := make([]int64, len(items))
	for i, item := range items {
		titleIDs[i] = item.TitleID
	}

	added, notFound, err := s.client.AddItems(ctx, accessToken, userID, listID, titleIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range notFound {
		s.log.Warn().Str("user", userID).Int64("title_id", id).Msg("list service rejected title, skipped")
	}

	s.log.Info().Str("user", userID).Str("list", listName).Bool("created", created).
		Int("added", added).Int("skipped", len(notFound)).Msg("list synchronized")

	return &ListSyncResult{
		ListID:       listID,
		Created:      created,
		ItemsAdded:   added,
		ItemsSkipped: len(notFound),
		URL:          fmt.Sprintf("https://trakt.tv/users/%s/lists/%d", userID, listID),
	}, nil
}

func listErr(op string, status int, err error) error {
	if err != nil {
		return &domain.ListAPIError{Op: op, Msg: err.Error()}
	}
	return &domain.ListAPIError{Op: op, Msg: fmt.Sprintf("status %d", status)}
}
