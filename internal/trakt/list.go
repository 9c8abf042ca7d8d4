package trakt

import (
	"context"
	"fmt"
)

// ListMeta identifies one of the user's remote lists.
type ListMeta struct {
	Name string
	ID   int64
}

type listPayload struct {
	Name string `json:"name"`
	IDs  struct {
		Trakt int64 `json:"trakt"`
	} `json:"ids"`
}

// Lists returns metadata for every list the user owns.
func (c *Client) Lists(ctx context.Context, accessToken, userID string) ([]ListMeta, error) {
	var payload []listPayload
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&payload).
		Get(fmt.Sprintf("/users/%s/lists", userID))
	if err != nil || resp.IsError() {
		return nil, listErr("list", resp.StatusCode(), err)
	}

	lists := make([]ListMeta, 0, len(payload))
	for _, p := range payload {
		lists = append(lists, ListMeta{Name: p.Name, ID: p.IDs.Trakt})
	}
	return lists, nil
}

type createListRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Privacy        string `json:"privacy"`
	DisplayNumbers bool   `json:"display_numbers"`
	AllowComments  bool   `json:"allow_comments"`
	SortBy         string `json:"sort_by"`
	SortHow        string `json:"sort_how"`
}

// CreateList creates a private ranked list and returns its id.
func (c *Client) CreateList(ctx context.Context, accessToken, userID, name string) (int64, error) {
	var created listPayload
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(&createListRequest{
			Name:           name,
			Description:    "AI-generated movie recommendations based on your watch history",
			Privacy:        "private",
			DisplayNumbers: true,
			SortBy:         "rank",
			SortHow:        "asc",
		}).
		SetResult(&created).
		Post(fmt.Sprintf("/users/%s/lists", userID))
	if err != nil || resp.IsError() {
		return 0, listErr("create", resp.StatusCode(), err)
	}
	if created.IDs.Trakt == 0 {
		return 0, listErr("create", resp.StatusCode(), fmt.Errorf("no list id in response"))
	}
	return created.IDs.Trakt, nil
}

// ClearList removes every item from the list.
func (c *Client) ClearList(ctx context.Context, accessToken, userID string, listID int64) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		Delete(fmt.Sprintf("/users/%s/lists/%d/items", userID, listID))
	if err != nil || resp.IsError() {
		return listErr("clear", resp.StatusCode(), err)
	}
	return nil
}

type addItemsRequest struct {
	Movies []movieRef `json:"movies"`
}

type movieRef struct {
	IDs struct {
		TMDB int64 `json:"tmdb"`
	} `json:"ids"`
}

type addItemsResponse struct {
	Added struct {
		Movies int `json:"movies"`
	} `json:"added"`
	NotFound struct {
		Movies []movieRef `json:"movies"`
	} `json:"not_found"`
}

// AddItems appends the titles to the list in one batch request. The response
// reports how many were accepted and which ids the service did not know.
func (c *Client) AddItems(ctx context.Context, accessToken, userID string, listID int64, titleIDs []int64) (added int, notFound []int64, err error) {
	req := addItemsRequest{Movies: make([]movieRef, len(titleIDs))}
	for i, id := range titleIDs {
		req.Movies[i].IDs.TMDB = id
	}

	var result addItemsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(&req).
		SetResult(&result).
		Post(fmt.Sprintf("/users/%s/lists/%d/items", userID, listID))
	if err != nil || resp.IsError() {
		return 0, nil, listErr("add", resp.StatusCode(), err)
	}

	for _, ref := range result.NotFound.Movies {
		notFound = append(notFound, ref.IDs.TMDB)
	}
	return result.Added.Movies, notFound, nil
}
