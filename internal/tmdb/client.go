// Package tmdb queries the movie metadata service.
package tmdb

import (
	"context"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/reellists/listgen/internal/domain"
)

type Client struct {
	http   *resty.Client
	apiKey string
	log    zerolog.Logger
}

type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func NewClient(opts Options, log zerolog.Logger) *Client {
	http := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout)

	return &Client{http: http, apiKey: opts.APIKey, log: log}
}

// Movie is a ranked search result from the metadata service.
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	GenreIDs    []int   `json:"genre_ids"`
	VoteAverage float64 `json:"vote_average"`
	Popularity  float64 `json:"popularity"`
}

// Year parses the release year, 0 when unknown.
func (m Movie) Year() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	y, err := strconv.Atoi(m.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return y
}

type searchResponse struct {
	Results []Movie `json:"results"`
}

// SearchMovie queries by title, optionally narrowed by release year, and
// returns the service's ranked results.
func (c *Client) SearchMovie(ctx context.Context, title string, year int) ([]Movie, error) {
	req := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"api_key":       c.apiKey,
			"query":         title,
			"language":      "en-US",
			"include_adult": "false",
		})
	if year > 0 {
		req.SetQueryParam("year", strconv.Itoa(year))
	}

	var result searchResponse
	resp, err := req.SetResult(&result).Get("/search/movie")
	if err != nil {
		return nil, &domain.UpstreamError{Service: "tmdb", Msg: err.Error()}
	}
	if resp.IsError() {
		return nil, &domain.UpstreamError{Service: "tmdb", Status: resp.StatusCode(), Msg: resp.Status()}
	}
	return result.Results, nil
}
