// Package gemini is a minimal text-in/text-out client for the AI
// suggestion service.
package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/reellists/listgen/internal/domain"
)

type Client struct {
	http   *resty.Client
	apiKey string
	model  string
	log    zerolog.Logger
}

type Options struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func NewClient(opts Options, log zerolog.Logger) *Client {
	http := resty.New().
		SetBaseURL(opts.BaseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(opts.Timeout)

	return &Client{http: http, apiKey: opts.APIKey, model: opts.Model, log: log}
}

type generateRequest struct {
	Contents []content        `json:"contents"`
	Config   generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate sends the prompt and returns the raw response text. Any failure
// to reach the service or an empty completion is an AIServiceError; the
// caller owns interpretation of the text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		Config: generationConfig{
			Temperature:     0.7,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 2048,
		},
	}

	var result generateResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(&req).
		SetResult(&result).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", c.model))
	if err != nil {
		return "", &domain.AIServiceError{Msg: err.Error()}
	}
	if resp.IsError() {
		return "", &domain.AIServiceError{Msg: fmt.Sprintf("status %d", resp.StatusCode())}
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", &domain.AIServiceError{Msg: "no content in response"}
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}
