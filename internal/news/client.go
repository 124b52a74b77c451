// Package news fetches top headlines from a newsdata.io-compatible API.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const DefaultBaseURL = "https://newsdata.io/api/1/news"

type Config struct {
	APIKey   string
	BaseURL  string
	Country  string
	Language string
	Category string
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

type response struct {
	Results []struct {
		Title string `json:"title"`
	} `json:"results"`
}

// TopHeadlines returns headline titles in source order. An empty or missing
// results field is a "no news" condition, not an error.
func (c *Client) TopHeadlines(ctx context.Context) ([]string, error) {
	q := url.Values{}
	q.Set("apikey", c.cfg.APIKey)
	q.Set("country", c.cfg.Country)
	q.Set("language", c.cfg.Language)
	q.Set("category", c.cfg.Category)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building news request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching news: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news API returned status %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding news response: %w", err)
	}

	titles := make([]string, 0, len(body.Results))
	for _, r := range body.Results {
		if r.Title != "" {
			titles = append(titles, r.Title)
		}
	}
	return titles, nil
}
