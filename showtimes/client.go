// Package showtimes implements the external movie-showtime lookup against a
// zipcode-keyed RSS feed.
package showtimes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/showtimes-skill/skill/contract"
)

const (
	defaultBaseURL       = "https://www.fandango.com/rss"
	defaultFeedPath      = "moviesnearme_%s.rss"
	maxResponseSizeBytes = 4 << 20
)

// LookupError carries the user-facing reason a lookup failed. The finalizer
// speaks Reason verbatim, so it must read as a sentence fragment.
type LookupError struct {
	Reason string
}

func (e *LookupError) Error() string {
	return e.Reason
}

type Config struct {
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" default:"https://www.fandango.com/rss"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// Option customizes Client.
type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// Client fetches and parses the showtime feed. Implements
// contract.ShowtimeFinder.
type Client struct {
	baseURL    string
	httpClient *http.Client
	parser     *gofeed.Parser
}

var _ contractx.ShowtimeFinder = (*Client)(nil)

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid feed base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		parser: gofeed.NewParser(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c, nil
}

func MustNew(cfg Config, opts ...Option) *Client {
	c, err := NewClient(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Find performs one feed lookup for the given zipcode. The date parameter
// selects the day of interest; the feed itself is keyed only by zipcode, so
// the date travels through to the caller's formatting.
func (c *Client) Find(ctx context.Context, zipcode string, date time.Time) ([]contractx.Showtime, error) {
	zip := strings.TrimSpace(zipcode)
	if zip == "" {
		return nil, errors.New("zipcode is required")
	}

	feedURL := c.baseURL + "/" + fmt.Sprintf(defaultFeedPath, url.PathEscape(zip))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &LookupError{Reason: fmt.Sprintf("the showtime service could not be reached: %s", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		log.Warn().Int("status", resp.StatusCode).Str("zipcode", zip).Msg("showtime feed returned non-success status")
		return nil, &LookupError{Reason: fmt.Sprintf("the showtime service is experiencing difficulty, status %d", resp.StatusCode)}
	}

	feed, err := c.parser.Parse(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, &LookupError{Reason: fmt.Sprintf("the showtime service sent an unreadable response: %s", err)}
	}

	if len(feed.Items) == 0 {
		return nil, &LookupError{Reason: "the showtime service returned no results for that location"}
	}

	shows := make([]contractx.Showtime, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		shows = append(shows, contractx.Showtime{Title: title, Link: item.Link})
	}
	if len(shows) == 0 {
		return nil, &LookupError{Reason: "the showtime service returned no results for that location"}
	}

	log.Debug().Str("zipcode", zip).Int("count", len(shows)).Msg("showtime feed lookup succeeded")
	return shows, nil
}
