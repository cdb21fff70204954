// Package nexon is the upstream client for the Nexon Open API. Each
// typed call issues exactly one GET with the shared API-key header; all
// retry decisions live with callers.
package nexon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/minseo-lab/guildmain/pkg/metrics"
)

// Upstream endpoint paths.
const (
	endpointGuildID        = "/guild/id"
	endpointGuildBasic     = "/guild/basic"
	endpointCharacterID    = "/id"
	endpointUnionRanking   = "/ranking/union"
	endpointCharacterBasic = "/character/basic"
)

const (
	apiKeyHeader   = "x-nxopen-api-key"
	defaultTimeout = 10 * time.Second
	// snapshotDateFormat follows the upstream data-freshness convention:
	// all lookups are keyed to the day before the request.
	snapshotDateFormat = "2006-01-02"
	maxErrorBodyBytes  = 512
)

// Client issues single GET requests against the upstream API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	now        func() time.Time
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-call timeout on the underlying client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithClock injects the time source used for snapshot dates.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient creates a Client for the given base URL and API key.
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SnapshotDate returns the as-of date for upstream lookups: yesterday.
func (c *Client) SnapshotDate() string {
	return c.now().AddDate(0, 0, -1).Format(snapshotDateFormat)
}

// get performs one GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", endpoint, err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(endpoint, "transport_error")
		return &StatusError{Code: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	metrics.RecordUpstreamRequest(endpoint, strconv.Itoa(resp.StatusCode))
	metrics.RecordUpstreamRequestDuration(endpoint, float64(time.Since(start).Milliseconds()))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// GuildID resolves a guild name on a world to its upstream identifier.
func (c *Client) GuildID(ctx context.Context, guild, world string) (string, error) {
	q := url.Values{}
	q.Set("guild_name", guild)
	q.Set("world_name", world)

	var resp guildIDResponse
	if err := c.get(ctx, endpointGuildID, q, &resp); err != nil {
		return "", err
	}
	if resp.OGuildID == "" {
		return "", ErrGuildNotFound
	}
	return resp.OGuildID, nil
}

// GuildBasic fetches the guild payload (member list included) for the
// snapshot date.
func (c *Client) GuildBasic(ctx context.Context, guildID string) (*GuildBasic, error) {
	q := url.Values{}
	q.Set("oguild_id", guildID)
	q.Set("date", c.SnapshotDate())

	var resp GuildBasic
	if err := c.get(ctx, endpointGuildBasic, q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CharacterOCID resolves a character name to its opaque id.
func (c *Client) CharacterOCID(ctx context.Context, name string) (string, error) {
	q := url.Values{}
	q.Set("character_name", name)

	var resp characterIDResponse
	if err := c.get(ctx, endpointCharacterID, q, &resp); err != nil {
		return "", err
	}
	return resp.OCID, nil
}

// UnionRanking fetches the union ranking page for a character id on a
// world as of the snapshot date.
func (c *Client) UnionRanking(ctx context.Context, world, ocid string) (*UnionRanking, error) {
	q := url.Values{}
	q.Set("date", c.SnapshotDate())
	q.Set("world_name", world)
	q.Set("ocid", ocid)

	var resp UnionRanking
	if err := c.get(ctx, endpointUnionRanking, q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CharacterBasic fetches character details for the snapshot date.
func (c *Client) CharacterBasic(ctx context.Context, ocid string) (*CharacterBasic, error) {
	q := url.Values{}
	q.Set("ocid", ocid)
	q.Set("date", c.SnapshotDate())

	var resp CharacterBasic
	if err := c.get(ctx, endpointCharacterBasic, q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
