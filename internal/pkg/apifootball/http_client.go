package apifootball

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Vodeneev/footstats/internal/pkg/config"
)

const defaultBaseURL = "https://v3.football.api-sports.io"

// ErrNoFixture is returned when the API answers without the requested fixture.
var ErrNoFixture = errors.New("no fixture data returned from API")

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(cfg *config.APIFootballConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// GetFixture возвращает один матч по id.
// GET /fixtures?id=...
func (c *Client) GetFixture(ctx context.Context, id int64) (*Fixture, error) {
	list, err := c.fixtures(ctx, url.Values{"id": {strconv.FormatInt(id, 10)}})
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].Fixture.ID == id {
			return &list[i], nil
		}
	}
	return nil, fmt.Errorf("fixture %d: %w", id, ErrNoFixture)
}

// GetLeagueFixtures возвращает все матчи лиги за сезон.
// GET /fixtures?league=...&season=...
func (c *Client) GetLeagueFixtures(ctx context.Context, leagueID int64, season int) ([]Fixture, error) {
	return c.fixtures(ctx, url.Values{
		"league": {strconv.FormatInt(leagueID, 10)},
		"season": {strconv.Itoa(season)},
	})
}

func (c *Client) fixtures(ctx context.Context, params url.Values) ([]Fixture, error) {
	body, err := c.get(ctx, "/fixtures", params)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var env Envelope[Fixture]
	if err := json.NewDecoder(body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	if apiErr := envelopeError(env.Errors); apiErr != "" {
		return nil, fmt.Errorf("api-football: %s", apiErr)
	}
	return env.Response, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (io.ReadCloser, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("api-football key is not set")
	}
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-apisports-key", c.apiKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// envelopeError flattens the "errors" field, which is [] when empty and an
// object of messages otherwise.
func envelopeError(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("[]")) || bytes.Equal(raw, []byte("{}")) || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var byKey map[string]string
	if err := json.Unmarshal(raw, &byKey); err == nil {
		parts := make([]string, 0, len(byKey))
		for k, v := range byKey {
			parts = append(parts, k+": "+v)
		}
		sort.Strings(parts)
		return strings.Join(parts, "; ")
	}
	return string(raw)
}
