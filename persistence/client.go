// Package persistence implements a thin client for the remote
// persistence service: save/load of a GameSnapshot and leaderboard
// submission plus paginated retrieval. The backend itself (saves,
// leaderboard, auth) lives elsewhere; this package only shapes and
// transports the request/response pairs of its contract.
package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/zww/core/simerr"
	"github.com/zww/core/snapshot"
)

// Client is a thin wrapper over an *http.Client pointed at a persistence
// service base URL, with an optional bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New constructs a Client. httpClient may be nil, in which case
// http.DefaultClient is used.
func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, token: token, http: httpClient}
}

// SaveResult is the response to a successful Save.
type SaveResult struct {
	SaveID  string `json:"saveId"`
	SavedAt string `json:"savedAt"`
}

// Save POSTs a GameSnapshot to the persistence service.
func (c *Client) Save(ctx context.Context, snap snapshot.GameSnapshot) (SaveResult, error) {
	body, err := snapshot.Encode(snap)
	if err != nil {
		return SaveResult{}, simerr.Wrap(simerr.HostFault, "persistence", "encoding snapshot for save", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/saves", bytes.NewReader(body))
	if err != nil {
		return SaveResult{}, err
	}

	var out SaveResult
	if err := c.do(req, &out); err != nil {
		return SaveResult{}, err
	}
	return out, nil
}

// Load GETs a previously saved GameSnapshot by id.
func (c *Client) Load(ctx context.Context, saveID string) (snapshot.GameSnapshot, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/saves/"+url.PathEscape(saveID), nil)
	if err != nil {
		return snapshot.GameSnapshot{}, err
	}

	data, err := c.doRaw(req)
	if err != nil {
		return snapshot.GameSnapshot{}, err
	}
	snap, err := snapshot.Decode(data)
	if err != nil {
		return snapshot.GameSnapshot{}, err
	}
	return snap, nil
}

// LeaderboardEntry is one submitted or retrieved leaderboard record.
type LeaderboardEntry struct {
	Score           int     `json:"score"`
	WaveReached     int     `json:"waveReached"`
	ZombiesKilled   int     `json:"zombiesKilled"`
	PlayTimeSeconds float64 `json:"playTimeSeconds"`
}

// SubmitScore submits a leaderboard entry.
func (c *Client) SubmitScore(ctx context.Context, entry LeaderboardEntry) error {
	body, err := json.Marshal(entry)
	if err != nil {
		return simerr.Wrap(simerr.HostFault, "persistence", "encoding leaderboard entry", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/leaderboard", bytes.NewReader(body))
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// LeaderboardPage is one page of the leaderboard, sorted by score
// descending.
type LeaderboardPage struct {
	Entries    []LeaderboardEntry `json:"entries"`
	NextOffset int                `json:"nextOffset"`
	HasMore    bool               `json:"hasMore"`
}

// Leaderboard retrieves one page of leaderboard entries starting at
// offset, at most limit entries.
func (c *Client) Leaderboard(ctx context.Context, offset, limit int) (LeaderboardPage, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	req, err := c.newRequest(ctx, http.MethodGet, "/leaderboard?"+q.Encode(), nil)
	if err != nil {
		return LeaderboardPage{}, err
	}

	var out LeaderboardPage
	if err := c.do(req, &out); err != nil {
		return LeaderboardPage{}, err
	}
	return out, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, simerr.Wrap(simerr.HostFault, "persistence", "building request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// do performs req and decodes a JSON response into out (skipped if out
// is nil), translating HTTP status into a typed error kind.
func (c *Client) do(req *http.Request, out any) error {
	data, err := c.doRaw(req)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return simerr.Wrap(simerr.SchemaViolation, "persistence", "decoding response body", err)
	}
	return nil
}

// doRaw performs req and returns the raw response body on a 2xx status.
//
// Status classification: 4xx (other than 401) is a malformed
// request/snapshot and surfaces as SchemaViolation. 401 (missing auth) and
// 5xx (transient server error) both surface as HostFault and are told
// apart only by the error's Detail text, not by Kind. Every failure is a
// *simerr.Error.
func (c *Client) doRaw(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, simerr.Wrap(simerr.HostFault, "persistence", "request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, simerr.Wrap(simerr.HostFault, "persistence", "reading response body", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, simerr.New(simerr.HostFault, "persistence", "missing or invalid auth (401)")
	case resp.StatusCode >= 500:
		return nil, simerr.Wrap(simerr.HostFault, "persistence", fmt.Sprintf("transient server error (%d)", resp.StatusCode), err)
	case resp.StatusCode >= 400:
		return nil, simerr.New(simerr.SchemaViolation, "persistence", fmt.Sprintf("malformed request (%d): %s", resp.StatusCode, string(data)))
	}
	return data, nil
}
