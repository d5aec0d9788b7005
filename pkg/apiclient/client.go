// Package apiclient is coordctl's HTTP client for a coordd node's
// operator status API. Unlike dittofs's apiclient, there is no login or
// refresh flow here: operators hold a long-lived bearer token minted
// out of band (see coordctl token), so the client only ever needs a
// server URL and a token to attach.
package apiclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Client talks to a single coordd node's status API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a Client pointed at baseURL (e.g. "http://127.0.0.1:8600").
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// WithToken sets the bearer token attached to every request and returns
// the client for chaining.
func (c *Client) WithToken(token string) *Client {
	c.token = token
	return c
}

// Problem is the RFC 7807 body coordd's API returns on non-2xx.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

func (p *Problem) Error() string {
	if p.Detail != "" {
		return fmt.Sprintf("%s: %s", p.Title, p.Detail)
	}
	return p.Title
}

func (c *Client) get(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 300 {
		var problem Problem
		if jsonErr := json.Unmarshal(body, &problem); jsonErr == nil && problem.Title != "" {
			return &problem
		}
		return fmt.Errorf("%s: unexpected status %d", path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ClockStatus mirrors handlers.ClockStatus.
type ClockStatus struct {
	Physical uint64 `json:"physical"`
	Logical  uint32 `json:"logical"`
}

// ConsensusStatus mirrors handlers.ConsensusStatus.
type ConsensusStatus struct {
	Self         string   `json:"self"`
	Members      []string `json:"members"`
	Quorum       int      `json:"quorum"`
	CurrentRound uint64   `json:"current_round"`
	CurrentView  uint64   `json:"current_view"`
	Equivocation int      `json:"equivocation_count"`
}

// Status mirrors handlers.StatusResponse.
type Status struct {
	Clock     ClockStatus     `json:"clock"`
	Leases    int             `json:"active_leases"`
	Consensus ConsensusStatus `json:"consensus"`
}

// GetStatus fetches GET /api/v1/status.
func (c *Client) GetStatus() (*Status, error) {
	var s Status
	if err := c.get("/api/v1/status", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Lease mirrors handlers.LeaseView.
type Lease struct {
	ID           string `json:"id"`
	ScopeKind    string `json:"scope_kind"`
	ScopeKey     string `json:"scope_key"`
	Holder       string `json:"holder"`
	GrantedAt    uint64 `json:"granted_at_ms"`
	ExpiresAt    uint64 `json:"expires_at_ms"`
	RenewalCount uint32 `json:"renewal_count"`
}

// ListLeases fetches GET /api/v1/leases.
func (c *Client) ListLeases() ([]Lease, error) {
	var leases []Lease
	if err := c.get("/api/v1/leases", &leases); err != nil {
		return nil, err
	}
	return leases, nil
}

// GetLease fetches GET /api/v1/leases/{scopeKey}.
func (c *Client) GetLease(scopeKey string) (*Lease, error) {
	var l Lease
	if err := c.get("/api/v1/leases/"+scopeKey, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Accusation mirrors handlers.AccusationView.
type Accusation struct {
	Round    uint64 `json:"round"`
	NodeID   string `json:"node_id"`
	Reporter string `json:"reporter"`
}

// ListEvidence fetches GET /api/v1/consensus/evidence.
func (c *Client) ListEvidence() ([]Accusation, error) {
	var evidence []Accusation
	if err := c.get("/api/v1/consensus/evidence", &evidence); err != nil {
		return nil, err
	}
	return evidence, nil
}

// Round mirrors handlers.RoundView.
type Round struct {
	Round     uint64 `json:"round"`
	ValueSize int    `json:"value_size_bytes"`
}

// GetRound fetches GET /api/v1/consensus/rounds/{round}.
func (c *Client) GetRound(round uint64) (*Round, error) {
	var r Round
	if err := c.get("/api/v1/consensus/rounds/"+strconv.FormatUint(round, 10), &r); err != nil {
		return nil, err
	}
	return &r, nil
}
