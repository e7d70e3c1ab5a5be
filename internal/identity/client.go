// Package identity talks to the external identity collaborator. Accounts,
// passwords and enrollment all live there; this client only resolves
// principal ids to display profiles for dashboards.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Profile is the directory record for a principal.
type Profile struct {
	ID              string `json:"id"`
	Name            string `json:"name,omitempty"`
	AdmissionNumber string `json:"admission_number,omitempty"`
	Email           string `json:"email,omitempty"`
	Role            string `json:"role,omitempty"`
}

// Client calls the identity directory service.
type Client struct {
	baseURL string
	skip    bool
	http    *http.Client
}

// New creates a client. With skip set, lookups return a bare profile without
// calling out, which keeps dev environments free of the dependency.
func New(baseURL string, skip bool) *Client {
	return &Client{
		baseURL: baseURL,
		skip:    skip,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Health checks the directory service.
func (c *Client) Health(ctx context.Context) error {
	if c.skip {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("identity service unhealthy: %s", resp.Status)
	}
	return nil
}

// Lookup resolves a principal id to its directory profile. Failures degrade
// to the bare id; attendance records never depend on the directory.
func (c *Client) Lookup(ctx context.Context, principalID string) (Profile, error) {
	if c.skip {
		return Profile{ID: principalID}, nil
	}
	url := fmt.Sprintf("%s/v1/principals/%s", c.baseURL, principalID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Profile{ID: principalID}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Profile{ID: principalID}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Profile{ID: principalID}, fmt.Errorf("identity lookup failed: %s", resp.Status)
	}
	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return Profile{ID: principalID}, err
	}
	if p.ID == "" {
		p.ID = principalID
	}
	return p, nil
}
