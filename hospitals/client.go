// Package hospitals forwards coordinates to the third-party hospital
// directory and relays its answer.
package hospitals

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/medportal/medportalbackend/models"
)

// Client has no retry, no caching and no timeout beyond the transport
// default: every lookup is one fresh upstream request.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

type directoryResponse struct {
	Hospitals json.RawMessage `json:"hospitals"`
}

// FindNearby returns the upstream "hospitals" value verbatim.
func (c *Client) FindNearby(ctx context.Context, latitude, longitude string) (json.RawMessage, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: bad directory url: %w", models.ErrUpstream, err)
	}
	q := u.Query()
	q.Set("lat", latitude)
	q.Set("lon", longitude)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", models.ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: directory returned %s", models.ErrUpstream, resp.Status)
	}

	var body directoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode directory response: %w", models.ErrUpstream, err)
	}
	if len(body.Hospitals) == 0 {
		return json.RawMessage("null"), nil
	}
	return body.Hospitals, nil
}
