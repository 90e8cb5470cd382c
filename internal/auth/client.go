// Package auth resolves bearer credentials through the external identity
// service. The service is a black box: it either returns a verified
// principal or the request is unauthenticated.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrUnauthenticated is returned when the identity service rejects the
// credential or returns no usable principal.
var ErrUnauthenticated = errors.New("authentication failed")

// Principal is the verified identity returned by the identity service.
type Principal struct {
	UserID string
	Email  string
}

// Client calls the identity service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an identity client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type validateResponse struct {
	Status string `json:"status"`
	Data   struct {
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	} `json:"data"`
}

// Verify forwards the Authorization header to the identity service and
// returns the verified principal.
func (c *Client) Verify(ctx context.Context, authorization string) (*Principal, error) {
	if authorization == "" {
		return nil, ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/auth/validate", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build validate request: %w", err)
	}
	req.Header.Set("Authorization", authorization)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrUnauthenticated
	}

	var body validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode identity response: %w", err)
	}

	if body.Data.User.ID == "" {
		return nil, ErrUnauthenticated
	}

	return &Principal{
		UserID: body.Data.User.ID,
		Email:  body.Data.User.Email,
	}, nil
}
