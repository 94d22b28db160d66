// Package identity resolves single-use callback tokens against the external
// identity provider.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrInvalidSession is returned when the provider does not recognise the token.
var ErrInvalidSession = errors.New("invalid session id")

// Profile is the provider's view of the user plus the session token to use.
type Profile struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Picture      string `json:"picture"`
	SessionToken string `json:"session_token"`
}

// Resolver resolves a callback token into a profile.
type Resolver interface {
	Resolve(ctx context.Context, sessionID string) (*Profile, error)
}

// Client calls the provider's session-data endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	tracer     trace.Tracer
}

// NewClient creates a provider client for endpoint.
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		tracer:     otel.Tracer("salesdeck/identity"),
	}
}

// Resolve looks up sessionID. The token travels in the X-Session-ID header.
func (c *Client) Resolve(ctx context.Context, sessionID string) (*Profile, error) {
	ctx, span := c.tracer.Start(ctx, "identity.resolve", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build identity request: %w", err)
	}
	req.Header.Set("X-Session-ID", sessionID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("call identity provider: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		span.SetStatus(codes.Error, "rejected")
		return nil, fmt.Errorf("identity provider returned %d: %w", resp.StatusCode, ErrInvalidSession)
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode identity profile: %w", err)
	}
	if p.Email == "" || p.SessionToken == "" {
		return nil, fmt.Errorf("identity profile incomplete: %w", ErrInvalidSession)
	}
	return &p, nil
}
