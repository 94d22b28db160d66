// Package apiclient is the dashboard's HTTP client for the sales deck API.
// Every call carries the ambient cookie credential; no token is held apart
// from the single-use callback token passed to ExchangeCallback.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/sales-deck/internal/model"
	"github.com/capitalize-ai/sales-deck/pkg/logger"
)

const maxErrorBody = 64 * 1024

// Client talks to the API on behalf of one browser.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	credential *Credential
	tracer     trace.Tracer
	logger     *logger.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithTransport sets the round tripper used for requests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// WithTimeout bounds every request. Zero means no client-side timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) {
		c.logger = log
	}
}

// New creates a client for the API rooted at baseURL (for example
// http://localhost:8001/api).
func New(baseURL string, credential *Credential, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Jar: credential},
		credential: credential,
		tracer:     otel.Tracer("salesdeck/apiclient"),
		logger:     logger.Global(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Credential returns the credential this client sends.
func (c *Client) Credential() *Credential {
	return c.credential
}

// Probe asks the API who the current credential belongs to.
func (c *Client) Probe(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, "probe", http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ExchangeCallback trades the single-use callback token for a session
// cookie. The cookie lands in the credential; the token is not retained.
func (c *Client) ExchangeCallback(ctx context.Context, token string) error {
	if err := c.credential.Renew(); err != nil {
		return fmt.Errorf("renew credential: %w", err)
	}

	form := url.Values{"session_id": {token}}
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/session", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var resp model.CreateSessionResponse
	return c.send(ctx, "exchange callback", req, &resp)
}

// Logout ends the session on the server.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, "logout", http.MethodPost, "/auth/logout", nil, nil)
}

// ListClients returns all clients.
func (c *Client) ListClients(ctx context.Context) ([]model.Client, error) {
	var out []model.Client
	if err := c.do(ctx, "list clients", http.MethodGet, "/clients", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateClient creates a client.
func (c *Client) CreateClient(ctx context.Context, req model.CreateClientRequest) (*model.Client, error) {
	var out model.Client
	if err := c.do(ctx, "create client", http.MethodPost, "/clients", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteClient deletes a client by id.
func (c *Client) DeleteClient(ctx context.Context, id string) error {
	return c.do(ctx, "delete client", http.MethodDelete, "/clients/"+url.PathEscape(id), nil, nil)
}

// ListAssets returns all assets.
func (c *Client) ListAssets(ctx context.Context) ([]model.Asset, error) {
	var out []model.Asset
	if err := c.do(ctx, "list assets", http.MethodGet, "/assets", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateAsset creates a text asset.
func (c *Client) CreateAsset(ctx context.Context, req model.CreateAssetRequest) (*model.Asset, error) {
	var out model.Asset
	if err := c.do(ctx, "create asset", http.MethodPost, "/assets", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteAsset deletes an asset by id.
func (c *Client) DeleteAsset(ctx context.Context, id string) error {
	return c.do(ctx, "delete asset", http.MethodDelete, "/assets/"+url.PathEscape(id), nil, nil)
}

// ListLeads returns all leads.
func (c *Client) ListLeads(ctx context.Context) ([]model.Lead, error) {
	var out []model.Lead
	if err := c.do(ctx, "list leads", http.MethodGet, "/leads", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateLead creates a lead.
func (c *Client) CreateLead(ctx context.Context, req model.CreateLeadRequest) (*model.Lead, error) {
	var out model.Lead
	if err := c.do(ctx, "create lead", http.MethodPost, "/leads", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteLead deletes a lead by id.
func (c *Client) DeleteLead(ctx context.Context, id string) error {
	return c.do(ctx, "delete lead", http.MethodDelete, "/leads/"+url.PathEscape(id), nil, nil)
}

// ListDecks returns all generated decks.
func (c *Client) ListDecks(ctx context.Context) ([]model.Deck, error) {
	var out []model.Deck
	if err := c.do(ctx, "list decks", http.MethodGet, "/decks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDeck fetches one deck by id.
func (c *Client) GetDeck(ctx context.Context, id string) (*model.Deck, error) {
	var out model.Deck
	if err := c.do(ctx, "get deck", http.MethodGet, "/decks/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateDeck asks the API to generate and store a deck for a lead.
func (c *Client) GenerateDeck(ctx context.Context, leadID string) (*model.Deck, error) {
	var out model.Deck
	req := model.GenerateDeckRequest{LeadID: leadID}
	if err := c.do(ctx, "generate deck", http.MethodPost, "/decks/generate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(ctx, op, req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) send(ctx context.Context, op string, req *http.Request, out any) error {
	ctx, span := c.tracer.Start(ctx, "apiclient."+strings.ReplaceAll(op, " ", "_"),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.Path),
		),
	)
	defer span.End()
	req = req.WithContext(ctx)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.logger.Debug("api call",
		zap.String("op", op),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
		span.SetStatus(codes.Error, statusErr.Error())
		return statusErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// errorMessage extracts {"error": "..."} or {"detail": "..."} from a body.
func errorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Detail
}
