package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/sales-deck/internal/config"
	"github.com/capitalize-ai/sales-deck/internal/identity"
	"github.com/capitalize-ai/sales-deck/internal/model"
	"github.com/capitalize-ai/sales-deck/internal/repository"
	"github.com/capitalize-ai/sales-deck/pkg/logger"
)

type stubResolver struct{}

func (stubResolver) Resolve(_ context.Context, sessionID string) (*identity.Profile, error) {
	if sessionID != "good-callback" {
		return nil, identity.ErrInvalidSession
	}
	return &identity.Profile{ID: "user-1", Email: "ada@example.com", Name: "Ada", SessionToken: "tok-123"}, nil
}

type testAPI struct {
	t      *testing.T
	server *httptest.Server
	token  string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	repo, err := repository.NewSQLite(filepath.Join(t.TempDir(), "api.db"), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	api := NewAPI(Deps{
		Config: &config.Config{
			SessionTTL:        time.Hour,
			CookieSecure:      false,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 1000,
			RateLimitWindow:   time.Minute,
		},
		Logger:   logger.NewNop(),
		Repo:     repo,
		Resolver: stubResolver{},
	})
	srv := httptest.NewServer(api.Router)
	t.Cleanup(srv.Close)
	return &testAPI{t: t, server: srv}
}

func (a *testAPI) do(method, path, contentType string, body io.Reader) *http.Response {
	a.t.Helper()
	req, err := http.NewRequest(method, a.server.URL+path, body)
	require.NoError(a.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	resp, err := a.server.Client().Do(req)
	require.NoError(a.t, err)
	a.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (a *testAPI) json(method, path string, in, out any) int {
	a.t.Helper()
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		require.NoError(a.t, err)
		body = bytes.NewReader(data)
	}
	resp := a.do(method, path, "application/json", body)
	if out != nil {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (a *testAPI) login() {
	a.t.Helper()
	form := url.Values{"session_id": {"good-callback"}}
	resp := a.do(http.MethodPost, "/api/auth/session", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.Equal(a.t, http.StatusOK, resp.StatusCode)

	var out model.CreateSessionResponse
	require.NoError(a.t, json.NewDecoder(resp.Body).Decode(&out))
	a.token = out.SessionToken

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "session_token" {
			cookie = c
		}
	}
	require.NotNil(a.t, cookie)
	assert.True(a.t, cookie.HttpOnly)
	assert.False(a.t, cookie.Secure)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/health", "", nil).StatusCode)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/ready", "", nil).StatusCode)
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)

	var errBody map[string]string
	assert.Equal(t, http.StatusUnauthorized, api.json(http.MethodGet, "/api/auth/me", nil, &errBody))
	assert.Equal(t, "Not authenticated", errBody["error"])

	status := api.json(http.MethodPost, "/api/auth/session", map[string]string{"session_id": "bad"}, &errBody)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid session ID", errBody["error"])

	api.login()
	assert.Equal(t, "tok-123", api.token)

	var me model.User
	require.Equal(t, http.StatusOK, api.json(http.MethodGet, "/api/auth/me", nil, &me))
	assert.Equal(t, "ada@example.com", me.Email)

	require.Equal(t, http.StatusOK, api.json(http.MethodPost, "/api/auth/logout", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, api.json(http.MethodGet, "/api/auth/me", nil, &errBody))
	assert.Equal(t, "Invalid session", errBody["error"])
}

func TestCatalogEndpoints(t *testing.T) {
	api := newTestAPI(t)
	api.login()

	var errBody map[string]string
	status := api.json(http.MethodPost, "/api/clients", map[string]string{"industry": "Retail"}, &errBody)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, errBody["error"], "name is required")

	var client model.Client
	require.Equal(t, http.StatusOK, api.json(http.MethodPost, "/api/clients",
		model.CreateClientRequest{Name: "Acme", Industry: "Retail", Description: "Shops"}, &client))

	var patched model.Client
	require.Equal(t, http.StatusOK, api.json(http.MethodPatch, "/api/clients/"+client.ID,
		map[string]string{"industry": "Grocery"}, &patched))
	assert.Equal(t, "Grocery", patched.Industry)

	assert.Equal(t, http.StatusBadRequest, api.json(http.MethodPatch, "/api/clients/"+client.ID, map[string]string{}, &errBody))
	assert.Equal(t, "No data to update", errBody["error"])

	var lead model.Lead
	require.Equal(t, http.StatusOK, api.json(http.MethodPost, "/api/leads",
		model.CreateLeadRequest{ClientID: client.ID, ProjectScope: "Rollout"}, &lead))
	assert.Equal(t, "Acme", lead.ClientName)

	assert.Equal(t, http.StatusNotFound, api.json(http.MethodPost, "/api/leads",
		model.CreateLeadRequest{ClientID: "nope", ProjectScope: "x"}, &errBody))
	assert.Equal(t, "Client not found", errBody["error"])

	var leads []model.Lead
	require.Equal(t, http.StatusOK, api.json(http.MethodGet, "/api/leads", nil, &leads))
	assert.Len(t, leads, 1)

	assert.Equal(t, http.StatusNotFound, api.json(http.MethodDelete, "/api/assets/missing", nil, &errBody))
	assert.Equal(t, "Asset not found", errBody["error"])

	var ok model.SuccessResponse
	require.Equal(t, http.StatusOK, api.json(http.MethodDelete, "/api/clients/"+client.ID, nil, &ok))
	assert.True(t, ok.Success)
}

func TestAssetUploadAndFilter(t *testing.T) {
	api := newTestAPI(t)
	api.login()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("type", "use_case"))
	require.NoError(t, mw.WriteField("name", "Case study"))
	fw, err := mw.CreateFormFile("file", "case.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Retailer cut checkout time in half"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp := api.do(http.MethodPost, "/api/assets/upload", mw.FormDataContentType(), &buf)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var uploaded model.Asset
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&uploaded))
	assert.Equal(t, "Retailer cut checkout time in half", uploaded.Content)
	assert.Equal(t, "case.txt", uploaded.FileName)

	require.Equal(t, http.StatusOK, api.json(http.MethodPost, "/api/assets",
		model.CreateAssetRequest{Type: model.AssetProductDescription, Name: "P", Content: "c"}, nil))

	var filtered []model.Asset
	require.Equal(t, http.StatusOK, api.json(http.MethodGet, "/api/assets?asset_type=use_case", nil, &filtered))
	require.Len(t, filtered, 1)
	assert.Equal(t, uploaded.ID, filtered[0].ID)
}

func TestDeckEndpoints_FallbackWithoutLLM(t *testing.T) {
	api := newTestAPI(t)
	api.login()

	var client model.Client
	require.Equal(t, http.StatusOK, api.json(http.MethodPost, "/api/clients",
		model.CreateClientRequest{Name: "Acme", Industry: "Retail", Description: "Shops"}, &client))
	var lead model.Lead
	require.Equal(t, http.StatusOK, api.json(http.MethodPost, "/api/leads",
		model.CreateLeadRequest{ClientID: client.ID, ProjectScope: "Rollout"}, &lead))

	var d model.Deck
	require.Equal(t, http.StatusOK, api.json(http.MethodPost, "/api/decks/generate",
		model.GenerateDeckRequest{LeadID: lead.ID}, &d))
	assert.Equal(t, "Sales Presentation for Acme", d.Content.Title)
	assert.Equal(t, "Acme", d.LeadName)

	var got model.Deck
	require.Equal(t, http.StatusOK, api.json(http.MethodGet, "/api/decks/"+d.ID, nil, &got))
	assert.Equal(t, d.ID, got.ID)

	var errBody map[string]string
	assert.Equal(t, http.StatusNotFound, api.json(http.MethodGet, "/api/decks/missing", nil, &errBody))
	assert.Equal(t, "Deck not found", errBody["error"])

	assert.Equal(t, http.StatusNotFound, api.json(http.MethodPost, "/api/decks/generate",
		model.GenerateDeckRequest{LeadID: "missing"}, &errBody))
	assert.Equal(t, "Lead not found", errBody["error"])
}
