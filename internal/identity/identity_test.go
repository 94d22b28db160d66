package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("X-Session-ID") {
		case "good":
			_, _ = w.Write([]byte(`{"id":"u1","email":"ada@example.com","name":"Ada","picture":"p.png","session_token":"tok"}`))
		case "partial":
			_, _ = w.Write([]byte(`{"id":"u1","name":"Ada"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)

	p, err := c.Resolve(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", p.Email)
	assert.Equal(t, "tok", p.SessionToken)

	_, err = c.Resolve(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = c.Resolve(context.Background(), "partial")
	assert.ErrorIs(t, err, ErrInvalidSession)
}
