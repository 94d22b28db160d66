package web

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/capitalize-ai/sales-deck/internal/apiclient"
	"github.com/capitalize-ai/sales-deck/internal/app"
	"github.com/capitalize-ai/sales-deck/pkg/logger"
	"github.com/capitalize-ai/sales-deck/pkg/metrics"
)

// StateCookie names the cookie that binds a browser to its dashboard state.
const StateCookie = "salesdeck_state"

// browserState is one browser's dashboard plus the API credential it owns.
type browserState struct {
	key       string
	dashboard *app.Dashboard
	cred      *apiclient.Credential
}

// APIFactory builds the API client for a new browser state.
type APIFactory func(cred *apiclient.Credential) (app.API, error)

// registry maps signed state cookies to live dashboard states. Expired
// states release their credential.
type registry struct {
	secret  []byte
	ttl     time.Duration
	secure  bool
	cache   *gocache.Cache
	factory APIFactory
	logger  *logger.Logger
}

func newRegistry(secret []byte, ttl time.Duration, secure bool, factory APIFactory, log *logger.Logger) *registry {
	r := &registry{
		secret:  secret,
		ttl:     ttl,
		secure:  secure,
		cache:   gocache.New(ttl, ttl/4+time.Minute),
		factory: factory,
		logger:  log,
	}
	r.cache.OnEvicted(func(key string, v interface{}) {
		v.(*browserState).cred.Release()
		metrics.DashboardStatesActive.Dec()
		log.Debug("dashboard state evicted", zap.String("state", key))
	})
	return r
}

// lookup returns the state bound to the request's cookie, if any. A hit
// extends the state's lifetime.
func (g *registry) lookup(r *http.Request) (*browserState, bool) {
	c, err := r.Cookie(StateCookie)
	if err != nil {
		return nil, false
	}
	key, err := g.verify(c.Value)
	if err != nil {
		return nil, false
	}
	v, ok := g.cache.Get(key)
	if !ok {
		return nil, false
	}
	st := v.(*browserState)
	g.cache.Set(key, st, gocache.DefaultExpiration)
	return st, true
}

// acquire returns the request's state, creating one and setting the cookie
// when none exists.
func (g *registry) acquire(w http.ResponseWriter, r *http.Request) (*browserState, error) {
	if st, ok := g.lookup(r); ok {
		return st, nil
	}

	cred, err := apiclient.NewCredential()
	if err != nil {
		return nil, err
	}
	api, err := g.factory(cred)
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}
	st := &browserState{
		key:       uuid.NewString(),
		dashboard: app.New(api, cred, g.logger),
		cred:      cred,
	}

	token, err := g.sign(st.key)
	if err != nil {
		return nil, err
	}
	g.cache.Set(st.key, st, gocache.DefaultExpiration)
	metrics.DashboardStatesActive.Inc()

	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(g.ttl / time.Second),
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return st, nil
}

// drop forgets every state. Used on shutdown.
func (g *registry) drop() {
	for key := range g.cache.Items() {
		g.cache.Delete(key)
	}
}

func (g *registry) sign(key string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   key,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
}

func (g *registry) verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return g.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("state token has no subject")
	}
	return claims.Subject, nil
}
