// Package bootstrap decides, once per landing-page mount, whether the visitor
// has a session: either by exchanging a callback token carried in the URL
// fragment or by probing the current credential.
package bootstrap

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/capitalize-ai/sales-deck/internal/model"
	"github.com/capitalize-ai/sales-deck/pkg/logger"
)

// CallbackMarker introduces the single-use token in the URL fragment.
const CallbackMarker = "session_id="

// AuthFailedMessage is shown when the callback exchange fails.
const AuthFailedMessage = "Authentication failed"

// State is the bootstrapper's position in its state machine.
type State int

const (
	Idle State = iota
	Authenticating
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// View is one of the two logical pages.
type View string

const (
	ViewLanding   View = "/"
	ViewDashboard View = "/dashboard"
)

// Location is the visible URL of the page being mounted.
type Location interface {
	// Fragment returns the URL fragment, with or without the leading '#'.
	Fragment() string
	// ReplaceState rewrites the visible URL in place without navigating.
	ReplaceState(path string)
}

// Navigator moves the user between views.
type Navigator interface {
	Navigate(v View)
}

// Notifier surfaces user-visible error notices.
type Notifier interface {
	Error(msg string)
}

// Authenticator is the slice of the API client the bootstrapper needs.
type Authenticator interface {
	Probe(ctx context.Context) (*model.User, error)
	ExchangeCallback(ctx context.Context, token string) error
}

// Outcome is the terminal result of Run.
type Outcome struct {
	State State
	// User is set when the probe path succeeds. The exchange path leaves it
	// nil; the dashboard probes on mount.
	User *model.User
	// Err is the failure that led to Anonymous, if any.
	Err error
}

// Option customizes a Bootstrapper.
type Option func(*Bootstrapper)

// WithObserver registers fn to be called on every state transition.
func WithObserver(fn func(State)) Option {
	return func(b *Bootstrapper) {
		b.observer = fn
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(b *Bootstrapper) {
		b.logger = log
	}
}

// Bootstrapper runs the landing-page session check. It is single use: build
// a new one for every mount.
type Bootstrapper struct {
	auth     Authenticator
	nav      Navigator
	notify   Notifier
	logger   *logger.Logger
	observer func(State)

	mu      sync.Mutex
	state   State
	once    sync.Once
	outcome Outcome
}

// New creates a bootstrapper in the Idle state.
func New(auth Authenticator, nav Navigator, notify Notifier, opts ...Option) *Bootstrapper {
	b := &Bootstrapper{
		auth:   auth,
		nav:    nav,
		notify: notify,
		logger: logger.Global(),
		state:  Idle,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State returns the current state.
func (b *Bootstrapper) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Run evaluates the session exactly once. Later calls return the first
// outcome without contacting the API again.
func (b *Bootstrapper) Run(ctx context.Context, loc Location) Outcome {
	b.once.Do(func() {
		if token, ok := TokenFromFragment(loc.Fragment()); ok {
			b.outcome = b.exchange(ctx, loc, token)
			return
		}
		b.outcome = b.probe(ctx)
	})
	return b.outcome
}

func (b *Bootstrapper) exchange(ctx context.Context, loc Location, token string) Outcome {
	b.transition(Authenticating)

	err := b.auth.ExchangeCallback(ctx, token)

	// The token is single use; never leave it in the visible URL.
	loc.ReplaceState(string(ViewLanding))

	if err != nil {
		b.logger.Warn("callback exchange failed", zap.Error(err))
		b.notify.Error(AuthFailedMessage)
		b.transition(Anonymous)
		return Outcome{State: Anonymous, Err: err}
	}

	b.transition(Authenticated)
	b.nav.Navigate(ViewDashboard)
	return Outcome{State: Authenticated}
}

func (b *Bootstrapper) probe(ctx context.Context) Outcome {
	user, err := b.auth.Probe(ctx)
	if err != nil {
		b.logger.Debug("no existing session", zap.Error(err))
		b.transition(Anonymous)
		return Outcome{State: Anonymous, Err: err}
	}

	b.transition(Authenticated)
	b.nav.Navigate(ViewDashboard)
	return Outcome{State: Authenticated, User: user}
}

func (b *Bootstrapper) transition(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
	if b.observer != nil {
		b.observer(s)
	}
}

// TokenFromFragment extracts the callback token from a URL fragment. The
// token runs from the marker to the next '&' or the end of the fragment.
// ok is false when the marker is absent.
func TokenFromFragment(fragment string) (token string, ok bool) {
	fragment = strings.TrimPrefix(fragment, "#")
	_, after, found := strings.Cut(fragment, CallbackMarker)
	if !found {
		return "", false
	}
	token, _, _ = strings.Cut(after, "&")
	if unescaped, err := url.QueryUnescape(token); err == nil {
		token = unescaped
	}
	return token, true
}

// LoginURL builds the identity provider URL with a return address of
// origin + "/dashboard".
func LoginURL(provider, origin string) string {
	redirect := strings.TrimRight(origin, "/") + string(ViewDashboard)

	u, err := url.Parse(provider)
	if err != nil {
		return provider + "?redirect=" + url.QueryEscape(redirect)
	}
	q := u.Query()
	q.Set("redirect", redirect)
	u.RawQuery = q.Encode()
	return u.String()
}
