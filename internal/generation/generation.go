// Package generation drives deck generation from the dashboard.
package generation

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/capitalize-ai/sales-deck/internal/model"
	"github.com/capitalize-ai/sales-deck/pkg/logger"
)

// Generator asks the API to create a deck.
type Generator interface {
	GenerateDeck(ctx context.Context, leadID string) (*model.Deck, error)
}

// Opener receives the freshly generated deck.
type Opener interface {
	Open(d *model.Deck)
}

// Refresher reloads the dashboard collections.
type Refresher interface {
	FetchAll(ctx context.Context) error
}

// Option customizes a Controller.
type Option func(*Controller)

// WithObserver registers fn to be called whenever the generating flag changes.
func WithObserver(fn func(generating bool)) Option {
	return func(c *Controller) {
		c.observer = fn
	}
}

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *Controller) {
		c.logger = log
	}
}

// Controller owns the generating flag. The flag is shared by all leads: a
// second generation started while one is running is not blocked, and
// whichever call finishes first clears the flag.
type Controller struct {
	gen       Generator
	opener    Opener
	refresher Refresher
	logger    *logger.Logger
	observer  func(bool)

	mu         sync.Mutex
	generating bool
}

// New creates a controller.
func New(gen Generator, opener Opener, refresher Refresher, opts ...Option) *Controller {
	c := &Controller{
		gen:       gen,
		opener:    opener,
		refresher: refresher,
		logger:    logger.Global(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generating reports whether a generation request is in flight.
func (c *Controller) Generating() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generating
}

// Generate requests a deck for leadID. On success the deck is opened in the
// viewer and the collections are refetched. The flag is cleared on every
// outcome before the refetch starts.
func (c *Controller) Generate(ctx context.Context, leadID string) (*model.Deck, error) {
	d, err := c.request(ctx, leadID)
	if err != nil {
		c.logger.Warn("deck generation failed",
			zap.String("lead_id", leadID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("generate deck for lead %s: %w", leadID, err)
	}

	_ = c.refresher.FetchAll(ctx)
	return d, nil
}

func (c *Controller) request(ctx context.Context, leadID string) (*model.Deck, error) {
	c.setGenerating(true)
	defer c.setGenerating(false)

	d, err := c.gen.GenerateDeck(ctx, leadID)
	if err != nil {
		return nil, err
	}
	c.opener.Open(d)
	return d, nil
}

func (c *Controller) setGenerating(v bool) {
	c.mu.Lock()
	c.generating = v
	c.mu.Unlock()
	if c.observer != nil {
		c.observer(v)
	}
}
