// Package viewer holds the single "active deck" slot behind the presentation
// viewer. The viewer is visible exactly when the slot is occupied.
package viewer

import (
	"context"
	"fmt"
	"sync"

	"github.com/capitalize-ai/sales-deck/internal/model"
)

// Fetcher loads a deck by id.
type Fetcher interface {
	GetDeck(ctx context.Context, id string) (*model.Deck, error)
}

// Slot is safe for concurrent use.
type Slot struct {
	mu     sync.RWMutex
	active *model.Deck
}

// Open makes d the active deck, replacing any previous one.
func (s *Slot) Open(d *model.Deck) {
	if d == nil {
		return
	}
	cp := *d
	s.mu.Lock()
	s.active = &cp
	s.mu.Unlock()
}

// Select fetches the deck by id and opens it. On failure the slot is left
// as it was.
func (s *Slot) Select(ctx context.Context, f Fetcher, id string) error {
	d, err := f.GetDeck(ctx, id)
	if err != nil {
		return fmt.Errorf("select deck %s: %w", id, err)
	}
	s.Open(d)
	return nil
}

// Close empties the slot.
func (s *Slot) Close() {
	s.mu.Lock()
	s.active = nil
	s.mu.Unlock()
}

// Active returns the active deck.
func (s *Slot) Active() (model.Deck, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return model.Deck{}, false
	}
	return *s.active, true
}

// Visible reports whether the viewer should be shown.
func (s *Slot) Visible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active != nil
}
