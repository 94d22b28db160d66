package viewer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/sales-deck/internal/deck"
	"github.com/capitalize-ai/sales-deck/internal/model"
)

type fakeFetcher struct {
	decks map[string]model.Deck
	calls []string
}

func (f *fakeFetcher) GetDeck(_ context.Context, id string) (*model.Deck, error) {
	f.calls = append(f.calls, id)
	d, ok := f.decks[id]
	if !ok {
		return nil, errors.New("404 Deck not found")
	}
	return &d, nil
}

func TestSlot_OpenClose(t *testing.T) {
	var s Slot
	assert.False(t, s.Visible())

	s.Open(&model.Deck{ID: "d1", Content: deck.Content{Title: "T"}})
	assert.True(t, s.Visible())

	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, "d1", active.ID)

	s.Close()
	assert.False(t, s.Visible())
	_, ok = s.Active()
	assert.False(t, ok)
}

func TestSlot_OpenNilIsIgnored(t *testing.T) {
	var s Slot
	s.Open(nil)
	assert.False(t, s.Visible())
}

func TestSlot_SelectFetchesFirst(t *testing.T) {
	f := &fakeFetcher{decks: map[string]model.Deck{"d2": {ID: "d2", LeadName: "Acme"}}}
	var s Slot
	s.Open(&model.Deck{ID: "d1"})

	require.NoError(t, s.Select(context.Background(), f, "d2"))
	assert.Equal(t, []string{"d2"}, f.calls)

	active, _ := s.Active()
	assert.Equal(t, "Acme", active.LeadName)
}

func TestSlot_SelectFailureKeepsSlot(t *testing.T) {
	f := &fakeFetcher{}
	var s Slot
	s.Open(&model.Deck{ID: "d1"})

	err := s.Select(context.Background(), f, "missing")
	require.Error(t, err)

	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, "d1", active.ID)
}
