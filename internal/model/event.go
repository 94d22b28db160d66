package model

import (
	"time"
)

// EventType represents the type of deck lifecycle event.
type EventType string

const (
	EventDeckGenerated EventType = "deck.generated"
	EventDeckFallback  EventType = "deck.fallback"
)

// DeckEvent is published after a deck has been stored.
type DeckEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	UserID     string    `json:"user_id"`
	DeckID     string    `json:"deck_id"`
	LeadID     string    `json:"lead_id"`
	Provider   string    `json:"provider,omitempty"`
	Model      string    `json:"model,omitempty"`
	SlideCount int       `json:"slide_count"`
	LatencyMs  int64     `json:"latency_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
