package model

import (
	"time"

	"github.com/capitalize-ai/sales-deck/internal/deck"
)

// Deck is a generated sales presentation. Decks are created only by
// generation and never modified.
type Deck struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	LeadID    string       `json:"lead_id"`
	LeadName  string       `json:"lead_name"`
	Content   deck.Content `json:"content"`
	CreatedAt time.Time    `json:"created_at"`
}

// GenerateDeckRequest asks for a new deck for a lead.
type GenerateDeckRequest struct {
	LeadID string `json:"lead_id" validate:"required"`
}
