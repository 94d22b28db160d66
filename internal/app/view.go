package app

import (
	"github.com/capitalize-ai/sales-deck/internal/model"
	"github.com/capitalize-ai/sales-deck/internal/store"
)

// Level is the severity of a notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a one-shot message shown on the next render.
type Notice struct {
	Level   Level
	Message string
}

// View is a render-ready copy of a Dashboard.
type View struct {
	User       *model.User
	Tab        Tab
	Data       store.Snapshot
	Generating bool
	// ActiveDeck is non-nil exactly when the viewer is visible.
	ActiveDeck *model.Deck
	Notices    []Notice
}

// ViewerVisible reports whether the deck viewer is shown.
func (v View) ViewerVisible() bool {
	return v.ActiveDeck != nil
}

type messages struct {
	success string
	failure string
}

var createMessages = map[store.Collection]messages{
	store.Clients: {success: "Client added successfully", failure: "Failed to add client"},
	store.Assets:  {success: "Asset added successfully", failure: "Failed to add asset"},
	store.Leads:   {success: "Lead created successfully", failure: "Failed to create lead"},
}

var deleteMessages = map[store.Collection]messages{
	store.Clients: {success: "Client deleted", failure: "Failed to delete client"},
	store.Assets:  {success: "Asset deleted", failure: "Failed to delete asset"},
	store.Leads:   {success: "Lead deleted", failure: "Failed to delete lead"},
	store.Decks:   {failure: "Decks cannot be deleted"},
}
