package model

import (
	"time"
)

// LeadStatus is assigned by the server and only displayed by the dashboard.
type LeadStatus string

const (
	LeadActive LeadStatus = "active"
	LeadWon    LeadStatus = "won"
	LeadLost   LeadStatus = "lost"
)

// Lead is a sales opportunity for a client.
type Lead struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	ClientID     string     `json:"client_id"`
	ClientName   string     `json:"client_name"`
	ProjectScope string     `json:"project_scope"`
	Notes        string     `json:"notes"`
	Status       LeadStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
}

// CreateLeadRequest is the request to create a lead.
type CreateLeadRequest struct {
	ClientID     string `json:"client_id" validate:"required"`
	ProjectScope string `json:"project_scope" validate:"required"`
	Notes        string `json:"notes"`
}

// UpdateLeadRequest is a partial update; nil fields are left unchanged.
type UpdateLeadRequest struct {
	ClientID     *string     `json:"client_id,omitempty" validate:"omitempty,min=1"`
	ProjectScope *string     `json:"project_scope,omitempty"`
	Notes        *string     `json:"notes,omitempty"`
	Status       *LeadStatus `json:"status,omitempty" validate:"omitempty,oneof=active won lost"`
}

// Empty reports whether the update changes nothing.
func (r *UpdateLeadRequest) Empty() bool {
	return r.ClientID == nil && r.ProjectScope == nil && r.Notes == nil && r.Status == nil
}
