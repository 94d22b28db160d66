package model

import (
	"time"
)

// Client is a prospective customer organisation.
type Client struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Industry    string    `json:"industry"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateClientRequest is the request to create a client.
type CreateClientRequest struct {
	Name        string `json:"name" validate:"required,max=256"`
	Industry    string `json:"industry" validate:"required,max=256"`
	Description string `json:"description" validate:"required"`
}

// UpdateClientRequest is a partial update; nil fields are left unchanged.
type UpdateClientRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=256"`
	Industry    *string `json:"industry,omitempty" validate:"omitempty,min=1,max=256"`
	Description *string `json:"description,omitempty"`
}

// Empty reports whether the update changes nothing.
func (r *UpdateClientRequest) Empty() bool {
	return r.Name == nil && r.Industry == nil && r.Description == nil
}
