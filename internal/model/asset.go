package model

import (
	"time"
)

// AssetType classifies reference material used during deck generation.
type AssetType string

const (
	AssetProductDescription AssetType = "product_description"
	AssetUseCase            AssetType = "use_case"
	AssetGeneral            AssetType = "general"
)

// Valid reports whether t is a known asset type.
func (t AssetType) Valid() bool {
	switch t {
	case AssetProductDescription, AssetUseCase, AssetGeneral:
		return true
	}
	return false
}

// Asset is a piece of reference knowledge.
type Asset struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      AssetType `json:"type"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	FileURL   string    `json:"file_url,omitempty"`
	FileName  string    `json:"file_name,omitempty"`
	FileData  string    `json:"file_data,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateAssetRequest is the request to create a text asset.
type CreateAssetRequest struct {
	Type    AssetType `json:"type" validate:"required,oneof=product_description use_case general"`
	Name    string    `json:"name" validate:"required,max=256"`
	Content string    `json:"content" validate:"required"`
	FileURL string    `json:"file_url,omitempty" validate:"omitempty,url"`
}
