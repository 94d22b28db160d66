package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/sales-deck/internal/model"
	"github.com/capitalize-ai/sales-deck/internal/repository"
	"github.com/capitalize-ai/sales-deck/pkg/logger"
	"github.com/capitalize-ai/sales-deck/pkg/metrics"
)

// ClientService manages a user's clients.
type ClientService struct {
	repo   repository.Repository
	logger *logger.Logger
}

// NewClientService creates a new client service.
func NewClientService(repo repository.Repository, log *logger.Logger) *ClientService {
	return &ClientService{repo: repo, logger: log}
}

// Create stores a new client.
func (s *ClientService) Create(ctx context.Context, userID string, req *model.CreateClientRequest) (*model.Client, error) {
	c := &model.Client{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        req.Name,
		Industry:    req.Industry,
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.CreateClient(ctx, c); err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	metrics.ResourcesCreatedTotal.WithLabelValues("clients").Inc()
	s.logger.Info("client created", zap.String("user_id", userID), zap.String("client_id", c.ID))
	return c, nil
}

// List returns the user's clients.
func (s *ClientService) List(ctx context.Context, userID string) ([]model.Client, error) {
	return s.repo.ListClients(ctx, userID)
}

// Update applies a partial update and returns the stored client.
func (s *ClientService) Update(ctx context.Context, userID, id string, req *model.UpdateClientRequest) (*model.Client, error) {
	if req.Empty() {
		return nil, ErrEmptyUpdate
	}
	c, err := s.repo.GetClient(ctx, userID, id)
	if err != nil {
		return nil, notFound(err, "Client")
	}
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Industry != nil {
		c.Industry = *req.Industry
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if err := s.repo.UpdateClient(ctx, c); err != nil {
		return nil, notFound(err, "Client")
	}
	return c, nil
}

// Delete removes a client. Leads referencing it keep their stored client name.
func (s *ClientService) Delete(ctx context.Context, userID, id string) error {
	return notFound(s.repo.DeleteClient(ctx, userID, id), "Client")
}

// AssetService manages a user's reference assets.
type AssetService struct {
	repo   repository.Repository
	logger *logger.Logger
}

// NewAssetService creates a new asset service.
func NewAssetService(repo repository.Repository, log *logger.Logger) *AssetService {
	return &AssetService{repo: repo, logger: log}
}

// Create stores a text asset.
func (s *AssetService) Create(ctx context.Context, userID string, req *model.CreateAssetRequest) (*model.Asset, error) {
	a := &model.Asset{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      req.Type,
		Name:      req.Name,
		Content:   req.Content,
		FileURL:   req.FileURL,
		CreatedAt: time.Now().UTC(),
	}
	return a, s.store(ctx, a)
}

// Upload stores a file as an asset. UTF-8 files keep their text as the
// asset content; anything else gets a placeholder. The raw bytes are kept
// base64-encoded either way.
func (s *AssetService) Upload(ctx context.Context, userID string, assetType model.AssetType, name, fileName string, data []byte) (*model.Asset, error) {
	content := fmt.Sprintf("[Binary file: %s]", fileName)
	if utf8.Valid(data) {
		content = string(data)
	}
	a := &model.Asset{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      assetType,
		Name:      name,
		Content:   content,
		FileName:  fileName,
		FileData:  base64.StdEncoding.EncodeToString(data),
		CreatedAt: time.Now().UTC(),
	}
	return a, s.store(ctx, a)
}

func (s *AssetService) store(ctx context.Context, a *model.Asset) error {
	if err := s.repo.CreateAsset(ctx, a); err != nil {
		return fmt.Errorf("create asset: %w", err)
	}
	metrics.ResourcesCreatedTotal.WithLabelValues("assets").Inc()
	s.logger.Info("asset created",
		zap.String("user_id", a.UserID),
		zap.String("asset_id", a.ID),
		zap.String("type", string(a.Type)),
	)
	return nil
}

// List returns the user's assets, optionally restricted to one type.
func (s *AssetService) List(ctx context.Context, userID string, assetType model.AssetType) ([]model.Asset, error) {
	return s.repo.ListAssets(ctx, userID, assetType)
}

// Delete removes an asset.
func (s *AssetService) Delete(ctx context.Context, userID, id string) error {
	return notFound(s.repo.DeleteAsset(ctx, userID, id), "Asset")
}

// LeadService manages a user's leads.
type LeadService struct {
	repo   repository.Repository
	logger *logger.Logger
}

// NewLeadService creates a new lead service.
func NewLeadService(repo repository.Repository, log *logger.Logger) *LeadService {
	return &LeadService{repo: repo, logger: log}
}

// Create stores a new active lead. The client's current name is copied
// onto the lead.
func (s *LeadService) Create(ctx context.Context, userID string, req *model.CreateLeadRequest) (*model.Lead, error) {
	client, err := s.repo.GetClient(ctx, userID, req.ClientID)
	if err != nil {
		return nil, notFound(err, "Client")
	}
	l := &model.Lead{
		ID:           uuid.NewString(),
		UserID:       userID,
		ClientID:     client.ID,
		ClientName:   client.Name,
		ProjectScope: req.ProjectScope,
		Notes:        req.Notes,
		Status:       model.LeadActive,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.CreateLead(ctx, l); err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}
	metrics.ResourcesCreatedTotal.WithLabelValues("leads").Inc()
	s.logger.Info("lead created", zap.String("user_id", userID), zap.String("lead_id", l.ID))
	return l, nil
}

// List returns the user's leads.
func (s *LeadService) List(ctx context.Context, userID string) ([]model.Lead, error) {
	return s.repo.ListLeads(ctx, userID)
}

// Update applies a partial update. Moving a lead to another client
// refreshes its client name.
func (s *LeadService) Update(ctx context.Context, userID, id string, req *model.UpdateLeadRequest) (*model.Lead, error) {
	var client *model.Client
	if req.ClientID != nil {
		c, err := s.repo.GetClient(ctx, userID, *req.ClientID)
		if err != nil {
			return nil, notFound(err, "Client")
		}
		client = c
	}
	if req.Empty() {
		return nil, ErrEmptyUpdate
	}

	l, err := s.repo.GetLead(ctx, userID, id)
	if err != nil {
		return nil, notFound(err, "Lead")
	}
	if client != nil {
		l.ClientID = client.ID
		l.ClientName = client.Name
	}
	if req.ProjectScope != nil {
		l.ProjectScope = *req.ProjectScope
	}
	if req.Notes != nil {
		l.Notes = *req.Notes
	}
	if req.Status != nil {
		l.Status = *req.Status
	}
	if err := s.repo.UpdateLead(ctx, l); err != nil {
		return nil, notFound(err, "Lead")
	}
	return l, nil
}

// Delete removes a lead. Decks generated for it are kept.
func (s *LeadService) Delete(ctx context.Context, userID, id string) error {
	return notFound(s.repo.DeleteLead(ctx, userID, id), "Lead")
}
