package store

import (
	"github.com/capitalize-ai/sales-deck/internal/model"
)

// Form is the pending input for one create operation. The set of forms is
// closed: ClientForm, AssetForm and LeadForm.
type Form interface {
	Collection() Collection
	isForm()
}

// ClientForm holds the new-client inputs.
type ClientForm struct {
	Name        string
	Industry    string
	Description string
}

// AssetForm holds the new-asset inputs.
type AssetForm struct {
	Type    model.AssetType
	Name    string
	Content string
}

// LeadForm holds the new-lead inputs.
type LeadForm struct {
	ClientID     string
	ProjectScope string
	Notes        string
}

func (ClientForm) Collection() Collection { return Clients }
func (AssetForm) Collection() Collection  { return Assets }
func (LeadForm) Collection() Collection   { return Leads }

func (ClientForm) isForm() {}
func (AssetForm) isForm()  {}
func (LeadForm) isForm()   {}

// DefaultAssetForm is the asset form after a reset.
func DefaultAssetForm() AssetForm {
	return AssetForm{Type: model.AssetProductDescription}
}

func (f ClientForm) request() model.CreateClientRequest {
	return model.CreateClientRequest{Name: f.Name, Industry: f.Industry, Description: f.Description}
}

func (f AssetForm) request() model.CreateAssetRequest {
	t := f.Type
	if t == "" {
		t = model.AssetProductDescription
	}
	return model.CreateAssetRequest{Type: t, Name: f.Name, Content: f.Content}
}

func (f LeadForm) request() model.CreateLeadRequest {
	return model.CreateLeadRequest{ClientID: f.ClientID, ProjectScope: f.ProjectScope, Notes: f.Notes}
}
