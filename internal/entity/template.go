package entity

import (
	"time"

	"github.com/google/uuid"
)

// CabinetTemplate represents an imported cabinet template for data
// transfer between layers.
type CabinetTemplate struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description *string    `json:"description,omitempty"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	CatalogPath string     `json:"catalog_path"`
	BaseWidth   *float64   `json:"base_width,omitempty"`
	BaseHeight  *float64   `json:"base_height,omitempty"`
	BaseDepth   *float64   `json:"base_depth,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Files      []TemplateFile      `json:"files,omitempty"`
	Parameters []TemplateParameter `json:"parameters,omitempty"`
	Groups     []ParameterGroup    `json:"groups,omitempty"`
}

// TemplateFile is one part-program file belonging to a template.
type TemplateFile struct {
	ID           uuid.UUID `json:"id"`
	TemplateID   uuid.UUID `json:"template_id"`
	Filename     string    `json:"filename"`
	RelativePath string    `json:"relative_path"`
	ContentHash  []byte    `json:"content_hash"`
	Quantity     int       `json:"quantity"`
	SortOrder    int       `json:"sort_order"`
}

// TemplateParameter is one editable parameter of a template, after
// deduplication and filtering of per-part and reserved names.
type TemplateParameter struct {
	ID           uuid.UUID  `json:"id"`
	TemplateID   uuid.UUID  `json:"template_id"`
	GroupID      *uuid.UUID `json:"group_id,omitempty"`
	Name         string     `json:"name"`
	DefaultValue string     `json:"default_value"`
	Description  string     `json:"description"`
	ParamType    string     `json:"param_type"` // "boolean" or "number"
	SortID       int        `json:"sort_id"`
}

// ParameterGroup organizes template parameters for the UI.
type ParameterGroup struct {
	ID         uuid.UUID `json:"id"`
	TemplateID uuid.UUID `json:"template_id"`
	Name       string    `json:"name"`
	SortOrder  int       `json:"sort_order"`
}
