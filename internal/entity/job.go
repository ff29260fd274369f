package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/jsedlak/cabjobs/constants"
)

// Job represents a customer job for data transfer between layers.
type Job struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	Description *string             `json:"description,omitempty"`
	Status      constants.JobStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// JobItem is one cabinet instance within a job.
type JobItem struct {
	ID           uuid.UUID              `json:"id"`
	JobID        uuid.UUID              `json:"job_id"`
	CabinetID    uuid.UUID              `json:"cabinet_id"`
	Name         string                 `json:"name"`
	Width        *float64               `json:"width,omitempty"`
	Height       *float64               `json:"height,omitempty"`
	Depth        *float64               `json:"depth,omitempty"`
	Quantity     int                    `json:"quantity"`
	OutputStatus constants.OutputStatus `json:"output_status"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// ItemParameterValue is one per-item parameter override, seeded from the
// template defaults at item creation.
type ItemParameterValue struct {
	ID        uuid.UUID `json:"id"`
	ItemID    uuid.UUID `json:"item_id"`
	ParamName string    `json:"param_name"`
	Value     string    `json:"value"`
}

// ItemFileQuantity overrides the worklist quantity of one template file
// for one item. Absence means the default of 1.
type ItemFileQuantity struct {
	ItemID   uuid.UUID `json:"item_id"`
	FileID   uuid.UUID `json:"file_id"`
	Quantity int       `json:"quantity"`
}
