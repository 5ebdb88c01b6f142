package data

import (
	"time"
)

const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// Ingestion tracks one source-table-to-destination-table load from creation
// to completion. The object list and inferred columns fill in as the run
// progresses.
type Ingestion struct {
	Id          string    `json:"ingestion_id"`
	CreatedAt   time.Time `json:"ingestion_created_at"`
	Source      Source    `json:"ingestion_source"`
	SourceTable TableRef  `json:"ingestion_source_table"`
	Target      Target    `json:"ingestion_target"`
	Status      string    `json:"ingestion_status"`
	Error       string    `json:"ingestion_error,omitempty"`
	Columns     []Column  `json:"ingestion_columns,omitempty"`
	Objects     []Object  `json:"ingestion_objects,omitempty"`
}
