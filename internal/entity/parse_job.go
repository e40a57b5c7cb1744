package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ParseJob represents a parse job for data transfer between layers.
type ParseJob struct {
	ID            uuid.UUID       `json:"id"`
	DocumentID    uuid.UUID       `json:"document_id"`
	Format        string          `json:"format"`
	Status        string          `json:"status"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    *time.Time      `json:"finished_at,omitempty"`
	ErrorMessage  *string         `json:"error_message,omitempty"`
	TextMethod    *string         `json:"text_method,omitempty"`
	PageCount     int             `json:"page_count"`
	EmployeeCount int             `json:"employee_count"`
	PageText      *string         `json:"page_text,omitempty"`
	ResultJSON    json.RawMessage `json:"result_json,omitempty"`
}
