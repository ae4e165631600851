package db

import (
	"time"

	"github.com/google/uuid"
)

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run represents a search run record
type Run struct {
	ID          uuid.UUID  `json:"id"`
	Query       string     `json:"query"`
	Location    string     `json:"location"`
	Platform    string     `json:"platform"`
	Method      string     `json:"method,omitempty"`
	Page        int        `json:"page"`
	Status      string     `json:"status"`
	LeadCount   int        `json:"lead_count"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
