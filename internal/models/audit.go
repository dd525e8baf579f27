package models

import (
	"time"
)

// Record kinds and outcomes stored in the audit trail.
const (
	RecordKindTurn       = "turn"
	RecordKindExtraction = "extraction"

	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeCrisis   = "crisis"
	OutcomeEmpty    = "empty"
	OutcomeFailed   = "failed"
)

// TurnRecord is one audited provider round-trip.
// It is write-only: nothing reads it back to build a later prompt.
type TurnRecord struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	Kind              string    `gorm:"size:16;index" json:"kind"`
	Provider          string    `gorm:"size:32" json:"provider"`
	Model             string    `gorm:"size:128" json:"model"`
	Branch            string    `gorm:"size:16" json:"branch,omitempty"`
	Outcome           string    `gorm:"size:16;index" json:"outcome"`
	LatencyMs         int64     `json:"latency_ms"`
	SystemPromptBytes int       `json:"system_prompt_bytes"`
	UserPromptBytes   int       `json:"user_prompt_bytes"`
	Response          string    `gorm:"type:text" json:"response"`
	Error             string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt         time.Time `gorm:"index" json:"created_at"`
}

// TableName pins the table name regardless of gorm naming strategy.
func (TurnRecord) TableName() string {
	return "turn_records"
}
