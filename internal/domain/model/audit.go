package model

import "time"

// AuditEntry is one immutable record in a conversation's evidence trail.
// Entries are append-only: they are never mutated or removed once written.
type AuditEntry struct {
	Timestamp      time.Time      `json:"timestamp"`
	Actor          string         `json:"actor"`
	Action         string         `json:"action"`
	InputSnapshot  map[string]any `json:"input_snapshot,omitempty"`
	OutputSnapshot map[string]any `json:"output_snapshot,omitempty"`
	ModelVersion   string         `json:"model_version,omitempty"`
}
