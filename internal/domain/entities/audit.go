package entities

import (
	"encoding/json"
	"time"
)

// AuditEntry records one stage execution, success or failure. Exactly one
// entry is appended per stage that runs, in execution order.
type AuditEntry struct {
	Stage     string          `json:"stage"`
	Action    string          `json:"action"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Message is one entry of the per-run conversation log kept for
// traceability. Append-only, never reordered.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleHuman     = "human"
	RoleAssistant = "assistant"
)
