package entities

import "time"

// AlertKind distinguishes error, warning and informational findings.
type AlertKind string

const (
	AlertError   AlertKind = "error"
	AlertWarning AlertKind = "warning"
	AlertInfo    AlertKind = "info"
)

// IsValid checks if the kind is one of the defined constants.
func (k AlertKind) IsValid() bool {
	switch k {
	case AlertError, AlertWarning, AlertInfo:
		return true
	}
	return false
}

// Alert is a structured finding surfaced to a human reviewer. Category is
// the name of the pipeline stage that raised it.
type Alert struct {
	Kind                AlertKind `json:"type"`
	Category            string    `json:"category"`
	Message             string    `json:"message"`
	Severity            int       `json:"severity"`
	RequiresHumanReview bool      `json:"requires_human_review"`
	Timestamp           time.Time `json:"timestamp"`
}

// EmbeddedAlert is an alert object nested inside a stage's reasoning-engine
// output. The stage mirrors each one into the run's alert ledger with its
// own category attached.
type EmbeddedAlert struct {
	Kind     AlertKind `json:"type"`
	Message  string    `json:"message"`
	Severity int       `json:"severity"`
}
