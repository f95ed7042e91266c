package pipeline

import (
	"regexp"
	"strings"

	"github.com/abdliliaai/Rxsentinel/internal/domain/entities"
)

// The few verification rules hardcoded outside the prompts. Everything else
// is deliberately left to the reasoning engine.

var deaNumberPattern = regexp.MustCompile(`^[A-Z]{2}\d{7}$`)

// ValidDEAFormat reports whether a DEA number matches the two-letter,
// seven-digit registration format.
func ValidDEAFormat(number string) bool {
	return deaNumberPattern.MatchString(number)
}

// scheduleRefillLimits is the authoritative refill ceiling per controlled
// substance schedule. Schedule II prescriptions are never refillable.
var scheduleRefillLimits = map[string]int{
	"Schedule II":  0,
	"Schedule III": 5,
	"Schedule IV":  5,
	"Schedule V":   5,
}

// MaxRefillsForSchedule returns the refill ceiling for a schedule and
// whether the schedule was recognized. Unrecognized schedules fall back to
// zero refills.
func MaxRefillsForSchedule(schedule string) (int, bool) {
	limit, ok := scheduleRefillLimits[normalizeSchedule(schedule)]
	if !ok {
		return 0, false
	}
	return limit, true
}

var scheduleAliases = map[string]string{
	"schedule ii":  "Schedule II",
	"schedule 2":   "Schedule II",
	"ii":           "Schedule II",
	"schedule iii": "Schedule III",
	"schedule 3":   "Schedule III",
	"iii":          "Schedule III",
	"schedule iv":  "Schedule IV",
	"schedule 4":   "Schedule IV",
	"iv":           "Schedule IV",
	"schedule v":   "Schedule V",
	"schedule 5":   "Schedule V",
	"v":            "Schedule V",
}

func normalizeSchedule(schedule string) string {
	if canonical, ok := scheduleAliases[strings.ToLower(strings.TrimSpace(schedule))]; ok {
		return canonical
	}
	return strings.TrimSpace(schedule)
}

var stateCodes = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
	"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
	"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
}

var statePattern = regexp.MustCompile(`\b(` + strings.Join(stateCodes, "|") + `)\b`)

// ExtractStateFromAddress pulls the first two-letter state code out of a
// free-text address, or returns the empty string.
func ExtractStateFromAddress(address string) string {
	return statePattern.FindString(strings.ToUpper(address))
}

var durationPattern = regexp.MustCompile(`(\d+)\s*(day|week|month)`)

// ParseDurationDays converts a therapy duration string ("2 weeks", "30
// days", "3 months") to days, defaulting to 30 when unparseable.
func ParseDurationDays(duration string) int {
	match := durationPattern.FindStringSubmatch(strings.ToLower(duration))
	if match == nil {
		return 30
	}

	n := 0
	for _, c := range match[1] {
		n = n*10 + int(c-'0')
	}
	switch match[2] {
	case "day":
		return n
	case "week":
		return n * 7
	case "month":
		return n * 30
	}
	return 30
}

var compoundingIndicators = []string{
	"compound", "compounded", "mixture", "custom", "formula",
	"cream", "gel", "ointment", "suspension", "solution",
}

// IsCompoundedMedication reports whether a medication looks compounded from
// its name or instructions.
func IsCompoundedMedication(m entities.Medication) bool {
	name := strings.ToLower(m.Name)
	instructions := strings.ToLower(m.Instructions)
	for _, indicator := range compoundingIndicators {
		if strings.Contains(name, indicator) || strings.Contains(instructions, indicator) {
			return true
		}
	}
	return false
}

// NormalizePrescription enforces the extraction invariants the engine is
// asked for but cannot be trusted to keep:
//   - unreadable medication fields become "unknown", never empty
//   - catalog medications carry their justification text in Quantity verbatim
//   - justification prose on a non-catalog medication moves to QualityNotes
//     and Quantity resets to "unknown"
func NormalizePrescription(p *entities.Prescription) {
	for i := range p.Medications {
		m := &p.Medications[i]

		if justification, ok := CompoundJustification(m.Name); ok {
			m.Quantity = justification
		} else if looksLikeJustification(m.Quantity) {
			if m.QualityNotes == "" {
				m.QualityNotes = m.Quantity
			} else {
				m.QualityNotes += " " + m.Quantity
			}
			m.Quantity = ""
		}

		fillUnknown(&m.Name)
		fillUnknown(&m.GenericName)
		fillUnknown(&m.Dosage)
		fillUnknown(&m.Strength)
		fillUnknown(&m.Frequency)
		fillUnknown(&m.Duration)
		fillUnknown(&m.Quantity)
		fillUnknown(&m.Refills)
		fillUnknown(&m.Instructions)
		fillUnknown(&m.Route)
		fillUnknown(&m.Form)
	}
}

func fillUnknown(field *string) {
	if strings.TrimSpace(*field) == "" {
		*field = "unknown"
	}
}

// looksLikeJustification spots clinical-difference-statement prose that the
// engine misplaced into the quantity field.
func looksLikeJustification(quantity string) bool {
	q := strings.ToLower(quantity)
	if strings.Contains(q, "patient requires") || strings.Contains(q, "patient necessitates") {
		return true
	}
	return len(quantity) >= 60 && strings.Count(quantity, " ") >= 8
}
