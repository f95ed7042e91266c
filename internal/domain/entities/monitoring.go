package entities

// ControlledSubstanceEntry is one controlled medication under monitoring.
// MaxRefillsAllowed is authoritative from the static schedule table, not the
// reasoning engine.
type ControlledSubstanceEntry struct {
	Name                string `json:"name"`
	Schedule            string `json:"schedule"`
	Quantity            string `json:"quantity"`
	Refills             string `json:"refills"`
	MaxRefillsAllowed   int    `json:"max_refills_allowed"`
	LastFillDate        string `json:"last_fill_date"`
	NextEligibleDate    string `json:"next_eligible_date"`
	TooSoonToFill       bool   `json:"too_soon_to_fill"`
	QuantityAppropriate bool   `json:"quantity_appropriate"`
}

// ControlledSubstanceCheck is the controlled-substance monitoring stage output.
type ControlledSubstanceCheck struct {
	ControlledSubstances []ControlledSubstanceEntry `json:"controlled_substances"`
	RefillAlerts         []string                   `json:"refill_alerts"`
	TimingAlerts         []string                   `json:"timing_alerts"`
	CrossStateAlerts     []string                   `json:"cross_state_alerts"`
	DEAAuthorityVerified bool                       `json:"dea_authority_verified"`
	Alerts               []EmbeddedAlert            `json:"alerts"`
}

// DosageAlert flags a dose outside the expected range for one medication.
type DosageAlert struct {
	Medication       string `json:"medication"`
	AlertType        string `json:"alert_type"`
	CurrentDose      string `json:"current_dose"`
	RecommendedRange string `json:"recommended_range"`
	Reason           string `json:"reason"`
}

// HighDoseMedication reports a medication prescribed above usual maximums.
type HighDoseMedication struct {
	Medication     string `json:"medication"`
	PrescribedDose string `json:"prescribed_dose"`
	MaxRecommended string `json:"max_recommended"`
	DailyTotal     string `json:"daily_total"`
	RiskLevel      string `json:"risk_level"`
}

// InteractionWarning reports a drug-drug interaction.
type InteractionWarning struct {
	Medications     []string `json:"medications"`
	InteractionType string   `json:"interaction_type"`
	Description     string   `json:"description"`
	Management      string   `json:"management"`
}

// TherapeuticDuplication reports multiple medications of the same class.
type TherapeuticDuplication struct {
	DrugClass      string   `json:"drug_class"`
	Medications    []string `json:"medications"`
	Recommendation string   `json:"recommendation"`
}

// DosageMonitoring is the dosage-monitoring stage output.
type DosageMonitoring struct {
	DosageAlerts            []DosageAlert            `json:"dosage_alerts"`
	HighDoseMedications     []HighDoseMedication     `json:"high_dose_medications"`
	InteractionWarnings     []InteractionWarning     `json:"interaction_warnings"`
	TherapeuticDuplications []TherapeuticDuplication `json:"therapeutic_duplications"`
	Alerts                  []EmbeddedAlert          `json:"alerts"`
}

// BUDAlert flags a beyond-use-date concern for one medication.
type BUDAlert struct {
	Medication           string `json:"medication"`
	AlertType            string `json:"alert_type"`
	InventoryExpiry      string `json:"inventory_expiry"`
	PrescriptionDuration string `json:"prescription_duration"`
	DaysUntilExpiry      int    `json:"days_until_expiry"`
	Recommendation       string `json:"recommendation"`
}

// InventoryMismatch reports insufficient stock for a prescribed quantity.
type InventoryMismatch struct {
	Medication        string `json:"medication"`
	RequiredQuantity  string `json:"required_quantity"`
	AvailableQuantity string `json:"available_quantity"`
	Shortage          string `json:"shortage"`
}

// ExpirationWarning reports near-expiry or expired stock.
type ExpirationWarning struct {
	Medication     string `json:"medication"`
	ExpiryDate     string `json:"expiry_date"`
	WarningType    string `json:"warning_type"`
	ActionRequired string `json:"action_required"`
}

// BUDValidation is the beyond-use-date validation stage output.
type BUDValidation struct {
	BUDAlerts           []BUDAlert          `json:"bud_alerts"`
	InventoryMismatches []InventoryMismatch `json:"inventory_mismatches"`
	ExpirationWarnings  []ExpirationWarning `json:"expiration_warnings"`
	Alerts              []EmbeddedAlert     `json:"alerts"`
}
