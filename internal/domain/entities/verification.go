package entities

// License is the verification outcome for one state license entry.
type License struct {
	State              string          `json:"state"`
	Number             string          `json:"license_number"`
	Valid              bool            `json:"license_valid"`
	Status             string          `json:"license_status"`
	ExpirationDate     string          `json:"expiration_date"`
	VerificationMethod string          `json:"verification_method"`
	VerifiedName       string          `json:"verified_name"`
	Specialty          string          `json:"specialty"`
	Restrictions       []string        `json:"restrictions"`
	Alerts             []EmbeddedAlert `json:"alerts"`
}

// LicenseVerification is the license-check stage output.
type LicenseVerification struct {
	Licenses []License       `json:"licenses"`
	Alerts   []EmbeddedAlert `json:"alerts"`
}

// ControlledSubstanceFinding ties a prescribed controlled medication to the
// prescriber's authority under one DEA registration.
type ControlledSubstanceFinding struct {
	Medication string `json:"medication"`
	Schedule   string `json:"schedule"`
	Authorized bool   `json:"authorized"`
}

// DEARegistration is the verification outcome for one DEA number.
type DEARegistration struct {
	Number                    string                       `json:"dea_number"`
	State                     string                       `json:"state"`
	Valid                     bool                         `json:"dea_valid"`
	Status                    string                       `json:"dea_status"`
	FormatValid               bool                         `json:"dea_format_valid"`
	ExpirationDate            string                       `json:"expiration_date"`
	ControlledAuthority       []string                     `json:"controlled_authority"`
	ControlledSubstancesFound []ControlledSubstanceFinding `json:"controlled_substances_found"`
	VerificationDate          string                       `json:"verification_date"`
	Alerts                    []EmbeddedAlert              `json:"alerts"`
}

// DEAVerification is the DEA-check stage output.
type DEAVerification struct {
	DEANumbers []DEARegistration `json:"dea_numbers"`
	Alerts     []EmbeddedAlert   `json:"alerts"`
}

// StateRule is one state-specific prescribing rule evaluation.
type StateRule struct {
	Rule        string `json:"rule"`
	Compliant   bool   `json:"compliant"`
	Requirement string `json:"requirement"`
}

// StateCompliance is the state-compliance stage output.
type StateCompliance struct {
	CrossStatePrescription bool            `json:"cross_state_prescription"`
	DoctorState            string          `json:"doctor_state"`
	PatientState           string          `json:"patient_state"`
	LOVRequired            bool            `json:"lov_required"`
	TelemedAllowed         bool            `json:"telemed_allowed"`
	SpecialRequirements    []string        `json:"special_requirements"`
	ComplianceStatus       string          `json:"compliance_status"`
	StateSpecificRules     []StateRule     `json:"state_specific_rules"`
	Alerts                 []EmbeddedAlert `json:"alerts"`
}
