package entities

// CompoundedMedication describes one medication requiring compounding.
type CompoundedMedication struct {
	Name                 string   `json:"name"`
	Type                 string   `json:"type"`
	FacilityTypeRequired string   `json:"facility_type_required"`
	ShippingAllowed      bool     `json:"shipping_allowed"`
	Restrictions         []string `json:"restrictions"`
}

// ShippingRestriction describes one state or handling restriction.
type ShippingRestriction struct {
	RestrictionType     string   `json:"restriction_type"`
	Description         string   `json:"description"`
	AffectedMedications []string `json:"affected_medications"`
}

// ShippingDetails carries the shipping instructions exactly as written on
// the prescription, never inferred.
type ShippingDetails struct {
	Service           string `json:"service"`
	RecipientName     string `json:"recipient_name"`
	RecipientAddress  string `json:"recipient_address"`
	SignatureRequired bool   `json:"signature_required"`
}

// CompoundingCompliance is the compounding/shipping governance stage output.
type CompoundingCompliance struct {
	CompoundingRequired   bool                   `json:"compounding_required"`
	CompoundedMedications []CompoundedMedication `json:"compounded_medications"`
	VialTypeRequired      string                 `json:"vial_type_required"`
	ShippingRestrictions  []ShippingRestriction  `json:"shipping_restrictions"`
	ShippingDetails       ShippingDetails        `json:"shipping_details"`
	RecipientType         string                 `json:"recipient_type"`
	ComplianceStatus      string                 `json:"compliance_status"`
	Alerts                []EmbeddedAlert        `json:"alerts"`
}

// RequiredDocument is one clinical document the case needs on file.
type RequiredDocument struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Required bool   `json:"required"`
	Notes    string `json:"notes"`
}

// DiagnosisCode is one ICD-style code supporting the prescription.
type DiagnosisCode struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Supports    string `json:"supports"`
}

// LabResult is one laboratory finding referenced by the case file.
type LabResult struct {
	Test   string `json:"test"`
	Value  string `json:"value"`
	Date   string `json:"date"`
	Status string `json:"status"`
}

// ClinicalDocumentation is the clinical-documentation stage output. Loosely
// typed sub-objects stay maps because the engine's shape varies per case.
type ClinicalDocumentation struct {
	RequiredDocuments  []RequiredDocument `json:"required_documents"`
	DiagnosisCodes     []DiagnosisCode    `json:"diagnosis_codes"`
	LabResults         []LabResult        `json:"lab_results"`
	ConsentForms       map[string]any     `json:"consent_forms"`
	PriorAuthorization map[string]any     `json:"prior_authorization"`
	ComplianceScore    float64            `json:"compliance_score"`
	MissingDocuments   []string           `json:"missing_documents"`
	BlockingIssues     []string           `json:"blocking_issues"`
	Recommendations    []string           `json:"recommendations"`
	Alerts             []EmbeddedAlert    `json:"alerts"`
}
