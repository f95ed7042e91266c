package entities

// LicenseNumber is one state medical license held by the prescriber.
type LicenseNumber struct {
	State  string `json:"state"`
	Number string `json:"license_number"`
}

// DEANumber is one DEA registration held by the prescriber.
type DEANumber struct {
	State  string `json:"state"`
	Number string `json:"dea_number"`
}

// DoctorInfo holds prescriber details extracted from the document.
type DoctorInfo struct {
	Name           string          `json:"name"`
	Qualification  string          `json:"qualification"`
	Department     string          `json:"department"`
	Address        string          `json:"address"`
	State          string          `json:"state"`
	Hospital       string          `json:"hospital"`
	Phone          string          `json:"phone"`
	Fax            string          `json:"fax"`
	LicenseNumbers []LicenseNumber `json:"license_numbers"`
	DEANumbers     []DEANumber     `json:"dea_numbers"`
}

// PatientInfo holds patient details extracted from the document.
type PatientInfo struct {
	Name                 string `json:"name"`
	Phone                string `json:"phone"`
	DOB                  string `json:"dob"`
	Address              string `json:"address"`
	City                 string `json:"city"`
	State                string `json:"state"`
	ZipCode              string `json:"zip_code"`
	Gender               string `json:"gender"`
	PayType              string `json:"pay_type"`
	InsuranceName        string `json:"insurance_name"`
	GroupName            string `json:"group_name"`
	InsurancePhoneNumber string `json:"insurance_phone_number"`
	MemberID             string `json:"member_id"`
	Email                string `json:"email"`
}

// PharmacyInfo holds the dispensing pharmacy details.
type PharmacyInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// Medication is one prescribed line item. Quantity is a numeric value with
// unit, except for medications in the compounded-formulation catalog where
// it carries the catalog's justification text verbatim. Fields the engine
// could not read are set to "unknown", never omitted.
type Medication struct {
	Name               string `json:"name"`
	GenericName        string `json:"generic_name"`
	Dosage             string `json:"dosage"`
	Strength           string `json:"strength"`
	Frequency          string `json:"frequency"`
	Duration           string `json:"duration"`
	Quantity           string `json:"quantity"`
	Refills            string `json:"refills"`
	Instructions       string `json:"instructions"`
	Route              string `json:"route"`
	IsControlled       bool   `json:"is_controlled"`
	ControlledSchedule string `json:"controlled_schedule"`
	Form               string `json:"form"`
	QualityNotes       string `json:"quality_notes"`
}

// Prescription is the structured extraction of one scanned prescription.
type Prescription struct {
	DoctorInfo       DoctorInfo   `json:"doctor_info"`
	PatientInfo      PatientInfo  `json:"patient_info"`
	PrescriptionDate string       `json:"prescription_date"`
	Medications      []Medication `json:"medications"`
	PrescriptionID   string       `json:"prescription_id"`
	AdditionalNotes  string       `json:"additional_notes"`
	SignaturePresent bool         `json:"signature_present"`
	DateWritten      string       `json:"date_written"`
	PharmacyInfo     PharmacyInfo `json:"pharmacy_info"`
}
