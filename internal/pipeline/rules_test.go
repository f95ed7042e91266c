package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abdliliaai/Rxsentinel/internal/domain/entities"
)

func TestValidDEAFormat(t *testing.T) {
	valid := []string{"AB1234567", "XY0000001", "FM9876543"}
	for _, number := range valid {
		assert.True(t, ValidDEAFormat(number), number)
	}

	invalid := []string{
		"",
		"A1234567",    // one letter
		"ABC1234567",  // three letters
		"AB123456",    // six digits
		"AB12345678",  // eight digits
		"ab1234567",   // lowercase
		"AB1234567 ",  // trailing space
		"AB-1234567",  // separator
		"1234567AB",   // reversed
	}
	for _, number := range invalid {
		assert.False(t, ValidDEAFormat(number), number)
	}
}

func TestMaxRefillsForSchedule(t *testing.T) {
	cases := []struct {
		schedule string
		limit    int
	}{
		{"Schedule II", 0},
		{"schedule ii", 0},
		{"Schedule 2", 0},
		{"II", 0},
		{"Schedule III", 5},
		{"schedule 3", 5},
		{"Schedule IV", 5},
		{" iv ", 5},
		{"Schedule V", 5},
		{"schedule 5", 5},
	}
	for _, tc := range cases {
		limit, ok := MaxRefillsForSchedule(tc.schedule)
		assert.True(t, ok, tc.schedule)
		assert.Equal(t, tc.limit, limit, tc.schedule)
	}

	for _, unknown := range []string{"", "Schedule I", "Schedule VI", "not a schedule"} {
		limit, ok := MaxRefillsForSchedule(unknown)
		assert.False(t, ok, unknown)
		assert.Equal(t, 0, limit, unknown)
	}
}

func TestExtractStateFromAddress(t *testing.T) {
	assert.Equal(t, "CA", ExtractStateFromAddress("123 Main St, Los Angeles, CA 90001"))
	assert.Equal(t, "MN", ExtractStateFromAddress("456 Oak Ave, Minneapolis, mn 55401"))
	assert.Equal(t, "", ExtractStateFromAddress("10 Downing Street, London"))
	// embedded letter pairs don't count, only word-bounded codes
	assert.Equal(t, "TX", ExtractStateFromAddress("CALLE OCHO APT 2, HOUSTON TX"))
	assert.Equal(t, "", ExtractStateFromAddress(""))
}

func TestParseDurationDays(t *testing.T) {
	assert.Equal(t, 30, ParseDurationDays("30 days"))
	assert.Equal(t, 14, ParseDurationDays("2 weeks"))
	assert.Equal(t, 90, ParseDurationDays("3 months"))
	assert.Equal(t, 7, ParseDurationDays("7 day supply"))
	assert.Equal(t, 30, ParseDurationDays("until finished"))
	assert.Equal(t, 30, ParseDurationDays(""))
	assert.Equal(t, 30, ParseDurationDays("unknown"))
}

func TestIsCompoundedMedication(t *testing.T) {
	assert.True(t, IsCompoundedMedication(entities.Medication{Name: "Testosterone Cream 2%"}))
	assert.True(t, IsCompoundedMedication(entities.Medication{Name: "Ketamine", Instructions: "Apply compounded gel twice daily"}))
	assert.False(t, IsCompoundedMedication(entities.Medication{Name: "Lisinopril 10mg", Instructions: "Take one tablet daily"}))
}

func TestNormalizePrescription_FillsUnknownFields(t *testing.T) {
	p := &entities.Prescription{Medications: []entities.Medication{
		{Name: "Lisinopril", Dosage: "10mg", Quantity: "30 tablets"},
	}}

	NormalizePrescription(p)

	m := p.Medications[0]
	assert.Equal(t, "Lisinopril", m.Name)
	assert.Equal(t, "10mg", m.Dosage)
	assert.Equal(t, "30 tablets", m.Quantity)
	// everything the extraction left blank is marked, not dropped
	assert.Equal(t, "unknown", m.GenericName)
	assert.Equal(t, "unknown", m.Strength)
	assert.Equal(t, "unknown", m.Frequency)
	assert.Equal(t, "unknown", m.Duration)
	assert.Equal(t, "unknown", m.Refills)
	assert.Equal(t, "unknown", m.Instructions)
	assert.Equal(t, "unknown", m.Route)
	assert.Equal(t, "unknown", m.Form)
}

func TestNormalizePrescription_CatalogQuantityOverride(t *testing.T) {
	p := &entities.Prescription{Medications: []entities.Medication{
		{Name: "ANASTROZOLE 1MG TABLET", Quantity: "30 tablets"},
	}}

	NormalizePrescription(p)

	justification, ok := CompoundJustification("ANASTROZOLE")
	assert.True(t, ok)
	assert.Equal(t, justification, p.Medications[0].Quantity)
}

func TestNormalizePrescription_MisplacedJustificationMovesToQualityNotes(t *testing.T) {
	misplaced := "Patient requires compounded formulation due to a suspected lactose sensitivity"
	p := &entities.Prescription{Medications: []entities.Medication{
		{Name: "Some Novel Medication", Quantity: misplaced},
	}}

	NormalizePrescription(p)

	m := p.Medications[0]
	assert.Equal(t, misplaced, m.QualityNotes)
	assert.Equal(t, "unknown", m.Quantity)
}

func TestNormalizePrescription_AppendsToExistingQualityNotes(t *testing.T) {
	misplaced := "The patient necessitates this formulation because the commercial product cannot deliver the prescribed dose accurately"
	p := &entities.Prescription{Medications: []entities.Medication{
		{Name: "Some Novel Medication", Quantity: misplaced, QualityNotes: "dose titration in progress"},
	}}

	NormalizePrescription(p)

	m := p.Medications[0]
	assert.Equal(t, "dose titration in progress "+misplaced, m.QualityNotes)
	assert.Equal(t, "unknown", m.Quantity)
}

func TestLooksLikeJustification(t *testing.T) {
	assert.True(t, looksLikeJustification("Patient requires compounded capsules"))
	assert.True(t, looksLikeJustification("the patient necessitates a custom formulation"))
	assert.False(t, looksLikeJustification("30 tablets"))
	assert.False(t, looksLikeJustification("1 vial"))
	// long prose without the marker phrases still counts
	assert.True(t, looksLikeJustification("this is a long clinical statement about why the commercial product will not work for this particular case"))
}
