package pipeline

import (
	"context"
	"fmt"

	"github.com/abdliliaai/Rxsentinel/internal/domain/entities"
	"github.com/abdliliaai/Rxsentinel/internal/domain/providers"
)

const extractionSystemPrompt = `You are a medical AI agent that extracts structured data from prescriptions.
Analyze the image and extract ALL visible information including ALL medications — even non-pill items like injection kits, syringes, insulin pens, alcohol wipes, etc. — regardless of completeness.
- Doctor information (name, qualifications, department, hospital, contact, license numbers, DEA number)
- Patient information (name, age, gender, address, insurance info)
- Prescription details (date, medications with dosage, frequency, duration, instructions)
- Pharmacy information (name, address, phone)
- Any stamps, signatures, or official markings
- If the signature is not clearly visible, set "signature_present" to false. This must always be included.

Clarification on quantity and clinical difference statements:
- quantity must always be a clear number with unit (e.g., '1 vial', '30 tablets').
- Do NOT include any clinical difference statement in the quantity field.
- Clinical difference statements (e.g., notes about dose titration or compounding necessity) must be placed in the "quality_notes" field within the medication object.
- If such a statement appears after the dosage or frequency, isolate it and map it only to quality_notes.

Very important: check whether any medication is a controlled substance. If so, set "is_controlled" to true and provide the correct "controlled_schedule" (e.g., Schedule II, III, etc.)

If a medication is partially illegible or missing details like frequency or duration, include it anyway with unknown fields marked as "unknown".
Never skip any medication just because it looks like a device, has a brand name, or contains unclear dosage — list everything under "medications" and use "unknown" if needed.

For medication quantities, use specific formats based on the medication type:
- Tablets/Capsules: numeric counts like "30", "60", "90"
- Liquid medications: volume measurements like "30 ML", "15 ML", "2.5 ML"
- Creams/Gels: volume measurements like "30 ML", "15 ML"
- Injectables: volume measurements like "10 ML", "5 ML", "2 ML"
- Troches/ODT: numeric counts like "30", "60"

Always specify the unit of measurement for quantities (ML for liquids, count for solid dosage forms).`

const extractionUserPrompt = `Extract prescription data from the attached images.

Return data in this EXACT JSON format:
{
  "doctor_info": {
    "name": "", "qualification": "", "department": "", "address": "", "state": "",
    "hospital": "", "phone": "", "fax": "",
    "license_numbers": [{"state": "", "license_number": ""}],
    "dea_numbers": [{"state": "", "dea_number": ""}]
  },
  "patient_info": {
    "name": "", "phone": "", "dob": "", "address": "", "city": "", "state": "",
    "zip_code": "", "gender": "", "pay_type": "", "insurance_name": "",
    "group_name": "", "insurance_phone_number": "", "member_id": "", "email": ""
  },
  "prescription_date": "",
  "medications": [{
    "name": "", "generic_name": "", "dosage": "", "strength": "", "frequency": "",
    "duration": "", "quantity": "", "refills": "", "instructions": "", "route": "",
    "is_controlled": false, "controlled_schedule": "", "form": "", "quality_notes": ""
  }],
  "prescription_id": "",
  "additional_notes": "",
  "signature_present": false,
  "date_written": "",
  "pharmacy_info": {"name": "", "address": "", "phone": ""}
}

Ensure ALL fields are present. Use empty strings or arrays for missing data.
Return ONLY valid JSON, no extra text.`

// extractionStage reads every page image in a single multi-image request
// and produces the structured prescription all downstream stages consume.
type extractionStage struct {
	stageDeps
}

func (st *extractionStage) Name() string { return StageExtraction }

func (st *extractionStage) Run(ctx context.Context, s *State) {
	s.Say(entities.RoleHuman, fmt.Sprintf("Extracting prescription data from %d page image(s)", len(s.Images)))

	var prescription entities.Prescription
	err := st.complete(ctx, providers.CompletionRequest{
		System: extractionSystemPrompt,
		User:   extractionUserPrompt,
		Images: s.Images,
	}, &prescription)
	if err != nil {
		msg := fail(s, StageExtraction, 5, err)
		s.Prescription = Failure[entities.Prescription](msg)
		return
	}

	NormalizePrescription(&prescription)

	s.Say(entities.RoleAssistant, fmt.Sprintf("OCR extraction complete. Found %d medications.", len(prescription.Medications)))
	s.AddAudit(StageExtraction, "Prescription data extracted successfully", prescription)
	s.Prescription = Success(prescription)
}
