package pipeline

import (
	"regexp"
	"strings"
)

// compoundCatalog is the fixed catalog of known compounded formulations.
// For these medications the quantity field carries the pharmacy's canned
// medical-necessity justification verbatim instead of a numeric count.
var compoundCatalog = []struct {
	name          string
	justification string
}{
	{"ACNE ULTRA", "The patient requires compounded Clindamycin/Niacinamide/Tretinoin combination gel to facilitate appropriate distribution and absorption to ensure patient receives the necessary dosage strength."},
	{"ANASTROZOLE", "The patient requires compounded Anastrozole tablets due to the commercial tablet being small, coated and unscored. If patient were to attempt to split the tablet, the dose would be inaccurate."},
	{"BIOTIN/FINASTERIDE/MINOXIDIL", "The patient requires compounded Biotin/Finasteride/Minoxidil capsules due to a suspected lactose sensitivity."},
	{"BIOTIN/MINOXIDIL/SPIRONOLACTONE", "The patient requires compounded Biotin//Minoxidil/Spironolactone capsules due to a suspected lactose sensitivity."},
	{"DHEA TROCHE", "The patient requires compounded DHEA troche to decrease first pass metabolism and improve absorption resulting in faster onset and improved clinical outcomes."},
	{"DHEA E4M", "The patient requires compounded DHEA with E4M to control the release of the drug and prolong its therapeutic effect."},
	{"ESTRADIOL CREAM", "The patient necessitates a compounded Estradiol cream delivered through a topiclick applicator, allowing for flexible dose adjustments as prescribed. This ensures enhanced adherence to prescribed regimens and minimizes the risk of adverse events associated with dosing inaccuracies."},
	{"ESTRADIOL CAPSULE", "The patient requires compounded Estradiol capsules due to a suspected lactose sensitivity."},
	{"ESTRADIOL CYPIONATE", "The patient requires compounded Estradiol Cypionate injectable in grapeseed oil due to sensitivity to cottonseed oil and improved compliance compared to the commercial product due to a decrease in injection site pain and irritation."},
	{"HYDROXOCOBALAMIN", "The patient requires a specially formulated compounded Hydroxocobalamin injection, free from parabens, to accommodate specific sensitivities."},
	{"L-ARGININE HCL", "The patient necessitates a compounded L-Arginine injectable with a minimized dosing volume to alleviate post-injection pain."},
	{"L-CARNITINE", "The patient necessitates a compounded L-Carnitine injectable with a minimized dosing volume to alleviate post-injection pain."},
	{"LIOTHYRONINE SODIUM E4M", "The patient requires compounded Liothyronine Sodium with E4M to control the release of the drug and prolong its therapeutic effect."},
	{"MELASMA HQ 4.1", "The patient necessitates a compounded combination cream containing Hydroquinone, Tretinoin, Azelaic Acid, and Hydrocortisone to enhance compliance and optimize the concurrent absorption of all components as utilizing commercial creams separately would result in disparate absorption rates, underscoring the need for a specialized formulation to achieve uniform and effective results."},
	{"OMWL - PHENTIMATE PLUS", "The patient necessitates a compounded formulation comprising Methylcobalamin, Phentermine, Topiramate, and E4M for controlled drug release, thereby extending its therapeutic efficacy. It's essential to note that the required dose of phentermine for this patient cannot be attained through commercially available products designed to regulate drug release."},
	{"PHENTERMINE HCL/TOPIRAMATE E4M", "The patient necessitates a compounded formulation comprising Phentermine and Topiramate, and E4M for controlled drug release, thereby extending its therapeutic efficacy. It's essential to note that the required dose of Phentermine and Topirimate for this patient cannot be attained through commercially available products designed to regulate drug release."},
	{"PHENTERMINE HCL/TOPIRAMATE", "The patient necessitates specifically compounded capsules containing Phentermine and Topiramate to guarantee the administration of a topiramate dose beyond the reach of commercially available options. It's important to emphasize that the commercial product lacks scoring and carries explicit warnings against splitting, crushing, or chewing."},
	{"PHENTERMINE HCL E4M", "The patient requires a specialized compounded formulation of Phentermine with E4M to regulate the drug's release, extending it's therapeutic effect. Notably, the requisite dose of Phentermine for this patient surpasses the controlled release capabilities of commercially available alternatives."},
	{"PHENYLEPHRINE HCL", "The patient necessitates a compounded formulation of Phenylephrine at a reduced concentration, enabling precise administration of their prescribed dose via intracavernosal injection."},
	{"PROGESTERONE TROCHE", "The patient requires compounded Progesterone troches to decrease first pass metabolism and improve absorption."},
	{"PROGESTERONE CAPSULE", "The patient requires a compounded peanut-free Progesterone capsule."},
	{"PROGESTERONE E4M", "The patient requires compounded Progesterone with E4M to control the release of the drug and prolong its therapeutic effect."},
	{"SILDENAFIL/TADALAFIL ODT", "The patient requires compounded Sildenafil/Tadalafil combination oral disintegrating tablet to decrease first pass metabolism and improve absorption resulting in faster onset and improved clinical outcomes."},
	{"SILDENAFIL ODT", "The patient requires compounded Sildenafil oral disintegrating tablet to decrease first pass metabolism and improve absorption resulting in faster onset and improved clinical outcomes."},
	{"T3/T4", "The patient requires compounded T3/T4 (Liothyronine/Levothyroxine) Sodium capsules to achieve a specific dose that is not achievable with commercially available tablets without splitting, resulting in inconsistent and inaccurate medication delivery due to a narrow therapeutic range."},
	{"LIOTHYRONINE/LEVOTHYROXINE", "The patient requires compounded T3/T4 (Liothyronine/Levothyroxine) Sodium capsules to achieve a specific dose that is not achievable with commercially available tablets without splitting, resulting in inconsistent and inaccurate medication delivery due to a narrow therapeutic range."},
	{"TADALAFIL ODT", "The patient requires compounded Tadalafil oral disintegrating tablet to decrease first pass metabolism and improve absorption resulting in faster onset and improved clinical outcomes."},
	{"TADALAFIL TROCHE", "The patient requires compounded Tadalafil troches to decrease first pass metabolism and improve absorption resulting in faster onset and improved clinical outcomes."},
	{"TESTOSTERONE CREAM", "The patient necessitates a compounded Testosterone cream delivered through a Topiclick applicator, allowing for flexible dose adjustments as prescribed. This ensures enhanced adherence to prescribed regimens and minimizes the risk of adverse events associated with dosing inaccuracies."},
	{"TESTOSTERONE CYPIONATE", "The patient requires compounded Testosterone Cypionate injectable in grapeseed oil due to sensitivity to cottonseed oil and improved compliance compared to the commercial product due to a decrease in injection site pain and irritation."},
	{"TESTOSTERONE ENANTHATE", "The patient requires compounded Testosterone Enanthate injectable in grapeseed oil due to sensitivity to sesame oil and improved compliance compared to the commercial product due to a decrease in injection site pain and irritation."},
	{"TESTOSTERONE NASAL", "The patient necessitates a compounded Testosterone nasal gel, offering the flexibility to adjust the dose as directed and attain a dosage not commercially available. Unlike the commercial product, which administers doses in 5.5 mg increments per actuation, the compounded version dispenses a tailored 0.625 mg per nasal pen \"click.\" This customization allows for precise dosing to meet the unique needs of the patient."},
	{"THYROID", "The patient requires a custom compounded Desiccated Porcine Thyroid without sugars and lactose due to suspected sensitivities."},
	{"VARDENAFIL ODT", "The patient requires compounded Vardenafil orally disintegrating tablets to mitigate first-pass metabolism, enhancing absorption for a quicker onset and improved clinical outcomes. In contrast, the commercially available alternative lacks scoring and is not recommended to be split, crushed, or chewed, posing a risk of inaccurate dosing if such attempts are made."},
	{"VARDENAFIL TROCHE", "The patient necessitates specially compounded Vardenafil troches to mitigate first-pass metabolism, enhancing absorption for a quicker onset and improved clinical outcomes. In contrast, the commercially available alternative lacks scoring and is not recommended to be split, crushed, or chewed, posing a risk of inaccurate dosing if such attempts are made."},
}

var catalogSpacing = regexp.MustCompile(`\s*/\s*`)

func canonicalMedName(name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = catalogSpacing.ReplaceAllString(n, "/")
	return strings.Join(strings.Fields(n), " ")
}

// CompoundJustification returns the canned justification text for a
// medication in the compounded-formulation catalog. Matching is by
// case-insensitive containment so form suffixes on the written name
// ("ANASTROZOLE 1MG TABLET") still hit.
func CompoundJustification(name string) (string, bool) {
	canonical := canonicalMedName(name)
	if canonical == "" {
		return "", false
	}
	for _, entry := range compoundCatalog {
		if strings.Contains(canonical, canonicalMedName(entry.name)) {
			return entry.justification, true
		}
	}
	return "", false
}
