package fallback

import (
	"fmt"
	"strings"

	"github.com/Skufu/nutricompare/internal/patient"
)

// Marker prefixes every locally generated response so readers can tell it
// apart from a real model answer.
const Marker = "[FALLBACK MODE] "

// ChatGPT builds the plain-paragraph demo report.
func ChatGPT(p patient.PatientInfo) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Based on the patient profile (%d year old %s, BMI: %s), ", p.Age, p.Gender, formatBMI(p.BMI))

	if p.HasCondition(patient.ConditionNone) {
		b.WriteString("the patient appears to be in generally good health with no reported chronic conditions. ")
	} else {
		fmt.Fprintf(&b, "the patient has the following health considerations: %s. ", joinConditions(p.MedicalConditions))
	}

	if p.HasCondition(patient.ConditionDiabetes) {
		b.WriteString("\n\nFor diabetes management, I recommend monitoring blood glucose levels regularly and maintaining a consistent carbohydrate intake throughout the day. ")
	}
	if p.HasCondition(patient.ConditionHypertension) {
		b.WriteString("\n\nRegarding hypertension, the DASH diet (rich in fruits, vegetables, whole grains, and low-fat dairy) has shown significant benefits in blood pressure reduction. ")
	}

	switch p.ActivityLevel {
	case patient.ActivityVeryActive:
		b.WriteString("\n\nGiven the patient's very active lifestyle, ensure adequate protein intake and hydration to support recovery from physical activity. ")
	case patient.ActivityModeratelyActive:
		b.WriteString("\n\nWith moderate activity levels, encourage maintaining current exercise habits while focusing on consistency rather than intensity. ")
	case patient.ActivitySedentary:
		b.WriteString("\n\nThe sedentary lifestyle is a concern. I recommend starting with short, 10-minute walking breaks throughout the day and gradually increasing activity. ")
	}

	b.WriteString("\n\nOverall recommendations include:\n" +
		"- Balanced diet rich in whole foods\n" +
		"- Regular physical activity appropriate to their condition\n" +
		"- Adequate sleep (7-9 hours)\n" +
		"- Stress management techniques\n" +
		"- Regular medical check-ups")

	return b.String()
}

// Perplexity builds the heading and list structured demo report.
func Perplexity(p patient.PatientInfo) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Patient Analysis\n\nPatient profile: %d years old, %s, BMI: %s\n\n", p.Age, p.Gender, formatBMI(p.BMI))

	b.WriteString("## Health Status\n")
	if p.HasCondition(patient.ConditionNone) {
		b.WriteString("Patient reports no chronic conditions, suggesting generally good health.\n\n")
	} else {
		fmt.Fprintf(&b, "Patient reports %d condition(s): %s.\n\n", len(p.MedicalConditions), joinConditions(p.MedicalConditions))
	}

	b.WriteString("## Condition-Specific Recommendations\n")
	if p.HasCondition(patient.ConditionDiabetes) {
		b.WriteString("### Diabetes Management\n" +
			"- Monitor HbA1c quarterly\n" +
			"- Consider continuous glucose monitoring\n" +
			"- Limit added sugars and refined carbohydrates\n" +
			"- Recent research suggests timing of meals may impact glucose control\n\n")
	}
	if p.HasCondition(patient.ConditionHypertension) {
		b.WriteString("### Hypertension Management\n" +
			"- Target BP <130/80 mmHg per latest guidelines\n" +
			"- Reduce sodium intake (<2300mg daily)\n" +
			"- Consider DASH or Mediterranean diet\n" +
			"- Recent studies show benefits of isometric exercise for BP reduction\n\n")
	}

	b.WriteString("## Lifestyle Considerations\n")
	switch p.ActivityLevel {
	case patient.ActivityVeryActive:
		b.WriteString("Patient maintains a very active lifestyle. Research indicates this level of activity significantly reduces all-cause mortality. Focus on recovery nutrition and injury prevention.\n\n")
	case patient.ActivityModeratelyActive:
		b.WriteString("Patient is moderately active. Recent meta-analyses show this activity level provides most health benefits with diminishing returns at higher levels. Encourage consistency.\n\n")
	case patient.ActivitySedentary:
		b.WriteString("Patient reports a sedentary lifestyle, which multiple studies link to increased cardiovascular risk. Even small increases in daily movement show measurable health benefits.\n\n")
	}

	b.WriteString("## Evidence-Based Recommendations\n" +
		"1. Implement Mediterranean diet pattern (strong evidence for multiple conditions)\n" +
		"2. Aim for 150-300 minutes weekly of moderate activity\n" +
		"3. Prioritize sleep quality (7-9 hours)\n" +
		"4. Consider stress reduction techniques (mindfulness shows promising results)\n\n" +
		"References: JAMA 2023, Lancet 2022, NEJM 2021")

	return b.String()
}

// Pair returns both reports already carrying the Marker prefix.
func Pair(p patient.PatientInfo) (chatGPT, perplexity string) {
	return Marker + ChatGPT(p), Marker + Perplexity(p)
}

func formatBMI(bmi *float64) string {
	if bmi == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", *bmi)
}

func joinConditions(conditions []patient.MedicalCondition) string {
	parts := make([]string, len(conditions))
	for i, c := range conditions {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}
