package catalog

import "github.com/Skufu/nutricompare/internal/patient"

type GenderOption struct {
	Label string         `json:"label"`
	Value patient.Gender `json:"value"`
}

type ActivityOption struct {
	Label       string                `json:"label"`
	Value       patient.ActivityLevel `json:"value"`
	Description string                `json:"description"`
}

type ConditionOption struct {
	Label      string                   `json:"label"`
	Value      patient.MedicalCondition `json:"value"`
	HasDetails bool                     `json:"hasDetails"`
}

type DiabetesTypeOption struct {
	Label string               `json:"label"`
	Value patient.DiabetesType `json:"value"`
}

type CKDStageOption struct {
	Label string           `json:"label"`
	Value patient.CKDStage `json:"value"`
}

var (
	Genders = []GenderOption{
		{Label: "Male", Value: patient.GenderMale},
		{Label: "Female", Value: patient.GenderFemale},
		{Label: "Other", Value: patient.GenderOther},
	}

	ActivityLevels = []ActivityOption{
		{Label: "Very Active", Value: patient.ActivityVeryActive, Description: "Regular intense exercise or sports (5-7 days per week)"},
		{Label: "Moderately Active", Value: patient.ActivityModeratelyActive, Description: "Regular moderate exercise (3-5 days per week)"},
		{Label: "Sedentary", Value: patient.ActivitySedentary, Description: "Little to no regular exercise, mostly sitting activities"},
	}

	MedicalConditions = []ConditionOption{
		{Label: "Diabetes", Value: patient.ConditionDiabetes, HasDetails: true},
		{Label: "Hypertension", Value: patient.ConditionHypertension},
		{Label: "Dyslipidemia", Value: patient.ConditionDyslipidemia},
		{Label: "Chronic Kidney Disease", Value: patient.ConditionChronicKidneyDisease, HasDetails: true},
		{Label: "Obesity", Value: patient.ConditionObesity},
		{Label: "None of the above", Value: patient.ConditionNone},
	}

	DiabetesTypes = []DiabetesTypeOption{
		{Label: "Type 1", Value: patient.DiabetesType1},
		{Label: "Type 2", Value: patient.DiabetesType2},
		{Label: "Prediabetes", Value: patient.DiabetesPrediabetes},
	}

	CKDStages = []CKDStageOption{
		{Label: "Stage 1 (GFR ≥ 90)", Value: patient.CKDStage1},
		{Label: "Stage 2 (GFR 60-89)", Value: patient.CKDStage2},
		{Label: "Stage 3a (GFR 45-59)", Value: patient.CKDStage3a},
		{Label: "Stage 3b (GFR 30-44)", Value: patient.CKDStage3b},
		{Label: "Stage 4 (GFR 15-29)", Value: patient.CKDStage4},
		{Label: "Stage 5 (GFR < 15)", Value: patient.CKDStage5},
	}
)

// All is the payload served to form clients.
type All struct {
	Genders           []GenderOption       `json:"genders"`
	ActivityLevels    []ActivityOption     `json:"activityLevels"`
	MedicalConditions []ConditionOption    `json:"medicalConditions"`
	DiabetesTypes     []DiabetesTypeOption `json:"diabetesTypes"`
	CKDStages         []CKDStageOption     `json:"ckdStages"`
}

func Options() All {
	return All{
		Genders:           Genders,
		ActivityLevels:    ActivityLevels,
		MedicalConditions: MedicalConditions,
		DiabetesTypes:     DiabetesTypes,
		CKDStages:         CKDStages,
	}
}

func ConditionLabel(c patient.MedicalCondition) string {
	for _, o := range MedicalConditions {
		if o.Value == c {
			return o.Label
		}
	}
	return string(c)
}

// BMICategory labels a BMI value the way the intake form displays it.
func BMICategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25:
		return "Normal weight"
	case bmi < 30:
		return "Overweight"
	default:
		return "Obese"
	}
}
