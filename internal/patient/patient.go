package patient

import (
	"fmt"
	"time"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

type ActivityLevel string

const (
	ActivityVeryActive       ActivityLevel = "very_active"
	ActivityModeratelyActive ActivityLevel = "moderately_active"
	ActivitySedentary        ActivityLevel = "sedentary"
)

type MedicalCondition string

const (
	ConditionDiabetes             MedicalCondition = "diabetes"
	ConditionHypertension         MedicalCondition = "hypertension"
	ConditionDyslipidemia         MedicalCondition = "dyslipidemia"
	ConditionChronicKidneyDisease MedicalCondition = "chronic_kidney_disease"
	ConditionObesity              MedicalCondition = "obesity"
	ConditionNone                 MedicalCondition = "none"
)

type DiabetesType string

const (
	DiabetesType1       DiabetesType = "type1"
	DiabetesType2       DiabetesType = "type2"
	DiabetesPrediabetes DiabetesType = "prediabetes"
)

type CKDStage string

const (
	CKDStage1  CKDStage = "1"
	CKDStage2  CKDStage = "2"
	CKDStage3a CKDStage = "3a"
	CKDStage3b CKDStage = "3b"
	CKDStage4  CKDStage = "4"
	CKDStage5  CKDStage = "5"
)

type DiabetesDetails struct {
	Type           DiabetesType `json:"type,omitempty"`
	A1C            *float64     `json:"a1c,omitempty"`            // percent
	FastingGlucose *float64     `json:"fastingGlucose,omitempty"` // mg/dL
}

type CKDDetails struct {
	Stage      CKDStage `json:"stage,omitempty"`
	GFR        *float64 `json:"gfr,omitempty"`        // mL/min
	Creatinine *float64 `json:"creatinine,omitempty"` // mg/dL
}

// PatientInfo is the in-progress form record. Zero numeric values mean the
// field has not been entered yet.
type PatientInfo struct {
	Age               int                `json:"age"`
	Weight            float64            `json:"weight"` // kg
	Height            float64            `json:"height"` // cm
	Gender            Gender             `json:"gender"`
	MedicalConditions []MedicalCondition `json:"medicalConditions"`
	ActivityLevel     ActivityLevel      `json:"activityLevel"`
	DiabetesDetails   *DiabetesDetails   `json:"diabetesDetails,omitempty"`
	CKDDetails        *CKDDetails        `json:"ckdDetails,omitempty"`
	BMI               *float64           `json:"bmi,omitempty"`
}

type Source string

const (
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

// ComparisonResult is never mutated after construction; the next submission
// replaces it wholesale.
type ComparisonResult struct {
	PatientInfo        PatientInfo `json:"patientInfo"`
	ChatGPTResponse    string      `json:"chatGptResponse"`
	PerplexityResponse string      `json:"perplexityResponse"`
	Source             Source      `json:"source,omitempty"`
	CreatedAt          time.Time   `json:"createdAt,omitzero"`
}

func Default() PatientInfo {
	return PatientInfo{
		Gender:            GenderMale,
		MedicalConditions: []MedicalCondition{},
		ActivityLevel:     ActivitySedentary,
	}
}

func (p PatientInfo) HasCondition(c MedicalCondition) bool {
	for _, v := range p.MedicalConditions {
		if v == c {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so snapshots never share slices or detail
// pointers with the live record.
func (p PatientInfo) Clone() PatientInfo {
	out := p
	out.MedicalConditions = append([]MedicalCondition{}, p.MedicalConditions...)
	if p.DiabetesDetails != nil {
		d := *p.DiabetesDetails
		d.A1C = cloneFloat(d.A1C)
		d.FastingGlucose = cloneFloat(d.FastingGlucose)
		out.DiabetesDetails = &d
	}
	if p.CKDDetails != nil {
		c := *p.CKDDetails
		c.GFR = cloneFloat(c.GFR)
		c.Creatinine = cloneFloat(c.Creatinine)
		out.CKDDetails = &c
	}
	out.BMI = cloneFloat(p.BMI)
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

func (a ActivityLevel) Valid() bool {
	switch a {
	case ActivityVeryActive, ActivityModeratelyActive, ActivitySedentary:
		return true
	}
	return false
}

func (c MedicalCondition) Valid() bool {
	switch c {
	case ConditionDiabetes, ConditionHypertension, ConditionDyslipidemia,
		ConditionChronicKidneyDisease, ConditionObesity, ConditionNone:
		return true
	}
	return false
}

func (t DiabetesType) Valid() bool {
	switch t {
	case DiabetesType1, DiabetesType2, DiabetesPrediabetes:
		return true
	}
	return false
}

func (s CKDStage) Valid() bool {
	switch s {
	case CKDStage1, CKDStage2, CKDStage3a, CKDStage3b, CKDStage4, CKDStage5:
		return true
	}
	return false
}

// CheckEnums reports the first enum field holding a value outside its set.
// Empty values are allowed; Validate handles required fields.
func (p PatientInfo) CheckEnums() error {
	if p.Gender != "" && !p.Gender.Valid() {
		return fmt.Errorf("unknown gender %q", p.Gender)
	}
	if p.ActivityLevel != "" && !p.ActivityLevel.Valid() {
		return fmt.Errorf("unknown activity level %q", p.ActivityLevel)
	}
	for _, c := range p.MedicalConditions {
		if !c.Valid() {
			return fmt.Errorf("unknown medical condition %q", c)
		}
	}
	if d := p.DiabetesDetails; d != nil && d.Type != "" && !d.Type.Valid() {
		return fmt.Errorf("unknown diabetes type %q", d.Type)
	}
	if c := p.CKDDetails; c != nil && c.Stage != "" && !c.Stage.Valid() {
		return fmt.Errorf("unknown ckd stage %q", c.Stage)
	}
	return nil
}
