package patient

// Update is a partial PatientInfo. Nil fields leave the current value alone.
type Update struct {
	Age               *int               `json:"age,omitempty"`
	Weight            *float64           `json:"weight,omitempty"`
	Height            *float64           `json:"height,omitempty"`
	Gender            *Gender            `json:"gender,omitempty"`
	MedicalConditions []MedicalCondition `json:"medicalConditions,omitempty"`
	ActivityLevel     *ActivityLevel     `json:"activityLevel,omitempty"`
	DiabetesDetails   *DiabetesUpdate    `json:"diabetesDetails,omitempty"`
	CKDDetails        *CKDUpdate         `json:"ckdDetails,omitempty"`
}

type DiabetesUpdate struct {
	Type           *DiabetesType `json:"type,omitempty"`
	A1C            *float64      `json:"a1c,omitempty"`
	FastingGlucose *float64      `json:"fastingGlucose,omitempty"`
}

type CKDUpdate struct {
	Stage      *CKDStage `json:"stage,omitempty"`
	GFR        *float64  `json:"gfr,omitempty"`
	Creatinine *float64  `json:"creatinine,omitempty"`
}

// Apply overlays u onto a copy of p. Nested details are merged field by field
// with whatever is already recorded. bmi is refreshed when height or weight
// is part of the update.
func (u Update) Apply(p PatientInfo) PatientInfo {
	out := p.Clone()

	if u.Age != nil {
		out.Age = *u.Age
	}
	if u.Weight != nil {
		out.Weight = *u.Weight
	}
	if u.Height != nil {
		out.Height = *u.Height
	}
	if u.Gender != nil {
		out.Gender = *u.Gender
	}
	if u.MedicalConditions != nil {
		out.MedicalConditions = NormalizeConditions(u.MedicalConditions)
	}
	if u.ActivityLevel != nil {
		out.ActivityLevel = *u.ActivityLevel
	}
	if u.DiabetesDetails != nil {
		d := DiabetesDetails{}
		if out.DiabetesDetails != nil {
			d = *out.DiabetesDetails
		}
		if u.DiabetesDetails.Type != nil {
			d.Type = *u.DiabetesDetails.Type
		}
		if u.DiabetesDetails.A1C != nil {
			d.A1C = cloneFloat(u.DiabetesDetails.A1C)
		}
		if u.DiabetesDetails.FastingGlucose != nil {
			d.FastingGlucose = cloneFloat(u.DiabetesDetails.FastingGlucose)
		}
		out.DiabetesDetails = &d
	}
	if u.CKDDetails != nil {
		c := CKDDetails{}
		if out.CKDDetails != nil {
			c = *out.CKDDetails
		}
		if u.CKDDetails.Stage != nil {
			c.Stage = *u.CKDDetails.Stage
		}
		if u.CKDDetails.GFR != nil {
			c.GFR = cloneFloat(u.CKDDetails.GFR)
		}
		if u.CKDDetails.Creatinine != nil {
			c.Creatinine = cloneFloat(u.CKDDetails.Creatinine)
		}
		out.CKDDetails = &c
	}

	if u.Weight != nil || u.Height != nil {
		out.RefreshBMI()
	}
	return out
}

// Check rejects enum values outside their sets before anything is applied.
func (u Update) Check() error {
	probe := PatientInfo{MedicalConditions: u.MedicalConditions}
	if u.Gender != nil {
		probe.Gender = *u.Gender
	}
	if u.ActivityLevel != nil {
		probe.ActivityLevel = *u.ActivityLevel
	}
	if u.DiabetesDetails != nil && u.DiabetesDetails.Type != nil {
		probe.DiabetesDetails = &DiabetesDetails{Type: *u.DiabetesDetails.Type}
	}
	if u.CKDDetails != nil && u.CKDDetails.Stage != nil {
		probe.CKDDetails = &CKDDetails{Stage: *u.CKDDetails.Stage}
	}
	return probe.CheckEnums()
}
