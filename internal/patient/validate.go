package patient

// ValidationErrors maps a field identifier to a message. A missing key means
// the field is valid.
type ValidationErrors map[string]string

const (
	FieldAge               = "age"
	FieldWeight            = "weight"
	FieldHeight            = "height"
	FieldGender            = "gender"
	FieldActivityLevel     = "activityLevel"
	FieldMedicalConditions = "medicalConditions"
	FieldDiabetesType      = "diabetesType"
	FieldCKDStage          = "ckdStage"
)

func (v ValidationErrors) Empty() bool { return len(v) == 0 }

// Validate evaluates every rule independently; there is no short-circuiting.
func Validate(p PatientInfo) ValidationErrors {
	errs := ValidationErrors{}

	if p.Age <= 0 {
		errs[FieldAge] = "Please enter a valid age"
	}
	if p.Weight <= 0 {
		errs[FieldWeight] = "Please enter a valid weight"
	}
	if p.Height <= 0 {
		errs[FieldHeight] = "Please enter a valid height"
	}
	if p.Gender == "" {
		errs[FieldGender] = "Please select a gender"
	}
	if p.ActivityLevel == "" {
		errs[FieldActivityLevel] = "Please select an activity level"
	}
	if len(p.MedicalConditions) == 0 {
		errs[FieldMedicalConditions] = "Please select at least one option"
	}
	if p.HasCondition(ConditionDiabetes) && (p.DiabetesDetails == nil || p.DiabetesDetails.Type == "") {
		errs[FieldDiabetesType] = "Please select diabetes type"
	}
	if p.HasCondition(ConditionChronicKidneyDisease) && (p.CKDDetails == nil || p.CKDDetails.Stage == "") {
		errs[FieldCKDStage] = "Please select CKD stage"
	}

	return errs
}
