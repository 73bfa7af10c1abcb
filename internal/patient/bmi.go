package patient

import "math"

// CalculateBMI returns weight / (height in meters)^2 rounded to one decimal.
// ok is false when either input is non-positive.
func CalculateBMI(weightKg, heightCm float64) (bmi float64, ok bool) {
	if weightKg <= 0 || heightCm <= 0 {
		return 0, false
	}
	m := heightCm / 100
	return math.Round(weightKg/(m*m)*10) / 10, true
}

// RefreshBMI recomputes the derived bmi field, clearing it when either
// dimension is missing.
func (p *PatientInfo) RefreshBMI() {
	bmi, ok := CalculateBMI(p.Weight, p.Height)
	if !ok {
		p.BMI = nil
		return
	}
	p.BMI = &bmi
}
