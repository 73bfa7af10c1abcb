package patient

// ToggleCondition applies a single user toggle to the selection. "none" and any
// substantive condition are never selected together.
func ToggleCondition(selected []MedicalCondition, v MedicalCondition) []MedicalCondition {
	if v == ConditionNone {
		return []MedicalCondition{ConditionNone}
	}

	out := make([]MedicalCondition, 0, len(selected)+1)
	found := false
	for _, c := range selected {
		switch c {
		case ConditionNone:
			continue
		case v:
			found = true
			continue
		}
		out = append(out, c)
	}
	if !found {
		out = append(out, v)
	}
	return out
}

// NormalizeConditions cleans a whole-list replacement: duplicates are dropped
// keeping first-seen order, and "none" is removed when anything else is present.
func NormalizeConditions(list []MedicalCondition) []MedicalCondition {
	seen := make(map[MedicalCondition]bool, len(list))
	out := make([]MedicalCondition, 0, len(list))
	substantive := false
	for _, c := range list {
		if seen[c] {
			continue
		}
		seen[c] = true
		if c != ConditionNone {
			substantive = true
		}
		out = append(out, c)
	}
	if !substantive {
		return out
	}
	filtered := out[:0]
	for _, c := range out {
		if c != ConditionNone {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
