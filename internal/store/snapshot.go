package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Skufu/nutricompare/internal/patient"
)

// StorageKey identifies the single persisted record.
const StorageKey = "patient-storage"

var ErrNotFound = errors.New("snapshot not found")

// Snapshot is the full persisted state.
type Snapshot struct {
	PatientInfo      patient.PatientInfo       `json:"patientInfo"`
	ComparisonResult *patient.ComparisonResult `json:"comparisonResult"`
	IsLoading        bool                      `json:"isLoading"`
}

func EncodeSnapshot(s Snapshot) ([]byte, error) {
	blob, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return blob, nil
}

// DecodeSnapshot restores a persisted snapshot. IsLoading is always false
// afterwards so an abnormal exit mid-submission cannot leave a stuck spinner.
// Fields come back exactly as encoded; a nil condition list stays nil.
func DecodeSnapshot(blob []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(blob, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := s.PatientInfo.CheckEnums(); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	s.IsLoading = false
	return s, nil
}
