package store

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/nutricompare/internal/compare"
	"github.com/Skufu/nutricompare/internal/fallback"
	"github.com/Skufu/nutricompare/internal/patient"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type fakeComparer struct {
	mu       sync.Mutex
	calls    int
	seen     []patient.PatientInfo
	result   func(p patient.PatientInfo) compare.Result
	duringFn func()
}

func (f *fakeComparer) Compare(_ context.Context, p patient.PatientInfo) compare.Result {
	f.mu.Lock()
	f.calls++
	f.seen = append(f.seen, p)
	f.mu.Unlock()
	if f.duringFn != nil {
		f.duringFn()
	}
	return f.result(p)
}

func remoteResult(p patient.PatientInfo) compare.Result {
	return compare.Result{
		Outcome: compare.OutcomeSuccess,
		Comparison: &patient.ComparisonResult{
			PatientInfo:        p,
			ChatGPTResponse:    "remote a",
			PerplexityResponse: "remote b",
			Source:             patient.SourceRemote,
		},
	}
}

func fallbackResult(p patient.PatientInfo) compare.Result {
	a, b := fallback.Pair(p)
	return compare.Result{
		Outcome: compare.OutcomeFallback,
		Comparison: &patient.ComparisonResult{
			PatientInfo:        p,
			ChatGPTResponse:    a,
			PerplexityResponse: b,
			Source:             patient.SourceFallback,
		},
		Err: errors.New("connection refused"),
	}
}

func ptr[T any](v T) *T { return &v }

func fillValidPatient(t *testing.T, s *Store) patient.PatientInfo {
	t.Helper()
	info, err := s.Update(patient.Update{
		Age:               ptr(45),
		Weight:            ptr(80.0),
		Height:            ptr(178.0),
		Gender:            ptr(patient.GenderMale),
		ActivityLevel:     ptr(patient.ActivitySedentary),
		MedicalConditions: []patient.MedicalCondition{patient.ConditionDiabetes},
		DiabetesDetails: &patient.DiabetesUpdate{
			Type: ptr(patient.DiabetesType2),
			A1C:  ptr(7.1),
		},
	})
	require.NoError(t, err)
	return info
}

func TestOpenStartsFromDefaults(t *testing.T) {
	s := Open(context.Background(), NewMemoryPersister(), &fakeComparer{result: remoteResult}, testLogger())
	defer s.Close()

	assert.Equal(t, patient.Default(), s.PatientInfo())
	assert.Nil(t, s.Result())
	assert.False(t, s.IsLoading())
}

func TestUpdateComputesBMI(t *testing.T) {
	s := Open(context.Background(), NewMemoryPersister(), &fakeComparer{result: remoteResult}, testLogger())
	defer s.Close()

	info := fillValidPatient(t, s)
	require.NotNil(t, info.BMI)
	assert.InDelta(t, 25.2, *info.BMI, 1e-9)
	assert.True(t, patient.Validate(info).Empty())
}

func TestUpdateRejectsUnknownEnum(t *testing.T) {
	s := Open(context.Background(), NewMemoryPersister(), &fakeComparer{result: remoteResult}, testLogger())
	defer s.Close()

	_, err := s.Update(patient.Update{Gender: ptr(patient.Gender("unknown"))})
	assert.Error(t, err)
	assert.Equal(t, patient.GenderMale, s.PatientInfo().Gender)
}

func TestToggleCondition(t *testing.T) {
	s := Open(context.Background(), NewMemoryPersister(), &fakeComparer{result: remoteResult}, testLogger())
	defer s.Close()

	_, err := s.ToggleCondition(patient.ConditionHypertension)
	require.NoError(t, err)
	info, err := s.ToggleCondition(patient.ConditionNone)
	require.NoError(t, err)
	assert.Equal(t, []patient.MedicalCondition{patient.ConditionNone}, info.MedicalConditions)

	info, err = s.ToggleCondition(patient.ConditionObesity)
	require.NoError(t, err)
	assert.Equal(t, []patient.MedicalCondition{patient.ConditionObesity}, info.MedicalConditions)

	_, err = s.ToggleCondition("gout")
	assert.Error(t, err)
}

func TestSubmitStoresRemoteResult(t *testing.T) {
	fc := &fakeComparer{result: remoteResult}
	s := Open(context.Background(), NewMemoryPersister(), fc, testLogger())
	defer s.Close()

	info := fillValidPatient(t, s)
	fc.duringFn = func() { assert.True(t, s.IsLoading()) }

	res := s.Submit(context.Background())
	assert.Equal(t, compare.OutcomeSuccess, res.Outcome)
	assert.False(t, s.IsLoading())

	got := s.Result()
	require.NotNil(t, got)
	assert.Equal(t, "remote a", got.ChatGPTResponse)
	assert.Equal(t, info, got.PatientInfo)
}

func TestSubmitFallbackScenario(t *testing.T) {
	s := Open(context.Background(), NewMemoryPersister(), &fakeComparer{result: fallbackResult}, testLogger())
	defer s.Close()
	fillValidPatient(t, s)

	res := s.Submit(context.Background())
	assert.Equal(t, compare.OutcomeFallback, res.Outcome)
	assert.False(t, s.IsLoading())

	got := s.Result()
	require.NotNil(t, got)
	assert.True(t, strings.HasPrefix(got.ChatGPTResponse, fallback.Marker))
	assert.True(t, strings.HasPrefix(got.PerplexityResponse, fallback.Marker))
}

func TestSubmitConstructionFailureKeepsPreviousResult(t *testing.T) {
	fc := &fakeComparer{result: remoteResult}
	s := Open(context.Background(), NewMemoryPersister(), fc, testLogger())
	defer s.Close()
	fillValidPatient(t, s)
	s.Submit(context.Background())

	fc.result = func(patient.PatientInfo) compare.Result {
		return compare.Result{Outcome: compare.OutcomeConstructionFailure, Err: errors.New("boom")}
	}
	res := s.Submit(context.Background())
	assert.Equal(t, compare.OutcomeConstructionFailure, res.Outcome)
	assert.False(t, s.IsLoading())
	require.NotNil(t, s.Result())
	assert.Equal(t, "remote a", s.Result().ChatGPTResponse)
}

func TestTrySubmitRefusesOverlap(t *testing.T) {
	fc := &fakeComparer{result: remoteResult}
	s := Open(context.Background(), NewMemoryPersister(), fc, testLogger())
	defer s.Close()
	fillValidPatient(t, s)

	var innerErr error
	fc.duringFn = func() {
		_, _, innerErr = s.TrySubmit(context.Background(), nil)
	}

	res, errs, err := s.TrySubmit(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, errs.Empty())
	assert.Equal(t, compare.OutcomeSuccess, res.Outcome)
	assert.ErrorIs(t, innerErr, ErrSubmitInProgress)
	assert.Equal(t, 1, fc.calls)
}

func TestTrySubmitRejectsInvalidRecord(t *testing.T) {
	fc := &fakeComparer{result: remoteResult}
	s := Open(context.Background(), NewMemoryPersister(), fc, testLogger())
	defer s.Close()
	fillValidPatient(t, s)

	_, err := s.Update(patient.Update{MedicalConditions: []patient.MedicalCondition{patient.ConditionChronicKidneyDisease}})
	require.NoError(t, err)

	admitted := false
	_, errs, err := s.TrySubmit(context.Background(), func() bool {
		admitted = true
		return true
	})
	require.NoError(t, err)
	assert.Contains(t, errs, patient.FieldCKDStage)
	assert.False(t, admitted)
	assert.Equal(t, 0, fc.calls)
	assert.False(t, s.IsLoading())
	assert.Nil(t, s.Result())
}

func TestTrySubmitSendsOnlyValidatedRecords(t *testing.T) {
	fc := &fakeComparer{result: remoteResult}
	s := Open(context.Background(), NewMemoryPersister(), fc, testLogger())
	defer s.Close()
	fillValidPatient(t, s)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		zero, tall := 0.0, 178.0
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			h := tall
			if i%2 == 0 {
				h = zero
			}
			_, _ = s.Update(patient.Update{Height: &h})
		}
	}()

	for i := 0; i < 200; i++ {
		_, _, _ = s.TrySubmit(context.Background(), nil)
	}
	close(stop)
	wg.Wait()

	fc.mu.Lock()
	defer fc.mu.Unlock()
	for _, seen := range fc.seen {
		assert.True(t, patient.Validate(seen).Empty(), "submitted invalid record: %+v", seen)
	}
}

func TestTrySubmitAdmitRunsAfterOverlapCheck(t *testing.T) {
	fc := &fakeComparer{result: remoteResult}
	s := Open(context.Background(), NewMemoryPersister(), fc, testLogger())
	defer s.Close()
	fillValidPatient(t, s)

	admits := 0
	admit := func() bool {
		admits++
		return admits <= 1
	}

	var innerErr error
	fc.duringFn = func() {
		_, _, innerErr = s.TrySubmit(context.Background(), admit)
	}
	_, _, err := s.TrySubmit(context.Background(), admit)
	require.NoError(t, err)
	assert.ErrorIs(t, innerErr, ErrSubmitInProgress)
	assert.Equal(t, 1, admits)

	fc.duringFn = nil
	_, _, err = s.TrySubmit(context.Background(), admit)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 1, fc.calls)
	assert.False(t, s.IsLoading())
}

func TestResetClearsEverything(t *testing.T) {
	s := Open(context.Background(), NewMemoryPersister(), &fakeComparer{result: remoteResult}, testLogger())
	defer s.Close()
	fillValidPatient(t, s)
	s.Submit(context.Background())

	s.Reset()
	assert.Equal(t, patient.Default(), s.PatientInfo())
	assert.Nil(t, s.Result())
}

func TestPersistRoundTrip(t *testing.T) {
	persister := NewMemoryPersister()
	fc := &fakeComparer{result: remoteResult}

	s := Open(context.Background(), persister, fc, testLogger())
	info := fillValidPatient(t, s)
	_, err := s.Update(patient.Update{CKDDetails: &patient.CKDUpdate{GFR: ptr(55.0)}})
	require.NoError(t, err)
	s.Submit(context.Background())
	want := s.Snapshot()
	require.NoError(t, s.Close())

	reopened := Open(context.Background(), persister, fc, testLogger())
	defer reopened.Close()

	got := reopened.Snapshot()
	assert.Equal(t, want.PatientInfo, got.PatientInfo)
	require.NotNil(t, got.ComparisonResult)
	assert.Equal(t, info.Age, got.ComparisonResult.PatientInfo.Age)
	assert.Equal(t, want.ComparisonResult.ChatGPTResponse, got.ComparisonResult.ChatGPTResponse)
	assert.False(t, got.IsLoading)
}

func TestRehydrateForcesLoadingFalse(t *testing.T) {
	persister := NewMemoryPersister()
	blob, err := EncodeSnapshot(Snapshot{PatientInfo: patient.Default(), IsLoading: true})
	require.NoError(t, err)
	require.NoError(t, persister.Save(context.Background(), StorageKey, blob))

	s := Open(context.Background(), persister, &fakeComparer{result: remoteResult}, testLogger())
	defer s.Close()
	assert.False(t, s.IsLoading())
}

func TestRehydrateIgnoresCorruptState(t *testing.T) {
	persister := NewMemoryPersister()
	require.NoError(t, persister.Save(context.Background(), StorageKey, []byte(`{"patientInfo":`)))

	s := Open(context.Background(), persister, &fakeComparer{result: remoteResult}, testLogger())
	defer s.Close()
	assert.Equal(t, patient.Default(), s.PatientInfo())
}

type failingPersister struct {
	*MemoryPersister
}

func (f failingPersister) Save(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestPersistenceErrorsAreSwallowed(t *testing.T) {
	s := Open(context.Background(), failingPersister{NewMemoryPersister()}, &fakeComparer{result: remoteResult}, testLogger())
	info := fillValidPatient(t, s)
	assert.Equal(t, 45, info.Age)
	assert.NoError(t, s.Close())
}

func TestMutationsAfterCloseStayInMemory(t *testing.T) {
	persister := NewMemoryPersister()
	s := Open(context.Background(), persister, &fakeComparer{result: remoteResult}, testLogger())
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	fillValidPatient(t, s)
	_, err := persister.Load(context.Background(), StorageKey)
	assert.ErrorIs(t, err, ErrNotFound)
}
