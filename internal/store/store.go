package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Skufu/nutricompare/internal/compare"
	"github.com/Skufu/nutricompare/internal/metrics"
	"github.com/Skufu/nutricompare/internal/patient"
)

const saveTimeout = 5 * time.Second

var (
	ErrSubmitInProgress = errors.New("a comparison is already in progress")
	ErrRateLimited      = errors.New("comparison rate limit exceeded")
)

type Comparer interface {
	Compare(ctx context.Context, p patient.PatientInfo) compare.Result
}

// Store owns the in-progress patient record and the last comparison result.
// Every mutation schedules a snapshot write without waiting for it.
type Store struct {
	mu      sync.RWMutex
	info    patient.PatientInfo
	result  *patient.ComparisonResult
	loading bool
	closed  bool

	persister Persister
	comparer  Comparer
	logger    *logrus.Logger

	pending chan Snapshot
	done    chan struct{}
}

// Open rehydrates state from persister and starts the background saver.
// Load failures are logged and the store starts from defaults.
func Open(ctx context.Context, persister Persister, comparer Comparer, logger *logrus.Logger) *Store {
	s := &Store{
		info:      patient.Default(),
		persister: persister,
		comparer:  comparer,
		logger:    logger,
		pending:   make(chan Snapshot, 1),
		done:      make(chan struct{}),
	}
	s.rehydrate(ctx)
	go s.saveLoop()
	return s
}

func (s *Store) rehydrate(ctx context.Context) {
	blob, err := s.persister.Load(ctx, StorageKey)
	if errors.Is(err, ErrNotFound) {
		return
	}
	if err != nil {
		metrics.RecordPersistenceError("load")
		s.logger.WithError(err).Warn("failed to load persisted state, starting fresh")
		return
	}
	snap, err := DecodeSnapshot(blob)
	if err != nil {
		metrics.RecordPersistenceError("decode")
		s.logger.WithError(err).Warn("discarding unreadable persisted state")
		return
	}
	s.info = snap.PatientInfo
	s.result = snap.ComparisonResult
	s.logger.WithField("has_result", s.result != nil).Info("restored persisted state")
}

func (s *Store) saveLoop() {
	defer close(s.done)
	for snap := range s.pending {
		blob, err := EncodeSnapshot(snap)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
			err = s.persister.Save(ctx, StorageKey, blob)
			cancel()
		}
		if err != nil {
			metrics.RecordPersistenceError("save")
			s.logger.WithError(err).Warn("failed to persist state")
		}
	}
}

// schedule must run with s.mu held. An unsaved older snapshot is replaced so
// the saver only ever writes the latest state.
func (s *Store) schedule() {
	if s.closed {
		return
	}
	select {
	case <-s.pending:
	default:
	}
	s.pending <- s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{PatientInfo: s.info.Clone(), IsLoading: s.loading}
	if s.result != nil {
		r := *s.result
		r.PatientInfo = r.PatientInfo.Clone()
		snap.ComparisonResult = &r
	}
	return snap
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) PatientInfo() patient.PatientInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info.Clone()
}

// Result returns the last comparison or nil.
func (s *Store) Result() *patient.ComparisonResult {
	return s.Snapshot().ComparisonResult
}

func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Update overlays a partial record onto the current one.
func (s *Store) Update(u patient.Update) (patient.PatientInfo, error) {
	if err := u.Check(); err != nil {
		return patient.PatientInfo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = u.Apply(s.info)
	s.schedule()
	return s.info.Clone(), nil
}

func (s *Store) ToggleCondition(c patient.MedicalCondition) (patient.PatientInfo, error) {
	if err := (patient.PatientInfo{MedicalConditions: []patient.MedicalCondition{c}}).CheckEnums(); err != nil {
		return patient.PatientInfo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info.MedicalConditions = patient.ToggleCondition(s.info.MedicalConditions, c)
	s.schedule()
	return s.info.Clone(), nil
}

// Reset starts a new comparison: defaults for the record, no result.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = patient.Default()
	s.result = nil
	s.schedule()
}

// Submit sends the current record for comparison. It does not validate and
// never fails; callers read the stored result afterwards.
func (s *Store) Submit(ctx context.Context) compare.Result {
	s.mu.Lock()
	s.loading = true
	info := s.info.Clone()
	s.schedule()
	s.mu.Unlock()

	return s.finish(ctx, info)
}

// TrySubmit validates the current record and submits exactly what it
// validated. Invalid records come back as ValidationErrors and nothing is
// sent. A submission already in flight yields ErrSubmitInProgress. admit, when
// non-nil, is consulted only after both checks pass; false yields
// ErrRateLimited.
func (s *Store) TrySubmit(ctx context.Context, admit func() bool) (compare.Result, patient.ValidationErrors, error) {
	s.mu.Lock()
	if errs := patient.Validate(s.info); !errs.Empty() {
		s.mu.Unlock()
		return compare.Result{}, errs, nil
	}
	if s.loading {
		s.mu.Unlock()
		return compare.Result{}, nil, ErrSubmitInProgress
	}
	if admit != nil && !admit() {
		s.mu.Unlock()
		return compare.Result{}, nil, ErrRateLimited
	}
	s.loading = true
	info := s.info.Clone()
	s.schedule()
	s.mu.Unlock()

	return s.finish(ctx, info), nil, nil
}

func (s *Store) finish(ctx context.Context, info patient.PatientInfo) compare.Result {
	res := s.comparer.Compare(ctx, info)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if res.Comparison != nil {
		s.result = res.Comparison
	}
	s.schedule()

	s.logger.WithField("outcome", res.Outcome).Info("comparison stored")
	return res
}

func (s *Store) Ping(ctx context.Context) error {
	return s.persister.Ping(ctx)
}

// Close flushes the pending snapshot and closes the persister. Mutations
// after Close are applied in memory only.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.pending)
	s.mu.Unlock()

	<-s.done
	return s.persister.Close()
}
