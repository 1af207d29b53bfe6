package camera

import (
	"context"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/tphakala/camrelay/internal/logger"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) ListCameras(ctx context.Context) ([]CameraSummary, error) {
	args := m.Called(ctx)
	cams, _ := args.Get(0).([]CameraSummary)
	return cams, args.Error(1)
}

func (m *mockStore) PutCamera(ctx context.Context, cmd PutCameraCommand) (CameraRecord, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(CameraRecord), args.Error(1)
}

func (m *mockStore) DeleteCameraByID(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) FindCameraByID(ctx context.Context, id string) (CameraRecord, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(CameraRecord), args.Error(1)
}

func (m *mockStore) CameraExistsByID(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockPermanent struct {
	mock.Mock
}

func (m *mockPermanent) PutStream(ctx context.Context, req PutStreamRequest) (PermanentStream, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(PermanentStream), args.Error(1)
}

func (m *mockPermanent) RemoveStream(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockTemporary struct {
	mock.Mock
}

func (m *mockTemporary) GetStream(ctx context.Context, cameraID, sourceURL string) (TemporaryStream, error) {
	args := m.Called(ctx, cameraID, sourceURL)
	return args.Get(0).(TemporaryStream), args.Error(1)
}

// memStore is an in-memory MetadataStore used to inspect state after partial failures.
type memStore struct {
	mu      sync.Mutex
	cameras map[string]CameraRecord
	nextID  int
	now     time.Time
}

func newMemStore() *memStore {
	return &memStore{
		cameras: make(map[string]CameraRecord),
		now:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func (s *memStore) ListCameras(context.Context) ([]CameraSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CameraSummary, 0, len(s.cameras))
	for _, c := range s.cameras {
		out = append(out, CameraSummary{ID: c.ID, Name: c.Name, SourceURL: c.SourceURL})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) PutCamera(_ context.Context, cmd PutCameraCommand) (CameraRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(time.Second)
	id := cmd.ID
	created := s.now
	if id == "" {
		s.nextID++
		id = "cam-" + string(rune('0'+s.nextID))
	} else if existing, ok := s.cameras[id]; ok {
		created = existing.CreatedAt
	}
	rec := CameraRecord{
		ID:                 id,
		Name:               cmd.Name,
		SourceURL:          cmd.SourceURL,
		PermanentStreamURL: cmd.PermanentStreamURL,
		CreatedAt:          created,
		UpdatedAt:          s.now,
	}
	s.cameras[id] = rec
	return rec, nil
}

func (s *memStore) DeleteCameraByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cameras, id)
	return nil
}

func (s *memStore) FindCameraByID(_ context.Context, id string) (CameraRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.cameras[id]
	if !ok {
		return CameraRecord{}, errNotFound
	}
	return rec, nil
}

func (s *memStore) CameraExistsByID(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.cameras[id]
	return ok, nil
}

type recordingObserver struct {
	mu         sync.Mutex
	operations []string
	outcomes   []string
	partials   []string
}

func (o *recordingObserver) RecordOperation(operation, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.operations = append(o.operations, operation)
	o.outcomes = append(o.outcomes, outcome)
}

func (o *recordingObserver) RecordPartialFailure(operation string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.partials = append(o.partials, operation)
}

func testLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelTrace, time.UTC)
}

func fixedRelayID() (string, error) { return "0190a4f2-relay", nil }

type harness struct {
	store     *mockStore
	permanent *mockPermanent
	temporary *mockTemporary
	observer  *recordingObserver
	svc       *Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:     &mockStore{},
		permanent: &mockPermanent{},
		temporary: &mockTemporary{},
		observer:  &recordingObserver{},
	}
	h.svc = New(h.store, h.permanent, h.temporary,
		WithLogger(testLogger()),
		WithObserver(h.observer),
		WithRelayIDGenerator(fixedRelayID))
	t.Cleanup(func() {
		h.store.AssertExpectations(t)
		h.permanent.AssertExpectations(t)
		h.temporary.AssertExpectations(t)
	})
	return h
}

func strPtr(s string) *string { return &s }
