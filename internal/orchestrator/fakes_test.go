package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/Vitrina/internal/domain"
	"github.com/shaiso/Vitrina/internal/repo"
)

// --- Task store ---

type memTaskStore struct {
	mu       sync.Mutex
	tasks    map[string]*domain.Task
	inserts  int
	countErr error
	countFix *int
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{tasks: make(map[string]*domain.Task)}
}

func (s *memTaskStore) Insert(_ context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *task
	s.tasks[task.ID] = &cp
	s.inserts++
	return nil
}

func (s *memTaskStore) UpdateStatus(_ context.Context, id string, status domain.TaskStatus, f domain.StatusFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return repo.ErrNotFound
	}
	t.Status = status
	if f.Kind != "" {
		t.Kind = f.Kind
	}
	if f.URL != "" {
		t.URL = f.URL
	}
	if f.AdminURL != "" {
		t.AdminURL = f.AdminURL
	}
	if status == domain.TaskStatusFailed {
		if f.Error != "" {
			t.Error = f.Error
		}
	} else {
		t.Error = ""
	}
	t.UpdatedAt = time.Now()
	return nil
}

func (s *memTaskStore) GetByID(_ context.Context, id string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memTaskStore) CountExcluding(_ context.Context, excluded ...domain.TaskStatus) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countErr != nil {
		return 0, s.countErr
	}
	if s.countFix != nil {
		return *s.countFix, nil
	}
	n := 0
outer:
	for _, t := range s.tasks {
		for _, ex := range excluded {
			if t.Status == ex {
				continue outer
			}
		}
		n++
	}
	return n, nil
}

func (s *memTaskStore) ListInFlight(_ context.Context) ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Task
	for _, t := range s.tasks {
		if t.Status.IsInFlight() {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *memTaskStore) seed(t *domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
}

func (s *memTaskStore) get(id string) domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		return *t
	}
	return domain.Task{}
}

func (s *memTaskStore) insertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserts
}

// --- Event log ---

type memEventLog struct {
	mu     sync.Mutex
	events []domain.Event

	// Append события stallOn зависает до отмены ctx
	// (или до закрытия release, если stallIgnoresCtx).
	stallOn         string
	stallIgnoresCtx bool
	release         chan struct{}
}

func (l *memEventLog) Append(ctx context.Context, taskID, eventType, message string, severity domain.Severity) {
	if l.stallOn != "" && eventType == l.stallOn {
		if l.stallIgnoresCtx {
			<-l.release
		} else {
			select {
			case <-ctx.Done():
			case <-l.release:
			}
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, domain.Event{
		TaskID:    taskID,
		Type:      eventType,
		Message:   message,
		Severity:  severity,
		CreatedAt: time.Now(),
	})
}

func (l *memEventLog) forTask(taskID string) []domain.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.Event
	for _, e := range l.events {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out
}

func (l *memEventLog) types(taskID string) []string {
	var out []string
	for _, e := range l.forTask(taskID) {
		out = append(out, e.Type)
	}
	return out
}

func (l *memEventLog) count(taskID, eventType string) int {
	n := 0
	for _, e := range l.forTask(taskID) {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

// --- Backend ---

type fakeBackend struct {
	mu sync.Mutex

	deployFn func(ctx context.Context) error
	waitFn   func(ctx context.Context, component string) error
	locateFn func(ctx context.Context) (string, error)
	execFn   func(ctx context.Context, command string) error
	record   *domain.DeploymentRecord
	deleteFn func(ctx context.Context) error

	deploys      int
	execs        int
	deletes      int
	forceDeletes int
}

func (b *fakeBackend) Deploy(ctx context.Context, params domain.DeployParams) error {
	b.mu.Lock()
	b.deploys++
	fn := b.deployFn
	b.mu.Unlock()
	if params.AdminPassword == "" {
		return errors.New("admin password missing")
	}
	if fn != nil {
		return fn(ctx)
	}
	return nil
}

func (b *fakeBackend) WaitReady(ctx context.Context, _, component string, _ time.Duration) error {
	if b.waitFn != nil {
		return b.waitFn(ctx, component)
	}
	return nil
}

func (b *fakeBackend) LocateExecutionTarget(ctx context.Context, _ string) (string, error) {
	if b.locateFn != nil {
		return b.locateFn(ctx)
	}
	return "woocommerce-0", nil
}

func (b *fakeBackend) ExecCommand(ctx context.Context, _, target, command string) (string, error) {
	b.mu.Lock()
	b.execs++
	b.mu.Unlock()
	if target == "" {
		return "", errors.New("empty target")
	}
	if b.execFn != nil {
		return "", b.execFn(ctx, command)
	}
	return "", nil
}

func (b *fakeBackend) Delete(ctx context.Context, _ string) error {
	b.mu.Lock()
	b.deletes++
	b.mu.Unlock()
	if b.deleteFn != nil {
		return b.deleteFn(ctx)
	}
	return nil
}

func (b *fakeBackend) ForceDeleteResources(ctx context.Context, _ string) error {
	b.mu.Lock()
	b.forceDeletes++
	b.mu.Unlock()
	if b.deleteFn != nil {
		return b.deleteFn(ctx)
	}
	return nil
}

func (b *fakeBackend) GetDeploymentRecord(_ context.Context, namespace string) (*domain.DeploymentRecord, error) {
	if b.record == nil {
		return nil, nil
	}
	rec := *b.record
	rec.Namespace = namespace
	return &rec, nil
}

func (b *fakeBackend) counts() (deploys, deletes, forceDeletes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.deploys, b.deletes, b.forceDeletes
}

// --- Helpers ---

type harness struct {
	orch    *Orchestrator
	store   *memTaskStore
	events  *memEventLog
	backend *fakeBackend
}

func newHarness(t *testing.T, backend *fakeBackend, mutate func(*Config)) *harness {
	t.Helper()

	h := &harness{
		store:   newMemTaskStore(),
		events:  &memEventLog{},
		backend: backend,
	}
	cfg := Config{
		Tasks:            h.store,
		Events:           h.events,
		Backend:          backend,
		MaxConcurrency:   2,
		MaxQueueSize:     5,
		MaxGlobalStores:  50,
		ProvisionTimeout: 5 * time.Second,
		DeleteTimeout:    5 * time.Second,
		LoserGrace:       time.Second,
		ClusterIP:        "10.0.0.1",
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if mutate != nil {
		mutate(&cfg)
	}

	h.orch = New(cfg)
	if err := h.orch.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(h.orch.Stop)
	return h
}

// waitStatus ждёт, пока задача не перейдёт в want.
func (h *harness) waitStatus(t *testing.T, id string, want domain.TaskStatus) domain.Task {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		task := h.store.get(id)
		if task.Status == want {
			return task
		}
		time.Sleep(5 * time.Millisecond)
	}
	got := h.store.get(id)
	t.Fatalf("store %s: status %q, want %q (events: %s)", id, got.Status, want,
		strings.Join(h.events.types(id), ","))
	return got
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
