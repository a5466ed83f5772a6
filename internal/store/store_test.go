package store

import (
	"errors"
	"testing"
	"time"

	"github.com/hazel/sprout/internal/ident"
	"github.com/hazel/sprout/internal/kv"
	"github.com/hazel/sprout/internal/models"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return New(kv.NewMemory())
}

func task(id ident.TaskID, title string) models.Task {
	return models.Task{
		ID:        id,
		Title:     title,
		CreatedAt: "2026-08-01",
		Recurring: models.RecurrenceNone,
	}
}

func TestTasksDefaultEmpty(t *testing.T) {
	s := newStore(t)
	tasks, err := s.Tasks()
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("fresh store: got %d tasks, want 0", len(tasks))
	}
}

func TestAddFindRemoveTask(t *testing.T) {
	s := newStore(t)
	id := ident.NewLocal()
	if err := s.AddTask(task(id, "Read")); err != nil {
		t.Fatalf("add: %v", err)
	}

	found, err := s.FindTask(id)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found == nil || found.Title != "Read" {
		t.Fatalf("find: got %+v", found)
	}

	removed, err := s.RemoveTask(id)
	if err != nil || !removed {
		t.Fatalf("remove: removed=%v err=%v", removed, err)
	}
	removed, err = s.RemoveTask(id)
	if err != nil || removed {
		t.Fatalf("remove again: removed=%v err=%v, want no-op", removed, err)
	}
}

func TestMutateTask(t *testing.T) {
	s := newStore(t)
	id := ident.Remote("srv_1")
	if err := s.AddTask(task(id, "Piano")); err != nil {
		t.Fatalf("add: %v", err)
	}

	got, err := s.MutateTask(id, func(tk *models.Task) {
		tk.Completed = true
		tk.CompletedAt = "2026-08-31T10:00:00Z"
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if got == nil || !got.Completed || got.CompletedAt == "" {
		t.Fatalf("mutate result: %+v", got)
	}

	// Mutation persisted
	tasks, _ := s.Tasks()
	if !tasks[0].Completed {
		t.Fatal("mutation not persisted")
	}

	// Unknown id is a nil, nil miss
	got, err = s.MutateTask(ident.Remote("nope"), func(tk *models.Task) {})
	if got != nil || err != nil {
		t.Fatalf("mutate unknown: got %+v err=%v", got, err)
	}
}

func TestRewriteTaskID(t *testing.T) {
	s := newStore(t)
	localID := ident.NewLocal()
	if err := s.AddTask(task(localID, "Chores")); err != nil {
		t.Fatalf("add: %v", err)
	}

	serverID := ident.Remote("srv_9")
	if err := s.RewriteTaskID(localID, serverID); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	if found, _ := s.FindTask(localID); found != nil {
		t.Fatal("old id still present")
	}
	found, _ := s.FindTask(serverID)
	if found == nil || found.Title != "Chores" {
		t.Fatalf("rewritten task: %+v", found)
	}
}

func TestUserNamespacing(t *testing.T) {
	s := newStore(t)

	if err := s.SetCurrentUser("mei"); err != nil {
		t.Fatalf("set user: %v", err)
	}
	if err := s.AddTask(task(ident.Remote("srv_1"), "Mei's task")); err != nil {
		t.Fatalf("add: %v", err)
	}

	// Switch user: cache is empty for them
	if err := s.SetCurrentUser("lin"); err != nil {
		t.Fatalf("set user: %v", err)
	}
	tasks, _ := s.Tasks()
	if len(tasks) != 0 {
		t.Fatalf("lin sees %d of mei's tasks", len(tasks))
	}

	// Logged out: anonymous namespace, also empty
	if err := s.ClearCurrentUser(); err != nil {
		t.Fatalf("clear user: %v", err)
	}
	if got := s.UserKey("tasks"); got != "tasks_anonymous" {
		t.Fatalf("anonymous key: got %q", got)
	}

	// Mei's data is still there when she returns
	s.SetCurrentUser("mei")
	tasks, _ = s.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("mei's cache lost: %d tasks", len(tasks))
	}
}

func TestProgressDefault(t *testing.T) {
	s := newStore(t)
	p, err := s.Progress()
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if p.TotalPoints != 0 || p.UnlockedStickers == nil {
		t.Fatalf("default progress: %+v", p)
	}

	p.TotalPoints = 30
	p.UnlockedStickers = []string{"mg-1"}
	if err := s.SetProgress(p); err != nil {
		t.Fatalf("set progress: %v", err)
	}
	got, _ := s.Progress()
	if got.TotalPoints != 30 || len(got.UnlockedStickers) != 1 {
		t.Fatalf("round trip: %+v", got)
	}
}

func TestIDMap(t *testing.T) {
	s := newStore(t)
	m, err := s.IDMap()
	if err != nil || len(m) != 0 {
		t.Fatalf("fresh id map: %v %v", m, err)
	}

	m["local_1"] = "srv_9"
	if err := s.SetIDMap(m); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, _ := s.IDMap()
	if got["local_1"] != "srv_9" {
		t.Fatalf("id map round trip: %v", got)
	}

	if err := s.ClearIDMap(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, _ = s.IDMap()
	if len(got) != 0 {
		t.Fatalf("id map after clear: %v", got)
	}
}

func TestLastSync(t *testing.T) {
	s := newStore(t)
	ts, err := s.LastSync()
	if err != nil || !ts.IsZero() {
		t.Fatalf("fresh last sync: %v %v", ts, err)
	}

	now := time.Now().Truncate(time.Millisecond)
	if err := s.SetLastSync(now); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, _ := s.LastSync()
	if !got.Equal(now) {
		t.Fatalf("last sync: got %v, want %v", got, now)
	}
}

// failingKV simulates a broken medium so tests can tell "failed" from "empty".
type failingKV struct{ err error }

func (f failingKV) Get(string) ([]byte, bool, error) { return nil, false, f.err }
func (f failingKV) Set(string, []byte) error         { return f.err }
func (f failingKV) Delete(string) error              { return f.err }
func (f failingKV) Close() error                     { return nil }

func TestReadFailureReturnsDefaultAndError(t *testing.T) {
	boom := errors.New("disk on fire")
	s := New(failingKV{err: boom})

	tasks, err := s.Tasks()
	if len(tasks) != 0 {
		t.Fatalf("failed read should yield empty tasks, got %d", len(tasks))
	}
	if !errors.Is(err, boom) {
		t.Fatalf("error lost: %v", err)
	}

	p, err := s.Progress()
	if p.TotalPoints != 0 || !errors.Is(err, boom) {
		t.Fatalf("failed progress read: %+v %v", p, err)
	}
}

func TestMalformedDataReturnsDefaultAndError(t *testing.T) {
	backing := kv.NewMemory()
	s := New(backing)
	backing.Set("tasks_anonymous", []byte("{not json"))

	tasks, err := s.Tasks()
	if len(tasks) != 0 {
		t.Fatalf("malformed read should yield empty tasks, got %d", len(tasks))
	}
	if err == nil {
		t.Fatal("malformed read should surface an error for tests")
	}
}
