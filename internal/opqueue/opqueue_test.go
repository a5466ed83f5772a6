package opqueue

import (
	"encoding/json"
	"testing"

	"github.com/hazel/sprout/internal/ident"
	"github.com/hazel/sprout/internal/kv"
	"github.com/hazel/sprout/internal/models"
	"github.com/hazel/sprout/internal/store"
)

func newQueue(t *testing.T) *Queue {
	t.Helper()
	return New(store.New(kv.NewMemory()))
}

func TestEnqueuePreservesOrder(t *testing.T) {
	q := newQueue(t)

	local := ident.NewLocal()
	if _, err := q.Enqueue(KindCreateTask, models.InsertTask{Title: "Read"}, local); err != nil {
		t.Fatalf("enqueue create: %v", err)
	}
	if _, err := q.Enqueue(KindCompleteTask, TaskRef{ID: local}, ident.TaskID{}); err != nil {
		t.Fatalf("enqueue complete: %v", err)
	}
	if _, err := q.Enqueue(KindTimerComplete, models.InsertTimerSession{DurationMinutes: 25}, ident.TaskID{}); err != nil {
		t.Fatalf("enqueue timer: %v", err)
	}

	ops, err := q.PeekAll()
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	wantKinds := []Kind{KindCreateTask, KindCompleteTask, KindTimerComplete}
	if len(ops) != len(wantKinds) {
		t.Fatalf("queue length: got %d, want %d", len(ops), len(wantKinds))
	}
	for i, op := range ops {
		if op.Kind != wantKinds[i] {
			t.Errorf("ops[%d].Kind: got %s, want %s", i, op.Kind, wantKinds[i])
		}
		if op.ID == "" || op.Timestamp == 0 {
			t.Errorf("ops[%d] missing id or timestamp: %+v", i, op)
		}
	}
	if ops[0].LocalTaskID != local {
		t.Errorf("create op local id: got %v, want %v", ops[0].LocalTaskID, local)
	}
}

func TestDequeueByID(t *testing.T) {
	q := newQueue(t)

	op1, _ := q.Enqueue(KindDeleteTask, TaskRef{ID: ident.Remote("srv_1")}, ident.TaskID{})
	op2, _ := q.Enqueue(KindDeleteTask, TaskRef{ID: ident.Remote("srv_2")}, ident.TaskID{})

	// Remove the first entry, not positionally
	if err := q.Dequeue(op1.ID); err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	ops, _ := q.PeekAll()
	if len(ops) != 1 || ops[0].ID != op2.ID {
		t.Fatalf("after dequeue: %+v", ops)
	}

	// Unknown id is a no-op
	if err := q.Dequeue("op_0_nope"); err != nil {
		t.Fatalf("dequeue unknown: %v", err)
	}
	if n, _ := q.Len(); n != 1 {
		t.Fatalf("len after no-op dequeue: %d", n)
	}
}

func TestIsEmpty(t *testing.T) {
	q := newQueue(t)
	if !q.IsEmpty() {
		t.Fatal("fresh queue not empty")
	}
	q.Enqueue(KindCompleteTask, TaskRef{ID: ident.Remote("srv_1")}, ident.TaskID{})
	if q.IsEmpty() {
		t.Fatal("queue with one entry reported empty")
	}
	if err := q.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !q.IsEmpty() {
		t.Fatal("cleared queue not empty")
	}
}

func TestPeekAllIsSnapshot(t *testing.T) {
	q := newQueue(t)
	q.Enqueue(KindDeleteTask, TaskRef{ID: ident.Remote("srv_1")}, ident.TaskID{})

	snapshot, _ := q.PeekAll()

	// An enqueue after the snapshot must not appear in it
	q.Enqueue(KindDeleteTask, TaskRef{ID: ident.Remote("srv_2")}, ident.TaskID{})
	if len(snapshot) != 1 {
		t.Fatalf("snapshot grew: %d entries", len(snapshot))
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	q := newQueue(t)
	id := ident.NewLocal()
	title := "New title"
	q.Enqueue(KindUpdateTask, UpdatePayload{ID: id, Updates: models.TaskUpdate{Title: &title}}, ident.TaskID{})

	ops, _ := q.PeekAll()
	var payload UpdatePayload
	if err := json.Unmarshal(ops[0].Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.ID != id {
		t.Fatalf("payload id: got %v, want %v (local tag must survive)", payload.ID, id)
	}
	if payload.Updates.Title == nil || *payload.Updates.Title != title {
		t.Fatalf("payload updates: %+v", payload.Updates)
	}
}

func TestQueueIsPerUser(t *testing.T) {
	s := store.New(kv.NewMemory())
	q := New(s)

	s.SetCurrentUser("mei")
	q.Enqueue(KindCompleteTask, TaskRef{ID: ident.Remote("srv_1")}, ident.TaskID{})

	s.SetCurrentUser("lin")
	if !q.IsEmpty() {
		t.Fatal("lin sees mei's queue")
	}
}
