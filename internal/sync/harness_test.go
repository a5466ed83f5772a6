package sync

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hazel/sprout/internal/apiclient"
	"github.com/hazel/sprout/internal/ident"
	"github.com/hazel/sprout/internal/kv"
	"github.com/hazel/sprout/internal/models"
	"github.com/hazel/sprout/internal/opqueue"
	"github.com/hazel/sprout/internal/remap"
	"github.com/hazel/sprout/internal/store"
)

// fakeServer is an in-memory stand-in for the sprout server: tasks keyed
// by server-issued IDs, progress recomputed on completion, per-route call
// counting and failure injection for the error-path tests.
type fakeServer struct {
	mu       sync.Mutex
	tasks    []models.Task
	progress models.UserProgress
	sessions []models.TimerSession

	calls    map[string]int  // "METHOD path-prefix" -> count
	failWith map[string]int  // route key -> status to return
	nextID   func() string   // server id generator, overridable per test
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		progress: models.DefaultProgress(),
		calls:    map[string]int{},
		failWith: map[string]int{},
		nextID:   uuid.NewString,
	}
}

func (f *fakeServer) routeKey(r *http.Request) string {
	path := r.URL.Path
	switch {
	case strings.HasSuffix(path, "/complete") && strings.HasPrefix(path, "/api/tasks/"):
		return "POST /api/tasks/{id}/complete"
	case path == "/api/tasks" || path == "/api/tasks/":
		return r.Method + " /api/tasks"
	case strings.HasPrefix(path, "/api/tasks/"):
		return r.Method + " /api/tasks/{id}"
	default:
		return r.Method + " " + path
	}
}

func (f *fakeServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		key := f.routeKey(r)
		f.calls[key]++
		if status, ok := f.failWith[key]; ok {
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]string{"error": http.StatusText(status)})
			return
		}

		switch key {
		case "GET /api/tasks":
			json.NewEncoder(w).Encode(f.tasks)
		case "POST /api/tasks":
			var insert models.InsertTask
			json.NewDecoder(r.Body).Decode(&insert)
			created := insert.ScheduledDate
			if created == "" {
				created = time.Now().Format("2006-01-02")
			}
			recurring := insert.Recurring
			if recurring == "" {
				recurring = models.RecurrenceNone
			}
			task := models.Task{
				ID:              ident.Remote(f.nextID()),
				Title:           insert.Title,
				Description:     insert.Description,
				ScheduledTime:   insert.ScheduledTime,
				DurationMinutes: insert.DurationMinutes,
				StickerID:       insert.StickerID,
				CreatedAt:       created,
				Recurring:       recurring,
			}
			f.tasks = append(f.tasks, task)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(task)
		case "PATCH /api/tasks/{id}":
			id := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
			var updates models.TaskUpdate
			json.NewDecoder(r.Body).Decode(&updates)
			for i := range f.tasks {
				if f.tasks[i].ID.String() == id {
					updates.Apply(&f.tasks[i])
					json.NewEncoder(w).Encode(f.tasks[i])
					return
				}
			}
			f.notFound(w)
		case "DELETE /api/tasks/{id}":
			id := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
			for i := range f.tasks {
				if f.tasks[i].ID.String() == id {
					f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			f.notFound(w)
		case "POST /api/tasks/{id}/complete":
			id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/tasks/"), "/complete")
			for i := range f.tasks {
				if f.tasks[i].ID.String() == id && !f.tasks[i].Completed {
					f.tasks[i].Completed = true
					f.tasks[i].CompletedAt = time.Now().UTC().Format(time.RFC3339)
					f.progress.CompletedTasks++
					f.progress.TotalPoints += 10
					json.NewEncoder(w).Encode(f.tasks[i])
					return
				}
			}
			f.notFound(w)
		case "GET /api/progress":
			json.NewEncoder(w).Encode(f.progress)
		case "POST /api/timer/complete":
			var insert models.InsertTimerSession
			json.NewDecoder(r.Body).Decode(&insert)
			session := models.TimerSession{
				ID:              f.nextID(),
				DurationMinutes: insert.DurationMinutes,
				StartedAt:       time.Now().UTC().Format(time.RFC3339),
				CompletedAt:     time.Now().UTC().Format(time.RFC3339),
				TaskID:          insert.TaskID,
			}
			f.sessions = append(f.sessions, session)
			f.progress.TimerSessionsCompleted++
			json.NewEncoder(w).Encode(apiclient.TimerCompleteResponse{
				Session:  session,
				Progress: f.progress,
			})
		default:
			f.notFound(w)
		}
	})
}

func (f *fakeServer) notFound(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{"error": "Task not found"})
}

func (f *fakeServer) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeServer) fail(key string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith[key] = status
}

func (f *fakeServer) heal(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failWith, key)
}

func (f *fakeServer) serverTasks() []models.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Task, len(f.tasks))
	copy(out, f.tasks)
	return out
}

// fixture bundles the engine with its collaborators and the fake server.
type fixture struct {
	server *fakeServer
	store  *store.Store
	queue  *opqueue.Queue
	remap  *remap.Remapper
	engine *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fake := newFakeServer()
	ts := httptest.NewServer(fake.handler())
	t.Cleanup(ts.Close)

	s := store.New(kv.NewMemory())
	q := opqueue.New(s)
	r := remap.New(s)
	client := apiclient.New(ts.URL, "test-token")
	return &fixture{
		server: fake,
		store:  s,
		queue:  q,
		remap:  r,
		engine: NewEngine(s, q, r, client),
	}
}
