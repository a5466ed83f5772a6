// Package sync drains the pending-operation queue against the server and
// reconciles the local cache with authoritative server state. Server state
// wins once the server is reachable; the queue only bridges the gap until
// reachability returns.
package sync

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hazel/sprout/internal/apiclient"
	"github.com/hazel/sprout/internal/ident"
	"github.com/hazel/sprout/internal/models"
	"github.com/hazel/sprout/internal/opqueue"
	"github.com/hazel/sprout/internal/remap"
	"github.com/hazel/sprout/internal/store"
)

// ErrSyncInFlight is returned when FullSync is called while another full
// sync is still running.
var ErrSyncInFlight = errors.New("sync already in progress")

// errLocalOnly marks a queued operation that references a task which was
// never created server-side. There is nothing remote to act on.
var errLocalOnly = errors.New("task exists only locally")

// API is the server surface the engine replays against.
type API interface {
	ListTasks() ([]models.Task, error)
	CreateTask(models.InsertTask) (*models.Task, error)
	UpdateTask(ident.TaskID, models.TaskUpdate) (*models.Task, error)
	DeleteTask(ident.TaskID) error
	CompleteTask(ident.TaskID) (*models.Task, error)
	Progress() (*models.UserProgress, error)
	CompleteTimer(models.InsertTimerSession) (*apiclient.TimerCompleteResponse, error)
}

// Summary is the outcome of one replay pass.
type Summary struct {
	Success bool
	Synced  int
	Failed  int
}

// Engine replays queued operations and refreshes the cache from the
// server. It mutates local state only through the store's accessors.
type Engine struct {
	store   *store.Store
	queue   *opqueue.Queue
	remap   *remap.Remapper
	api     API
	syncing atomic.Bool

	// onRefresh is invoked after the cache has been replaced with server
	// state, so the UI layer can re-read without the engine knowing about
	// any UI cache.
	onRefresh func()
}

// NewEngine wires an engine over its collaborators.
func NewEngine(s *store.Store, q *opqueue.Queue, r *remap.Remapper, api API) *Engine {
	return &Engine{store: s, queue: q, remap: r, api: api}
}

// OnRefresh registers the post-sync cache-refresh notification.
func (e *Engine) OnRefresh(fn func()) {
	e.onRefresh = fn
}

// Syncing reports whether a full sync is currently in flight.
func (e *Engine) Syncing() bool {
	return e.syncing.Load()
}

// ReplayQueue replays pending operations in enqueue order. It never
// returns an error: transient failures leave the operation queued for the
// next pass, and unrecoverable local-only references are discarded with
// local cleanup. The caller proceeds to a full refresh regardless.
func (e *Engine) ReplayQueue() Summary {
	ops, err := e.queue.PeekAll()
	if err != nil {
		slog.Warn("sync: read queue", "err", err)
		return Summary{Success: true}
	}

	var summary Summary
	for _, op := range ops {
		if err := e.replayOne(op); err != nil {
			slog.Warn("sync: replay operation", "op", op.ID, "kind", op.Kind, "err", err)
			summary.Failed++
			if errors.Is(err, errLocalOnly) {
				// Retrying can never succeed: the create this operation
				// depends on failed permanently. Drop it and purge the
				// phantom task.
				e.discardLocalOnly(op)
			}
			continue
		}
		if err := e.queue.Dequeue(op.ID); err != nil {
			slog.Warn("sync: dequeue", "op", op.ID, "err", err)
		}
		summary.Synced++
	}

	if summary.Synced > 0 {
		if err := e.store.SetLastSync(time.Now()); err != nil {
			slog.Warn("sync: record last sync", "err", err)
		}
	}

	summary.Success = summary.Failed == 0
	return summary
}

// replayOne dispatches a single queued operation to the server, resolving
// any task reference through the identifier map first.
func (e *Engine) replayOne(op opqueue.Operation) error {
	switch op.Kind {
	case opqueue.KindCreateTask:
		var insert models.InsertTask
		if err := json.Unmarshal(op.Payload, &insert); err != nil {
			return fmt.Errorf("decode create payload: %w", err)
		}
		serverTask, err := e.api.CreateTask(insert)
		if err != nil {
			return err
		}
		if !op.LocalTaskID.IsZero() {
			if err := e.remap.SetMapping(op.LocalTaskID, serverTask.ID); err != nil {
				slog.Warn("sync: record id mapping", "local", op.LocalTaskID, "err", err)
			}
			if err := e.store.RewriteTaskID(op.LocalTaskID, serverTask.ID); err != nil {
				slog.Warn("sync: rewrite cached id", "local", op.LocalTaskID, "err", err)
			}
		}
		return nil

	case opqueue.KindUpdateTask:
		var payload opqueue.UpdatePayload
		if err := json.Unmarshal(op.Payload, &payload); err != nil {
			return fmt.Errorf("decode update payload: %w", err)
		}
		id, err := e.remap.Resolve(payload.ID)
		if err != nil {
			return err
		}
		if id.IsLocal() {
			// The create is still pending (or failed this pass); retry
			// next sync once the mapping exists.
			return fmt.Errorf("update %s: create not yet acknowledged", id)
		}
		_, err = e.api.UpdateTask(id, payload.Updates)
		return err

	case opqueue.KindDeleteTask:
		var ref opqueue.TaskRef
		if err := json.Unmarshal(op.Payload, &ref); err != nil {
			return fmt.Errorf("decode delete payload: %w", err)
		}
		id, err := e.remap.Resolve(ref.ID)
		if err != nil {
			return err
		}
		if id.IsLocal() {
			// Never reached the server; deleting the cached copy is the
			// whole job.
			if _, err := e.store.RemoveTask(id); err != nil {
				slog.Warn("sync: purge local task", "id", id, "err", err)
			}
			return nil
		}
		err = e.api.DeleteTask(id)
		if errors.Is(err, apiclient.ErrNotFound) {
			return nil // already gone server-side
		}
		return err

	case opqueue.KindCompleteTask:
		var ref opqueue.TaskRef
		if err := json.Unmarshal(op.Payload, &ref); err != nil {
			return fmt.Errorf("decode complete payload: %w", err)
		}
		id, err := e.remap.Resolve(ref.ID)
		if err != nil {
			return err
		}
		if id.IsLocal() {
			return fmt.Errorf("complete %s: %w", id, errLocalOnly)
		}
		_, err = e.api.CompleteTask(id)
		return err

	case opqueue.KindTimerComplete:
		var insert models.InsertTimerSession
		if err := json.Unmarshal(op.Payload, &insert); err != nil {
			return fmt.Errorf("decode timer payload: %w", err)
		}
		if insert.TaskID != "" {
			resolved, err := e.remap.Resolve(ident.Local(insert.TaskID))
			if err == nil && !resolved.IsLocal() {
				insert.TaskID = resolved.String()
			}
		}
		_, err := e.api.CompleteTimer(insert)
		return err

	default:
		return fmt.Errorf("unknown operation kind %q", op.Kind)
	}
}

// discardLocalOnly drops an unrecoverable operation and removes the task
// it references from the cache.
func (e *Engine) discardLocalOnly(op opqueue.Operation) {
	if err := e.queue.Dequeue(op.ID); err != nil {
		slog.Warn("sync: dequeue unrecoverable", "op", op.ID, "err", err)
	}
	var ref opqueue.TaskRef
	if err := json.Unmarshal(op.Payload, &ref); err != nil {
		return
	}
	if _, err := e.store.RemoveTask(ref.ID); err != nil {
		slog.Warn("sync: purge local task", "id", ref.ID, "err", err)
	}
}

// FetchAndReplaceCache fetches the authoritative task list and progress
// snapshot concurrently and replaces both caches wholesale. If either
// request fails the cache is left untouched.
func (e *Engine) FetchAndReplaceCache() error {
	type tasksResult struct {
		tasks []models.Task
		err   error
	}
	type progressResult struct {
		progress *models.UserProgress
		err      error
	}

	tasksCh := make(chan tasksResult, 1)
	progressCh := make(chan progressResult, 1)
	go func() {
		tasks, err := e.api.ListTasks()
		tasksCh <- tasksResult{tasks, err}
	}()
	go func() {
		progress, err := e.api.Progress()
		progressCh <- progressResult{progress, err}
	}()

	tr := <-tasksCh
	pr := <-progressCh
	if tr.err != nil {
		return fmt.Errorf("fetch tasks: %w", tr.err)
	}
	if pr.err != nil {
		return fmt.Errorf("fetch progress: %w", pr.err)
	}

	// Results applied sequentially; write failures follow the storage
	// policy (logged, not propagated).
	if err := e.store.SetTasks(tr.tasks); err != nil {
		slog.Warn("sync: cache tasks", "err", err)
	}
	if err := e.store.SetProgress(*pr.progress); err != nil {
		slog.Warn("sync: cache progress", "err", err)
	}
	if err := e.store.SetLastSync(time.Now()); err != nil {
		slog.Warn("sync: record last sync", "err", err)
	}

	if e.onRefresh != nil {
		e.onRefresh()
	}
	return nil
}

// FullSync replays the queue, then refreshes the cache. Replay runs first
// so queued intents are applied before the server's state overwrites the
// cache. Only one full sync runs at a time; a second concurrent call gets
// ErrSyncInFlight.
func (e *Engine) FullSync() (Summary, error) {
	if !e.syncing.CompareAndSwap(false, true) {
		return Summary{}, ErrSyncInFlight
	}
	defer e.syncing.Store(false)

	summary := e.ReplayQueue()
	return summary, e.FetchAndReplaceCache()
}
