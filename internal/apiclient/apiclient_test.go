package apiclient

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hazel/sprout/internal/ident"
	"github.com/hazel/sprout/internal/models"
)

func TestAuthHeaderSent(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]models.Task{})
	}))
	defer srv.Close()

	client := New(srv.URL, "key123")
	if _, err := client.ListTasks(); err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotAuth != "Bearer key123" {
		t.Errorf("auth header: got %q", gotAuth)
	}
}

func TestErrorSentinels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tasks/gone":
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "no such task"})
		case "/api/progress":
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	}))
	defer srv.Close()

	client := New(srv.URL, "")

	err := client.DeleteTask(ident.Remote("gone"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("delete missing: got %v, want ErrNotFound", err)
	}

	_, err = client.Progress()
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("progress: got %v, want ErrUnauthorized", err)
	}
}

func TestCreateTaskRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/tasks" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var insert models.InsertTask
		if err := json.NewDecoder(r.Body).Decode(&insert); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(models.Task{
			ID:    ident.Remote("srv_1"),
			Title: insert.Title,
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "")
	task, err := client.CreateTask(models.InsertTask{Title: "Water plants"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.ID != ident.Remote("srv_1") || task.Title != "Water plants" {
		t.Errorf("created task: %+v", task)
	}
}

func TestCompleteTaskPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(models.Task{ID: ident.Remote("t1"), Completed: true})
	}))
	defer srv.Close()

	client := New(srv.URL, "")
	task, err := client.CompleteTask(ident.Remote("t1"))
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if gotPath != "/api/tasks/t1/complete" {
		t.Errorf("path: got %q", gotPath)
	}
	if !task.Completed {
		t.Error("task not completed in response")
	}
}

func TestUnreachableServerIsOffline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	client := New(srv.URL, "")
	_, err := client.ListTasks()
	if !errors.Is(err, ErrOffline) {
		t.Errorf("dead server: got %v, want ErrOffline", err)
	}
}

func TestPlainErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	client := New(srv.URL, "")
	_, err := client.ListTasks()
	if err == nil {
		t.Fatal("expected error for 500")
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnauthorized) {
		t.Errorf("500 mapped to a sentinel: %v", err)
	}
}
