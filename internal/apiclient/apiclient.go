// Package apiclient is the HTTP client for the sprout server's task,
// progress, and timer endpoints.
package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hazel/sprout/internal/ident"
	"github.com/hazel/sprout/internal/models"
)

// Sentinel errors for common failure classes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	// ErrOffline marks transport-level failures: the server never saw
	// the request, so retrying after reconnect is always safe.
	ErrOffline = errors.New("server unreachable")
)

// Client talks to the sprout server.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// New creates a new API client. The request timeout bounds every call so a
// hung request fails a sync pass instead of wedging it.
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// TimerCompleteResponse is the response from POST /api/timer/complete.
type TimerCompleteResponse struct {
	Session  models.TimerSession `json:"session"`
	Progress models.UserProgress `json:"progress"`
}

// HealthResponse is the response from GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthCheck verifies server reachability.
func (c *Client) HealthCheck() (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.do("GET", "/healthz", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListTasks fetches the authoritative task list.
func (c *Client) ListTasks() ([]models.Task, error) {
	var tasks []models.Task
	if err := c.do("GET", "/api/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask creates a task and returns the server's canonical record,
// including the server-issued identifier.
func (c *Client) CreateTask(insert models.InsertTask) (*models.Task, error) {
	var task models.Task
	if err := c.do("POST", "/api/tasks", insert, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask patches the given fields on a task.
func (c *Client) UpdateTask(id ident.TaskID, updates models.TaskUpdate) (*models.Task, error) {
	var task models.Task
	if err := c.do("PATCH", "/api/tasks/"+url.PathEscape(id.String()), updates, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(id ident.TaskID) error {
	return c.do("DELETE", "/api/tasks/"+url.PathEscape(id.String()), nil, nil)
}

// CompleteTask marks a task done; the server awards points and stickers.
func (c *Client) CompleteTask(id ident.TaskID) (*models.Task, error) {
	var task models.Task
	if err := c.do("POST", "/api/tasks/"+url.PathEscape(id.String())+"/complete", nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Progress fetches the aggregate progress snapshot.
func (c *Client) Progress() (*models.UserProgress, error) {
	var p models.UserProgress
	if err := c.do("GET", "/api/progress", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CompleteTimer reports a finished focus-timer run and returns the session
// plus the refreshed progress snapshot.
func (c *Client) CompleteTimer(insert models.InsertTimerSession) (*TimerCompleteResponse, error) {
	var resp TimerCompleteResponse
	if err := c.do("POST", "/api/timer/complete", insert, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// apiError is the standard error body from the server.
type apiError struct {
	Message string `json:"error"`
}

func (e *apiError) Error() string { return e.Message }

func (c *Client) do(method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOffline, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			switch resp.StatusCode {
			case http.StatusUnauthorized:
				return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Message)
			case http.StatusNotFound:
				return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
			default:
				return &apiErr
			}
		}
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return ErrUnauthorized
		case http.StatusNotFound:
			return ErrNotFound
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
