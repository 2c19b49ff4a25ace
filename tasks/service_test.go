package tasks_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-taskboard/api"
	taskerrors "github.com/jrsteele09/go-taskboard/internal/errors"
	"github.com/jrsteele09/go-taskboard/internal/utils"
	"github.com/jrsteele09/go-taskboard/model"
	"github.com/jrsteele09/go-taskboard/sessions"
	"github.com/jrsteele09/go-taskboard/sessions/repofakes"
	"github.com/jrsteele09/go-taskboard/store"
	"github.com/jrsteele09/go-taskboard/tasks"
)

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// taskBackend is an in-memory /tasks endpoint.
type taskBackend struct {
	mu    sync.Mutex
	tasks map[string]model.Task
	seq   int
	fail  bool
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func (b *taskBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tasks", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.fail {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "database unavailable"})
			return
		}
		out := []model.Task{}
		for _, t := range b.tasks {
			out = append(out, t)
		}
		writeJSON(w, http.StatusOK, out)
	})
	mux.HandleFunc("GET /api/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		t, ok := b.tasks[r.PathValue("id")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Task not found"})
			return
		}
		writeJSON(w, http.StatusOK, t)
	})
	mux.HandleFunc("POST /api/tasks", func(w http.ResponseWriter, r *http.Request) {
		var req model.CreateTaskRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		defer b.mu.Unlock()
		b.seq++
		t := model.Task{
			ID: fmt.Sprintf("t%d", b.seq), Title: req.Title, Description: req.Description,
			AssigneeID: req.AssigneeID, Deadline: req.Deadline, Status: model.TaskStatusNew,
		}
		b.tasks[t.ID] = t
		writeJSON(w, http.StatusCreated, t)
	})
	mux.HandleFunc("PUT /api/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req model.UpdateTaskRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		defer b.mu.Unlock()
		t, ok := b.tasks[r.PathValue("id")]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Task not found"})
			return
		}
		if req.Status != nil {
			t.Status = *req.Status
		}
		if req.Title != nil {
			t.Title = *req.Title
		}
		b.tasks[t.ID] = t
		writeJSON(w, http.StatusOK, t)
	})
	mux.HandleFunc("DELETE /api/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.tasks, r.PathValue("id"))
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

type fixture struct {
	backend *taskBackend
	store   *store.Store
	service *tasks.Service
}

func setup(t *testing.T) *fixture {
	b := &taskBackend{tasks: map[string]model.Task{}}
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)

	sm := sessions.NewManager(repofakes.NewFakeSessionRepo())
	_, err := sm.Set(model.AuthResponse{Token: "access", RefreshToken: "refresh", User: model.User{ID: "u1"}})
	require.NoError(t, err)

	st := store.New()
	svc, err := tasks.NewService(api.NewClient(srv.URL+"/api", 5*time.Second, nil, sm), st,
		tasks.WithNowTime(func() time.Time { return now }))
	require.NoError(t, err)
	return &fixture{backend: b, store: st, service: svc}
}

func validCreate() model.CreateTaskRequest {
	return model.CreateTaskRequest{Title: "Ship it", Description: "Release 1.0", AssigneeID: "u2", Deadline: now.Add(24 * time.Hour)}
}

func TestService_CreateListUpdateDelete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.service.Create(ctx, validCreate())
	require.NoError(t, err)
	require.Equal(t, "Ship it", created.Title)
	require.Len(t, f.store.State().Tasks.Tasks, 1)

	list, err := f.service.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.False(t, f.store.State().Tasks.Loading)

	updated, err := f.service.Update(ctx, model.UpdateTaskRequest{ID: created.ID, Status: utils.Ptr(model.TaskStatusCompleted)})
	require.NoError(t, err)
	require.Equal(t, model.TaskStatusCompleted, updated.Status)
	require.Equal(t, model.TaskStatusCompleted, f.store.State().Tasks.Tasks[0].Status)

	got, err := f.service.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, f.store.State().Tasks.Current.ID)
	require.Equal(t, got.ID, created.ID)

	require.NoError(t, f.service.Delete(ctx, created.ID))
	st := f.store.State().Tasks
	require.Empty(t, st.Tasks)
	require.Nil(t, st.Current)
}

func TestService_GetNotFound(t *testing.T) {
	f := setup(t)

	_, err := f.service.Get(context.Background(), "missing")
	require.ErrorIs(t, err, taskerrors.ErrNotFound)

	st := f.store.State().Tasks
	require.True(t, st.NotFound)
	require.Nil(t, st.Current)
	require.Equal(t, "Task not found", st.Error)

	f.service.ClearCurrent()
	require.False(t, f.store.State().Tasks.NotFound)
}

func TestService_ServerErrorReducedToMessage(t *testing.T) {
	f := setup(t)
	f.backend.mu.Lock()
	f.backend.fail = true
	f.backend.mu.Unlock()

	_, err := f.service.List(context.Background())
	require.ErrorIs(t, err, taskerrors.ErrServer)
	require.Equal(t, "database unavailable", f.store.State().Tasks.Error)
	require.False(t, f.store.State().Tasks.Loading)
}

func TestService_CreateValidation(t *testing.T) {
	f := setup(t)

	req := validCreate()
	req.Deadline = now.Add(-time.Minute)
	_, err := f.service.Create(context.Background(), req)
	require.ErrorIs(t, err, taskerrors.ErrValidation)

	f.backend.mu.Lock()
	require.Empty(t, f.backend.tasks)
	f.backend.mu.Unlock()
}

func TestValidateCreate(t *testing.T) {
	err := tasks.ValidateCreate(model.CreateTaskRequest{}, now)
	var verr *taskerrors.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Fields, 4)
	require.Equal(t, "Deadline is required", verr.Fields["deadline"])

	req := validCreate()
	req.Deadline = now.Add(-time.Hour)
	require.ErrorAs(t, tasks.ValidateCreate(req, now), &verr)
	require.Equal(t, "Deadline cannot be in the past", verr.Fields["deadline"])

	require.NoError(t, tasks.ValidateCreate(validCreate(), now))
}

func TestValidateUpdate(t *testing.T) {
	require.NoError(t, tasks.ValidateUpdate(model.UpdateTaskRequest{ID: "t1"}))

	var verr *taskerrors.ValidationError
	err := tasks.ValidateUpdate(model.UpdateTaskRequest{ID: "t1", Status: utils.Ptr(model.TaskStatus("archived")), Title: utils.Ptr(" ")})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "Status is invalid", verr.Fields["status"])
	require.Equal(t, "Title is required", verr.Fields["title"])

	require.Error(t, tasks.ValidateUpdate(model.UpdateTaskRequest{}))
}
