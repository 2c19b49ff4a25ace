// Package tasks performs task CRUD against the backend and mirrors every
// outcome into the store.
package tasks

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-taskboard/api"
	taskerrors "github.com/jrsteele09/go-taskboard/internal/errors"
	"github.com/jrsteele09/go-taskboard/model"
	"github.com/jrsteele09/go-taskboard/store"
)

type Service struct {
	client  *api.Client
	store   *store.Store
	nowTime func() time.Time
}

type ServiceOption func(*Service)

// WithNowTime sets the clock used for deadline validation (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func NewService(client *api.Client, st *store.Store, options ...ServiceOption) (*Service, error) {
	if client == nil {
		return nil, errors.New("[tasks NewService] API client is required")
	}
	if st == nil {
		return nil, errors.New("[tasks NewService] store is required")
	}
	s := &Service{client: client, store: st, nowTime: time.Now}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// List fetches every task visible to the session user.
func (s *Service) List(ctx context.Context) ([]model.Task, error) {
	s.store.Dispatch(store.TasksPending{})
	var tasks []model.Task
	if err := s.client.Do(ctx, api.Request{Method: http.MethodGet, Path: api.RouteTasks}, &tasks); err != nil {
		return nil, s.fail(err, "Failed to fetch tasks")
	}
	s.store.Dispatch(store.TasksLoaded{Tasks: tasks})
	return tasks, nil
}

// Get fetches one task and makes it current. A 404 marks the task not found
// and drops it from the cached list.
func (s *Service) Get(ctx context.Context, id string) (*model.Task, error) {
	s.store.Dispatch(store.TasksPending{})
	var task model.Task
	if err := s.client.Do(ctx, api.Request{Method: http.MethodGet, Path: api.TaskPath(id)}, &task); err != nil {
		if taskerrors.Is(err, taskerrors.ErrNotFound) {
			s.store.Dispatch(store.TaskNotFound{ID: id})
			return nil, err
		}
		return nil, s.fail(err, "Failed to fetch task")
	}
	s.store.Dispatch(store.TaskLoaded{Task: task})
	return &task, nil
}

func (s *Service) Create(ctx context.Context, req model.CreateTaskRequest) (*model.Task, error) {
	if err := ValidateCreate(req, s.nowTime()); err != nil {
		s.store.Dispatch(store.TasksFailed{Error: err.Error()})
		return nil, err
	}
	s.store.Dispatch(store.TasksPending{})
	var task model.Task
	if err := s.client.Do(ctx, api.Request{Method: http.MethodPost, Path: api.RouteTasks, Body: req}, &task); err != nil {
		return nil, s.fail(err, "Failed to create task")
	}
	log.Info().Str("task", task.ID).Msg("task created")
	s.store.Dispatch(store.TaskCreated{Task: task})
	return &task, nil
}

func (s *Service) Update(ctx context.Context, req model.UpdateTaskRequest) (*model.Task, error) {
	if err := ValidateUpdate(req); err != nil {
		s.store.Dispatch(store.TasksFailed{Error: err.Error()})
		return nil, err
	}
	s.store.Dispatch(store.TasksPending{})
	var task model.Task
	if err := s.client.Do(ctx, api.Request{Method: http.MethodPut, Path: api.TaskPath(req.ID), Body: req}, &task); err != nil {
		if taskerrors.Is(err, taskerrors.ErrNotFound) {
			s.store.Dispatch(store.TaskNotFound{ID: req.ID})
			return nil, err
		}
		return nil, s.fail(err, "Failed to update task")
	}
	s.store.Dispatch(store.TaskUpdated{Task: task})
	return &task, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	s.store.Dispatch(store.TasksPending{})
	if err := s.client.Do(ctx, api.Request{Method: http.MethodDelete, Path: api.TaskPath(id)}, nil); err != nil {
		return s.fail(err, "Failed to delete task")
	}
	s.store.Dispatch(store.TaskDeleted{ID: id})
	return nil
}

// ClearCurrent forgets the task selected by Get.
func (s *Service) ClearCurrent() {
	s.store.Dispatch(store.CurrentTaskCleared{})
}

func (s *Service) fail(err error, fallback string) error {
	log.Debug().Err(err).Msg(fallback)
	s.store.Dispatch(store.TasksFailed{Error: api.Message(err, fallback)})
	return err
}
