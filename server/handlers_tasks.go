package server

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-taskboard/internal/utils"
	"github.com/jrsteele09/go-taskboard/model"
	"github.com/jrsteele09/go-taskboard/realtime"
	"github.com/jrsteele09/go-taskboard/server/taskrepo"
	"github.com/jrsteele09/go-taskboard/tasks"
)

func (s *Server) ListTasksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.repos.Tasks.List()
		if err != nil {
			log.Err(err).Msg("[ListTasksHandler] failed to list tasks")
			writeJSONError(w, "server_error", "Failed to fetch tasks", http.StatusInternalServerError)
			return
		}
		writeJSON(w, list, http.StatusOK)
	}
}

func (s *Server) GetTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		task, err := s.repos.Tasks.Get(r.PathValue("id"))
		if err != nil {
			s.taskError(w, err, "Failed to fetch task")
			return
		}
		writeJSON(w, task, http.StatusOK)
	}
}

// CreateTaskHandler stores a new task and pushes task_created to its assignee.
func (s *Server) CreateTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.CreateTaskRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		now := s.nowFunc().UTC()
		if err := tasks.ValidateCreate(req, now); err != nil {
			writeValidationError(w, err)
			return
		}

		task := model.Task{
			ID:          uuid.New().String(),
			Title:       req.Title,
			Description: req.Description,
			Status:      model.TaskStatusNew,
			AssigneeID:  req.AssigneeID,
			Deadline:    req.Deadline,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repos.Tasks.Upsert(task); err != nil {
			s.taskError(w, err, "Failed to create task")
			return
		}
		s.hub.Push(realtime.EventTaskCreated, task, task.AssigneeID)
		writeJSON(w, task, http.StatusCreated)
	}
}

// UpdateTaskHandler applies a partial update and pushes task_updated to the
// assignee, and to the previous assignee when it changed.
func (s *Server) UpdateTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.UpdateTaskRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		req.ID = r.PathValue("id")
		if err := tasks.ValidateUpdate(req); err != nil {
			writeValidationError(w, err)
			return
		}

		task, err := s.repos.Tasks.Get(req.ID)
		if err != nil {
			s.taskError(w, err, "Failed to update task")
			return
		}
		previousAssignee := task.AssigneeID
		applyUpdate(&task, req)
		task.UpdatedAt = s.nowFunc().UTC()

		if err := s.repos.Tasks.Upsert(task); err != nil {
			s.taskError(w, err, "Failed to update task")
			return
		}
		s.hub.Push(realtime.EventTaskUpdated, task, task.AssigneeID, previousAssignee)
		writeJSON(w, task, http.StatusOK)
	}
}

func (s *Server) DeleteTaskHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.repos.Tasks.Delete(r.PathValue("id")); err != nil {
			s.taskError(w, err, "Failed to delete task")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func applyUpdate(task *model.Task, req model.UpdateTaskRequest) {
	task.Title = utils.ValueOr(req.Title, task.Title)
	task.Description = utils.ValueOr(req.Description, task.Description)
	task.Status = utils.ValueOr(req.Status, task.Status)
	task.AssigneeID = utils.ValueOr(req.AssigneeID, task.AssigneeID)
	task.Deadline = utils.ValueOr(req.Deadline, task.Deadline)
}

func (s *Server) taskError(w http.ResponseWriter, err error, description string) {
	if errors.Is(err, taskrepo.ErrNotFound) {
		writeJSONError(w, "not_found", "Task not found", http.StatusNotFound)
		return
	}
	log.Err(err).Msg(description)
	writeJSONError(w, "server_error", description, http.StatusInternalServerError)
}
