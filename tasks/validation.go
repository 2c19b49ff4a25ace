package tasks

import (
	"strings"
	"time"

	taskerrors "github.com/jrsteele09/go-taskboard/internal/errors"
	"github.com/jrsteele09/go-taskboard/model"
)

// ValidateCreate checks a new task. now is the reference for the deadline check.
func ValidateCreate(req model.CreateTaskRequest, now time.Time) error {
	fields := map[string]string{}
	required(fields, "title", "Title", req.Title)
	required(fields, "description", "Description", req.Description)
	required(fields, "assigneeId", "Assignee", req.AssigneeID)
	switch {
	case req.Deadline.IsZero():
		fields["deadline"] = "Deadline is required"
	case req.Deadline.Before(now):
		fields["deadline"] = "Deadline cannot be in the past"
	}
	return taskerrors.NewValidationError(fields)
}

// ValidateUpdate checks the fields present in a partial update.
func ValidateUpdate(req model.UpdateTaskRequest) error {
	fields := map[string]string{}
	if req.ID == "" {
		fields["id"] = "Task id is required"
	}
	if req.Title != nil {
		required(fields, "title", "Title", *req.Title)
	}
	if req.Description != nil {
		required(fields, "description", "Description", *req.Description)
	}
	if req.AssigneeID != nil {
		required(fields, "assigneeId", "Assignee", *req.AssigneeID)
	}
	if req.Status != nil && !req.Status.Valid() {
		fields["status"] = "Status is invalid"
	}
	if req.Deadline != nil && req.Deadline.IsZero() {
		fields["deadline"] = "Deadline is required"
	}
	return taskerrors.NewValidationError(fields)
}

func required(fields map[string]string, key, label, value string) {
	if strings.TrimSpace(value) == "" {
		fields[key] = label + " is required"
	}
}
