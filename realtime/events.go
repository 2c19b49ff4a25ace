package realtime

import (
	"encoding/json"

	taskerrors "github.com/jrsteele09/go-taskboard/internal/errors"
	"github.com/jrsteele09/go-taskboard/model"
)

// Event names carried in the "event" field of a frame.
const (
	EventMessage     = "message"
	EventTaskCreated = "task_created"
	EventTaskUpdated = "task_updated"
	EventError       = "error"

	EventSendMessage = "send_message"
	EventJoinRoom    = "join_room"
	EventLeaveRoom   = "leave_room"
)

// Frame is the JSON envelope exchanged over the socket in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type RoomPayload struct {
	RoomID string `json:"roomId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// NewFrame encodes data as the payload of event.
func NewFrame(event string, data any) (Frame, error) {
	if data == nil {
		return Frame{Event: event}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Frame{}, taskerrors.Wrapf(err, "[realtime NewFrame] encode %s", event)
	}
	return Frame{Event: event, Data: raw}, nil
}

// DecodeMessage decodes the payload of a message event.
func DecodeMessage(f Frame) (model.Message, error) {
	var m model.Message
	if err := json.Unmarshal(f.Data, &m); err != nil {
		return m, taskerrors.Wrapf(err, "[realtime DecodeMessage] %s", f.Event)
	}
	return m, nil
}

// DecodeTask decodes the payload of a task_created or task_updated event.
func DecodeTask(f Frame) (model.Task, error) {
	var t model.Task
	if err := json.Unmarshal(f.Data, &t); err != nil {
		return t, taskerrors.Wrapf(err, "[realtime DecodeTask] %s", f.Event)
	}
	return t, nil
}

// DecodeData decodes the payload of f into v.
func DecodeData(f Frame, v any) error {
	if err := json.Unmarshal(f.Data, v); err != nil {
		return taskerrors.Wrapf(err, "[realtime DecodeData] %s", f.Event)
	}
	return nil
}
