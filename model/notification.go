package model

import "time"

type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
)

// Notification is a toast-style message surfaced to the user.
type Notification struct {
	ID      string           `json:"id"`
	Message string           `json:"message"`
	Type    NotificationType `json:"type"`
	Timeout time.Duration    `json:"timeout,omitempty"`
}
