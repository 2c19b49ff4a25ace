package api

import "net/url"

// REST routes relative to the API base URL. Shared with the reference backend.
const (
	RouteAuthLogin    = "/auth/login"
	RouteAuthRegister = "/auth/register"
	RouteAuthRefresh  = "/auth/refresh"

	RouteTasks = "/tasks"
	RouteTask  = "/tasks/{id}"

	RouteConversations = "/chat/conversations"
	RouteMessages      = "/chat/messages"
	RouteMessagesWith  = "/chat/messages/{participantId}"
	RouteMessagesRead  = "/chat/messages/read/{participantId}"
)

func TaskPath(id string) string {
	return RouteTasks + "/" + url.PathEscape(id)
}

func MessagesWithPath(participantID string) string {
	return RouteMessages + "/" + url.PathEscape(participantID)
}

func MessagesReadPath(participantID string) string {
	return RouteMessages + "/read/" + url.PathEscape(participantID)
}
