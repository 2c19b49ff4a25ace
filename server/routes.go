package server

import (
	"github.com/jrsteele09/go-taskboard/api"
)

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteHandler("POST "+APIPrefix+api.RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+APIPrefix+api.RouteAuthRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+APIPrefix+api.RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))

	// TASKS
	s.RegisterRouteHandler("GET "+APIPrefix+api.RouteTasks, ChainMiddleware(s.ListTasksHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("POST "+APIPrefix+api.RouteTasks, ChainMiddleware(s.CreateTaskHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+APIPrefix+api.RouteTask, ChainMiddleware(s.GetTaskHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("PUT "+APIPrefix+api.RouteTask, ChainMiddleware(s.UpdateTaskHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("DELETE "+APIPrefix+api.RouteTask, ChainMiddleware(s.DeleteTaskHandler(), s.APIMiddleware(s.RequireAuth())...))

	// CHAT
	s.RegisterRouteHandler("GET "+APIPrefix+api.RouteConversations, ChainMiddleware(s.ConversationsHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+APIPrefix+api.RouteMessagesWith, ChainMiddleware(s.MessagesHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("POST "+APIPrefix+api.RouteMessages, ChainMiddleware(s.SendMessageHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("PUT "+APIPrefix+api.RouteMessagesRead, ChainMiddleware(s.MarkReadHandler(), s.APIMiddleware(s.RequireAuth())...))

	// Preflight for every API route
	s.RegisterRouteHandler("OPTIONS "+APIPrefix+"/", ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))

	// REALTIME
	s.RegisterRouteHandler("GET "+RouteWS, ChainMiddleware(s.WebsocketHandler(), s.LoggingMiddleware, s.RecoverMiddleware, s.RequireAuth()))
}
