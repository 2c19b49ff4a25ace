package server

import (
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-taskboard/internal/config"
	"github.com/jrsteele09/go-taskboard/server/messagerepo"
	"github.com/jrsteele09/go-taskboard/server/taskrepo"
	"github.com/jrsteele09/go-taskboard/token"
	"github.com/jrsteele09/go-taskboard/token/refresh"
	refreshrepofake "github.com/jrsteele09/go-taskboard/token/refresh/repofake"
	"github.com/jrsteele09/go-taskboard/users"
	fakeuserrepo "github.com/jrsteele09/go-taskboard/users/repofake"
)

// APIPrefix is where the REST routes are mounted.
const APIPrefix = "/api"

// RouteWS is the realtime endpoint.
const RouteWS = "/ws"

// Repos groups the storage the backend runs on.
type Repos struct {
	Users         users.UserRepo
	RefreshTokens refresh.Repo
	Tasks         taskrepo.Repo
	Messages      messagerepo.Repo
}

// NewInMemoryRepos returns repos that live for the lifetime of the process.
func NewInMemoryRepos() Repos {
	return Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
		Tasks:         taskrepo.NewInMemoryTaskRepo(),
		Messages:      messagerepo.NewInMemoryMessageRepo(),
	}
}

type Server struct {
	env     string // Environment (e.g., "DEV", "production")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	repos   Repos
	tokens  *token.Manager
	refresh *refresh.Manager
	hub     *Hub
	nowFunc func() time.Time

	failRefresh atomic.Bool
}

type Option func(*Server)

// WithNowFunc replaces the clock used for tokens and timestamps.
func WithNowFunc(now func() time.Time) Option {
	return func(s *Server) {
		s.nowFunc = now
	}
}

func New(cfg config.Config, repos Repos, opts ...Option) (*Server, error) {
	if cfg.GetJWTSecret() == "" {
		return nil, fmt.Errorf("[Server New] a JWT secret is required")
	}
	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		config:  cfg,
		repos:   repos,
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.tokens = token.New(token.NewHMACSigner(cfg.GetJWTSecret()),
		token.WithIssuer(cfg.GetIssuer()),
		token.WithTokenExpiry(cfg.GetAccessTokenExpiry()),
		token.WithNowFunc(s.nowFunc),
	)
	s.refresh = refresh.NewManager(repos.RefreshTokens, cfg).WithNowFunc(s.nowFunc)
	s.hub = NewHub(repos.Messages, s.nowFunc)

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Hub exposes the realtime hub, mainly for tests.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Close disconnects every realtime client.
func (s *Server) Close() {
	s.hub.Close()
}

// FailRefresh makes every refresh request fail with 401 while set.
func (s *Server) FailRefresh(fail bool) {
	s.failRefresh.Store(fail)
}

// ExpireAccessToken makes raw fail validation as an expired token.
func (s *Server) ExpireAccessToken(raw string) error {
	return s.tokens.Revoke(raw)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Debug().Msgf("[%-19s] %s", colourMethod(method), path)
}
