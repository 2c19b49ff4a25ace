package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-taskboard/internal/config"
	"github.com/jrsteele09/go-taskboard/internal/logging"
	"github.com/jrsteele09/go-taskboard/server"
	"github.com/jrsteele09/go-taskboard/server/pgstore"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("Recovered from panic: %v", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	logging.Setup(c.GetEnv(), c.GetLogLevel())
	displayAppname(c.GetAppName())

	repos, closeRepos, err := openRepos(c.GetDatabaseURL())
	if err != nil {
		return err
	}
	defer closeRepos()

	handler, err := server.New(c, repos)
	if err != nil {
		return err
	}
	defer handler.Close()

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(httpServer)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

// openRepos uses Postgres when dsn is set, memory otherwise.
func openRepos(dsn string) (server.Repos, func(), error) {
	if dsn == "" {
		log.Info().Msg("DATABASE_URL not set, keeping data in memory")
		return server.NewInMemoryRepos(), func() {}, nil
	}
	if err := pgstore.Migrate(dsn, "up"); err != nil {
		return server.Repos{}, nil, err
	}
	db, err := pgstore.Open(dsn)
	if err != nil {
		return server.Repos{}, nil, err
	}
	pg := pgstore.NewRepos(db)
	closeDB := func() {
		if err := db.Close(); err != nil {
			log.Err(err).Msg("failed to close database")
		}
	}
	return server.Repos{
		Users:         pg.Users,
		RefreshTokens: pg.RefreshTokens,
		Tasks:         pg.Tasks,
		Messages:      pg.Messages,
	}, closeDB, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
