package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/jrsteele09/go-taskboard/app"
	"github.com/jrsteele09/go-taskboard/internal/config"
	"github.com/jrsteele09/go-taskboard/internal/logging"
	"github.com/jrsteele09/go-taskboard/sessions/sqlitestore"
)

type command struct {
	usage string
	run   func(ctx context.Context, a *app.App, args []string) error
}

var commands = map[string]command{
	"login":              {"login --email E --password P", loginCmd},
	"register":           {"register --name N --email E --password P", registerCmd},
	"logout":             {"logout", logoutCmd},
	"whoami":             {"whoami", whoamiCmd},
	"tasks list":         {"tasks list [--status S] [--mine]", tasksListCmd},
	"tasks get":          {"tasks get ID", tasksGetCmd},
	"tasks create":       {"tasks create --title T --description D --assignee U --deadline RFC3339|DURATION", tasksCreateCmd},
	"tasks update":       {"tasks update ID [--title T] [--description D] [--assignee U] [--deadline ...] [--status S]", tasksUpdateCmd},
	"tasks delete":       {"tasks delete ID", tasksDeleteCmd},
	"chat conversations": {"chat conversations", chatConversationsCmd},
	"chat messages":      {"chat messages PARTICIPANT", chatMessagesCmd},
	"chat send":          {"chat send --to U MESSAGE...", chatSendCmd},
	"chat watch":         {"chat watch [--with U]", chatWatchCmd},
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	name, rest, ok := lookup(args)
	if !ok {
		usage()
		return fmt.Errorf("unknown command %q", strings.Join(args, " "))
	}

	cfg := config.New()
	logging.Setup(cfg.GetEnv(), cfg.GetLogLevel())

	repo, err := sqlitestore.Open(cfg.GetSessionDB())
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			log.Err(err).Msg("failed to close session store")
		}
	}()

	a, err := app.New(cfg, repo)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return commands[name].run(ctx, a, rest)
}

// lookup matches the longest command name at the start of args.
func lookup(args []string) (string, []string, bool) {
	if len(args) >= 2 {
		if _, ok := commands[args[0]+" "+args[1]]; ok {
			return args[0] + " " + args[1], args[2:], true
		}
	}
	if len(args) >= 1 {
		if _, ok := commands[args[0]]; ok {
			return args[0], args[1:], true
		}
	}
	return "", nil, false
}

func usage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(os.Stderr, "usage: taskboard COMMAND [flags]")
	for _, name := range names {
		fmt.Fprintln(os.Stderr, "  "+commands[name].usage)
	}
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	return fs
}
