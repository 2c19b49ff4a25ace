package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/jrsteele09/go-taskboard/api"
	"github.com/jrsteele09/go-taskboard/app"
	"github.com/jrsteele09/go-taskboard/model"
	"github.com/jrsteele09/go-taskboard/store"
)

var errNotLoggedIn = errors.New("not logged in, run: taskboard login")

func loginCmd(ctx context.Context, a *app.App, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	sess, err := a.Auth.Login(ctx, model.LoginRequest{Email: *email, Password: *password})
	if err != nil {
		return errors.New(api.Message(err, a.Store.State().Auth.Error))
	}
	fmt.Printf("Logged in as %s <%s>\n", sess.User.Name, sess.User.Email)
	return nil
}

func registerCmd(ctx context.Context, a *app.App, args []string) error {
	fs := newFlagSet("register")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	sess, err := a.Auth.Register(ctx, model.RegisterRequest{
		Name:                 *name,
		Email:                *email,
		Password:             *password,
		PasswordConfirmation: *password,
	})
	if err != nil {
		return errors.New(api.Message(err, a.Store.State().Auth.Error))
	}
	fmt.Printf("Registered %s <%s> (%s)\n", sess.User.Name, sess.User.Email, sess.User.ID)
	return nil
}

func logoutCmd(_ context.Context, a *app.App, _ []string) error {
	a.Auth.Logout()
	fmt.Println("Logged out")
	return nil
}

func whoamiCmd(_ context.Context, a *app.App, _ []string) error {
	s := a.Sessions.Current()
	if s == nil {
		return errNotLoggedIn
	}
	fmt.Printf("%s <%s> (%s)\n", s.User.Name, s.User.Email, s.User.ID)
	return nil
}

func tasksListCmd(ctx context.Context, a *app.App, args []string) error {
	fs := newFlagSet("tasks list")
	status := fs.String("status", "", "only tasks with this status")
	mine := fs.Bool("mine", false, "only tasks assigned to me")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.Tasks.List(ctx); err != nil {
		return errors.New(a.Store.State().Tasks.Error)
	}

	state := a.Store.State().Tasks
	list := state.Tasks
	if *status != "" {
		list = state.ByStatus(model.TaskStatus(*status))
	}
	if *mine {
		filtered := list[:0:0]
		for _, t := range list {
			if t.AssigneeID == a.Sessions.UserID() {
				filtered = append(filtered, t)
			}
		}
		list = filtered
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tDEADLINE\tASSIGNEE\tTITLE")
	for _, t := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Deadline.Local().Format(time.DateTime), t.AssigneeID, t.Title)
	}
	return w.Flush()
}

func tasksGetCmd(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: taskboard tasks get ID")
	}
	t, err := a.Tasks.Get(ctx, args[0])
	if err != nil {
		return errors.New(a.Store.State().Tasks.Error)
	}
	return printJSON(t)
}

func tasksCreateCmd(ctx context.Context, a *app.App, args []string) error {
	fs := newFlagSet("tasks create")
	title := fs.String("title", "", "task title")
	description := fs.String("description", "", "task description")
	assignee := fs.String("assignee", "", "assignee user id (defaults to me)")
	deadline := fs.String("deadline", "", "RFC3339 time or a duration from now, e.g. 48h")
	if err := fs.Parse(args); err != nil {
		return err
	}
	req := model.CreateTaskRequest{Title: *title, Description: *description, AssigneeID: *assignee}
	if req.AssigneeID == "" {
		req.AssigneeID = a.Sessions.UserID()
	}
	if *deadline != "" {
		d, err := parseDeadline(*deadline, time.Now())
		if err != nil {
			return err
		}
		req.Deadline = d
	}
	t, err := a.Tasks.Create(ctx, req)
	if err != nil {
		return errors.New(api.Message(err, a.Store.State().Tasks.Error))
	}
	return printJSON(t)
}

func tasksUpdateCmd(ctx context.Context, a *app.App, args []string) error {
	fs := newFlagSet("tasks update")
	title := fs.String("title", "", "task title")
	description := fs.String("description", "", "task description")
	assignee := fs.String("assignee", "", "assignee user id")
	deadline := fs.String("deadline", "", "RFC3339 time or a duration from now")
	status := fs.String("status", "", "new, in_progress or completed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: taskboard tasks update ID [flags]")
	}

	req := model.UpdateTaskRequest{ID: fs.Arg(0)}
	if fs.Changed("title") {
		req.Title = title
	}
	if fs.Changed("description") {
		req.Description = description
	}
	if fs.Changed("assignee") {
		req.AssigneeID = assignee
	}
	if fs.Changed("status") {
		s := model.TaskStatus(*status)
		req.Status = &s
	}
	if fs.Changed("deadline") {
		d, err := parseDeadline(*deadline, time.Now())
		if err != nil {
			return err
		}
		req.Deadline = &d
	}
	t, err := a.Tasks.Update(ctx, req)
	if err != nil {
		return errors.New(api.Message(err, a.Store.State().Tasks.Error))
	}
	return printJSON(t)
}

func tasksDeleteCmd(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: taskboard tasks delete ID")
	}
	if err := a.Tasks.Delete(ctx, args[0]); err != nil {
		return errors.New(a.Store.State().Tasks.Error)
	}
	fmt.Println("Deleted", args[0])
	return nil
}

func chatConversationsCmd(ctx context.Context, a *app.App, _ []string) error {
	if _, err := a.Chat.FetchConversations(ctx); err != nil {
		return errors.New(a.Store.State().Chat.Error)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PARTICIPANT\tNAME\tUNREAD\tLAST")
	for _, c := range a.Store.State().Chat.Conversations {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", c.ParticipantID, c.ParticipantName, c.UnreadCount, c.LastMessage)
	}
	return w.Flush()
}

func chatMessagesCmd(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: taskboard chat messages PARTICIPANT")
	}
	if err := a.SetActiveConversation(ctx, args[0]); err != nil {
		return errors.New(a.Store.State().Chat.Error)
	}
	for _, m := range a.Store.State().Chat.Messages {
		printMessage(a.Sessions.UserID(), m)
	}
	return nil
}

func chatSendCmd(ctx context.Context, a *app.App, args []string) error {
	fs := newFlagSet("chat send")
	to := fs.String("to", "", "recipient user id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	m, err := a.SendMessage(ctx, *to, strings.Join(fs.Args(), " "))
	if err != nil {
		return errors.New(api.Message(err, a.Store.State().Chat.Error))
	}
	printMessage(a.Sessions.UserID(), *m)
	return nil
}

// chatWatchCmd prints notifications and, with --with, the live conversation
// until interrupted.
func chatWatchCmd(ctx context.Context, a *app.App, args []string) error {
	fs := newFlagSet("chat watch")
	with := fs.String("with", "", "participant whose conversation to follow")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if a.Sessions.Current() == nil {
		return errNotLoggedIn
	}

	var mu sync.Mutex
	printed := map[string]struct{}{}
	self := a.Sessions.UserID()
	unsubscribe := a.Store.Subscribe(func(s store.State) {
		mu.Lock()
		defer mu.Unlock()
		for _, n := range s.UI.Notifications {
			if _, ok := printed[n.ID]; ok {
				continue
			}
			printed[n.ID] = struct{}{}
			fmt.Printf("[%s] %s\n", n.Type, n.Message)
		}
		for _, m := range s.Chat.Messages {
			if _, ok := printed[m.ID]; ok {
				continue
			}
			printed[m.ID] = struct{}{}
			printMessage(self, m)
		}
	})
	defer unsubscribe()

	if _, err := a.Chat.FetchConversations(ctx); err != nil {
		return errors.New(a.Store.State().Chat.Error)
	}
	if *with != "" {
		if err := a.SetActiveConversation(ctx, *with); err != nil {
			return errors.New(a.Store.State().Chat.Error)
		}
	}
	fmt.Printf("Watching (%d unread), Ctrl-C to stop\n", a.Store.State().Chat.TotalUnread())
	<-ctx.Done()
	return nil
}

func parseDeadline(value string, now time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("deadline %q is neither RFC3339 nor a duration", value)
	}
	return now.Add(d), nil
}

func printMessage(self string, m model.Message) {
	who := m.SenderID
	if m.SenderID == self {
		who = "me"
	}
	fmt.Printf("%s  %-10s %s\n", m.Timestamp.Local().Format(time.TimeOnly), who, m.Content)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
