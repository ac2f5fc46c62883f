package views

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sort"

	"wordcheck.org/internal/auth"
	"wordcheck.org/internal/guard"
)

type viewFunc func(ctx context.Context, env *Env, args []string) error

// commands maps console verbs to routes.
var commands = map[string]string{
	"login":     guard.PathLogin,
	"dashboard": guard.PathDashboard,
	"files":     guard.PathWordLibrary,
	"compare":   guard.PathCheckDuplicate,
	"reports":   guard.PathReports,
}

var routes = map[string]viewFunc{
	guard.PathLogin:          Login,
	guard.PathDashboard:      Dashboard,
	guard.PathWordLibrary:    Library,
	guard.PathCheckDuplicate: Compare,
	guard.PathReports:        Reports,
}

// Run dispatches one console invocation. With no arguments it opens "/";
// "open PATH" navigates by route like a browser address bar.
func Run(ctx context.Context, env *Env, args []string) error {
	if len(args) == 0 {
		return Navigate(ctx, env, guard.PathRoot, nil)
	}
	name, rest := args[0], args[1:]
	switch name {
	case "open":
		path := guard.PathRoot
		if len(rest) > 0 {
			path = rest[0]
		}
		return Navigate(ctx, env, path, nil)
	case "logout":
		return Logout(ctx, env, rest)
	case "status":
		return Status(ctx, env, rest)
	case "whoami":
		if !env.Session.IsAuthenticated() {
			return signIn(env, guard.PathRoot)
		}
		return Whoami(withOperator(ctx, env), env, rest)
	case "help", "-h", "--help":
		Usage(env.Out)
		return nil
	}
	path, ok := commands[name]
	if !ok {
		Usage(env.Out)
		return fail(fmt.Sprintf("未知命令: %s", name), ErrUsage)
	}
	return Navigate(ctx, env, path, rest)
}

// Navigate resolves path through the guard and renders the resulting view.
// Arguments are dropped when the guard sends navigation elsewhere.
func Navigate(ctx context.Context, env *Env, path string, args []string) error {
	d := guard.Resolve(path, env.Session.IsAuthenticated())
	if d.Path == guard.PathLogin && d.Redirected {
		return signIn(env, d.From)
	}
	if d.Redirected {
		args = nil
	}
	view := routes[d.Path]
	if d.Path == guard.PathLogin {
		return view(ctx, env, args)
	}
	snap := env.Session.Snapshot()
	username := ""
	if snap.User != nil {
		username = snap.User.Username
	}
	shell(env.Out, username)
	return view(withOperator(ctx, env), env, args)
}

func signIn(env *Env, from string) error {
	fmt.Fprintln(env.Out, "请先登录: wordcheck login -u <用户名>")
	return fail(NoticeSignIn, fmt.Errorf("%w: %s", ErrNotSignedIn, from))
}

// withOperator attaches the signed-in profile so audit entries carry it.
func withOperator(ctx context.Context, env *Env) context.Context {
	snap := env.Session.Snapshot()
	if snap.User == nil {
		return ctx
	}
	return auth.ContextWithProfile(ctx, *snap.User)
}

func newFlags(env *Env, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(env.Out)
	return fs
}

func usageError(format string, args ...any) error {
	return fail("用法: "+fmt.Sprintf(format, args...), ErrUsage)
}

// Usage lists the console commands.
func Usage(w io.Writer) {
	lines := map[string]string{
		"login":     "login -u USER [-p PASS]",
		"logout":    "logout",
		"dashboard": "dashboard",
		"files":     "files [-q TEXT] | files upload PATH | files delete ID",
		"compare":   "compare -target ID -sources ID,ID [-sensitivity N] [-name NAME]",
		"reports":   "reports [-status all|pending|completed|failed] [-q TEXT] | reports show ID | reports delete ID | reports download ID [-o PATH]",
		"whoami":    "whoami",
		"status":    "status",
		"open":      "open PATH",
	}
	names := make([]string, 0, len(lines))
	for n := range lines {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "usage: wordcheck <command> [args]")
	for _, n := range names {
		fmt.Fprintf(w, "  %s\n", lines[n])
	}
}
