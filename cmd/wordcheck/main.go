package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"

	"wordcheck.org/internal/auth"
	"wordcheck.org/internal/client"
	"wordcheck.org/internal/config"
	"wordcheck.org/internal/health"
	"wordcheck.org/internal/obs"
	"wordcheck.org/internal/session"
	"wordcheck.org/internal/views"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// stdout belongs to the views; JSON logs go to stderr.
	obs.SetOutput(os.Stderr)

	cfg, err := config.LoadConsole()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	mode, err := cfg.Mode()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	kv, closeKV, err := openKV(cfg.Session)
	if err != nil {
		obs.Error("session storage", err, nil)
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeKV()

	var store *session.Store
	c, err := client.New(cfg.APIBaseURL,
		client.WithTimeout(cfg.Timeout),
		client.WithTokenSource(func() string { return store.Token() }),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	env := &views.Env{
		Files:   c,
		Reports: c,
		In:      os.Stdin,
		Out:     os.Stdout,
	}

	var gateway auth.Gateway
	switch mode {
	case auth.ModeAPI:
		gateway = auth.NewAPIGateway(c)
		env.Profiles = c
	case auth.ModeStub:
		gateway, err = auth.NewStubGateway(auth.StubConfig{
			Username: cfg.Stub.Username,
			Password: cfg.Stub.Password,
			Email:    cfg.Stub.Email,
			Secret:   cfg.JWTSecret,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
	default:
		fmt.Fprintf(os.Stderr, "%v: %q\n", auth.ErrUnknownMode, mode)
		return 2
	}
	store = session.NewStore(kv, gateway)
	env.Session = store

	if cfg.HealthAddr != "" {
		hc, err := health.Dial(cfg.HealthAddr)
		if err != nil {
			obs.Warn("health client unavailable", map[string]any{"addr": cfg.HealthAddr, "error": err.Error()})
		} else {
			defer hc.Close()
			env.Health = hc
		}
	}

	ctx := context.Background()
	if err := store.Rehydrate(ctx); err != nil {
		obs.Error("rehydrate session", err, nil)
	}

	if err := views.Run(ctx, env, args); err != nil {
		logFailure(args, mode, err)
		fmt.Fprintln(os.Stderr, views.Notice(err))
		return 1
	}
	return 0
}

// logFailure records a failed command by name only; the remaining
// arguments may carry a password.
func logFailure(args []string, mode auth.Mode, err error) {
	command := ""
	if len(args) > 0 {
		command = args[0]
	}
	obs.Error("command failed", err, map[string]any{"command": command, "auth_mode": string(mode)})
}

func openKV(cfg config.SessionStore) (session.KV, func(), error) {
	if cfg.Backend == "redis" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return session.NewRedisKV(rdb, cfg.RedisPrefix), func() { _ = rdb.Close() }, nil
	}
	path := cfg.Path
	if path == "" {
		var err error
		if path, err = session.DefaultPath(); err != nil {
			return nil, nil, err
		}
	}
	return session.NewFileKV(path), func() {}, nil
}
