package views

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wordcheck.org/internal/audit"
	"wordcheck.org/internal/auth"
	"wordcheck.org/internal/obs"
)

// Login signs in through the session store. The password is read from the
// first input line when -p is omitted.
func Login(ctx context.Context, env *Env, args []string) error {
	fs := newFlags(env, "login")
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return usageError("login -u USER [-p PASS]")
	}
	if strings.TrimSpace(*username) == "" {
		return usageError("login -u USER [-p PASS]")
	}
	if *password == "" && env.In != nil {
		fmt.Fprint(env.Out, "密码: ")
		line, err := bufio.NewReader(env.In).ReadString('\n')
		if err != nil && line == "" {
			return usageError("login -u USER [-p PASS]")
		}
		*password = strings.TrimRight(line, "\r\n")
		fmt.Fprintln(env.Out)
	}

	creds := auth.Credentials{Username: *username, Password: *password}
	profile, err := env.Session.Login(ctx, creds)
	if err != nil {
		_ = audit.LogEvent(ctx, audit.EventLoginFailed, map[string]any{"username": creds.Username})
		msg := env.Session.Snapshot().Error
		if msg == "" {
			msg = auth.UserMessage(err)
		}
		return fail(msg, err)
	}
	ctx = auth.ContextWithProfile(ctx, profile)
	_ = audit.LogEvent(ctx, audit.EventLogin, nil)
	fmt.Fprintln(env.Out, "登录成功")
	shell(env.Out, profile.Username)
	return nil
}

// Logout always clears the local session.
func Logout(ctx context.Context, env *Env, _ []string) error {
	ctx = withOperator(ctx, env)
	if err := env.Session.Logout(ctx); err != nil {
		obs.Error("logout", err, nil)
	}
	_ = audit.LogEvent(ctx, audit.EventLogout, nil)
	fmt.Fprintln(env.Out, "已退出登录")
	return nil
}

// Whoami prints the stored profile and, when the server supports it, the
// profile it resolves from the token.
func Whoami(ctx context.Context, env *Env, _ []string) error {
	snap := env.Session.Snapshot()
	if snap.User != nil {
		fmt.Fprintf(env.Out, "用户: %s\n邮箱: %s\n角色: %s\nID: %s\n", snap.User.Username, snap.User.Email, snap.User.Role, snap.User.ID)
	}
	if env.Profiles == nil {
		return nil
	}
	remote, err := env.Profiles.Me(ctx)
	if err != nil {
		return fail("获取用户信息失败", err)
	}
	if snap.User == nil || remote.Username != snap.User.Username {
		fmt.Fprintf(env.Out, "服务端用户: %s (%s)\n", remote.Username, remote.Role)
	}
	return nil
}

const statusTimeout = 5 * time.Second

// Status probes the backing service's health endpoint.
func Status(ctx context.Context, env *Env, _ []string) error {
	if env.Health == nil {
		return fail("未配置健康检查地址", ErrUnavailable)
	}
	ctx, cancel := context.WithTimeout(ctx, statusTimeout)
	defer cancel()
	status, err := env.Health.Check(ctx)
	if err != nil {
		return fail("服务不可用", err)
	}
	fmt.Fprintf(env.Out, "服务状态: %s\n", status)
	if status != "SERVING" {
		return fail("服务不可用", errors.New("health: "+status))
	}
	return nil
}
