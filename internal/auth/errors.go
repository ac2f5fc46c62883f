package auth

import "errors"

var (
	ErrInvalidCredentials   = errors.New("auth: invalid credentials")
	ErrUnrecognizedResponse = errors.New("auth: unrecognized login response")
	ErrInvalidToken         = errors.New("auth: invalid token")
	ErrMissingSecret        = errors.New("auth: token secret is not configured")
	ErrUnknownMode          = errors.New("auth: unknown gateway mode")
)

// MsgInvalidCredentials is shown for any rejected username/password pair.
const MsgInvalidCredentials = "用户名或密码错误"

// MsgLoginFailed is the fallback when no better message is available.
const MsgLoginFailed = "登录失败"

// LoginError carries the message to show the operator for a failed login.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return MsgLoginFailed
}

func (e *LoginError) Unwrap() error { return e.Err }

// UserMessage maps any login error to operator-facing text. Transport and
// decoding failures collapse to the generic message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var le *LoginError
	if errors.As(err, &le) && le.Message != "" {
		return le.Message
	}
	if errors.Is(err, ErrInvalidCredentials) {
		return MsgInvalidCredentials
	}
	return MsgLoginFailed
}
