package transport

import (
	"errors"
	"fmt"
)

// ErrUnavailable 后端不可达
var ErrUnavailable = errors.New("backend unavailable")

// UnavailableError 没有拿到任何 HTTP 响应（连接失败、超时）
type UnavailableError struct {
	Route string
	Err   error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: %v", e.Route, e.Err)
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// RemoteError 对端返回非2xx状态
type RemoteError struct {
	Route      string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Route, e.StatusCode, e.Message)
}

// DecodeError 2xx 响应体不是预期的 JSON
type DecodeError struct {
	Route string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: invalid response: %v", e.Route, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
