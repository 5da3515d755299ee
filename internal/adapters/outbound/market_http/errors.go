package market_http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrSessionExpired matches any APIError caused by a 401.
	ErrSessionExpired = errors.New("session expired")
	// ErrNotLoggedIn means no token is available at all.
	ErrNotLoggedIn = errors.New("not logged in")
)

type ErrorKind int

const (
	KindTransport    ErrorKind = iota // request never got an HTTP response
	KindBadRequest                    // 400
	KindUnauthorized                  // 401
	KindServer                        // 500
	KindStatus                        // any other non-2xx
	KindMalformed                     // 2xx without the expected payload
)

// APIError is every failure talking to the market API. None are retried.
type APIError struct {
	Op         string // "place order", "get quote", ...
	Kind       ErrorKind
	StatusCode int
	Status     string
	Code       string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	switch e.Kind {
	case KindBadRequest:
		return "Bad Request: " + e.Message
	case KindUnauthorized:
		return "Failed to " + e.Op + ": session expired"
	case KindServer:
		detail := e.Message
		if detail == "" {
			detail = e.Code
		}
		return fmt.Sprintf("Failed to %s: %s", e.Op, detail)
	case KindStatus:
		return fmt.Sprintf("Failed to %s: %s", e.Op, e.Status)
	case KindMalformed:
		if e.Message != "" {
			return fmt.Sprintf("Failed to %s: Unexpected response from server: %s", e.Op, e.Message)
		}
		return fmt.Sprintf("Failed to %s: Unexpected response from server", e.Op)
	default:
		return fmt.Sprintf("Failed to %s: %v", e.Op, e.Err)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Is(target error) bool {
	return target == ErrSessionExpired && e.Kind == KindUnauthorized
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// checkStatus maps a non-2xx response to an APIError.
func checkStatus(op string, status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	var env errorEnvelope
	_ = json.Unmarshal(body, &env)

	e := &APIError{
		Op:         op,
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Code:       env.Code,
		Message:    env.Message,
	}
	switch status {
	case http.StatusBadRequest:
		e.Kind = KindBadRequest
	case http.StatusUnauthorized:
		e.Kind = KindUnauthorized
	case http.StatusInternalServerError:
		e.Kind = KindServer
	default:
		e.Kind = KindStatus
	}
	return e
}

func malformed(op, format string, args ...any) *APIError {
	return &APIError{Op: op, Kind: KindMalformed, Message: fmt.Sprintf(format, args...)}
}
