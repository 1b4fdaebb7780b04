package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnauthorized matches errors of authenticated calls that the backend
// rejected as unauthorized. The session treats them as expiry.
var ErrUnauthorized = errors.New("session expired or unauthorized")

// Error is the normalized shape of a non-2xx backend response.
type Error struct {
	Status  int
	Message string

	authFailure bool
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.authFailure
}

// Message extracts a user-facing message from err, falling back to def.
func Message(err error, def string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return def
}

// errorBody - тело ошибки бэкенда. flask-jwt-extended кладет текст в "msg".
type errorBody struct {
	Error string `json:"error"`
	Msg   string `json:"msg"`
}

func newError(status int, body []byte, authed bool) *Error {
	e := &Error{Status: status}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		e.Message = eb.Error
		if e.Message == "" {
			e.Message = eb.Msg
		}
	} else {
		e.Message = strings.TrimSpace(string(body))
		if len(e.Message) > 200 {
			e.Message = e.Message[:200]
		}
	}

	if authed {
		switch {
		case status == http.StatusUnauthorized:
			e.authFailure = true
		// битый или чужой токен JWT-расширение отдает как 422 с полем msg
		case status == http.StatusUnprocessableEntity && eb.Msg != "":
			e.authFailure = true
		}
	}
	return e
}
