package backend

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// Error is an error response from the backend, kept verbatim.
type Error struct {
	Status  int    `json:"status"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("backend: %s (%s, status %d)", e.Message, e.Type, e.Status)
	}
	return fmt.Sprintf("backend: %s (status %d)", e.Message, e.Status)
}

func decodeError(status int, body []byte) *Error {
	e := &Error{Status: status, Code: status}
	if gjson.ValidBytes(body) {
		res := gjson.ParseBytes(body)
		e.Message = res.Get("message").String()
		e.Type = res.Get("type").String()
		if code := res.Get("code"); code.Exists() {
			e.Code = int(code.Int())
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusNotFound
}
