// Package view holds the form and list behaviour behind each page.
//
// Views never talk HTTP. They read through the query cache, write through
// the API adapter, and report side effects (route changes and toasts) to a
// Navigator and a Notifier. The transport turns those into response fields.
package view

import (
	"errors"
	"sync"

	"dismoment/internal/api"
	"dismoment/internal/backend"
	"dismoment/internal/validation"
)

// ErrBusy is returned when a form is submitted while a previous submission
// is still running.
var ErrBusy = errors.New("submission already in progress")

// Routes the views navigate to.
const (
	RouteHome   = "/"
	RouteSignIn = "/sign-in"
)

// Navigator receives route changes.
type Navigator interface {
	Navigate(route string)
}

// Notification kinds.
const (
	NotifySuccess = "success"
	NotifyError   = "error"
)

// Notifier receives toasts.
type Notifier interface {
	Notify(kind, message string)
}

// Effects is what a submission may trigger besides its result.
type Effects interface {
	Navigator
	Notifier
}

// FormState is a step of the submission state machine:
// idle -> submitting -> success | failure -> idle.
type FormState string

const (
	FormIdle       FormState = "idle"
	FormSubmitting FormState = "submitting"
	FormSuccess    FormState = "success"
	FormFailure    FormState = "failure"
)

// Result is the outcome of one submission. State is the terminal state the
// submission reached; invalid input never leaves idle.
type Result struct {
	State       FormState
	FieldErrors validation.FieldErrors
	Reset       bool // the form was cleared
	Close       bool // the dialog holding the form was closed
}

type Notification struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Outcome collects everything a submission produced. It is both the
// Navigator and the Notifier for that submission.
type Outcome struct {
	State        FormState              `json:"state"`
	Route        string                 `json:"navigate,omitempty"`
	Notification *Notification          `json:"notification,omitempty"`
	FieldErrors  validation.FieldErrors `json:"field_errors,omitempty"`
	Reset        bool                   `json:"reset,omitempty"`
	Close        bool                   `json:"close,omitempty"`
	Data         any                    `json:"data,omitempty"`
}

var _ Effects = (*Outcome)(nil)

func (o *Outcome) Navigate(route string) { o.Route = route }

func (o *Outcome) Notify(kind, message string) {
	o.Notification = &Notification{Kind: kind, Message: message}
}

// Apply copies r into the outcome.
func (o *Outcome) Apply(r Result) {
	o.State = r.State
	o.FieldErrors = r.FieldErrors
	o.Reset = r.Reset
	o.Close = r.Close
}

// machine guards a form against concurrent submissions.
type machine struct {
	mu    sync.Mutex
	state FormState
}

func (m *machine) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == FormSubmitting {
		return ErrBusy
	}
	m.state = FormSubmitting
	return nil
}

// finish records the terminal state and returns the form to idle.
func (m *machine) finish(s FormState) Result {
	m.mu.Lock()
	m.state = FormIdle
	m.mu.Unlock()
	return Result{State: s}
}

// State reports the current state of the form.
func (m *machine) State() FormState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == "" {
		return FormIdle
	}
	return m.state
}

// errorMessage turns an adapter failure into toast text.
func errorMessage(err error, fallback string) string {
	var be *backend.Error
	switch {
	case errors.As(err, &be) && be.Message != "":
		return be.Message
	case errors.Is(err, api.ErrUserNotFound):
		return "User not found."
	case errors.Is(err, api.ErrPostNotFound):
		return "Post not found."
	case errors.Is(err, api.ErrSelfFollow):
		return "You cannot follow yourself."
	default:
		return fallback
	}
}
