package btp

import (
	"errors"
	"sort"
)

// ErrUnsuccessful is returned when the backend answers with success:false.
var ErrUnsuccessful = errors.New("backend reported failure")

// nonFieldErrors is the key Django uses for errors not bound to a field.
const nonFieldErrors = "__all__"

// ValidationError carries the per-field messages of a rejected form.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if field, msg := e.First(); msg != "" {
		if field == "" || field == nonFieldErrors {
			return msg
		}
		return field + ": " + msg
	}
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// First returns the field error shown to the user. Non-field errors win,
// then fields in name order so the choice does not depend on map order.
func (e *ValidationError) First() (string, string) {
	if msg := e.Fields[nonFieldErrors]; msg != "" {
		return nonFieldErrors, msg
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if msg := e.Fields[name]; msg != "" {
			return name, msg
		}
	}
	return "", e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrUnsuccessful
}
