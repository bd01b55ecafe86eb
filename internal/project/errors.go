package project

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrLeadRoleTaken    = errors.New("Lead Implementer for this project is already set, please choose another role.")
	ErrAssigneeRequired = errors.New("Status 'assigned' requires the Assigned to to not be blank")
)

// FormErrors collects validation failures by field name.
type FormErrors map[string]error

func (e FormErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e[field].Error())
	}
	return strings.Join(parts, "; ")
}

func (e FormErrors) Unwrap() []error {
	errs := make([]error, 0, len(e))
	for _, err := range e {
		errs = append(errs, err)
	}
	return errs
}

// Messages flattens the errors for a JSON response.
func (e FormErrors) Messages() map[string]string {
	out := make(map[string]string, len(e))
	for field, err := range e {
		out[field] = err.Error()
	}
	return out
}

// orNil returns nil for an empty set so callers can return it directly.
func (e FormErrors) orNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
