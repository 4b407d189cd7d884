package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/biblioteca/loans-service/src/clients"
	"github.com/pkg/errors"
)

var (
	ErrNotFound            = errors.New("loan not found")
	ErrInvalidState        = errors.New("operation not allowed in the loan's current status")
	ErrBookNotAvailable    = errors.New("book is not available for loan")
	ErrUserHasOverdueLoans = errors.New("user has overdue loans")
	ErrLoanLimitExceeded   = errors.New("user has reached the maximum number of active loans")

	ErrRemoteNotFound    = clients.ErrRemoteNotFound
	ErrRemoteUnavailable = clients.ErrRemoteUnavailable
	ErrRemoteRejected    = clients.ErrRemoteRejected
)

// ValidationError lists the input fields that were rejected, keyed by their
// JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

// orNil returns e as an error only when it holds at least one field.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
