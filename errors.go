package livestring

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrNilDataContext is returned when a template is attached to a nil
	// data context. Use Detach to clear a template instead.
	ErrNilDataContext = errors.New("livestring: nil data context")

	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("livestring: invalid config")
)

// HandlerError reports a failed delivery to an external replace handler.
// The text was already updated when the handler ran.
type HandlerError struct {
	// Handler is the registration sequence number of the handler.
	Handler int
	Event   ReplaceEvent
	Err     error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("replace handler %d failed on %s: %v", e.Handler, e.Event, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked.
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

func newPanicError(op string, value any) *PanicError {
	return &PanicError{
		Op:         op,
		Value:      value,
		StackTrace: string(debug.Stack()),
		Timestamp:  time.Now(),
	}
}

// RangeError is raised, as a panic, when the engine computes a replace range
// outside the text. It always indicates a bug in the engine.
type RangeError struct {
	Start int
	End   int
	Len   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("livestring: replace range [%d, %d) invalid for text of length %d", e.Start, e.End, e.Len)
}

func checkRange(start, end, length int) {
	if start < 0 || start > end || end > length {
		panic(&RangeError{Start: start, End: end, Len: length})
	}
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MultiError is a collection of field errors (implements error interface)
type MultiError []FieldError

func (m MultiError) Error() string {
	if len(m) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range m {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Is lets callers match any config validation failure with ErrInvalidConfig.
func (m MultiError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// ValidationToMultiError converts go-playground/validator errors to MultiError
func ValidationToMultiError(err error) MultiError {
	var fieldErrors MultiError

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fieldErrors
	}

	for _, e := range validationErrs {
		fieldName := e.Field()

		var message string
		switch e.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", e.Field())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of [%s]", e.Field(), e.Param())
		default:
			message = fmt.Sprintf("%s is invalid", e.Field())
		}

		fieldErrors = append(fieldErrors, FieldError{
			Field:   fieldName,
			Message: message,
		})
	}

	return fieldErrors
}
