package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCategory represents the kinds of problems parameter resolution can report
type ErrorCategory string

const (
	// Load-time errors, they abort initialization
	ErrorCategoryUnknownField      ErrorCategory = "UNKNOWN_FIELD"
	ErrorCategoryDuplicateOverride ErrorCategory = "DUPLICATE_OVERRIDE"
	ErrorCategoryMissingSource     ErrorCategory = "MISSING_SOURCE"
	ErrorCategoryModeMismatch      ErrorCategory = "MODE_MISMATCH"

	// Resolution errors, they only affect one (symbol, timeframe) key
	ErrorCategoryInvalidValue ErrorCategory = "INVALID_VALUE"
)

// Sentinels for errors.Is matching. Only the category is compared.
var (
	ErrUnknownField      = &ParamError{Category: ErrorCategoryUnknownField}
	ErrDuplicateOverride = &ParamError{Category: ErrorCategoryDuplicateOverride}
	ErrMissingSource     = &ParamError{Category: ErrorCategoryMissingSource}
	ErrModeMismatch      = &ParamError{Category: ErrorCategoryModeMismatch}
	ErrInvalidValue      = &ParamError{Category: ErrorCategoryInvalidValue}
)

// ParamError represents a categorized error with context
type ParamError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Field      string
	Underlying error
	Context    map[string]interface{}
}

// Error implements the error interface
func (e *ParamError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s:%s] %s", e.Category, e.Component, e.Operation)
	if e.Field != "" {
		fmt.Fprintf(&b, " %s", e.Field)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	if e.Underlying != nil {
		fmt.Fprintf(&b, ": %v", e.Underlying)
	}
	return b.String()
}

// Unwrap returns the underlying error for error unwrapping
func (e *ParamError) Unwrap() error {
	return e.Underlying
}

// Is reports whether target is a sentinel of the same category
func (e *ParamError) Is(target error) bool {
	t, ok := target.(*ParamError)
	if !ok {
		return false
	}
	return t.Category == e.Category && t.Component == "" && t.Message == "" && t.Field == ""
}

// IsFatal returns whether this error must abort initialization
func (e *ParamError) IsFatal() bool {
	return e.Category != ErrorCategoryInvalidValue
}

// WithContext adds context information to the error
func (e *ParamError) WithContext(key string, value interface{}) *ParamError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewParamError creates a new categorized error
func NewParamError(category ErrorCategory, component, operation, message string) *ParamError {
	return &ParamError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
	}
}

// NewUnknownFieldError reports a field name that is not in the registry
func NewUnknownFieldError(component, operation, field string) *ParamError {
	e := NewParamError(ErrorCategoryUnknownField, component, operation, "field is not in the registry")
	e.Field = field
	return e
}

// NewDuplicateOverrideError reports a second registration for an already registered key
func NewDuplicateOverrideError(component, key, first, second string) *ParamError {
	msg := fmt.Sprintf("override for %s already registered", key)
	return NewParamError(ErrorCategoryDuplicateOverride, component, "register", msg).
		WithContext("first", first).
		WithContext("second", second)
}

// NewInvalidValueError reports a value violating its field constraint
func NewInvalidValueError(component, field string, value interface{}, reason string) *ParamError {
	e := NewParamError(ErrorCategoryInvalidValue, component, "validate", fmt.Sprintf("value %v %s", value, reason))
	e.Field = field
	return e.WithContext("value", value)
}

// NewMissingSourceError reports an external source that could not be opened
func NewMissingSourceError(component, source string, err error) *ParamError {
	e := NewParamError(ErrorCategoryMissingSource, component, "open", "external parameter source unavailable")
	e.Underlying = err
	return e.WithContext("source", source)
}

// NewModeMismatchError reports an operation that the active feature mode does not support
func NewModeMismatchError(component, operation, message string) *ParamError {
	return NewParamError(ErrorCategoryModeMismatch, component, operation, message)
}

// CategoryOf extracts the category of err, if it carries one
func CategoryOf(err error) (ErrorCategory, bool) {
	var pe *ParamError
	if stderrors.As(err, &pe) {
		return pe.Category, true
	}
	var r *Report
	if stderrors.As(err, &r) && len(r.errs) > 0 {
		return r.errs[0].Category, true
	}
	return "", false
}

// Report collects load-time errors so that every problem is surfaced at once
type Report struct {
	Component string
	errs      []*ParamError
}

// NewReport creates an empty report for a component
func NewReport(component string) *Report {
	return &Report{Component: component}
}

// Add records an error. Errors that are not ParamErrors are wrapped as fatal missing-source errors.
func (r *Report) Add(err error) {
	if err == nil {
		return
	}
	var nested *Report
	if stderrors.As(err, &nested) {
		r.errs = append(r.errs, nested.errs...)
		return
	}
	var pe *ParamError
	if stderrors.As(err, &pe) {
		r.errs = append(r.errs, pe)
		return
	}
	r.errs = append(r.errs, NewMissingSourceError(r.Component, "unknown", err))
}

// Len returns the number of recorded errors
func (r *Report) Len() int {
	return len(r.errs)
}

// Err returns nil when the report is empty, the report otherwise
func (r *Report) Err() error {
	if len(r.errs) == 0 {
		return nil
	}
	return r
}

// Error lists every recorded problem, one per line
func (r *Report) Error() string {
	if len(r.errs) == 1 {
		return r.errs[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d configuration problems", r.Component, len(r.errs))
	for _, e := range r.errs {
		fmt.Fprintf(&b, "\n  - %s", e.Error())
	}
	return b.String()
}

// Unwrap exposes the recorded errors to errors.Is and errors.As
func (r *Report) Unwrap() []error {
	out := make([]error, len(r.errs))
	for i, e := range r.errs {
		out[i] = e
	}
	return out
}
