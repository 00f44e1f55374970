// Package failure classifies caller-facing errors so transports can map them
// to status codes and render specific messages.
package failure

import "errors"

// Kind is the classification of a caller-facing error.
type Kind string

const (
	KindNotFound             Kind = "not_found"
	KindInvalidState         Kind = "invalid_state"
	KindAlreadyClaimed       Kind = "already_claimed"
	KindNotClaimOwner        Kind = "not_claim_owner"
	KindNoActiveOperation    Kind = "no_active_operation"
	KindNoOpenEntry          Kind = "no_open_entry"
	KindAccessDenied         Kind = "access_denied"
	KindConflictingOpenEntry Kind = "conflicting_open_entry"
	KindValidation           Kind = "validation"
	KindInternal             Kind = "internal"
)

// Classifier is implemented by errors that declare their kind.
type Classifier interface {
	FailureKind() Kind
}

// KindOf returns the kind declared by err or any error it wraps.
// Unclassified errors are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var classifier Classifier
	if errors.As(err, &classifier) {
		return classifier.FailureKind()
	}
	return KindInternal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ValidationError reports malformed caller input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) FailureKind() Kind { return KindValidation }

// Invalid builds a ValidationError.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports an id or name with no match.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " " + quote(e.Key) + " not found"
}

func (e *NotFoundError) FailureKind() Kind { return KindNotFound }

// NotFound builds a NotFoundError.
func NotFound(entity, key string) error {
	return &NotFoundError{Entity: entity, Key: key}
}

func quote(s string) string {
	return "\"" + s + "\""
}
