// Package grafemaerr defines Grafema's closed error taxonomy (spec §7).
// Every error the pipeline surfaces to a plugin boundary, the CLI, or a
// query caller wraps one of these sentinel kinds, so callers can branch on
// kind with errors.Is without parsing message text.
package grafemaerr

import (
	"errors"
	"fmt"
)

// Kind is the closed set of error categories spec.md §7 enumerates. No
// language-level exception names; every failure mode in the pipeline maps
// to exactly one of these.
type Kind string

const (
	KindParse             Kind = "Parse"
	KindDuplicateID        Kind = "DuplicateId"
	KindUnknownTargetType  Kind = "UnknownTargetType"
	KindMissingDependency  Kind = "MissingDependency"
	KindCyclicDependency   Kind = "CyclicDependency"
	KindBackendUnavailable Kind = "BackendUnavailable"
	KindTimeout            Kind = "Timeout"
	KindValidation         Kind = "Validation"
)

// Sentinel errors for errors.Is comparisons against a bare Kind, without
// needing the richer *Error fields.
var (
	ErrParse             = errors.New(string(KindParse))
	ErrDuplicateID        = errors.New(string(KindDuplicateID))
	ErrUnknownTargetType  = errors.New(string(KindUnknownTargetType))
	ErrMissingDependency  = errors.New(string(KindMissingDependency))
	ErrCyclicDependency   = errors.New(string(KindCyclicDependency))
	ErrBackendUnavailable = errors.New(string(KindBackendUnavailable))
	ErrTimeout            = errors.New(string(KindTimeout))
	ErrValidation         = errors.New(string(KindValidation))
)

func sentinelFor(k Kind) error {
	switch k {
	case KindParse:
		return ErrParse
	case KindDuplicateID:
		return ErrDuplicateID
	case KindUnknownTargetType:
		return ErrUnknownTargetType
	case KindMissingDependency:
		return ErrMissingDependency
	case KindCyclicDependency:
		return ErrCyclicDependency
	case KindBackendUnavailable:
		return ErrBackendUnavailable
	case KindTimeout:
		return ErrTimeout
	case KindValidation:
		return ErrValidation
	default:
		return errors.New(string(k))
	}
}

// Severity classifies a Validation error (spec §7). Other kinds carry no
// severity — they are either fatal or per-file/per-edge skip-and-record.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Error is the structured error value carried by validators and
// propagated to the plugin boundary (spec §7). Fields beyond Kind/Message
// are populated as they are known; zero values are omitted from Error().
type Error struct {
	Kind       Kind
	Message    string
	Severity   Severity
	Code       string
	FilePath   string
	LineNumber int
	Phase      string
	Plugin     string
	Remediation string
	Cause      error
}

// New builds an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Kind to an existing error, preserving it as Cause so
// errors.Unwrap still reaches the original failure.
func Wrap(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Message: cause.Error(), Cause: cause}
}

func (e *Error) Error() string {
	if e.FilePath != "" {
		if e.LineNumber > 0 {
			return fmt.Sprintf("%s: %s (%s:%d)", e.Kind, e.Message, e.FilePath, e.LineNumber)
		}
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.FilePath)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap lets errors.Is/As see through to Cause. Matching the package-level
// sentinel for this error's Kind (errors.Is(err, grafemaerr.ErrDuplicateID))
// is done by Is below, regardless of which constructor produced err.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is against the Kind-keyed sentinels directly,
// without relying on Cause being set.
func (e *Error) Is(target error) bool {
	return target == sentinelFor(e.Kind)
}

// Fatal reports whether this Kind always aborts the whole run, per
// spec §7's propagation policy (MissingDependency, CyclicDependency,
// BackendUnavailable). Parse/DuplicateId/UnknownTargetType are scoped
// failures the orchestrator collects rather than aborts on.
func (k Kind) Fatal() bool {
	switch k {
	case KindMissingDependency, KindCyclicDependency, KindBackendUnavailable:
		return true
	default:
		return false
	}
}
