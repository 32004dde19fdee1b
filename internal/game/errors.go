package game

import (
	"errors"
	"fmt"
)

// ErrorCode classifies why an action was rejected.
type ErrorCode int

const (
	CodeIllegalPattern ErrorCode = iota + 1
	CodeInsufficientResource
	CodeRuleForbidden
	CodeBoundsViolation
	CodeResourceExhausted
)

func (c ErrorCode) String() string {
	switch c {
	case CodeIllegalPattern:
		return "illegal pattern"
	case CodeInsufficientResource:
		return "insufficient resource"
	case CodeRuleForbidden:
		return "rule forbidden"
	case CodeBoundsViolation:
		return "bounds violation"
	case CodeResourceExhausted:
		return "resource exhausted"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is checks against an *ActionError.
var (
	ErrIllegalPattern       = errors.New(CodeIllegalPattern.String())
	ErrInsufficientResource = errors.New(CodeInsufficientResource.String())
	ErrRuleForbidden        = errors.New(CodeRuleForbidden.String())
	ErrBoundsViolation      = errors.New(CodeBoundsViolation.String())
	ErrResourceExhausted    = errors.New(CodeResourceExhausted.String())

	// ErrRunComplete is returned when advancing past the final level.
	ErrRunComplete = errors.New("run complete")
)

// ActionError is returned by every rejected action. A rejected action leaves
// the match unchanged.
type ActionError struct {
	Code   ErrorCode
	Reason string
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

func (e *ActionError) Unwrap() error {
	switch e.Code {
	case CodeIllegalPattern:
		return ErrIllegalPattern
	case CodeInsufficientResource:
		return ErrInsufficientResource
	case CodeRuleForbidden:
		return ErrRuleForbidden
	case CodeBoundsViolation:
		return ErrBoundsViolation
	case CodeResourceExhausted:
		return ErrResourceExhausted
	default:
		return nil
	}
}

func reject(code ErrorCode, format string, args ...any) *ActionError {
	return &ActionError{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// ReasonOf extracts the human readable reason from an action error.
func ReasonOf(err error) string {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
