// Package shared contains common domain types and errors used across all
// domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
	"time"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation   = errors.New("validation error")
	ErrInvalidID    = errors.New("invalid ID")
	ErrInvalidInput = errors.New("invalid input")
	ErrEmptyValue   = errors.New("value cannot be empty")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrConflict        = errors.New("conflict")
	ErrExpired         = errors.New("expired")

	// Authorization errors
	ErrForbidden = errors.New("forbidden")

	// Flow-control errors
	ErrRateLimited = errors.New("rate limited")

	// Infrastructure errors
	ErrInternal           = errors.New("internal error")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "user", "challenge", "submission"
	Op      string // Operation that failed, e.g., "Join", "Review"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// User domain errors
var (
	ErrUserNotFound      = NewDomainError("user", "Find", ErrNotFound, "user not found")
	ErrTelegramIDMissing = NewDomainError("user", "Validate", ErrEmptyValue, "telegram ID is required")
	ErrReasonMissing     = NewDomainError("user", "Adjust", ErrEmptyValue, "reason is required")
	ErrUnknownUserField  = NewDomainError("user", "SetField", ErrInvalidInput, "unknown user field")
)

// Challenge domain errors
var (
	ErrChallengeNotFound = NewDomainError("challenge", "Find", ErrNotFound, "challenge not found")
	ErrAlreadyJoined     = NewDomainError("challenge", "Join", ErrConflict, "already joined this challenge")
	ErrChallengeEnded    = NewDomainError("challenge", "Join", ErrExpired, "challenge has ended")
	ErrChallengeInvalid  = NewDomainError("challenge", "Create", ErrValidation, "title, reward and end time are required")
)

// Submission domain errors
var (
	ErrSubmissionNotFound = NewDomainError("submission", "Find", ErrNotFound, "submission not found")
	ErrAlreadyReviewed    = NewDomainError("submission", "Review", ErrStateTransition, "submission already reviewed")
	ErrInvalidAction      = NewDomainError("submission", "Review", ErrInvalidInput, "action must be accept or reject")
	ErrInvalidLink        = NewDomainError("submission", "Validate", ErrValidation, "link must start with http:// or https://")
)

// Moderation domain errors
var (
	ErrBanNotFound = NewDomainError("moderation", "Find", ErrNotFound, "ban not found")
)

// BannedError is returned when a banned user attempts a gated action.
// It carries enough context to explain the rejection to the user.
type BannedError struct {
	Reason string
	Until  time.Time
}

func (e *BannedError) Error() string {
	return fmt.Sprintf("user is banned until %s: %s", e.Until.Format(time.RFC3339), e.Reason)
}

// Is makes BannedError match ErrForbidden.
func (e *BannedError) Is(target error) bool {
	return errors.Is(ErrForbidden, target)
}

// ThrottledError is returned when a user exceeds the per-user action rate.
// RetryAfter is a hint for when the caller may try again.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// Is makes ThrottledError match ErrRateLimited.
func (e *ThrottledError) Is(target error) bool {
	return errors.Is(ErrRateLimited, target)
}

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue)
}

// IsConflict checks if the error is a conflict or state-transition error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrStateTransition) ||
		errors.Is(err, ErrAlreadyExists)
}
