// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package object

import (
	"errors"
	"fmt"
)

// ErrorCode represents a domain-level error code
type ErrorCode int

const (
	ErrCodeNone ErrorCode = iota
	ErrCodeNotFound
	ErrCodeValidation
	ErrCodeInternalError
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeNone:
		return "none"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeValidation:
		return "validation"
	default:
		return "internal"
	}
}

// NotFoundReason tells which side of the binding was missing
type NotFoundReason string

const (
	// ReasonNoRecord means the metadata store has no record for the pair
	ReasonNoRecord NotFoundReason = "no record"
	// ReasonMissingOnDisk means a record exists but its file does not
	ReasonMissingOnDisk NotFoundReason = "missing on disk"
)

// Error represents a domain-level error
type Error struct {
	Code    ErrorCode
	Message string
	Reason  NotFoundReason // set for ErrCodeNotFound
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Error constructors

func newNotFoundError(reason NotFoundReason) *Error {
	msg := "object not found"
	if reason == ReasonMissingOnDisk {
		msg = "object not found on disk"
	}
	return &Error{
		Code:    ErrCodeNotFound,
		Message: msg,
		Reason:  reason,
	}
}

func newValidationError(err error) *Error {
	return &Error{
		Code:    ErrCodeValidation,
		Message: "invalid request",
		Err:     err,
	}
}

func newInternalError(err error) *Error {
	return &Error{
		Code:    ErrCodeInternalError,
		Message: "internal error",
		Err:     err,
	}
}

// CodeOf returns the code of a domain error, ErrCodeInternalError for any
// other non-nil error and ErrCodeNone for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ErrCodeNone
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternalError
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return CodeOf(err) == ErrCodeValidation
}

// NotFoundReasonOf returns the reason of a not found error, or "" for any other error
func NotFoundReasonOf(err error) NotFoundReason {
	var e *Error
	if errors.As(err, &e) && e.Code == ErrCodeNotFound {
		return e.Reason
	}
	return ""
}
