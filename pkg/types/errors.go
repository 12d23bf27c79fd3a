// Copyright (C) 2025 SAGE-X Project
//
// This file is part of didery-go.
//
// didery-go is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// didery-go is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with didery-go.  If not, see <https://www.gnu.org/licenses/>.

// Package types defines the error taxonomy shared by the didery-go packages.
package types

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation error")

	// ErrDecode matches every *DecodeError via errors.Is.
	ErrDecode = errors.New("decode error")
)

// Validation messages surfaced to callers.
const (
	MsgMalformedDID = "Malformed DID value"
	MsgInvalidDID   = "Invalid DID value"
	MsgEmptyBody    = "Empty body"
	MsgInvalidJSON  = "Invalid JSON"
	MsgNotObject    = "JSON not dict"
	MsgUnexpected   = "Unexpected error"
)

// ValidationError is returned when input data is malformed or incomplete:
// DID shape, required JSON fields, empty or non-object bodies.
type ValidationError struct {
	Msg string
	Err error
}

// NewValidationError returns a ValidationError carrying msg.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Msg: msg}
}

// MissingField returns the ValidationError for an absent required key.
func MissingField(name string) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf("Missing required field %s", name)}
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// DecodeError is returned when base64url key or signature text is malformed.
type DecodeError struct {
	Input string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to decode %q", e.Input)
	}
	return fmt.Sprintf("failed to decode %q: %v", e.Input, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}
