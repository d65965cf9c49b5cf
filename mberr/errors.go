// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

// Error kinds surfaced by the transports and the command engine.

package mberr

import "fmt"

// GenericError covers precondition failures, invalid arguments, and unknown memory ranges.
type GenericError struct {
	Msg string
}

func (e *GenericError) Error() string { return e.Msg }

// NewGeneric builds a GenericError with a formatted message.
func NewGeneric(format string, args ...interface{}) *GenericError {
	return &GenericError{Msg: fmt.Sprintf(format, args...)}
}

// CommandError is returned when a well-formed response carries a non-success status.
type CommandError struct {
	Status uint32
	Name   string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command error: %s (status %d / %#x)", e.Name, e.Status, e.Status)
}

// DataError is returned when a data phase is aborted by the device or violates framing.
type DataError struct {
	Mode   string // "read" or "write"
	Status uint32
	Name   string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("data error during %s: %s (status %d / %#x)", e.Mode, e.Name, e.Status, e.Status)
}

// ConnectionError is returned when the transport is not open or was physically disconnected.
type ConnectionError struct {
	Msg string
}

func (e *ConnectionError) Error() string { return e.Msg }

// NewConnection builds a ConnectionError with a formatted message.
func NewConnection(format string, args ...interface{}) *ConnectionError {
	return &ConnectionError{Msg: fmt.Sprintf(format, args...)}
}

// TimeoutError is returned when a blocking read exceeds its deadline.
type TimeoutError struct {
	Msg string
}

func (e *TimeoutError) Error() string {
	if e.Msg == "" {
		return "operation timed out"
	}
	return e.Msg
}
