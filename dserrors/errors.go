// Copyright 2025 The Visatlas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package dserrors provides support for getting error codes from
// errors returned by the docstore APIs.
package dserrors

import (
	"errors"

	"github.com/visatlas/docstore/internal/dserr"
)

// An ErrorCode describes the error's category. Programs should act upon an error's
// code, not its message.
type ErrorCode = dserr.ErrorCode

const (
	// Returned by the Code function on a nil error. It is not a valid
	// code for an error.
	OK ErrorCode = dserr.OK

	// The error could not be categorized.
	Unknown ErrorCode = dserr.Unknown

	// The document was not found.
	NotFound ErrorCode = dserr.NotFound

	// A value given to a docstore API is incorrect.
	InvalidArgument ErrorCode = dserr.InvalidArgument

	// The Store was used before a backend was initialized, or after Close.
	NotConnected ErrorCode = dserr.NotConnected

	// The filter or pipeline stage is outside the closed query grammar
	// that the file backend supports.
	UnsupportedQuery ErrorCode = dserr.UnsupportedQuery

	// A collection file could not be read or written.
	IOFailure ErrorCode = dserr.IOFailure

	// The network backend could not be reached during the startup probe.
	BackendUnavailable ErrorCode = dserr.BackendUnavailable

	// Something unexpected happened. Internal errors always indicate
	// bugs in this module (or possibly the underlying driver).
	Internal ErrorCode = dserr.Internal
)

// Code returns the ErrorCode of err if it, or some error it wraps, is an *Error.
// It returns Unknown if err is a non-nil error of a different type.
// If err is nil, it returns the special code OK.
func Code(err error) ErrorCode {
	if err == nil {
		return OK
	}
	var e *dserr.Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Unknown
}
