/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks across the error taxonomy.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrExternal   = errors.New("external service error")
)

// ValidationError reports input rejected before any collaborator was called.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports a template or record lookup miss.
type NotFoundError struct {
	What string
	Key  string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %q not found", e.What, e.Key) }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ExternalServiceError reports a failed call to the store, renderer, print
// dispatcher or live-data source, carrying the service-provided message.
type ExternalServiceError struct {
	Service string
	Status  int
	Message string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Service, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s", e.Service, msg)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

func (e *ExternalServiceError) Is(target error) bool { return target == ErrExternal }

// UserMessage returns the text shown to the user for err.
func UserMessage(err error) string {
	var ve *ValidationError
	var nf *NotFoundError
	var xe *ExternalServiceError
	switch {
	case errors.As(err, &ve):
		return ve.Reason
	case errors.As(err, &nf):
		return nf.Error()
	case errors.As(err, &xe):
		if xe.Message != "" {
			return xe.Message
		}
		return xe.Error()
	case err != nil:
		return err.Error()
	}
	return ""
}
