// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package ai

import (
	"errors"
	"fmt"
	"time"
)

// Configuration errors. All of them are fatal for a run.
var (
	ErrHostRequired       = errors.New("ai config: Host is required")
	ErrInvalidHost        = errors.New("ai config: Host must be an http(s) URL")
	ErrAPIKeyRequired     = errors.New("ai config: APIKey is required")
	ErrModelRequired      = errors.New("ai config: Model is required")
	ErrInvalidMaxTokens   = errors.New("ai config: MaxTokens must be greater than 0")
	ErrInvalidTemperature = errors.New("ai config: Temperature must be between 0 and 2")
)

// ErrEmptyResponse is returned when the endpoint answers without any choice.
var ErrEmptyResponse = errors.New("endpoint returned no choices")

// StatusError is returned for any non-2xx HTTP answer from the endpoint.
type StatusError struct {
	StatusCode int
	// RetryAfter is the parsed Retry-After header, zero if absent.
	RetryAfter time.Duration
	// Body holds the start of the response body for diagnostics.
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("endpoint returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("endpoint returned HTTP %d: %s", e.StatusCode, e.Body)
}
