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
package dispatch

import "errors"

var (
	// ErrCompleterRequired indicates a nil completer was provided.
	ErrCompleterRequired = errors.New("completer is required")

	// ErrInvalidWorkers indicates a worker count below 1.
	ErrInvalidWorkers = errors.New("worker count must be at least 1")

	// ErrInvalidMaxAttempts indicates maxAttempts is not positive.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrInvalidTimeout indicates a non-positive duration where one is required.
	ErrInvalidTimeout = errors.New("duration must be greater than 0")

	// ErrInvalidTransition indicates a retry state change the machine does not allow.
	ErrInvalidTransition = errors.New("invalid retry state transition")
)
