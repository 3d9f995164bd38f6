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
package search

import "errors"

var (
	// ErrDispatcherRequired is returned when Run is called without a dispatcher.
	ErrDispatcherRequired = errors.New("dispatcher required")

	// ErrFatal wraps an endpoint rejection that makes every batch fail,
	// such as invalid credentials or an unknown model.
	ErrFatal = errors.New("fatal endpoint error")

	// ErrInterrupted is returned when the run context is cancelled.
	ErrInterrupted = errors.New("search interrupted")
)
