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
package output

import "errors"

var (
	// ErrDuplicateEntry indicates a second result for a sequence index.
	ErrDuplicateEntry = errors.New("duplicate entry for sequence index")

	// ErrOutOfRange indicates a sequence index outside the run.
	ErrOutOfRange = errors.New("sequence index out of range")

	// ErrInvalidMode indicates an unknown output format name.
	ErrInvalidMode = errors.New("invalid output format")
)
