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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidSequence indicates candidate files are not numbered 0..n-1 in order.
	ErrInvalidSequence = errors.New("invalid candidate sequence")

	// ErrInvalidPartition indicates batches do not reproduce the candidate list exactly.
	ErrInvalidPartition = errors.New("invalid batch partition")

	// ErrEmptyBatch indicates a batch without files.
	ErrEmptyBatch = errors.New("batch cannot be empty")

	// ErrInvalidRange indicates a line range that is empty or starts before line 1.
	ErrInvalidRange = errors.New("invalid line range")
)
