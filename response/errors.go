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
package response

import "errors"

var (
	// ErrMalformedResponse indicates an answer with content that matches nothing.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrBatchMismatch indicates a request that was not encoded from the given batch.
	ErrBatchMismatch = errors.New("request does not match batch")
)
