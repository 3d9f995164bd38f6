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
package planner

import (
	"fmt"

	"github.com/poiesic/vibegrep/core"
)

const (
	// DefaultMaxBytes is the default content budget per batch, roughly 5k tokens.
	DefaultMaxBytes = 20000

	// BytesPerToken is the rough ratio used for token estimates.
	BytesPerToken = 4
)

// Budget bounds the size of a batch. Zero means unlimited for that dimension.
type Budget struct {
	MaxBytes int
	MaxFiles int
}

// DefaultBudget returns the budget used when none is configured.
func DefaultBudget() Budget {
	return Budget{MaxBytes: DefaultMaxBytes}
}

// Validate checks that neither limit is negative.
func (b Budget) Validate() error {
	if b.MaxBytes < 0 {
		return fmt.Errorf("%w: max bytes %d", ErrInvalidBudget, b.MaxBytes)
	}
	if b.MaxFiles < 0 {
		return fmt.Errorf("%w: max files %d", ErrInvalidBudget, b.MaxFiles)
	}
	return nil
}

// fits reports whether a file of the given size can join a batch that
// already holds count files and size bytes.
func (b Budget) fits(count, size, next int) bool {
	if b.MaxFiles > 0 && count+1 > b.MaxFiles {
		return false
	}
	if b.MaxBytes > 0 && size+next > b.MaxBytes {
		return false
	}
	return true
}

// EstimateTokens gives a rough token count for n bytes of content.
func EstimateTokens(n int) int {
	return (n + BytesPerToken - 1) / BytesPerToken
}

// Plan partitions files into batches without reordering them.
// files must be numbered 0..n-1 in order. Batch indices start at 0.
func Plan(files []core.CandidateFile, budget Budget) ([]core.Batch, error) {
	if err := budget.Validate(); err != nil {
		return nil, err
	}
	if err := core.ValidateSequence(files); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	var batches []core.Batch
	var current []core.CandidateFile
	size := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		batches = append(batches, core.Batch{Index: len(batches), Files: current})
		current = nil
		size = 0
	}

	for _, f := range files {
		// An empty batch always accepts the file, even when it is oversized
		if len(current) > 0 && !budget.fits(len(current), size, f.Size()) {
			flush()
		}
		current = append(current, f)
		size += f.Size()

		// An oversized file never shares its batch
		if budget.MaxBytes > 0 && size > budget.MaxBytes {
			flush()
		}
	}
	flush()

	return batches, nil
}
