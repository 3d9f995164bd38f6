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

import "fmt"

// ValidateSequence checks that files carry sequence indices 0..n-1 in order.
//
// Validation rules:
//   - files[i].Seq == i for every i
//   - Path must not be empty
//
// NOT validated:
//   - Content (empty files are legal candidates)
func ValidateSequence(files []CandidateFile) error {
	for i, f := range files {
		if f.Seq != i {
			return fmt.Errorf("%w: position %d has seq %d", ErrInvalidSequence, i, f.Seq)
		}
		if f.Path == "" {
			return fmt.Errorf("%w: position %d has empty path", ErrInvalidSequence, i)
		}
	}
	return nil
}

// ValidatePartition checks that batches are numbered 0..m-1, are non-empty,
// and that their files concatenated in order reproduce files exactly.
func ValidatePartition(files []CandidateFile, batches []Batch) error {
	next := 0
	for i, b := range batches {
		if b.Index != i {
			return fmt.Errorf("%w: position %d has batch index %d", ErrInvalidPartition, i, b.Index)
		}
		if len(b.Files) == 0 {
			return fmt.Errorf("%w: %w: batch %d", ErrInvalidPartition, ErrEmptyBatch, i)
		}
		for _, f := range b.Files {
			if next >= len(files) {
				return fmt.Errorf("%w: batch %d holds more files than planned", ErrInvalidPartition, i)
			}
			if f.Seq != files[next].Seq || f.Path != files[next].Path {
				return fmt.Errorf("%w: batch %d has %s (seq %d), expected %s (seq %d)",
					ErrInvalidPartition, i, f.Path, f.Seq, files[next].Path, files[next].Seq)
			}
			next++
		}
	}
	if next != len(files) {
		return fmt.Errorf("%w: %d of %d files assigned", ErrInvalidPartition, next, len(files))
	}
	return nil
}

// ValidateRange checks a single line range against a file length.
func ValidateRange(r LineRange, lineCount int) error {
	if r.Start < 1 || r.End < r.Start {
		return fmt.Errorf("%w: %s", ErrInvalidRange, r)
	}
	if r.End > lineCount {
		return fmt.Errorf("%w: %s beyond %d lines", ErrInvalidRange, r, lineCount)
	}
	return nil
}
