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

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// Digest is a short content fingerprint used to identify batches in logs
// and dry-run output.
type Digest uint64

// String renders the digest as 16 hex digits.
func (d Digest) String() string {
	return fmt.Sprintf("%016x", uint64(d))
}

// DigestOf hashes the given parts with BLAKE2b-64.
// Parts are length-prefixed so ("ab","c") and ("a","bc") differ.
func DigestOf(parts ...string) Digest {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	var n [binary.MaxVarintLen64]byte
	for _, p := range parts {
		l := binary.PutUvarint(n[:], uint64(len(p)))
		h.Write(n[:l])
		h.Write([]byte(p))
	}
	sum := h.Sum(nil)
	return Digest(binary.LittleEndian.Uint64(sum))
}

// CandidateFile is a file selected for search.
// Seq is assigned once at enumeration and is the only ordering key used
// after that point.
type CandidateFile struct {
	Path    string // Path relative to the search root, slash separated
	Content []byte
	Seq     int
	Depth   int // 1 for files in the root, 2 for files one directory down
}

// Size returns the content length in bytes.
func (f CandidateFile) Size() int {
	return len(f.Content)
}

// Lines splits the content into lines. A trailing newline does not produce
// an extra empty line and carriage returns are stripped.
func (f CandidateFile) Lines() []string {
	return SplitLines(string(f.Content))
}

// SplitLines splits text the way line numbers are counted everywhere in
// vibegrep.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Batch is a group of files sent together in one request.
type Batch struct {
	Index int
	Files []CandidateFile
}

// Size returns the combined content length of the batch.
func (b Batch) Size() int {
	total := 0
	for _, f := range b.Files {
		total += f.Size()
	}
	return total
}

// Oversized reports whether the batch holds more content than maxBytes.
// Only a batch with a single file that alone exceeds the limit can be
// oversized. A maxBytes of zero means no limit.
func (b Batch) Oversized(maxBytes int) bool {
	return maxBytes > 0 && b.Size() > maxBytes
}

// Paths returns the member paths in order.
func (b Batch) Paths() []string {
	paths := make([]string, len(b.Files))
	for i, f := range b.Files {
		paths[i] = f.Path
	}
	return paths
}

// Digest fingerprints batch membership: member paths and sizes, in order.
func (b Batch) Digest() Digest {
	parts := make([]string, 0, 2*len(b.Files))
	for _, f := range b.Files {
		parts = append(parts, f.Path, strconv.Itoa(f.Size()))
	}
	return DigestOf(parts...)
}

// ErrorKind classifies a batch failure.
type ErrorKind int

const (
	// KindTransient means the retry budget ran out on timeouts, rate limits,
	// server errors or network errors.
	KindTransient ErrorKind = iota + 1
	// KindRejected means the endpoint refused the request in a way that
	// retrying cannot fix.
	KindRejected
	// KindFatal means credentials or the model were rejected. The run aborts.
	KindFatal
	// KindCancelled means the run was interrupted before the batch finished.
	KindCancelled
	// KindParse means the response could not be interpreted.
	KindParse
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindRejected:
		return "rejected"
	case KindFatal:
		return "fatal"
	case KindCancelled:
		return "cancelled"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Failure describes why a batch produced no matches.
type Failure struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (f *Failure) Error() string {
	if f.Detail == "" && f.Err != nil {
		return f.Kind.String() + ": " + f.Err.Error()
	}
	return f.Kind.String() + ": " + f.Detail
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// RetryState is a step of the per-batch dispatch state machine.
type RetryState int

const (
	StatePending RetryState = iota
	StateInFlight
	StateRetrying
	StateSucceeded
	StateFailed
)

func (s RetryState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateInFlight:
		return "in_flight"
	case StateRetrying:
		return "retrying"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is allowed.
func (s RetryState) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// DispatchResult is the single outcome of dispatching one batch.
// Exactly one of Raw (on success) and Failure is meaningful.
type DispatchResult struct {
	BatchIndex int
	Raw        string
	Failure    *Failure
	Attempts   int
	Trace      []RetryState
}

// OK reports whether the batch succeeded.
func (r DispatchResult) OK() bool {
	return r.Failure == nil
}

// LineRange is an inclusive, 1-based range of lines.
type LineRange struct {
	Start int
	End   int
}

func (r LineRange) String() string {
	if r.Start == r.End {
		return strconv.Itoa(r.Start)
	}
	return strconv.Itoa(r.Start) + "-" + strconv.Itoa(r.End)
}

// Contains reports whether line n falls inside the range.
func (r LineRange) Contains(n int) bool {
	return n >= r.Start && n <= r.End
}

// MatchRecord describes which lines of one file matched the query.
type MatchRecord struct {
	Path     string
	Seq      int
	Ranges   []LineRange    // Sorted, non-overlapping
	Snippets map[int]string // Line number to line text, taken from the file
}

// LineNumbers returns every matched line number in ascending order.
func (m MatchRecord) LineNumbers() []int {
	var nums []int
	for _, r := range m.Ranges {
		for n := r.Start; n <= r.End; n++ {
			nums = append(nums, n)
		}
	}
	return nums
}
