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

import (
	"fmt"

	"github.com/poiesic/vibegrep/core"
)

// Entry is the final result for one file. A nil Record means the file
// produced no matches, either because none were found or because its batch
// failed.
type Entry struct {
	Seq    int
	Record *core.MatchRecord
}

// Assembler is a reorder buffer keyed by sequence index.
// It is not safe for concurrent use; one goroutine feeds it.
type Assembler struct {
	total    int
	frontier int
	holding  map[int]Entry
	renderer Renderer
}

// NewAssembler creates an assembler for sequence indices 0..total-1.
func NewAssembler(total int, renderer Renderer) *Assembler {
	return &Assembler{
		total:    total,
		holding:  make(map[int]Entry),
		renderer: renderer,
	}
}

// Accept stores entries and releases every entry that is now contiguous with
// the frontier. It returns how many entries were released. A duplicate or
// out-of-range entry is rejected before anything is stored.
func (a *Assembler) Accept(entries ...Entry) (int, error) {
	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		if e.Seq < 0 || e.Seq >= a.total {
			return 0, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, e.Seq, a.total)
		}
		_, held := a.holding[e.Seq]
		if held || seen[e.Seq] || e.Seq < a.frontier {
			return 0, fmt.Errorf("%w: %d", ErrDuplicateEntry, e.Seq)
		}
		seen[e.Seq] = true
	}
	for _, e := range entries {
		a.holding[e.Seq] = e
	}

	released := 0
	for {
		e, ok := a.holding[a.frontier]
		if !ok {
			break
		}
		delete(a.holding, a.frontier)
		a.frontier++
		released++

		if e.Record != nil && a.renderer != nil {
			if err := a.renderer.Render(*e.Record); err != nil {
				return released, err
			}
		}
	}
	return released, nil
}

// Frontier returns the smallest sequence index not yet released.
func (a *Assembler) Frontier() int {
	return a.frontier
}

// Pending returns how many entries are held waiting for the frontier.
func (a *Assembler) Pending() int {
	return len(a.holding)
}

// Done reports whether every entry has been released.
func (a *Assembler) Done() bool {
	return a.frontier >= a.total
}

// Unreleased returns every sequence index not yet released, in order.
func (a *Assembler) Unreleased() []int {
	var seqs []int
	for s := a.frontier; s < a.total; s++ {
		seqs = append(seqs, s)
	}
	return seqs
}
