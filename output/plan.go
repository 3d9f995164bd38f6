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
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/poiesic/vibegrep/core"
	"github.com/poiesic/vibegrep/planner"
)

// RenderPlan prints the dry-run preview: a summary line, then one line per
// batch with its members, size, token estimate and digest.
func RenderPlan(w io.Writer, files []core.CandidateFile, batches []core.Batch, budget planner.Budget) error {
	total := 0
	for _, f := range files {
		total += f.Size()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Would search %s files in %s batches (~%s tokens total)\n",
		humanize.Comma(int64(len(files))),
		humanize.Comma(int64(len(batches))),
		humanize.Comma(int64(planner.EstimateTokens(total))))

	oversized := 0
	for _, b := range batches {
		size := b.Size()
		fmt.Fprintf(&sb, "  batch %d: %s (%s, ~%s tokens) %s",
			b.Index+1,
			strings.Join(b.Paths(), ", "),
			humanize.Bytes(uint64(size)),
			humanize.Comma(int64(planner.EstimateTokens(size))),
			b.Digest())
		if b.Oversized(budget.MaxBytes) {
			oversized++
			sb.WriteString(" [oversized]")
		}
		sb.WriteByte('\n')
	}

	if oversized > 0 {
		fmt.Fprintf(&sb, "  ⚠ %d oversized batches (may exceed context window)\n", oversized)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
