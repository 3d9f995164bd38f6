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

import (
	"strings"

	"github.com/poiesic/vibegrep/core"
)

// locateVerbatim finds copied source lines in every file of the batch. The
// result maps 1-based file ids to single-line ranges.
func locateVerbatim(copied []string, batch core.Batch) map[int][]core.LineRange {
	found := make(map[int][]core.LineRange)
	for i, f := range batch.Files {
		for _, n := range findLines(f.Lines(), copied) {
			found[i+1] = append(found[i+1], core.LineRange{Start: n, End: n})
		}
	}
	return found
}

// findLines matches each copied line against the first unused source line
// with the same trimmed text. The search starts after the previous hit and
// wraps to the top once. Returned line numbers are 1-based.
func findLines(src []string, copied []string) []int {
	trimmed := make([]string, len(src))
	for i, l := range src {
		trimmed[i] = strings.TrimSpace(l)
	}

	var hits []int
	used := make(map[int]bool)
	next := 0

	match := func(want string, from int) bool {
		for i := from; i < len(trimmed); i++ {
			if used[i] || trimmed[i] != want {
				continue
			}
			used[i] = true
			next = i + 1
			hits = append(hits, i+1)
			return true
		}
		return false
	}

	for _, c := range copied {
		want := strings.TrimSpace(c)
		if want == "" {
			continue
		}
		if !match(want, next) {
			match(want, 0)
		}
	}
	return hits
}
