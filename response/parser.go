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
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/poiesic/vibegrep/ai"
	"github.com/poiesic/vibegrep/core"
	"github.com/poiesic/vibegrep/request"
)

var (
	directivePattern = regexp.MustCompile(`^(?:[-*]\s+)?(\d+)\s*:\s*(\d+(?:\s*-\s*\d+)?(?:\s*,\s*\d+(?:\s*-\s*\d+)?)*)\s*,?\s*$`)
	rangePattern     = regexp.MustCompile(`^(\d+)(?:\s*-\s*(\d+))?$`)
)

// Parsed is the interpretation of one answer.
type Parsed struct {
	// Records holds one record per matching file, in batch order.
	Records []core.MatchRecord
	// Diagnostics describes every part of the answer that was dropped.
	Diagnostics []string
	// Verbatim reports whether the answer was read as copied source lines.
	Verbatim bool
}

// Parse interprets raw as the answer to req, which must have been encoded
// from batch.
func Parse(raw string, req *ai.Request, batch core.Batch) (Parsed, error) {
	if req == nil || len(req.Files) != len(batch.Files) {
		return Parsed{}, ErrBatchMismatch
	}

	var (
		p          Parsed
		found      = make(map[int][]core.LineRange)
		directives int
		others     []string
	)

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "```"):
			continue
		case strings.EqualFold(line, "NONE"):
			directives++
			continue
		}

		m := directivePattern.FindStringSubmatch(line)
		if m == nil {
			others = append(others, line)
			continue
		}
		directives++

		id, _ := strconv.Atoi(m[1])
		file, ok := req.File(id)
		if !ok {
			p.Diagnostics = append(p.Diagnostics, fmt.Sprintf("batch %d: unknown file id %d", batch.Index+1, id))
			continue
		}
		for _, part := range strings.Split(m[2], ",") {
			r, err := parseRange(strings.TrimSpace(part))
			if err == nil {
				err = core.ValidateRange(r, file.Lines)
			}
			if err != nil {
				p.Diagnostics = append(p.Diagnostics, fmt.Sprintf("batch %d: %s: dropped range: %v", batch.Index+1, file.Path, err))
				continue
			}
			found[id] = append(found[id], r)
		}
	}

	switch {
	case directives == 0 && len(others) > 0:
		found = locateVerbatim(others, batch)
		if len(found) == 0 {
			return Parsed{}, fmt.Errorf("%w: %d unrecognized lines", ErrMalformedResponse, len(others))
		}
		p.Verbatim = true
	case len(others) > 0:
		p.Diagnostics = append(p.Diagnostics, fmt.Sprintf("batch %d: ignored %d unrecognized lines", batch.Index+1, len(others)))
	}

	for id := 1; id <= len(batch.Files); id++ {
		ranges := found[id]
		if len(ranges) == 0 {
			continue
		}
		f, _ := request.Lookup(req, batch, id)
		p.Records = append(p.Records, newRecord(f, mergeRanges(ranges)))
	}
	return p, nil
}

func parseRange(s string) (core.LineRange, error) {
	m := rangePattern.FindStringSubmatch(s)
	if m == nil {
		return core.LineRange{}, fmt.Errorf("%w: %q", core.ErrInvalidRange, s)
	}
	start, err := strconv.Atoi(m[1])
	if err != nil {
		return core.LineRange{}, fmt.Errorf("%w: %q", core.ErrInvalidRange, s)
	}
	end := start
	if m[2] != "" {
		if end, err = strconv.Atoi(m[2]); err != nil {
			return core.LineRange{}, fmt.Errorf("%w: %q", core.ErrInvalidRange, s)
		}
	}
	return core.LineRange{Start: start, End: end}, nil
}

// mergeRanges sorts ranges and joins overlapping or adjacent ones.
func mergeRanges(ranges []core.LineRange) []core.LineRange {
	sorted := make([]core.LineRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	merged := []core.LineRange{sorted[0]}
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End+1 {
			last.End = max(last.End, r.End)
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

func newRecord(f core.CandidateFile, ranges []core.LineRange) core.MatchRecord {
	lines := f.Lines()
	rec := core.MatchRecord{
		Path:     f.Path,
		Seq:      f.Seq,
		Ranges:   ranges,
		Snippets: make(map[int]string),
	}
	for _, n := range rec.LineNumbers() {
		rec.Snippets[n] = lines[n-1]
	}
	return rec
}
