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
package request

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/poiesic/vibegrep/ai"
	"github.com/poiesic/vibegrep/core"
)

// SystemPrompt returns the system message sent with every request.
func SystemPrompt() string {
	return systemPrompt
}

// Encode serializes a batch into an endpoint request.
// File ids are 1-based positions within the batch.
func Encode(batch core.Batch, query string, model string) *ai.Request {
	req := &ai.Request{
		Model:  model,
		Query:  query,
		Files:  make([]ai.File, len(batch.Files)),
		System: systemPrompt,
	}

	var sb strings.Builder
	sb.WriteString("Search query: ")
	sb.WriteString(query)
	sb.WriteString("\n")

	for i, f := range batch.Files {
		lines := f.Lines()
		id := i + 1
		req.Files[i] = ai.File{
			ID:      id,
			Path:    f.Path,
			Content: string(f.Content),
			Lines:   len(lines),
		}

		fmt.Fprintf(&sb, "\n=== FILE %d: %s (%d lines) ===\n", id, f.Path, len(lines))
		for n, line := range lines {
			sb.WriteString(strconv.Itoa(n + 1))
			sb.WriteString("| ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	req.User = sb.String()
	return req
}

// Lookup maps a request file id back to the batch file it was built from.
func Lookup(req *ai.Request, batch core.Batch, id int) (core.CandidateFile, bool) {
	if _, ok := req.File(id); !ok || id > len(batch.Files) {
		return core.CandidateFile{}, false
	}
	return batch.Files[id-1], true
}
