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
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/poiesic/vibegrep/core"
)

// Renderer writes released match records to an output stream.
type Renderer interface {
	Render(rec core.MatchRecord) error
}

// Mode selects how records are rendered.
type Mode int

const (
	ModeAuto Mode = iota
	ModeTTY
	ModePipe
)

func (m Mode) String() string {
	switch m {
	case ModeTTY:
		return "tty"
	case ModePipe:
		return "pipe"
	default:
		return "auto"
	}
}

// ParseMode parses a --format value.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "tty":
		return ModeTTY, nil
	case "pipe":
		return ModePipe, nil
	default:
		return ModeAuto, fmt.Errorf("%w: %q (want auto, tty or pipe)", ErrInvalidMode, s)
	}
}

// DetectMode resolves ModeAuto by checking whether f is a terminal.
func DetectMode(mode Mode, f *os.File) Mode {
	if mode != ModeAuto {
		return mode
	}
	if f != nil && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return ModeTTY
	}
	return ModePipe
}

// NewRenderer returns the renderer for a resolved mode.
func NewRenderer(mode Mode, w io.Writer) Renderer {
	if mode == ModeTTY {
		return NewTTYRenderer(w)
	}
	return NewPipeRenderer(w)
}

// PipeRenderer prints grep-style "path:line:text" lines.
type PipeRenderer struct {
	w io.Writer
}

// NewPipeRenderer creates a pipe renderer writing to w.
func NewPipeRenderer(w io.Writer) *PipeRenderer {
	return &PipeRenderer{w: w}
}

// Render writes one line per matched line.
func (r *PipeRenderer) Render(rec core.MatchRecord) error {
	var sb strings.Builder
	for _, n := range rec.LineNumbers() {
		sb.WriteString(rec.Path)
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(n))
		sb.WriteByte(':')
		sb.WriteString(rec.Snippets[n])
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(r.w, sb.String())
	return err
}

// TTYRenderer prints grouped, styled matches for a terminal.
type TTYRenderer struct {
	w       io.Writer
	path    lipgloss.Style
	number  lipgloss.Style
	printed bool
}

// TTYOption configures a TTYRenderer.
type TTYOption func(*TTYRenderer)

// WithColorProfile overrides the color profile. termenv.Ascii disables all
// styling.
func WithColorProfile(p termenv.Profile) TTYOption {
	return func(r *TTYRenderer) {
		lr := lipgloss.NewRenderer(r.w)
		lr.SetColorProfile(p)
		r.path = lr.NewStyle().Bold(true)
		r.number = lr.NewStyle().Faint(true)
	}
}

// NewTTYRenderer creates a terminal renderer writing to w. Styling is always
// emitted unless a profile option says otherwise.
func NewTTYRenderer(w io.Writer, opts ...TTYOption) *TTYRenderer {
	r := &TTYRenderer{w: w}
	WithColorProfile(termenv.ANSI)(r)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render writes the path header and the numbered lines of one file.
func (r *TTYRenderer) Render(rec core.MatchRecord) error {
	nums := rec.LineNumbers()
	if len(nums) == 0 {
		return nil
	}

	var sb strings.Builder
	if r.printed {
		sb.WriteByte('\n')
	}
	sb.WriteString(r.path.Render(rec.Path))
	sb.WriteByte('\n')

	width := len(strconv.Itoa(nums[len(nums)-1]))
	prev := -1
	for _, n := range nums {
		if prev >= 0 && n-prev > 1 {
			sb.WriteByte('\n')
		}
		sb.WriteString(r.number.Render(fmt.Sprintf("%*d│", width, n)))
		sb.WriteByte(' ')
		sb.WriteString(rec.Snippets[n])
		sb.WriteByte('\n')
		prev = n
	}

	if _, err := io.WriteString(r.w, sb.String()); err != nil {
		return err
	}
	r.printed = true
	return nil
}
