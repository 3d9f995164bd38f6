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
package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/poiesic/vibegrep/core"
	"github.com/poiesic/vibegrep/dispatch"
	"github.com/poiesic/vibegrep/output"
	"github.com/poiesic/vibegrep/planner"
	"github.com/poiesic/vibegrep/request"
	"github.com/poiesic/vibegrep/response"
)

// DiagnosticPrefix starts every diagnostic line.
const DiagnosticPrefix = "vibegrep: "

// Summary describes a finished run.
type Summary struct {
	RunID         string
	Files         int
	Batches       int
	MatchedFiles  int
	MatchedLines  int
	FailedBatches int
	Diagnostics   int
	Cancelled     bool
}

// Searcher runs searches over candidate files.
type Searcher struct {
	dispatcher *dispatch.Dispatcher
	budget     planner.Budget
	stdout     io.Writer
	stderr     io.Writer
	mode       output.Mode
	progress   bool
	monitor    Monitor
	logger     *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithDispatcher sets the dispatcher used by Run.
// DryRun works without one.
func WithDispatcher(d *dispatch.Dispatcher) Option {
	return func(s *Searcher) error {
		s.dispatcher = d
		return nil
	}
}

// WithBudget sets the batch budget.
// Default is planner.DefaultBudget().
func WithBudget(b planner.Budget) Option {
	return func(s *Searcher) error {
		if err := b.Validate(); err != nil {
			return err
		}
		s.budget = b
		return nil
	}
}

// WithOutput sets where matches are written and how they are rendered.
// ModeAuto renders for a terminal when w is one.
// Default is os.Stdout in ModeAuto.
func WithOutput(w io.Writer, mode output.Mode) Option {
	return func(s *Searcher) error {
		if w == nil {
			w = os.Stdout
		}
		s.stdout = w
		s.mode = mode
		return nil
	}
}

// WithDiagnostics sets where diagnostics are written.
// Default is os.Stderr.
func WithDiagnostics(w io.Writer) Option {
	return func(s *Searcher) error {
		if w == nil {
			w = os.Stderr
		}
		s.stderr = w
		return nil
	}
}

// WithProgress enables a progress line on the diagnostics stream.
func WithProgress(enabled bool) Option {
	return func(s *Searcher) error {
		s.progress = enabled
		return nil
	}
}

// WithMonitor sets hooks that observe each run.
func WithMonitor(m Monitor) Option {
	return func(s *Searcher) error {
		if m == nil {
			m = &noopMonitor{}
		}
		s.monitor = m
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(opts ...Option) (*Searcher, error) {
	s := &Searcher{
		budget:  planner.DefaultBudget(),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		mode:    output.ModeAuto,
		monitor: &noopMonitor{},
		logger:  slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.logger = s.logger.With("component", "search")
	return s, nil
}

// Plan groups files into batches and checks the result.
func (s *Searcher) Plan(files []core.CandidateFile) ([]core.Batch, error) {
	batches, err := planner.Plan(files, s.budget)
	if err != nil {
		return nil, err
	}
	if err := core.ValidatePartition(files, batches); err != nil {
		return nil, err
	}
	return batches, nil
}

// DryRun prints the batch plan for files without contacting the endpoint.
func (s *Searcher) DryRun(files []core.CandidateFile) (*Summary, error) {
	batches, err := s.Plan(files)
	if err != nil {
		return nil, err
	}
	if err := output.RenderPlan(s.stdout, files, batches, s.budget); err != nil {
		return nil, err
	}
	return &Summary{Files: len(files), Batches: len(batches)}, nil
}

// Run searches files for query and renders matches as they become
// releasable. Per-batch failures are reported as diagnostics and do not fail
// the run. The returned error is ErrFatal for an endpoint rejection that
// affects every batch and ErrInterrupted when ctx is cancelled.
func (s *Searcher) Run(ctx context.Context, query string, files []core.CandidateFile) (*Summary, error) {
	if s.dispatcher == nil {
		return nil, ErrDispatcherRequired
	}

	batches, err := s.Plan(files)
	if err != nil {
		return nil, err
	}

	run := &runState{
		Searcher: s,
		summary:  &Summary{RunID: uuid.NewString(), Files: len(files), Batches: len(batches)},
	}
	logger := s.logger.With("run", run.summary.RunID)
	logger.Info("starting search", "query", query, "files", len(files), "batches", len(batches), "workers", s.dispatcher.Workers())
	s.monitor.Start(run.summary.RunID, query, len(files), len(batches))

	if s.progress && len(batches) > 0 {
		run.progress = NewProgressTracker(s.stderr, len(batches), 1)
		run.progress.Start()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	assembler := output.NewAssembler(len(files), output.NewRenderer(output.DetectMode(s.mode, asFile(s.stdout)), s.stdout))
	model := s.dispatcher.Model()

	var fatal *core.Failure
	cancelled := 0

	for res := range s.dispatcher.Dispatch(runCtx, batches, query) {
		batch := batches[res.BatchIndex]
		var records []core.MatchRecord

		switch {
		case res.OK():
			req := request.Encode(batch, query, model)
			parsed, err := response.Parse(res.Raw, req, batch)
			if err != nil {
				run.diagnose("batch %d (%s): %s: %v", batch.Index+1, describe(batch), core.KindParse, err)
				break
			}
			for _, d := range parsed.Diagnostics {
				run.diagnose("%s", d)
			}
			records = parsed.Records

		case res.Failure.Kind == core.KindCancelled:
			run.summary.FailedBatches++
			cancelled++

		default:
			run.summary.FailedBatches++
			if res.Failure.Kind == core.KindFatal {
				if fatal == nil {
					fatal = res.Failure
					logger.Error("endpoint rejected the request, aborting", "batch", batch.Index, "err", res.Failure)
					cancel()
				}
				break
			}
			run.diagnose("batch %d (%s): %v", batch.Index+1, describe(batch), res.Failure)
		}

		s.monitor.BatchDone(res, records)

		// Matches must start on a clean line
		if run.progress != nil {
			run.progress.Clear()
		}
		if _, err := assembler.Accept(entries(batch, records)...); err != nil {
			return run.summary, err
		}
		if run.progress != nil {
			run.progress.Increment(1)
		}
		for _, r := range records {
			run.summary.MatchedFiles++
			run.summary.MatchedLines += len(r.LineNumbers())
		}
	}

	if run.progress != nil {
		run.progress.Finish()
	}
	if !assembler.Done() {
		return run.summary, fmt.Errorf("results missing for %d files", len(assembler.Unreleased()))
	}

	logger.Info("search finished",
		"matchedFiles", run.summary.MatchedFiles,
		"matchedLines", run.summary.MatchedLines,
		"failedBatches", run.summary.FailedBatches)

	switch {
	case fatal != nil:
		s.monitor.Finish(run.summary)
		return run.summary, fmt.Errorf("%w: %w", ErrFatal, fatal)
	case ctx.Err() != nil:
		run.summary.Cancelled = true
		run.diagnose("interrupted, %d of %d batches not searched", cancelled, len(batches))
		s.monitor.Finish(run.summary)
		return run.summary, fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
	}

	s.monitor.Finish(run.summary)
	return run.summary, nil
}

// runState is the per-run state owned by the consumer loop.
type runState struct {
	*Searcher
	summary  *Summary
	progress *ProgressTracker
}

// diagnose writes one prefixed diagnostic line.
func (r *runState) diagnose(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.summary.Diagnostics++
	r.monitor.Diagnostic(msg)
	if r.progress != nil {
		r.progress.Clear()
	}
	if _, err := io.WriteString(r.stderr, DiagnosticPrefix+msg+"\n"); err != nil {
		r.logger.Debug("failed to write diagnostic", "err", err)
	}
}

// entries builds one assembler entry per file of the batch.
func entries(batch core.Batch, records []core.MatchRecord) []output.Entry {
	bySeq := make(map[int]*core.MatchRecord, len(records))
	for i := range records {
		bySeq[records[i].Seq] = &records[i]
	}
	out := make([]output.Entry, len(batch.Files))
	for i, f := range batch.Files {
		out[i] = output.Entry{Seq: f.Seq, Record: bySeq[f.Seq]}
	}
	return out
}

// describe names a batch by its files for diagnostics.
func describe(batch core.Batch) string {
	const maxNames = 3
	paths := batch.Paths()
	if len(paths) <= maxNames {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(paths[:maxNames], ", "), len(paths)-maxNames)
}

// asFile returns w as a file when it is one, for terminal detection.
func asFile(w io.Writer) *os.File {
	f, _ := w.(*os.File)
	return f
}
