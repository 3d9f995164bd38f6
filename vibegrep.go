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
// Package vibegrep is semantic grep: it asks a language model which lines of
// a set of files match a natural-language query and prints them in the
// order grep would.
//
// Engine assembles the pieces from resolved settings:
//
//	settings, err := config.LoadSettings(nil)
//	engine, err := vibegrep.NewEngine(settings)
//	defer engine.Close()
//	summary, err := engine.Search(ctx, "where are retries configured", ".")
package vibegrep

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/poiesic/vibegrep/ai"
	"github.com/poiesic/vibegrep/ai/openai"
	"github.com/poiesic/vibegrep/config"
	"github.com/poiesic/vibegrep/core"
	"github.com/poiesic/vibegrep/dispatch"
	"github.com/poiesic/vibegrep/output"
	"github.com/poiesic/vibegrep/planner"
	"github.com/poiesic/vibegrep/search"
	"github.com/poiesic/vibegrep/traversal"
)

// Engine runs searches with one set of settings.
type Engine struct {
	settings   *config.Settings
	provider   ai.Provider
	dispatcher *dispatch.Dispatcher
	mode       output.Mode
	stdout     io.Writer
	stderr     io.Writer
	executor   traversal.CommandExecutor
	base       *slog.Logger
	logger     *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	provider ai.Provider
	stdout   io.Writer
	stderr   io.Writer
	executor traversal.CommandExecutor
	logger   *slog.Logger
}

// WithProvider uses p instead of building an OpenAI provider from the
// settings. The engine takes ownership and closes it.
func WithProvider(p ai.Provider) EngineOption {
	return func(o *engineOptions) {
		o.provider = p
	}
}

// WithStreams sets where matches and diagnostics are written.
// Defaults are os.Stdout and os.Stderr.
func WithStreams(stdout, stderr io.Writer) EngineOption {
	return func(o *engineOptions) {
		if stdout != nil {
			o.stdout = stdout
		}
		if stderr != nil {
			o.stderr = stderr
		}
	}
}

// WithCommandExecutor sets how git is run during traversal.
func WithCommandExecutor(e traversal.CommandExecutor) EngineOption {
	return func(o *engineOptions) {
		o.executor = e
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine validates settings and builds the endpoint client. A dry run
// needs no endpoint, so no client is built for one.
func NewEngine(settings *config.Settings, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	mode, err := output.ParseMode(settings.Format)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		settings: settings,
		mode:     mode,
		stdout:   options.stdout,
		stderr:   options.stderr,
		executor: options.executor,
		base:     options.logger,
		logger:   options.logger.With("component", "engine"),
	}
	if settings.DryRun {
		if options.provider != nil {
			options.provider.Close()
		}
		return e, nil
	}

	provider := options.provider
	if provider == nil {
		cfg, err := settings.AIConfig()
		if err != nil {
			return nil, err
		}
		e.logger.Debug("endpoint configured", "ai", cfg)
		if provider, err = openai.NewProvider(cfg); err != nil {
			return nil, err
		}
	}

	dispatcher, err := dispatch.New(provider.Completer(),
		dispatch.WithWorkers(settings.Threads),
		dispatch.WithModel(settings.Model),
		dispatch.WithMaxAttempts(settings.Retries),
		dispatch.WithTimeout(settings.Timeout),
		dispatch.WithGracePeriod(settings.GracePeriod),
		dispatch.WithLogger(options.logger),
	)
	if err != nil {
		provider.Close()
		return nil, err
	}

	e.provider = provider
	e.dispatcher = dispatcher
	return e, nil
}

// Close stops the workers and releases the endpoint client.
func (e *Engine) Close() error {
	if e.dispatcher != nil {
		e.dispatcher.Release()
	}
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
			return err
		}
	}
	return nil
}

// Settings returns the settings the engine was built with.
func (e *Engine) Settings() *config.Settings {
	return e.settings
}

// Budget returns the batch budget derived from the settings.
func (e *Engine) Budget() planner.Budget {
	return planner.Budget{MaxBytes: e.settings.BatchBytes, MaxFiles: e.settings.BatchFiles}
}

// Collect enumerates and reads the files under root. Files that cannot be
// read are skipped and described in the returned diagnostics.
func (e *Engine) Collect(ctx context.Context, root string) ([]core.CandidateFile, []string, error) {
	entries, err := traversal.Collect(ctx, root, traversal.Options{
		Depth:    e.settings.Depth,
		Glob:     e.settings.Glob,
		Executor: e.executor,
		Logger:   e.base,
	})
	if err != nil {
		return nil, nil, err
	}
	files, diagnostics := traversal.Read(entries)
	return files, diagnostics, nil
}

// NewSearcher creates a searcher wired to the engine's dispatcher and
// streams. opts are applied last.
func (e *Engine) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	base := []search.Option{
		search.WithBudget(e.Budget()),
		search.WithOutput(e.stdout, e.mode),
		search.WithDiagnostics(e.stderr),
		search.WithProgress(e.settings.Progress),
		search.WithLogger(e.base),
	}
	if e.dispatcher != nil {
		base = append(base, search.WithDispatcher(e.dispatcher))
	}
	return search.NewSearcher(append(base, opts...)...)
}

// Search collects the files under root and searches them for query, or
// prints the batch plan when the settings ask for a dry run.
func (e *Engine) Search(ctx context.Context, query, root string) (*search.Summary, error) {
	files, diagnostics, err := e.Collect(ctx, root)
	if err != nil {
		return nil, err
	}
	for _, d := range diagnostics {
		io.WriteString(e.stderr, search.DiagnosticPrefix+d+"\n")
	}
	if len(files) == 0 {
		io.WriteString(e.stderr, search.DiagnosticPrefix+"no files to search\n")
		return &search.Summary{}, nil
	}

	searcher, err := e.NewSearcher()
	if err != nil {
		return nil, err
	}
	if e.settings.DryRun {
		return searcher.DryRun(files)
	}
	return searcher.Run(ctx, query, files)
}
