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
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/poiesic/vibegrep"
	"github.com/poiesic/vibegrep/config"
	"github.com/poiesic/vibegrep/search"
	"github.com/urfave/cli/v2"
)

// Exit codes.
const (
	exitOK          = 0
	exitSetup       = 2
	exitInterrupted = 130
)

// flagKeys maps command-line flags to setting keys. Only flags the user set
// override the environment.
var flagKeys = map[string]string{
	"depth":        config.KeyDepth,
	"threads":      config.KeyThreads,
	"glob":         config.KeyGlob,
	"model":        config.KeyModel,
	"dry-run":      config.KeyDryRun,
	"batch-bytes":  config.KeyBatchBytes,
	"batch-files":  config.KeyBatchFiles,
	"retries":      config.KeyRetries,
	"timeout":      config.KeyTimeout,
	"grace-period": config.KeyGracePeriod,
	"format":       config.KeyFormat,
	"progress":     config.KeyProgress,
	"log-level":    config.KeyLogLevel,
}

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newApp(stdout, stderr).RunContext(ctx, args)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, search.ErrInterrupted):
		return exitInterrupted
	default:
		fmt.Fprintf(stderr, "%s%v\n", search.DiagnosticPrefix, err)
		return exitSetup
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "vibegrep",
		Usage:     "grep, but the search engine is an LLM",
		ArgsUsage: "QUERY [PATH]",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "depth",
				Usage: "Directory depth to search (1 or 2)",
				Value: 1,
			},
			&cli.IntFlag{
				Name:    "threads",
				Aliases: []string{"j"},
				Usage:   "Number of concurrent requests",
				Value:   10,
			},
			&cli.StringFlag{
				Name:    "glob",
				Aliases: []string{"g"},
				Usage:   "Only search files whose name matches `PATTERN`",
			},
			&cli.StringFlag{
				Name:  "model",
				Usage: "Model name (defaults to $VIBEGREP_MODEL)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Show the batch plan without calling the model",
			},
			&cli.IntFlag{
				Name:  "batch-bytes",
				Usage: "Maximum content bytes per request, 0 for no limit",
				Value: 20000,
			},
			&cli.IntFlag{
				Name:  "batch-files",
				Usage: "Maximum files per request, 0 for no limit",
			},
			&cli.IntFlag{
				Name:  "retries",
				Usage: "Attempts per request before giving up",
				Value: 3,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Timeout for a single request",
				Value: 120 * time.Second,
			},
			&cli.DurationFlag{
				Name:  "grace-period",
				Usage: "How long in-flight requests may finish after an interrupt",
				Value: 5 * time.Second,
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: auto, tty or pipe",
				Value: "auto",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Show a progress line on stderr",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Before:         setupLogger,
		Action:         searchCommand,
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func searchCommand(c *cli.Context) error {
	if c.NArg() < 1 || c.NArg() > 2 {
		_ = cli.ShowAppHelp(c)
		return fmt.Errorf("expected QUERY [PATH], got %d arguments", c.NArg())
	}
	query := c.Args().Get(0)
	root := "."
	if c.NArg() == 2 {
		root = c.Args().Get(1)
	}

	overrides := make(map[string]any)
	for flag, key := range flagKeys {
		if c.IsSet(flag) {
			overrides[key] = c.Value(flag)
		}
	}

	settings, err := config.LoadSettings(overrides)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	// the level may also come from the environment or .env
	if _, err := config.SetupLogger(settings.LogLevel, c.App.ErrWriter); err != nil {
		return err
	}
	config.LogSettings(settings, nil)

	engine, err := vibegrep.NewEngine(settings, vibegrep.WithStreams(c.App.Writer, c.App.ErrWriter))
	if err != nil {
		return err
	}
	defer engine.Close()

	_, err = engine.Search(c.Context, query, root)
	return err
}

func setupLogger(c *cli.Context) error {
	_, err := config.SetupLogger(c.String("log-level"), c.App.ErrWriter)
	return err
}
