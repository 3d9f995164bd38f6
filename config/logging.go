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
package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w %q: must be one of debug, info, warn, error", ErrInvalidLogLevel, name)
	}
}

// SetupLogger installs a text logger writing to w as the slog default.
func SetupLogger(level string, w io.Writer) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: lvl,
	}))
	slog.SetDefault(logger)
	return logger, nil
}

// LogSettings logs the resolved settings with the API key masked.
func LogSettings(s *Settings, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.LogAttrs(context.Background(), slog.LevelInfo, "resolved settings", slog.Any("settings", s))
}

// LogValue implements slog.LogValuer and masks the API key.
func (s Settings) LogValue() slog.Value {
	key := ""
	if s.APIKey != "" {
		key = "****"
	}
	return slog.GroupValue(
		slog.String("base_url", s.BaseURL),
		slog.String("api_key", key),
		slog.String("model", s.Model),
		slog.Int("threads", s.Threads),
		slog.Int("depth", s.Depth),
		slog.String("glob", s.Glob),
		slog.Int("batch_bytes", s.BatchBytes),
		slog.Int("batch_files", s.BatchFiles),
		slog.Int("retries", s.Retries),
		slog.Duration("timeout", s.Timeout),
		slog.Duration("grace_period", s.GracePeriod),
		slog.String("format", s.Format),
		slog.Bool("dry_run", s.DryRun),
	)
}
