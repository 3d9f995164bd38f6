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
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/vibegrep/ai"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "VIBEGREP"

// Setting keys. The environment variable for a key is EnvPrefix + "_" +
// the upper-cased key.
const (
	KeyAPIKey      = "api_key"
	KeyBaseURL     = "base_url"
	KeyModel       = "model"
	KeyThreads     = "threads"
	KeyDepth       = "depth"
	KeyGlob        = "glob"
	KeyBatchBytes  = "batch_bytes"
	KeyBatchFiles  = "batch_files"
	KeyRetries     = "retries"
	KeyTimeout     = "timeout"
	KeyGracePeriod = "grace_period"
	KeyFormat      = "format"
	KeyProgress    = "progress"
	KeyDryRun      = "dry_run"
	KeyLogLevel    = "log_level"
)

var keys = []string{
	KeyAPIKey, KeyBaseURL, KeyModel, KeyThreads, KeyDepth, KeyGlob,
	KeyBatchBytes, KeyBatchFiles, KeyRetries, KeyTimeout, KeyGracePeriod,
	KeyFormat, KeyProgress, KeyDryRun, KeyLogLevel,
}

// Settings holds every resolved option of a run.
type Settings struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Threads     int           `mapstructure:"threads"`
	Depth       int           `mapstructure:"depth"`
	Glob        string        `mapstructure:"glob"`
	BatchBytes  int           `mapstructure:"batch_bytes"`
	BatchFiles  int           `mapstructure:"batch_files"`
	Retries     int           `mapstructure:"retries"` // Attempts per batch, first try included
	Timeout     time.Duration `mapstructure:"timeout"`
	GracePeriod time.Duration `mapstructure:"grace_period"`
	Format      string        `mapstructure:"format"`
	Progress    bool          `mapstructure:"progress"`
	DryRun      bool          `mapstructure:"dry_run"`
	LogLevel    string        `mapstructure:"log_level"`
}

// LoadSettings loads settings from the environment and an optional .env file
// in the working directory. overrides win over everything else.
func LoadSettings(overrides map[string]any) (*Settings, error) {
	return LoadSettingsFrom(".", overrides)
}

// LoadSettingsFrom is LoadSettings with the .env file looked up in dir.
func LoadSettingsFrom(dir string, overrides map[string]any) (*Settings, error) {
	v := viper.New()

	v.SetDefault(KeyThreads, 10)
	v.SetDefault(KeyDepth, 1)
	v.SetDefault(KeyBatchBytes, 20000)
	v.SetDefault(KeyBatchFiles, 0)
	v.SetDefault(KeyRetries, 3)
	v.SetDefault(KeyTimeout, 120*time.Second)
	v.SetDefault(KeyGracePeriod, 5*time.Second)
	v.SetDefault(KeyFormat, "auto")
	v.SetDefault(KeyProgress, false)
	v.SetDefault(KeyDryRun, false)
	v.SetDefault(KeyLogLevel, "warn")

	// .env values replace defaults but lose to the real environment
	readDotEnv(v, dir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		_ = v.BindEnv(key, envName(key))
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	settings.BaseURL = strings.TrimRight(strings.TrimSpace(settings.BaseURL), "/")
	settings.APIKey = strings.TrimSpace(settings.APIKey)
	settings.Model = strings.TrimSpace(settings.Model)

	return &settings, nil
}

// readDotEnv copies VIBEGREP_* entries of dir/.env into v as defaults.
// A missing or unreadable file is ignored.
func readDotEnv(v *viper.Viper, dir string) {
	dv := viper.New()
	dv.SetConfigFile(filepath.Join(dir, ".env"))
	dv.SetConfigType("env")
	if err := dv.ReadInConfig(); err != nil {
		return
	}
	for _, key := range keys {
		name := strings.ToLower(envName(key))
		if dv.IsSet(name) {
			v.SetDefault(key, dv.Get(name))
		}
	}
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(key)
}

// Validate checks ranges and enumerations. Endpoint credentials are checked
// separately by AIConfig, because a dry run does not need them.
func (s *Settings) Validate() error {
	if s.Threads < 1 {
		return fmt.Errorf("%w: threads must be at least 1, got %d", ErrInvalidSettings, s.Threads)
	}
	if s.Depth != 1 && s.Depth != 2 {
		return fmt.Errorf("%w: depth must be 1 or 2, got %d", ErrInvalidSettings, s.Depth)
	}
	if s.BatchBytes < 0 || s.BatchFiles < 0 {
		return fmt.Errorf("%w: batch limits cannot be negative", ErrInvalidSettings)
	}
	if s.Retries < 1 {
		return fmt.Errorf("%w: retries must be at least 1, got %d", ErrInvalidSettings, s.Retries)
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidSettings, s.Timeout)
	}
	if s.GracePeriod < 0 {
		return fmt.Errorf("%w: grace period cannot be negative", ErrInvalidSettings)
	}
	switch strings.ToLower(s.Format) {
	case "auto", "tty", "pipe":
	default:
		return fmt.Errorf("%w: format must be auto, tty or pipe, got %q", ErrInvalidSettings, s.Format)
	}
	if _, err := ParseLevel(s.LogLevel); err != nil {
		return err
	}
	return nil
}

// AIConfig builds and validates the endpoint configuration.
func (s *Settings) AIConfig() (*ai.Config, error) {
	cfg := ai.NewConfig(
		ai.WithHost(s.BaseURL),
		ai.WithAPIKey(s.APIKey),
		ai.WithModel(s.Model),
	)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w (set %s_BASE_URL, %s_API_KEY and %s_MODEL)", err, EnvPrefix, EnvPrefix, EnvPrefix)
	}
	return cfg, nil
}
