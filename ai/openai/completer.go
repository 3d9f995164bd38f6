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
package openai

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/poiesic/vibegrep/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// Completer sends chat completion requests through langchaingo.
type Completer struct {
	client      llms.Model
	httpClient  *http.Client
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

var _ ai.Completer = (*Completer)(nil)

func newCompleter(config *ai.Config) (*Completer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	httpClient := &http.Client{Transport: newStatusTransport(http.DefaultTransport)}
	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.Model),
		openai.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, err
	}

	return &Completer{
		client:      client,
		httpClient:  httpClient,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		logger:      slog.Default().With("component", "openai-completer"),
	}, nil
}

// NewCompleter creates a new completer for the configured endpoint.
func NewCompleter(config *ai.Config) (ai.Completer, error) {
	return newCompleter(config)
}

// Complete performs one chat completion and returns the first choice's text.
func (c *Completer) Complete(ctx context.Context, req *ai.Request) (string, error) {
	content := []llms.MessageContent{
		{
			Role: schema.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(req.System),
			},
		},
		{
			Role: schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(req.User),
			},
		},
	}

	ctx, rec := withRecorder(ctx)
	response, err := c.client.GenerateContent(ctx, content,
		llms.WithModel(req.Model),
		llms.WithTemperature(c.temperature),
		llms.WithMaxTokens(c.maxTokens))
	if err != nil {
		// Prefer what the transport saw over the library's wrapping.
		if cause := rec.get(); cause != nil {
			var se *ai.StatusError
			if errors.As(cause, &se) {
				c.logger.Debug("endpoint returned error status", "status", se.StatusCode, "files", len(req.Files))
			}
			return "", cause
		}
		return "", err
	}

	if len(response.Choices) < 1 {
		c.logger.Debug("no choices returned from model")
		return "", ai.ErrEmptyResponse
	}

	return response.Choices[0].Content, nil
}
