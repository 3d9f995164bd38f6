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
// Package ai provides abstractions for the model endpoint used by vibegrep.
//
// This package defines the request contract sent to the endpoint and the
// Completer interface that delivers it. Higher layers (dispatch, search)
// depend on these abstractions rather than on a concrete client.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without a network
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewCompleter) return
// INTERFACE types. Test utility constructors (mock.NewMockCompleter) return
// CONCRETE types so tests can inject behavior and inspect call counts.
//
// # Usage Example
//
//	config := ai.NewConfig(
//	    ai.WithHost("https://api.openai.com/v1"),
//	    ai.WithAPIKey(key),
//	    ai.WithModel("gpt-4o-mini"),
//	)
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	text, err := provider.Completer().Complete(ctx, req)
//
// # Errors
//
// Completer implementations report non-2xx answers as *StatusError. The
// dispatch package classifies them into transient, rejected and fatal.
package ai
