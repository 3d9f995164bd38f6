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
// Package search runs a vibegrep search from candidate files to rendered
// output.
//
// The Searcher wires the stages together:
//
//	files -> planner.Plan -> dispatch.Dispatcher -> response.Parse -> output.Assembler
//
// One consumer loop reads dispatch results as they complete, parses them,
// and feeds the assembler, which renders matches in traversal order. The
// same loop is the only writer of diagnostics, so stderr always receives
// whole lines.
//
// A failed batch never stops the run; its files simply produce no matches
// and a diagnostic is written. A fatal endpoint rejection (bad credentials
// or an unknown model) cancels the remaining batches and Run returns
// ErrFatal.
//
// DryRun plans the batches and prints the preview without contacting the
// endpoint.
package search
