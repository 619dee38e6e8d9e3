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

// Package ai provides abstractions for the language-model services used by
// the research pipeline.
//
// Two capabilities are modelled:
//
//   - Embedder: turns query and passage text into vectors. Its method set
//     matches langchaingo's embeddings.Embedder, so an Embedder can back any
//     langchaingo vector store.
//   - Generator: issues a single completion call from a system instruction
//     and a user prompt. Retrieval providers use it for insight extraction
//     and the synthesis engine uses it for the final report.
//
// Provider aggregates both for initialization and lifecycle management.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// Public constructors in ai/openai return interface types. Mock constructors
// return concrete types so tests can script responses and inspect calls:
//
//	gen := mock.NewMockGenerator()
//	gen.WithResponse("report text")
//	count := gen.CallCount()
package ai
