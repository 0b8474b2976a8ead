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


// Package ai provides abstractions for AI services used in resolvit.
//
// This package defines interfaces for the model-backed operations the
// resolution pipeline depends on. The pipeline depends on these abstractions
// rather than on a particular model API.
//
// # Interfaces
//
//   - Embedder: Generates vector embeddings from text
//   - RelevanceScorer: Rates candidate documents for a question (AI search)
//   - AnswerGenerator: Synthesizes a grounded, cited answer (primary composer)
//   - Rewriter: Lightly reformats an extracted answer (fallback composer)
//   - AIProvider: Aggregates the langchaingo-backed services
//
// # Implementation Packages
//
//   - ai/openai: langchaingo implementation for OpenAI-compatible APIs
//   - ai/lite: go-openai implementation of Rewriter for small local models
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, lite.NewRewriter, etc.) return
// INTERFACE types to prevent coupling to a concrete implementation.
//
//	provider, err := openai.NewProvider(config)  // returns ai.AIProvider
//
// Test utility constructors (mock.NewMockEmbedder, mock.NewMockAnswerGenerator)
// return CONCRETE types to enable test assertions and behavior injection via
// the mock's public fields and methods (CallCount, Reset, etc.).
//
//	gen := mock.NewMockAnswerGenerator()
//	gen.GenerateAnswerFunc = func(...) (*ai.GeneratedAnswer, error) { ... }
//	count := gen.CallCount()
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithHost("http://localhost:11434"))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	embedder := ai.NewCachingEmbedder(provider.Embedder(), 10*time.Minute)
//	vec, err := embedder.EmbedText(ctx, "How do I request leave?")
package ai
