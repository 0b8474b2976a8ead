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

import "errors"

var (
	// ErrCorpusRequired is returned when no corpus is provided.
	ErrCorpusRequired = errors.New("corpus required")

	// ErrScorerRequired is returned when a relevance scorer is not provided.
	ErrScorerRequired = errors.New("relevance scorer required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidFloor is returned when a floor lies outside [0,1].
	ErrInvalidFloor = errors.New("floor must be within [0,1]")

	// ErrCorpusUnavailable wraps failures reading the knowledge corpus.
	ErrCorpusUnavailable = errors.New("corpus unavailable")
)
