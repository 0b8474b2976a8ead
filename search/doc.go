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


// Package search scores knowledge items against a question.
//
// FAQMatcher compares the question with curated FAQ entries by token and
// character-bigram overlap. Documents are searched by one of three
// DocumentStrategy implementations, tried by the caller in a fixed order:
//   - SemanticSearcher asks a relevance-scoring model to rate candidates
//   - KeywordSearcher measures exact and partial token overlap
//   - EmbeddingSearcher compares the question embedding with stored vectors
//
// Every strategy drops results below its own floor and reports an empty
// result, not an error, when nothing clears it. Model failures are logged and
// reported the same way. Only corpus read failures are errors.
package search
