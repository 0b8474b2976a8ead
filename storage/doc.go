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


// Package storage provides the storage abstraction layer for resolvit.
//
// This package defines repository interfaces that decouple the knowledge
// corpus and the conversation log from their backends. BadgerDB backs both
// by default; the conversation log can also live in SQLite (storage/sqlite).
//
// # Constructor Return Type Pattern
//
// Public constructors return the storage interfaces so callers cannot couple
// themselves to a particular backend:
//
//	knowledge, err := badger.NewKnowledgeRepository(backend)  // storage.KnowledgeRepository
//
// Internal helpers may return concrete types since they're only used within
// the implementation package.
//
// # Architecture
//
//   - Repository: transaction and lifecycle operations shared by backends
//   - KnowledgeRepository: FAQ entries, documents, vector search, stats
//   - ConversationRepository: append-only log of resolved turns
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// Use in tests with in-memory storage:
//
//	knowledge, turns, backend, err := badger.NewMemoryRepositories()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context. Scans check the context
// before starting so a cancelled or expired caller gets the context error
// instead of a result.
package storage
