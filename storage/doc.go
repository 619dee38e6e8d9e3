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

// Package storage provides the storage abstraction layer for lexresearch.
//
// Two kinds of state are kept:
//
//   - Research jobs, behind the JobStore interface. The only implementation,
//     storage/memory, keeps jobs in process memory; job state does not
//     survive a restart.
//   - Case-law passages with their embeddings, kept by storage/badger.
//     The badger store implements langchaingo's vectorstores.VectorStore so
//     it can stand in for a hosted index such as Pinecone.
//
// # Constructor Return Type Pattern
//
// Public constructors return interfaces to keep consumers decoupled from a
// backend:
//
//	jobs := memory.NewJobStore()  // returns storage.JobStore
//
// # Serialization
//
// Passages are encoded with MUS primitives (see MarshalPassage). The format
// is compact and has no schema evolution; reindex after changing it.
package storage
