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

// Package retrieval adapts the research sources a job fans out to.
//
// CaseLaw (legal_rag) searches a case-law vector index through langchaingo's
// vectorstores.VectorStore, so the hosted Pinecone index and the local
// badger PassageStore are interchangeable. WebSearch (websearch) queries
// Tavily over a fixed allow-list of legal sites. Each adapter finishes with
// one generation call that turns the retrieved material into prose.
//
// Adapters report failures in the returned core.SourceResult rather than as
// Go errors so that one failing source never fails a whole job.
package retrieval
