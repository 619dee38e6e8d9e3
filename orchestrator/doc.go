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

// Package orchestrator runs research jobs.
//
// Submit validates a request, stores a pending job and hands the run to a
// bounded ants pool. Each run moves the job to in_progress, fans out to the
// requested retrieval providers with errgroup, records sources as providers
// finish, then makes one synthesis call that decides completed or failed.
//
// Provider failures, timeouts and panics are absorbed into degraded
// results. Only a synthesis failure or an internal fault fails a job.
package orchestrator
