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

package orchestrator

import (
	"time"

	"github.com/poiesic/lexresearch/core"
)

// JobMonitor observes job progress. Hooks are called from job goroutines
// and must be safe for concurrent use.
type JobMonitor interface {
	JobSubmitted(id string, query string)
	JobStarted(id string)
	ProviderFinished(id string, result core.SourceResult, elapsed time.Duration)
	JobFinished(id string, status core.JobStatus)
}

// noopMonitor is a no-op implementation of JobMonitor
type noopMonitor struct{}

var _ JobMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) JobSubmitted(_ string, _ string)                                 {}
func (n *noopMonitor) JobStarted(_ string)                                             {}
func (n *noopMonitor) ProviderFinished(_ string, _ core.SourceResult, _ time.Duration) {}
func (n *noopMonitor) JobFinished(_ string, _ core.JobStatus)                          {}
