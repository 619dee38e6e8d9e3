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

package core

import (
	"fmt"
	"slices"
	"time"
)

// JobPatch is a partial update merged into a Job by Apply. Nil fields are
// left untouched.
type JobPatch struct {
	Status         *JobStatus
	Content        *string
	Error          *string
	CompletedAt    *time.Time
	ReplaceSources []Citation
	AppendSources  []Citation
	// Principles may only be set together with a transition to completed.
	Principles []string
	// ProviderError records a degraded provider under its name.
	ProviderError *ProviderError
}

// ProviderError names a degraded provider and its error tag.
type ProviderError struct {
	Provider string
	Message  string
}

// transitions lists the allowed status edges.
var transitions = map[JobStatus][]JobStatus{
	StatusPending:    {StatusInProgress, StatusFailed},
	StatusInProgress: {StatusCompleted, StatusFailed},
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to JobStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Apply merges p into the job, enforcing the status state machine.
//
// Content may only be set together with a transition to completed and Error
// only together with a transition to failed. Reaching a terminal status
// without CompletedAt stamps the current time. The job is unchanged if
// Apply returns an error.
func (j *Job) Apply(p JobPatch) error {
	if j.Status.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrTerminalState, j.Status)
	}

	next := j.Status
	if p.Status != nil && *p.Status != j.Status {
		if !CanTransition(j.Status, *p.Status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, *p.Status)
		}
		next = *p.Status
	}

	if p.Content != nil {
		if next != StatusCompleted {
			return fmt.Errorf("%w: content requires status %s", ErrInvalidTransition, StatusCompleted)
		}
		if j.Content != "" {
			return fmt.Errorf("%w: content", ErrFieldAlreadySet)
		}
	}
	if p.Principles != nil && next != StatusCompleted {
		return fmt.Errorf("%w: principles require status %s", ErrInvalidTransition, StatusCompleted)
	}
	if p.Error != nil {
		if next != StatusFailed {
			return fmt.Errorf("%w: error requires status %s", ErrInvalidTransition, StatusFailed)
		}
		if j.Error != "" {
			return fmt.Errorf("%w: error", ErrFieldAlreadySet)
		}
	}

	j.Status = next
	if p.Content != nil {
		j.Content = *p.Content
	}
	if p.Error != nil {
		j.Error = *p.Error
	}
	if p.ReplaceSources != nil {
		j.Sources = append([]Citation{}, p.ReplaceSources...)
	}
	if p.Principles != nil {
		j.Principles = slices.Clone(p.Principles)
	}
	if len(p.AppendSources) > 0 {
		j.Sources = append(j.Sources, p.AppendSources...)
	}
	if p.ProviderError != nil {
		if j.Metadata.ProviderErrors == nil {
			j.Metadata.ProviderErrors = make(map[string]string)
		}
		j.Metadata.ProviderErrors[p.ProviderError.Provider] = p.ProviderError.Message
	}

	if next.IsTerminal() {
		at := time.Now().UTC()
		if p.CompletedAt != nil {
			at = *p.CompletedAt
		}
		j.CompletedAt = &at
	}
	return nil
}

// StatusPtr returns a pointer to s for use in a JobPatch.
func StatusPtr(s JobStatus) *JobStatus {
	return &s
}

// StringPtr returns a pointer to s for use in a JobPatch.
func StringPtr(s string) *string {
	return &s
}
