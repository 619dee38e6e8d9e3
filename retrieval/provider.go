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

package retrieval

import (
	"context"

	"github.com/poiesic/lexresearch/core"
)

// Provider is one retrieval source a research job can fan out to.
//
// Fetch never returns a Go error. Failures are reported through the
// returned SourceResult: Err is set and Body carries a readable message.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, query string, opts core.Options) core.SourceResult
}

// YearFilter translates the job's year bounds into a Pinecone-style
// metadata filter. Returns nil when no bound is set.
func YearFilter(opts core.Options) map[string]any {
	if !opts.HasYearFilter() {
		return nil
	}
	cond := make(map[string]any, 2)
	if opts.YearStart != nil {
		cond["$gte"] = *opts.YearStart
	}
	if opts.YearEnd != nil {
		cond["$lte"] = *opts.YearEnd
	}
	return map[string]any{"year": cond}
}

// FallbackMessage is the body used when a provider times out or panics.
func FallbackMessage(name string) string {
	switch name {
	case core.ProviderLegalRAG:
		return "Error retrieving from legal database"
	case core.ProviderWebSearch:
		return "Error retrieving from web sources"
	}
	return "Error retrieving from " + name
}

// Failed builds a degraded result for provider name.
func Failed(name, message string) core.SourceResult {
	return core.SourceResult{
		Provider: name,
		Body:     message,
		Sources:  []core.Citation{},
		Err:      message,
	}
}
