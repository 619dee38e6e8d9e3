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
	"errors"
	"log/slog"
)

const (
	// DefaultTopK is the number of case-law passages retrieved per query.
	DefaultTopK = 15

	// DefaultMaxResults is the number of web results requested per query.
	DefaultMaxResults = 7

	// SnippetLimit is the rune length web snippets are cut to before the
	// insight call.
	SnippetLimit = 300
)

// DefaultDomains is the web-search allow-list.
var DefaultDomains = []string{
	"law.cornell.edu",
	"justia.com",
	"findlaw.com",
	"caselaw.findlaw.com",
	"mass.gov",
	"masslegalservices.org",
	"masslawyersweekly.com",
	"scholar.google.com",
	"courtlistener.com",
}

type options struct {
	logger     *slog.Logger
	topK       int
	maxResults int
	domains    []string
}

func defaultOptions() options {
	return options{
		logger:     slog.Default(),
		topK:       DefaultTopK,
		maxResults: DefaultMaxResults,
		domains:    DefaultDomains,
	}
}

// Option configures a provider adapter.
type Option func(*options) error

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithTopK sets how many passages CaseLaw retrieves.
func WithTopK(k int) Option {
	return func(o *options) error {
		if k <= 0 {
			return errors.New("topK must be greater than 0")
		}
		o.topK = k
		return nil
	}
}

// WithMaxResults sets how many results WebSearch requests.
func WithMaxResults(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return errors.New("maxResults must be greater than 0")
		}
		o.maxResults = n
		return nil
	}
}

// WithDomains replaces the web-search domain allow-list. An empty list
// searches the whole web.
func WithDomains(domains []string) Option {
	return func(o *options) error {
		o.domains = append([]string(nil), domains...)
		return nil
	}
}

func applyOptions(opts []Option) (options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return o, err
		}
	}
	return o, nil
}
