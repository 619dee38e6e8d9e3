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
	"errors"
	"log/slog"
	"time"
)

const (
	// DefaultMaxConcurrentJobs bounds the number of running jobs.
	DefaultMaxConcurrentJobs = 64

	// DefaultProviderTimeout bounds a single provider call.
	DefaultProviderTimeout = 60 * time.Second

	// DefaultSweepInterval is used when a job TTL is set without an interval.
	DefaultSweepInterval = time.Minute
)

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger.With("component", "orchestrator")
		return nil
	}
}

// WithMaxConcurrentJobs sets how many jobs may run at once. Submissions
// beyond that fail with ErrBusy. Zero means unlimited.
func WithMaxConcurrentJobs(n int) Option {
	return func(o *Orchestrator) error {
		if n < 0 {
			return errors.New("max concurrent jobs cannot be negative")
		}
		o.maxJobs = n
		return nil
	}
}

// WithProviderTimeout bounds each provider call.
func WithProviderTimeout(d time.Duration) Option {
	return func(o *Orchestrator) error {
		if d <= 0 {
			return errors.New("provider timeout must be positive")
		}
		o.providerTimeout = d
		return nil
	}
}

// WithJobTTL enables expiry of terminal jobs older than ttl.
func WithJobTTL(ttl time.Duration) Option {
	return func(o *Orchestrator) error {
		if ttl < 0 {
			return errors.New("job TTL cannot be negative")
		}
		o.jobTTL = ttl
		return nil
	}
}

// WithSweepInterval sets how often expired jobs are removed.
func WithSweepInterval(d time.Duration) Option {
	return func(o *Orchestrator) error {
		if d <= 0 {
			return errors.New("sweep interval must be positive")
		}
		o.sweepInterval = d
		return nil
	}
}

// WithStrictProviders controls whether unknown provider names reject a
// submission (true, the default) or are dropped.
func WithStrictProviders(strict bool) Option {
	return func(o *Orchestrator) error {
		o.strict = strict
		return nil
	}
}

// WithMonitor installs a job observer.
func WithMonitor(m JobMonitor) Option {
	return func(o *Orchestrator) error {
		if m == nil {
			m = &noopMonitor{}
		}
		o.monitor = m
		return nil
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		o.now = now
		return nil
	}
}
