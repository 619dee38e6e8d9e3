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

package reindex

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/lexresearch/ai"
	"github.com/poiesic/lexresearch/core"
	"github.com/poiesic/lexresearch/ingest"
	"github.com/poiesic/lexresearch/storage/badger"
)

// Store is the passage access the reindexer needs.
type Store interface {
	PassageIDs(ctx context.Context) ([]string, error)
	GetPassages(ctx context.Context, ids []string) ([]*core.Passage, error)
	PutPassages(ctx context.Context, passages []*core.Passage) error
}

var _ Store = (*badger.PassageStore)(nil)

// Config holds configuration for a reindex run.
type Config struct {
	// BatchSize is the number of passages embedded per call.
	BatchSize int

	// ReportInterval is how often to report progress, in passages.
	ReportInterval int

	// MaxRetries is the maximum number of attempts per embedding call.
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reindexer re-embeds all passages of a store.
type Reindexer struct {
	store     Store
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	logger    *slog.Logger
}

// NewReindexer creates a reindexer. Progress output goes to progress
// (typically os.Stderr).
func NewReindexer(store Store, embedder ai.Embedder, config *Config, progress io.Writer) *Reindexer {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 1
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reindexer{
		store:     store,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(store, embedder, config.MaxRetries, config.RetryDelay),
		logger:    slog.Default().With("component", "reindex"),
	}
}

// Run re-embeds every passage and returns how many were processed.
func (r *Reindexer) Run(ctx context.Context) (int, error) {
	ids, err := r.store.PassageIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list passages: %w", err)
	}

	total := len(ids)
	if total == 0 {
		fmt.Fprintf(r.progress, "No passages found in index (0 passages)\n")
		return 0, nil
	}

	fmt.Fprintf(r.progress, "Starting reindex of %d passages (batch size: %d)\n", total, r.config.BatchSize)

	tracker := ingest.NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()
	start := time.Now()

	processed := 0
	for i := 0; i < total; i += r.config.BatchSize {
		if err := ctx.Err(); err != nil {
			return processed, err
		}
		end := min(i+r.config.BatchSize, total)

		passages, err := r.store.GetPassages(ctx, ids[i:end])
		if err != nil {
			return processed, fmt.Errorf("failed to load batch: %w", err)
		}
		if err := r.processor.Process(ctx, passages); err != nil {
			return processed, fmt.Errorf("failed to process batch: %w", err)
		}

		processed += len(passages)
		tracker.Increment(end - i)
		r.logger.Debug("batch reindexed", "processed", processed, "total", total)
	}

	tracker.Finish()

	elapsed := time.Since(start)
	fmt.Fprintf(r.progress, "Reindex complete. Processed %d passages in %v\n", processed, elapsed.Round(time.Millisecond))
	return processed, nil
}
