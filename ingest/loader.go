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

package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"

	"github.com/poiesic/lexresearch/retry"
)

const (
	// DefaultBatchSize is the number of passages embedded per AddDocuments call.
	DefaultBatchSize = 64

	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond
)

// Stats summarizes a load.
type Stats struct {
	Read    int
	Stored  int
	Skipped int
	Batches int
}

// Loader streams JSONL case-law records into a vector store.
type Loader struct {
	store          vectorstores.VectorStore
	batchSize      int
	maxAttempts    int
	baseDelay      time.Duration
	progressWriter io.Writer
	reportInterval int
	logger         *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader) error

// WithBatchSize sets how many passages are sent to the store at once.
func WithBatchSize(size int) Option {
	return func(l *Loader) error {
		if size < 1 {
			return fmt.Errorf("batch size must be positive, got %d", size)
		}
		l.batchSize = size
		return nil
	}
}

// WithRetry sets the retry policy around each batch write.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(l *Loader) error {
		if maxAttempts < 1 {
			return retry.ErrInvalidMaxAttempts
		}
		l.maxAttempts = maxAttempts
		l.baseDelay = baseDelay
		return nil
	}
}

// WithProgress prints progress to w every interval passages.
func WithProgress(w io.Writer, interval int) Option {
	return func(l *Loader) error {
		l.progressWriter = w
		l.reportInterval = interval
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger.With("component", "ingest")
		return nil
	}
}

// NewLoader creates a loader writing to store.
func NewLoader(store vectorstores.VectorStore, opts ...Option) (*Loader, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	l := &Loader{
		store:       store,
		batchSize:   DefaultBatchSize,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		logger:      slog.Default().With("component", "ingest"),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// LoadFile loads a JSONL file. When progress reporting is enabled the file
// is scanned once up front to learn the total.
func (l *Loader) LoadFile(ctx context.Context, path string) (Stats, error) {
	total := 0
	if l.progressWriter != nil {
		f, err := os.Open(path)
		if err != nil {
			return Stats{}, err
		}
		total, err = CountRecords(f)
		f.Close()
		if err != nil {
			return Stats{}, err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return Stats{}, err
	}
	defer f.Close()

	l.logger.Info("loading passages", "path", path, "records", total)
	return l.load(ctx, f, total)
}

// Load reads JSONL records from r and stores them in batches. Records with
// empty text are skipped. Stats reflect what was stored before any error.
func (l *Loader) Load(ctx context.Context, r io.Reader) (Stats, error) {
	return l.load(ctx, r, 0)
}

func (l *Loader) load(ctx context.Context, r io.Reader, total int) (Stats, error) {
	var stats Stats

	var progress *ProgressTracker
	if l.progressWriter != nil {
		progress = NewProgressTracker(l.progressWriter, total, l.reportInterval)
		progress.Start()
		defer progress.Finish()
	}

	batch := make([]schema.Document, 0, l.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := l.storeBatch(ctx, batch); err != nil {
			return err
		}
		stats.Stored += len(batch)
		stats.Batches++
		if progress != nil {
			progress.Increment(len(batch))
		}
		batch = batch[:0]
		return nil
	}

	for rec, err := range Records(r) {
		if err != nil {
			return stats, err
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Read++
		if strings.TrimSpace(rec.Text) == "" {
			stats.Skipped++
			l.logger.Debug("skipping record without text", "case_name", rec.CaseName)
			if progress != nil {
				progress.Increment(1)
			}
			continue
		}
		batch = append(batch, rec.Document())
		if len(batch) >= l.batchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}

	l.logger.Info("load complete", "read", stats.Read, "stored", stats.Stored,
		"skipped", stats.Skipped, "batches", stats.Batches)
	return stats, nil
}

func (l *Loader) storeBatch(ctx context.Context, batch []schema.Document) error {
	docs := make([]schema.Document, len(batch))
	copy(docs, batch)

	err := retry.WithBackoff(ctx, func() error {
		_, err := l.store.AddDocuments(ctx, docs)
		if err != nil {
			l.logger.Warn("batch write failed", "size", len(docs), "err", err)
		}
		return err
	}, l.maxAttempts, l.baseDelay)
	if err != nil {
		return fmt.Errorf("storing batch of %d passages: %w", len(docs), err)
	}
	return nil
}
