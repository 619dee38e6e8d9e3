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
	"time"

	"github.com/poiesic/lexresearch/ai"
	"github.com/poiesic/lexresearch/core"
	"github.com/poiesic/lexresearch/retry"
)

// BatchProcessor re-embeds one batch of passages and writes them back.
type BatchProcessor struct {
	store          Store
	embedder       ai.Embedder
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a batch processor.
func NewBatchProcessor(store Store, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		store:          store,
		embedder:       embedder,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process embeds the passage texts and stores the new vectors.
func (bp *BatchProcessor) Process(ctx context.Context, passages []*core.Passage) error {
	if len(passages) == 0 {
		return nil
	}

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}

	var vectors [][]float32
	err := retry.WithBackoff(ctx, func() error {
		var err error
		vectors, err = bp.embedder.EmbedDocuments(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(vectors) != len(passages) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingMismatch, len(passages), len(vectors))
	}

	for i := range passages {
		passages[i].Vector = vectors[i]
	}

	if err := bp.store.PutPassages(ctx, passages); err != nil {
		return fmt.Errorf("failed to update passages: %w", err)
	}
	return nil
}
