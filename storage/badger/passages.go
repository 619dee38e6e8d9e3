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

package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"

	"github.com/poiesic/lexresearch/ai"
	"github.com/poiesic/lexresearch/core"
	"github.com/poiesic/lexresearch/storage"
)

// ErrInvalidThreshold is returned when a score threshold is outside 0..1.
var ErrInvalidThreshold = errors.New("score threshold must be between 0 and 1")

// PassageStore is a local case-law index. It satisfies langchaingo's
// vectorstores.VectorStore so the retrieval layer can use it in place of a
// hosted Pinecone index.
type PassageStore struct {
	backend  *Backend
	embedder ai.Embedder
	logger   *slog.Logger
}

var (
	_ vectorstores.VectorStore = (*PassageStore)(nil)
	_ embeddings.Embedder      = ai.Embedder(nil)
)

// NewPassageStore creates a passage store on an open backend.
func NewPassageStore(backend *Backend, embedder ai.Embedder) (*PassageStore, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	return &PassageStore{
		backend:  backend,
		embedder: embedder,
		logger:   slog.Default().With("component", "passage-store"),
	}, nil
}

// AddDocuments embeds and stores documents. Passage IDs are derived from
// content so re-adding the same text overwrites instead of duplicating.
func (s *PassageStore) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	if s.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if len(docs) == 0 {
		return []string{}, nil
	}

	opts := s.applyOptions(options...)

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}
	vectors, err := opts.Embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed passages: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	now := time.Now().UTC()
	passages := make([]*core.Passage, len(docs))
	ids := make([]string, len(docs))
	for i, doc := range docs {
		p := passageFromDocument(doc)
		p.ID = core.IDFromContent(doc.PageContent)
		p.Vector = normalize(vectors[i])
		p.InsertedAt = now
		passages[i] = p
		ids[i] = p.ID
	}

	err = s.backend.WithTx(func(tx *badger.Txn) error {
		for _, p := range passages {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := tx.Set(makePassageKey(p.ID), storage.MarshalPassage(p)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("stored passages", "count", len(passages))
	return ids, nil
}

// SimilaritySearch returns up to numDocuments passages ranked by cosine
// similarity to the query. Supported options are WithFilters (Pinecone
// syntax over year, case_name, citation and source), WithScoreThreshold and
// WithEmbedder. A threshold of 0 returns every match.
func (s *PassageStore) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	if s.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if numDocuments <= 0 {
		return []schema.Document{}, nil
	}

	opts := s.applyOptions(options...)
	if opts.ScoreThreshold < 0 || opts.ScoreThreshold > 1 {
		return nil, ErrInvalidThreshold
	}
	filter, err := parseFilter(opts.Filters)
	if err != nil {
		return nil, err
	}

	vector, err := opts.Embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	vector = normalize(vector)

	type hit struct {
		passage *core.Passage
		score   float32
	}
	var hits []hit

	err = s.backend.WithTx(func(tx *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = passageScanPrefix()
		iter := tx.NewIterator(iterOpts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var p *core.Passage
			err := iter.Item().Value(func(val []byte) error {
				var err error
				p, err = storage.UnmarshalPassage(val)
				return err
			})
			if err != nil {
				return err
			}
			if len(p.Vector) == 0 || !filter.matches(p) {
				continue
			}

			score := dotProduct(vector, p.Vector)
			if opts.ScoreThreshold > 0 && score < opts.ScoreThreshold {
				continue
			}
			hits = append(hits, hit{passage: p, score: score})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(hits, func(a, b hit) int {
		if a.score > b.score {
			return -1
		}
		if a.score < b.score {
			return 1
		}
		return strings.Compare(a.passage.ID, b.passage.ID)
	})
	if len(hits) > numDocuments {
		hits = hits[:numDocuments]
	}

	docs := make([]schema.Document, len(hits))
	for i, h := range hits {
		docs[i] = documentFromPassage(h.passage, h.score)
	}
	return docs, nil
}

// Get returns a stored passage by ID.
func (s *PassageStore) Get(ctx context.Context, id string) (*core.Passage, error) {
	if s.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var p *core.Passage
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makePassageKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			p, err = storage.UnmarshalPassage(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Count returns the number of stored passages.
func (s *PassageStore) Count(ctx context.Context) (int, error) {
	if s.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}
	count := 0
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = passageScanPrefix()
		iterOpts.PrefetchValues = false
		iter := tx.NewIterator(iterOpts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return ctx.Err()
	}, false)
	return count, err
}

// PassageIDs returns the IDs of all stored passages in key order.
func (s *PassageStore) PassageIDs(ctx context.Context) ([]string, error) {
	if s.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	prefix := passageScanPrefix()
	var ids []string
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		iterOpts.PrefetchValues = false
		iter := tx.NewIterator(iterOpts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			ids = append(ids, string(iter.Item().Key()[len(prefix):]))
		}
		return ctx.Err()
	}, false)
	return ids, err
}

// GetPassages returns the passages for ids in order. Missing IDs are skipped.
func (s *PassageStore) GetPassages(ctx context.Context, ids []string) ([]*core.Passage, error) {
	if s.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	passages := make([]*core.Passage, 0, len(ids))
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}
			item, err := tx.Get(makePassageKey(id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				p, err := storage.UnmarshalPassage(val)
				if err != nil {
					return err
				}
				passages = append(passages, p)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return passages, nil
}

// PutPassages writes passages as-is apart from normalizing their vectors.
// Used to store re-embedded passages without changing their IDs.
func (s *PassageStore) PutPassages(ctx context.Context, passages []*core.Passage) error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, p := range passages {
			if err := ctx.Err(); err != nil {
				return err
			}
			p.Vector = normalize(p.Vector)
			if err := tx.Set(makePassageKey(p.ID), storage.MarshalPassage(p)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

func (s *PassageStore) applyOptions(options ...vectorstores.Option) vectorstores.Options {
	opts := vectorstores.Options{}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.Embedder == nil {
		opts.Embedder = s.embedder
	}
	return opts
}

func passageFromDocument(doc schema.Document) *core.Passage {
	p := &core.Passage{Text: doc.PageContent}
	if doc.Metadata == nil {
		return p
	}
	if v, ok := doc.Metadata[MetadataCaseName].(string); ok {
		p.CaseName = v
	}
	if v, ok := doc.Metadata[MetadataCitation].(string); ok {
		p.Citation = v
	}
	if v, ok := doc.Metadata[MetadataSource].(string); ok {
		p.Source = v
	}
	if v, ok := toFloat(doc.Metadata[MetadataYear]); ok {
		p.Year = int(v)
	}
	return p
}

func documentFromPassage(p *core.Passage, score float32) schema.Document {
	meta := map[string]any{
		MetadataCaseName: p.CaseName,
		MetadataCitation: p.Citation,
		MetadataSource:   p.Source,
	}
	if p.Year != 0 {
		meta[MetadataYear] = p.Year
	}
	return schema.Document{
		PageContent: p.Text,
		Metadata:    meta,
		Score:       score,
	}
}
