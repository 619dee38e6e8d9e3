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
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"

	"github.com/poiesic/lexresearch/ai/mock"
	"github.com/poiesic/lexresearch/storage/badger"
)

const corpus = `{"text": "Adverse possession requires open and notorious use.", "case_name": "Smith v. Jones", "citation": "123 F.3d 456", "year": 1998, "source": "CAP"}

{"text": "A prescriptive easement arises from continuous use.", "case_name": "Doe v. Roe", "citation": "45 P.2d 12", "year": 2004, "source": "CAP"}
{"text": "   ", "case_name": "Empty v. Record"}
{"text": "Consideration is required for a contract.", "case_name": "Brown v. Green", "citation": "9 N.E. 100", "source": "CAP"}
`

type recordingStore struct {
	mu       sync.Mutex
	batches  [][]schema.Document
	failures int
	err      error
}

var _ vectorstores.VectorStore = (*recordingStore)(nil)

func (s *recordingStore) AddDocuments(_ context.Context, docs []schema.Document, _ ...vectorstores.Option) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return nil, errors.New("transient failure")
	}
	if s.err != nil {
		return nil, s.err
	}
	s.batches = append(s.batches, docs)
	ids := make([]string, len(docs))
	return ids, nil
}

func (s *recordingStore) SimilaritySearch(context.Context, string, int, ...vectorstores.Option) ([]schema.Document, error) {
	return nil, nil
}

func (s *recordingStore) sizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.batches))
	for i, b := range s.batches {
		out[i] = len(b)
	}
	return out
}

func TestRecords(t *testing.T) {
	t.Run("decodes and skips blank lines", func(t *testing.T) {
		var recs []Record
		for rec, err := range Records(strings.NewReader(corpus)) {
			require.NoError(t, err)
			recs = append(recs, rec)
		}
		require.Len(t, recs, 4)
		assert.Equal(t, "Smith v. Jones", recs[0].CaseName)
		assert.Equal(t, 1998, recs[0].Year)
		assert.Equal(t, 0, recs[3].Year)
	})

	t.Run("malformed line reports line number", func(t *testing.T) {
		input := "{\"text\": \"ok\"}\n\n{not json}\n"
		var gotErr error
		n := 0
		for _, err := range Records(strings.NewReader(input)) {
			if err != nil {
				gotErr = err
				break
			}
			n++
		}
		assert.Equal(t, 1, n)
		require.ErrorIs(t, gotErr, ErrMalformedRecord)
		assert.Contains(t, gotErr.Error(), "line 3")
	})
}

func TestRecord_Document(t *testing.T) {
	doc := Record{Text: "t", CaseName: "A v. B", Citation: "1 U.S. 1", Year: 1800, Source: "CAP"}.Document()
	assert.Equal(t, "t", doc.PageContent)
	assert.Equal(t, "A v. B", doc.Metadata[badger.MetadataCaseName])
	assert.Equal(t, 1800, doc.Metadata[badger.MetadataYear])

	undated := Record{Text: "t"}.Document()
	_, ok := undated.Metadata[badger.MetadataYear]
	assert.False(t, ok)
}

func TestCountRecords(t *testing.T) {
	n, err := CountRecords(strings.NewReader(corpus))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestNewLoader(t *testing.T) {
	tests := []struct {
		name    string
		store   vectorstores.VectorStore
		opts    []Option
		wantErr bool
	}{
		{name: "defaults", store: &recordingStore{}},
		{name: "nil store", store: nil, wantErr: true},
		{name: "zero batch", store: &recordingStore{}, opts: []Option{WithBatchSize(0)}, wantErr: true},
		{name: "zero attempts", store: &recordingStore{}, opts: []Option{WithRetry(0, time.Millisecond)}, wantErr: true},
		{name: "nil logger", store: &recordingStore{}, opts: []Option{WithLogger(nil)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLoader(tt.store, tt.opts...)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, l)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestLoader_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("batches records", func(t *testing.T) {
		store := &recordingStore{}
		l, err := NewLoader(store, WithBatchSize(2))
		require.NoError(t, err)

		stats, err := l.Load(ctx, strings.NewReader(corpus))
		require.NoError(t, err)
		assert.Equal(t, Stats{Read: 4, Stored: 3, Skipped: 1, Batches: 2}, stats)
		assert.Equal(t, []int{2, 1}, store.sizes())
	})

	t.Run("retries transient failures", func(t *testing.T) {
		store := &recordingStore{failures: 2}
		l, err := NewLoader(store, WithRetry(3, time.Millisecond))
		require.NoError(t, err)

		stats, err := l.Load(ctx, strings.NewReader(corpus))
		require.NoError(t, err)
		assert.Equal(t, 3, stats.Stored)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		store := &recordingStore{err: errors.New("store down")}
		l, err := NewLoader(store, WithRetry(2, time.Millisecond))
		require.NoError(t, err)

		stats, err := l.Load(ctx, strings.NewReader(corpus))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "store down")
		assert.Equal(t, 0, stats.Stored)
	})

	t.Run("malformed input stops load", func(t *testing.T) {
		store := &recordingStore{}
		l, err := NewLoader(store, WithBatchSize(1))
		require.NoError(t, err)

		input := corpus + "{broken\n"
		stats, err := l.Load(ctx, strings.NewReader(input))
		require.ErrorIs(t, err, ErrMalformedRecord)
		assert.Equal(t, 3, stats.Stored)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		l, err := NewLoader(&recordingStore{})
		require.NoError(t, err)

		_, err = l.Load(cctx, strings.NewReader(corpus))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestLoader_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(corpus), 0o644))

	embedder := mock.NewMockEmbedder()
	store, backend, err := badger.NewMemoryPassageStore(embedder)
	require.NoError(t, err)
	defer backend.Close()

	var progress bytes.Buffer
	l, err := NewLoader(store, WithBatchSize(2), WithProgress(&progress, 1))
	require.NoError(t, err)

	stats, err := l.LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Stored)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	assert.Contains(t, progress.String(), "4/4")

	_, err = l.LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
}
