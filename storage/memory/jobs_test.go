package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/lexresearch/core"
	"github.com/poiesic/lexresearch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJob(t *testing.T, startedAt time.Time) *core.Job {
	t.Helper()
	query := "Massachusetts adverse possession elements"
	return core.NewJob(core.NewJobID(), query, core.DefaultProviders,
		core.Options{Format: core.FormatMarkdown, Length: core.LengthStandard},
		core.ValidateQuery(query), startedAt)
}

func TestJobStore_CreateGet(t *testing.T) {
	store := NewJobStore()
	defer store.Close()
	ctx := context.Background()

	job := newJob(t, time.Now().UTC())
	require.NoError(t, store.Create(ctx, job))

	t.Run("get returns copy", func(t *testing.T) {
		got, err := store.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, job.ID, got.ID)
		assert.Equal(t, core.StatusPending, got.Status)

		got.Query = "mutated"
		again, err := store.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, job.Query, again.Query)
	})

	t.Run("caller mutation after create is not visible", func(t *testing.T) {
		job.Providers[0] = "mutated"
		got, err := store.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, core.ProviderLegalRAG, got.Providers[0])
	})

	t.Run("duplicate create", func(t *testing.T) {
		err := store.Create(ctx, job)
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := store.Get(ctx, "research_missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("nil job", func(t *testing.T) {
		assert.ErrorIs(t, store.Create(ctx, nil), storage.ErrInvalidQuery)
	})
}

func TestJobStore_Update(t *testing.T) {
	store := NewJobStore()
	defer store.Close()
	ctx := context.Background()

	job := newJob(t, time.Now().UTC())
	require.NoError(t, store.Create(ctx, job))

	updated, err := store.Update(ctx, job.ID, core.JobPatch{Status: core.StatusPtr(core.StatusInProgress)})
	require.NoError(t, err)
	assert.Equal(t, core.StatusInProgress, updated.Status)

	updated, err = store.Update(ctx, job.ID, core.JobPatch{
		AppendSources: []core.Citation{{Type: core.CitationWeb, URL: "https://mass.gov"}},
	})
	require.NoError(t, err)
	assert.Len(t, updated.Sources, 1)

	updated, err = store.Update(ctx, job.ID, core.JobPatch{
		Status:  core.StatusPtr(core.StatusCompleted),
		Content: core.StringPtr("report"),
	})
	require.NoError(t, err)
	assert.Equal(t, "report", updated.Content)
	assert.NotNil(t, updated.CompletedAt)

	t.Run("terminal state rejects patch and keeps record", func(t *testing.T) {
		_, err := store.Update(ctx, job.ID, core.JobPatch{
			Status: core.StatusPtr(core.StatusFailed),
			Error:  core.StringPtr("late failure"),
		})
		assert.ErrorIs(t, err, core.ErrTerminalState)

		got, err := store.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, core.StatusCompleted, got.Status)
		assert.Empty(t, got.Error)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := store.Update(ctx, "research_missing", core.JobPatch{})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestJobStore_ListOrder(t *testing.T) {
	store := NewJobStore()
	defer store.Close()
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	third := newJob(t, base.Add(2*time.Minute))
	first := newJob(t, base)
	second := newJob(t, base.Add(time.Minute))
	for _, j := range []*core.Job{third, first, second} {
		require.NoError(t, store.Create(ctx, j))
	}

	summaries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, first.ID, summaries[0].ID)
	assert.Equal(t, second.ID, summaries[1].ID)
	assert.Equal(t, third.ID, summaries[2].ID)
	assert.Nil(t, summaries[0].CompletedAt)
}

func TestJobStore_Delete(t *testing.T) {
	store := NewJobStore()
	defer store.Close()
	ctx := context.Background()

	job := newJob(t, time.Now().UTC())
	require.NoError(t, store.Create(ctx, job))

	require.NoError(t, store.Delete(ctx, job.ID))
	_, err := store.Get(ctx, job.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, store.Delete(ctx, job.ID), storage.ErrNotFound)
}

func TestJobStore_DeleteCompletedBefore(t *testing.T) {
	store := NewJobStore()
	defer store.Close()
	ctx := context.Background()

	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := old.Add(time.Hour)

	finish := func(job *core.Job, at time.Time) {
		require.NoError(t, store.Create(ctx, job))
		_, err := store.Update(ctx, job.ID, core.JobPatch{Status: core.StatusPtr(core.StatusInProgress)})
		require.NoError(t, err)
		_, err = store.Update(ctx, job.ID, core.JobPatch{
			Status:      core.StatusPtr(core.StatusFailed),
			Error:       core.StringPtr("synthesis failed"),
			CompletedAt: &at,
		})
		require.NoError(t, err)
	}

	expired := newJob(t, old)
	finish(expired, old)
	kept := newJob(t, old)
	finish(kept, recent)
	running := newJob(t, old)
	require.NoError(t, store.Create(ctx, running))

	removed, err := store.DeleteCompletedBefore(ctx, old.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.Get(ctx, expired.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.Get(ctx, kept.ID)
	assert.NoError(t, err)
	_, err = store.Get(ctx, running.ID)
	assert.NoError(t, err)
}

func TestJobStore_Closed(t *testing.T) {
	store := NewJobStore()
	require.NoError(t, store.Close())
	ctx := context.Background()

	assert.ErrorIs(t, store.Create(ctx, newJob(t, time.Now())), storage.ErrStorageClosed)
	_, err := store.Get(ctx, "x")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	_, err = store.List(ctx)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestJobStore_ConcurrentAccess(t *testing.T) {
	store := newJobStore()
	defer store.Close()
	ctx := context.Background()

	const workers = 16
	const perWorker = 25

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				job := newJob(t, time.Now().UTC())
				if err := store.Create(ctx, job); err != nil {
					t.Errorf("create: %v", err)
					return
				}
				if _, err := store.Update(ctx, job.ID, core.JobPatch{Status: core.StatusPtr(core.StatusInProgress)}); err != nil {
					t.Errorf("update: %v", err)
					return
				}
				if _, err := store.List(ctx); err != nil {
					t.Errorf("list: %v", err)
					return
				}
				if i%2 == 0 {
					if err := store.Delete(ctx, job.ID); err != nil {
						t.Errorf("delete worker %d item %d: %v", w, i, err)
					}
				}
			}
		}(w)
	}
	wg.Wait()

	// even iterations delete, leaving 12 of 25 per worker
	assert.Equal(t, workers*(perWorker/2), store.Len())
}
