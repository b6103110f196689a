package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/field-report/internal/application"
	"github.com/bryanwahyu/field-report/internal/domain/report"
)

func TestMemoryGetMissing(t *testing.T) {
	m := NewMemory(0, nil)
	_, err := m.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, report.ErrSessionNotFound)
}

func TestMemoryCreateIsGetOrCreate(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m := NewMemory(0, application.FixedClock{T: now})
	ctx := context.Background()

	s, err := m.Create(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, now, s.CreatedAt)
	s.Notes = append(s.Notes, "first")
	require.NoError(t, m.Save(ctx, s))

	again, err := m.Create(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, again.Notes)
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory(0, nil)
	ctx := context.Background()
	s, err := m.Create(ctx, "u1")
	require.NoError(t, err)

	s.Notes = append(s.Notes, "unsaved")
	got, err := m.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got.Notes)

	got.Notes = append(got.Notes, "also unsaved")
	again, _ := m.Get(ctx, "u1")
	assert.Empty(t, again.Notes)
}

func TestMemoryConcurrentCreate(t *testing.T) {
	m := NewMemory(0, nil)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Create(ctx, "same")
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, m.Count())
}

func TestMemoryDeleteAndClear(t *testing.T) {
	m := NewMemory(time.Hour, nil)
	ctx := context.Background()
	_, _ = m.Create(ctx, "a")
	_, _ = m.Create(ctx, "b")

	require.NoError(t, m.Delete(ctx, "a"))
	_, err := m.Get(ctx, "a")
	assert.ErrorIs(t, err, report.ErrSessionNotFound)

	require.NoError(t, m.Clear(ctx))
	assert.Zero(t, m.Count())
}
