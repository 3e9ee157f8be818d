package storage

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/asdscreen/internal/models"
	"github.com/lehigh-university-libraries/asdscreen/internal/workflow"
)

func newSession(id string) *models.Session {
	s := models.NewSession(id)
	s.Workflow = workflow.New(nil, workflow.WithInputHandle(s))
	return s
}

func TestGetAllDelete(t *testing.T) {
	store := New()
	_, ok := store.Get("a")
	assert.False(t, ok)

	store.GetOrCreate("a", newSession)
	got, ok := store.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", got.ID)
	assert.Equal(t, 1, store.Len())

	store.GetOrCreate("b", newSession)
	ids := []string{}
	for _, s := range store.GetAll() {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []string{"a", "b"}, ids)

	store.Delete("b")
	store.Delete("a")
	assert.Equal(t, 0, store.Len())
}

func TestGetOrCreateConcurrent(t *testing.T) {
	store := New()
	var created sync.Map
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, isNew := store.GetOrCreate("shared", newSession)
			if isNew {
				created.Store(s, true)
			}
		}()
	}
	wg.Wait()

	count := 0
	created.Range(func(_, _ any) bool { count++; return true })
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, store.Len())
}

func TestCleanupIdle(t *testing.T) {
	store := New()
	store.GetOrCreate("old", newSession)
	time.Sleep(30 * time.Millisecond)
	store.GetOrCreate("fresh", newSession)

	removed := store.CleanupIdle(20 * time.Millisecond)
	assert.Equal(t, 1, removed)
	_, ok := store.Get("old")
	assert.False(t, ok)
	_, ok = store.Get("fresh")
	assert.True(t, ok)
}
