package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnnaBNana/timetravel/internal/record"
)

// The in-memory ledger is guarded by a mutex; concurrent writers to
// distinct slugs must not corrupt it.
func TestMemoryVersioned_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryVersioned()

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			slug := fmt.Sprintf("slug-%d", i)
			if err := s.Create(ctx, record.New(slug, map[string]string{"n": "0"})); err != nil {
				t.Error(err)
				return
			}
			for j := 1; j <= 10; j++ {
				v := fmt.Sprintf("%d", j)
				if _, err := s.Update(ctx, slug, map[string]*string{"n": &v}, record.VersionLatest); err != nil {
					t.Error(err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < writers; i++ {
		versions, err := s.ListVersions(ctx, fmt.Sprintf("slug-%d", i))
		require.NoError(t, err)
		assert.Len(t, versions, 11)
	}
}

func TestMemoryRecords_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRecords()

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			slug := fmt.Sprintf("slug-%d", i)
			if err := s.Create(ctx, record.New(slug, map[string]string{"n": "0"})); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < writers; i++ {
		_, err := s.Get(ctx, fmt.Sprintf("slug-%d", i))
		assert.NoError(t, err)
	}
}
