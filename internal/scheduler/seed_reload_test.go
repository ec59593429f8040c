package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/bookmarko/internal/logger"
	"github.com/MrSnakeDoc/bookmarko/internal/sources"
	"github.com/MrSnakeDoc/bookmarko/internal/sources/homepage"
	"github.com/MrSnakeDoc/bookmarko/internal/store"
	"github.com/MrSnakeDoc/bookmarko/internal/store/memory"
)

const seedV1 = `---
- Developer:
    - Github:
        - href: https://github.com/
`

const seedV2 = `---
- Developer:
    - Github:
        - href: https://github.com/
    - Go:
        - href: https://go.dev/
`

func writeSeed(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func barTitles(t *testing.T, st store.Adapter) map[string][]string {
	t.Helper()
	bar, err := st.GetSubTree(context.Background(), store.BookmarkBarID)
	require.NoError(t, err)
	out := make(map[string][]string)
	for _, col := range bar.Children {
		titles := []string{}
		for _, b := range col.Children {
			titles = append(titles, b.Title)
		}
		out[col.Title] = titles
	}
	return out
}

func TestSeedReloaderStartAndManualTrigger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookmarks.yaml")
	writeSeed(t, path, seedV1)

	st := memory.New()
	trigger := make(chan struct{}, 1)
	sr := NewSeedReloader(homepage.NewLoader(path), st, store.BookmarkBarID, logger.NewNop(), 0, trigger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, sr.Start(ctx))
	defer sr.Stop()

	assert.Equal(t, map[string][]string{"Developer": {"Github"}}, barTitles(t, st))

	writeSeed(t, path, seedV2)
	trigger <- struct{}{}

	require.Eventually(t, func() bool {
		return len(barTitles(t, st)["Developer"]) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"Github", "Go"}, barTitles(t, st)["Developer"])
}

func TestSeedReloaderWatchesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookmarks.yaml")
	writeSeed(t, path, seedV1)

	st := memory.New()
	sr := NewSeedReloader(homepage.NewLoader(path), st, store.BookmarkBarID, logger.NewNop(), 0, nil)
	require.NoError(t, sr.Watch(20*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, sr.Start(ctx))
	defer sr.Stop()

	writeSeed(t, path, seedV2)

	require.Eventually(t, func() bool {
		return len(barTitles(t, st)["Developer"]) == 2
	}, 3*time.Second, 20*time.Millisecond)
}

type staticLoader struct {
	seed sources.Seed
	err  error
}

func (staticLoader) Name() string { return "static" }
func (l staticLoader) Load() (sources.Seed, error) { return l.seed, l.err }

func TestSeedReloaderErrors(t *testing.T) {
	st := memory.New()

	sr := NewSeedReloader(staticLoader{err: errors.New("boom")}, st, store.BookmarkBarID, logger.NewNop(), 0, nil)
	assert.ErrorContains(t, sr.Start(context.Background()), "boom")

	assert.Error(t, sr.Watch(time.Millisecond), "a loader without a file cannot be watched")

	sr = NewSeedReloader(staticLoader{seed: sources.Seed{{Title: "x"}}}, st, "404", logger.NewNop(), 0, nil)
	assert.ErrorIs(t, sr.Reload(context.Background()), store.ErrNotFound)
}
