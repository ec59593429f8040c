// Package sources imports bookmarks from external files into the store.
//
// Every importer produces a Seed: an ordered list of columns, each with its
// links. Merge writes a seed under the watched root without touching what is
// already there.
package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/bookmarko/internal/store"
)

// SeedBookmark is one link to import.
type SeedBookmark struct {
	Title string
	URL   string
}

// SeedColumn is a folder to import with its links, in order.
type SeedColumn struct {
	Title     string
	Bookmarks []SeedBookmark
}

// Seed is the importer output.
type Seed []SeedColumn

// Count returns the number of bookmarks in the seed.
func (s Seed) Count() int {
	n := 0
	for _, c := range s {
		n += len(c.Bookmarks)
	}
	return n
}

// Loader reads a seed from its source.
type Loader interface {
	Name() string
	Load() (Seed, error)
}

// MergeStats reports what Merge created.
type MergeStats struct {
	Columns   int
	Bookmarks int
}

// Merge adds the seed under root. Columns are matched to existing folders
// by title (case-insensitive) and bookmarks to existing links of that folder
// by URL; only what is missing is created, appended at the end. Existing
// nodes are never modified or removed.
func Merge(ctx context.Context, st store.Adapter, root string, seed Seed) (MergeStats, error) {
	var stats MergeStats

	tree, err := st.GetSubTree(ctx, root)
	if err != nil {
		return stats, fmt.Errorf("failed to read root %s: %w", root, err)
	}

	folders := make(map[string]*store.Node)
	for _, child := range tree.Children {
		if child.IsFolder() {
			key := folderKey(child.Title)
			if _, dup := folders[key]; !dup {
				folders[key] = child
			}
		}
	}

	for _, col := range seed {
		key := folderKey(col.Title)
		if key == "" {
			continue
		}

		folder, ok := folders[key]
		if !ok {
			folder, err = st.Create(ctx, store.CreateDetails{ParentID: root, Title: strings.TrimSpace(col.Title)})
			if err != nil {
				return stats, fmt.Errorf("failed to create folder %q: %w", col.Title, err)
			}
			folders[key] = folder
			stats.Columns++
		}

		known := make(map[string]bool, len(folder.Children))
		for _, child := range folder.Children {
			if !child.IsFolder() {
				known[child.URL] = true
			}
		}

		for _, b := range col.Bookmarks {
			if b.URL == "" || known[b.URL] {
				continue
			}
			title := b.Title
			if title == "" {
				title = b.URL
			}
			if _, err := st.Create(ctx, store.CreateDetails{ParentID: folder.ID, Title: title, URL: b.URL}); err != nil {
				return stats, fmt.Errorf("failed to create bookmark %q: %w", b.URL, err)
			}
			known[b.URL] = true
			stats.Bookmarks++
		}
	}

	return stats, nil
}

func folderKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}
