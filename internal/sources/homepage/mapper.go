package homepage

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/MrSnakeDoc/bookmarko/internal/sources"
)

// Mapper converts Homepage bookmark groups to a seed: one column per group,
// one bookmark per entry.
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapBookmarks converts BookmarksConfig to a seed, keeping file order.
func (m *Mapper) MapBookmarks(config BookmarksConfig) (sources.Seed, error) {
	seed := make(sources.Seed, 0, len(config))

	for _, group := range config {
		for _, groupName := range sortedKeys(group) {
			col := sources.SeedColumn{Title: groupName}

			for _, bookmarkMap := range group[groupName] {
				for _, name := range sortedKeys(bookmarkMap) {
					entries := bookmarkMap[name]
					// Each bookmark has a list with a single entry
					if len(entries) == 0 || !validHref(entries[0].Href) {
						continue
					}
					col.Bookmarks = append(col.Bookmarks, sources.SeedBookmark{
						Title: name,
						URL:   entries[0].Href,
					})
				}
			}

			if len(col.Bookmarks) > 0 {
				seed = append(seed, col)
			}
		}
	}

	if len(seed) == 0 {
		return nil, fmt.Errorf("no valid bookmarks found in config")
	}

	return seed, nil
}

// validHref accepts absolute http(s) URLs only; template variables are
// stripped to "" before parsing and dropped here.
func validHref(href string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// sortedKeys gives a stable order for the rare map holding several keys.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
