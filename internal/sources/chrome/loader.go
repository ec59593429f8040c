// Package chrome imports a Chrome profile "Bookmarks" file.
package chrome

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/MrSnakeDoc/bookmarko/internal/sources"
)

const (
	typeFolder = "folder"
	typeURL    = "url"
)

// entry is a node of the Bookmarks JSON document.
type entry struct {
	Type     string  `json:"type"`
	Name     string  `json:"name"`
	URL      string  `json:"url,omitempty"`
	Children []entry `json:"children,omitempty"`
}

type document struct {
	Roots struct {
		BookmarkBar entry `json:"bookmark_bar"`
		Other       entry `json:"other"`
	} `json:"roots"`
}

// Loader reads the bookmark bar of a Chrome profile.
type Loader struct {
	filePath string
}

// NewLoader creates a loader for the Bookmarks file at filePath.
func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

var _ sources.Loader = (*Loader)(nil)

// Name identifies the source in logs.
func (l *Loader) Name() string { return "chrome" }

// Path returns the watched file.
func (l *Loader) Path() string { return l.filePath }

// Load maps every folder directly under the bookmark bar to a column holding
// its direct links. Nested folders and loose links on the bar are skipped,
// the board shows neither.
func (l *Loader) Load() (sources.Seed, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read chrome bookmarks: %w", err)
	}
	return Parse(data)
}

// Parse converts the raw Bookmarks document.
func Parse(data []byte) (sources.Seed, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse chrome bookmarks: %w", err)
	}
	if doc.Roots.BookmarkBar.Type != typeFolder {
		return nil, fmt.Errorf("chrome bookmarks: missing bookmark_bar root")
	}

	var seed sources.Seed
	for _, folder := range doc.Roots.BookmarkBar.Children {
		if folder.Type != typeFolder || strings.TrimSpace(folder.Name) == "" {
			continue
		}
		col := sources.SeedColumn{Title: folder.Name}
		for _, link := range folder.Children {
			if link.Type != typeURL || link.URL == "" {
				continue
			}
			col.Bookmarks = append(col.Bookmarks, sources.SeedBookmark{Title: link.Name, URL: link.URL})
		}
		seed = append(seed, col)
	}
	return seed, nil
}
