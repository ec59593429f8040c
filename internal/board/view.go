package board

import (
	"strings"

	"github.com/MrSnakeDoc/bookmarko/internal/domain"
)

// BookmarkView is a card ready for display.
type BookmarkView struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	URL       string       `json:"url"`
	Color     domain.Color `json:"color"`
	TextColor string       `json:"text_color"`
	Favicon   string       `json:"favicon"`
}

// ColumnView is a column with its visible cards resolved.
type ColumnView struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Color     domain.Color   `json:"color"`
	TextColor string         `json:"text_color"`
	Bookmarks []BookmarkView `json:"bookmarks"`
}

// View is the rendered board for one search query.
type View struct {
	Query   string       `json:"query,omitempty"`
	Columns []ColumnView `json:"columns"`
}

// Filter resolves the model into a view keeping only bookmarks whose title
// or URL contains query, case-insensitively. Columns are always kept, even
// when no card matches. An empty query keeps everything.
func Filter(m *Model, query string) View {
	q := strings.ToLower(strings.TrimSpace(query))
	v := View{Query: q, Columns: make([]ColumnView, 0, len(m.Columns))}

	for _, c := range m.Columns {
		cv := ColumnView{
			ID:        c.ID,
			Title:     c.Title,
			Color:     c.Color,
			TextColor: domain.ContrastColor(c.Color),
			Bookmarks: make([]BookmarkView, 0, len(c.BookmarkIDs)),
		}
		for _, id := range c.BookmarkIDs {
			b, ok := m.Bookmarks[id]
			if !ok || !Matches(b, q) {
				continue
			}
			cv.Bookmarks = append(cv.Bookmarks, BookmarkView{
				ID:        b.ID,
				Title:     b.Title,
				URL:       b.URL,
				Color:     b.Color,
				TextColor: domain.ContrastColor(b.Color),
				Favicon:   domain.FaviconURL(b.URL),
			})
		}
		v.Columns = append(v.Columns, cv)
	}
	return v
}

// Matches reports whether b matches an already lower-cased query.
func Matches(b *domain.Bookmark, q string) bool {
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(b.Title), q) ||
		strings.Contains(strings.ToLower(b.URL), q)
}
