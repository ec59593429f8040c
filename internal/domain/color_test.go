package domain

import "testing"

func TestRandomColorInPalette(t *testing.T) {
	for i := 0; i < 200; i++ {
		if c := RandomColor(); !InPalette(c) {
			t.Fatalf("RandomColor() = %q, not in palette", c)
		}
	}
}

func TestContrastColor(t *testing.T) {
	tests := []struct {
		name  string
		color Color
		want  string
	}{
		{"white background", "#FFFFFF", "black"},
		{"black background", "#000000", "white"},
		{"yellow", ColorYellow, "black"},
		{"pink", ColorPink, "black"},
		{"dark blue", "#102040", "white"},
		{"lowercase hex", "#ffffff", "black"},
		{"missing hash", "FFFFFF0", "white"},
		{"short", "#FFF", "white"},
		{"not hex", "#GGGGGG", "white"},
		{"empty", "", "white"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContrastColor(tt.color); got != tt.want {
				t.Errorf("ContrastColor(%q) = %q, want %q", tt.color, got, tt.want)
			}
		})
	}
}

func TestFixedColor(t *testing.T) {
	src := FixedColor(ColorTeal)
	if src() != ColorTeal || src() != ColorTeal {
		t.Error("FixedColor should always return the same color")
	}
}

func TestFaviconURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://docs.example.com/a/b?c=d", "https://www.google.com/s2/favicons?domain=docs.example.com&sz=32"},
		{"http://example.com:8080", "https://www.google.com/s2/favicons?domain=example.com&sz=32"},
		{"not a url", DefaultFavicon},
		{"", DefaultFavicon},
		{"://bad", DefaultFavicon},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := FaviconURL(tt.raw); got != tt.want {
				t.Errorf("FaviconURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestColumnClone(t *testing.T) {
	c := &Column{ID: "1", Title: "Work", BookmarkIDs: []string{"a", "b"}}
	cp := c.Clone()
	cp.BookmarkIDs[0] = "z"
	if c.BookmarkIDs[0] != "a" {
		t.Error("Clone should copy BookmarkIDs")
	}
	if c.IndexOf("b") != 1 || c.IndexOf("z") != -1 {
		t.Error("IndexOf returned wrong position")
	}
}
