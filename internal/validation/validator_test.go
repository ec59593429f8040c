package validation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/bookmarko/internal/validation"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"google.com", "https://google.com"},
		{"  docs.example.com/a  ", "https://docs.example.com/a"},
		{"http://example.com", "http://example.com"},
		{"HTTPS://Example.com", "HTTPS://Example.com"},
		{"ftp://example.com", "https://ftp://example.com"},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, validation.NormalizeURL(tt.in))
		})
	}
}

func TestBookmarkEdit(t *testing.T) {
	v := validation.New()

	edit, err := v.Bookmark("  Docs ", "docs.example.com")
	require.NoError(t, err)
	assert.Equal(t, "Docs", edit.Title)
	assert.Equal(t, "https://docs.example.com", edit.URL)
}

func TestBookmarkEditErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		title     string
		url       string
		wantField string
	}{
		{"empty title", "   ", "example.com", "title"},
		{"empty url", "Docs", "  ", "url"},
		{"invalid url", "Docs", "exa mple", "url"},
		{"title too long", strings.Repeat("a", 1025), "example.com", "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Bookmark(tt.title, tt.url)
			require.Error(t, err)
			assert.True(t, validation.IsValidation(err))

			var ve *validation.Error
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, tt.wantField)
		})
	}
}

func TestColumnEdit(t *testing.T) {
	v := validation.New()

	edit, err := v.Column("  Work ")
	require.NoError(t, err)
	assert.Equal(t, "Work", edit.Title)

	_, err = v.Column(" ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title cannot be empty")
}

func TestValidateUsesJSONNames(t *testing.T) {
	type payload struct {
		Color string `json:"color,omitempty" validate:"required,hexcolor"`
	}
	err := validation.New().Validate(payload{Color: "red"})

	var ve *validation.Error
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "must be a #RRGGBB color", ve.Fields["color"])
}
