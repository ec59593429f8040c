// Package validation checks board edits and message payloads using the
// validator/v10 library.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Error is a failed validation with one message per offending field.
type Error struct {
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+e.Fields[name])
	}
	return e.Message + ": " + strings.Join(parts, ", ")
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

// Validator wraps go-playground/validator with field error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator that reports fields by their JSON names.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		if i := strings.IndexByte(name, ','); i >= 0 {
			name = name[:i]
		}
		if name == "-" {
			return fld.Name
		}
		return name
	})

	return &Validator{v: v}
}

// Validate validates a struct.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return formatError(err)
	}
	return nil
}

func formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fields := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		fields[e.Field()] = friendlyMessage(e)
	}
	return &Error{Message: "validation failed", Fields: fields}
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "cannot be empty"
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "url", "http_url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	case "hexcolor":
		return "must be a #RRGGBB color"
	default:
		return "is invalid"
	}
}

// ─────────────────────────────
// Board edits
// ─────────────────────────────

// BookmarkEdit is the user input of the bookmark edit form.
type BookmarkEdit struct {
	Title string `json:"title" validate:"required,max=1024"`
	URL   string `json:"url" validate:"required,http_url"`
}

// ColumnEdit is the user input of the column rename form.
type ColumnEdit struct {
	Title string `json:"title" validate:"required,max=1024"`
}

var schemeRe = regexp.MustCompile(`(?i)^https?://`)

// NormalizeURL trims raw and prefixes https:// when it has no http or
// https scheme. Empty input stays empty.
func NormalizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || schemeRe.MatchString(s) {
		return s
	}
	return "https://" + s
}

// Bookmark trims and normalizes a bookmark edit, then validates it.
func (v *Validator) Bookmark(title, rawURL string) (BookmarkEdit, error) {
	edit := BookmarkEdit{
		Title: strings.TrimSpace(title),
		URL:   NormalizeURL(rawURL),
	}
	if err := v.Validate(edit); err != nil {
		return BookmarkEdit{}, err
	}
	if u, err := url.Parse(edit.URL); err != nil || u.Host == "" {
		return BookmarkEdit{}, &Error{Message: "validation failed", Fields: map[string]string{"url": "must be a valid URL"}}
	}
	return edit, nil
}

// Column trims and validates a column title.
func (v *Validator) Column(title string) (ColumnEdit, error) {
	edit := ColumnEdit{Title: strings.TrimSpace(title)}
	if err := v.Validate(edit); err != nil {
		return ColumnEdit{}, err
	}
	return edit, nil
}
