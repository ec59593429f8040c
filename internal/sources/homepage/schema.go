package homepage

// BookmarkEntry represents a single bookmark entry in the YAML
type BookmarkEntry struct {
	Icon        string `yaml:"icon,omitempty"`
	Abbr        string `yaml:"abbr,omitempty"`
	Href        string `yaml:"href"`
	Description string `yaml:"description,omitempty"`
}

// BookmarkGroup is one group of bookmarks.yaml.
// The YAML structure is: - GroupName: [ - BookmarkName: [{ icon, abbr, href }] ]
// Each bookmark name maps to a list with a single entry holding the properties.
// Groups and bookmarks are single-key maps inside lists so file order is kept.
type BookmarkGroup map[string][]map[string][]BookmarkEntry

// BookmarksConfig is the root structure for bookmarks.yaml
type BookmarksConfig []BookmarkGroup
