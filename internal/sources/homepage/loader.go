package homepage

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/bookmarko/internal/sources"
)

var templateVar = regexp.MustCompile(`\{\{[^}]+\}\}`)

// Loader handles loading and parsing of Homepage bookmarks.yaml
type Loader struct {
	filePath string
	mapper   *Mapper
}

// NewLoader creates a new Homepage bookmarks loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
		mapper:   NewMapper(),
	}
}

var _ sources.Loader = (*Loader)(nil)

// Name identifies the source in logs.
func (l *Loader) Name() string { return "homepage" }

// Path returns the watched file.
func (l *Loader) Path() string { return l.filePath }

// Load reads the file and maps it to a seed.
func (l *Loader) Load() (sources.Seed, error) {
	config, err := l.LoadConfig()
	if err != nil {
		return nil, err
	}
	return l.mapper.MapBookmarks(config)
}

// LoadConfig reads and parses the bookmarks.yaml file
func (l *Loader) LoadConfig() (BookmarksConfig, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read bookmarks file: %w", err)
	}

	// Strip Homepage template variables ({{HOMEPAGE_VAR_...}})
	data = stripTemplateVariables(data)

	var config BookmarksConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse bookmarks yaml: %w", err)
	}

	return config, nil
}

// stripTemplateVariables removes Homepage template variables from YAML
// Example: {{HOMEPAGE_VAR_ADGUARD_USER}} -> ""
func stripTemplateVariables(data []byte) []byte {
	return templateVar.ReplaceAll(data, []byte(`""`))
}
