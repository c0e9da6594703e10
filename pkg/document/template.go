package document

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/archsync/archsync/pkg/errors"
)

// Template is the on-disk description of a document's section
// sequence. Each entry sets exactly one of its fields.
type Template struct {
	Sections []TemplateEntry `yaml:"sections"`
}

// HeadingEntry declares a heading section.
type HeadingEntry struct {
	Level int    `yaml:"level"`
	Text  string `yaml:"text"`
}

// QueryEntry selects synchronized elements by layer and type. Empty
// fields match everything.
type QueryEntry struct {
	Layer string `yaml:"layer"`
	Type  string `yaml:"type"`
}

// TemplateEntry is one template directive. "area: start" and
// "area: end" delimit a system-owned range for mixed-authority
// documents.
type TemplateEntry struct {
	Heading   *HeadingEntry `yaml:"heading"`
	Text      string        `yaml:"text"`
	WorkItem  string        `yaml:"work_item"`
	WorkItems *QueryEntry   `yaml:"work_items"`
	Area      string        `yaml:"area"`
}

// LoadTemplate reads a YAML section template.
func LoadTemplate(path string) (*Template, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return ParseTemplate(raw, path)
}

// ParseTemplate parses a section template from raw YAML.
func ParseTemplate(raw []byte, path string) (*Template, error) {
	var tpl Template
	if err := yaml.Unmarshal(raw, &tpl); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	for _, entry := range tpl.Sections {
		if entry.Area != "" && entry.Area != "start" && entry.Area != "end" {
			return nil, errors.WrapParse("yaml", path,
				errors.New("area must be start or end, got "+entry.Area))
		}
	}
	return &tpl, nil
}
