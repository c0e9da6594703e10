package document

import (
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/archsync/archsync/pkg/errors"
	"github.com/archsync/archsync/pkg/model"
)

// Authority mode of a document.
const (
	ModeFull  = "full"
	ModeMixed = "mixed"
)

// Config describes one document, or a family of documents when ForEach
// is set. Space and name identify the remote document; the template
// path points at the section template expanded by the Renderer.
type Config struct {
	Space    string `yaml:"space"`
	Name     string `yaml:"name"`
	Template string `yaml:"template"`

	// Mode selects full or mixed authority. Empty means full.
	Mode string `yaml:"mode"`

	HeadingNumbering bool `yaml:"heading_numbering"`

	// StatusAllowList restricts which remote sections may be
	// overwritten. Empty allows every status.
	StatusAllowList []string `yaml:"status_allow_list"`

	// ForEach names an attribute path on a root element. Each element
	// the path yields produces one document instance; "{{name}}" and
	// "{{uuid}}" placeholders in Name are filled from that element.
	ForEach string `yaml:"for_each"`

	// Params are template parameters, also usable as "{{key}}"
	// placeholders inside template entries.
	Params map[string]string `yaml:"params"`
}

// configFile is the on-disk layout of a document configuration file.
type configFile struct {
	Documents []Config `yaml:"documents"`
}

// LoadConfigs reads a YAML document configuration file.
func LoadConfigs(path string) ([]Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return ParseConfigs(raw, path)
}

// ParseConfigs parses document configurations from raw YAML.
func ParseConfigs(raw []byte, path string) ([]Config, error) {
	var file configFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	for i, cfg := range file.Documents {
		if cfg.Space == "" || cfg.Name == "" {
			return nil, errors.NewConfigurationError("", "document",
				"document entry needs both space and name")
		}
		if cfg.Mode == "" {
			file.Documents[i].Mode = ModeFull
		} else if cfg.Mode != ModeFull && cfg.Mode != ModeMixed {
			return nil, errors.NewConfigurationError("", "document",
				"unknown authority mode "+cfg.Mode)
		}
	}
	return file.Documents, nil
}

// Instances expands a ForEach config into one concrete Config per
// element the attribute path yields on root, sorted by element name
// for deterministic document ordering. A config without ForEach
// returns itself unchanged.
func (c Config) Instances(root model.Element) ([]Config, error) {
	if c.ForEach == "" {
		return []Config{c}, nil
	}
	if root == nil {
		return nil, errors.NewConfigurationError("", "document",
			"for_each config needs a model root element")
	}
	value := model.ResolvePath(root, c.ForEach)
	if value.IsAbsent() {
		return nil, errors.NewConfigurationError("", "document",
			"for_each path "+c.ForEach+" yields nothing on the model root")
	}
	elements := value.Elements()
	sort.Slice(elements, func(i, j int) bool {
		if elements[i].Name() != elements[j].Name() {
			return elements[i].Name() < elements[j].Name()
		}
		return elements[i].UUID() < elements[j].UUID()
	})

	instances := make([]Config, 0, len(elements))
	for _, el := range elements {
		instance := c
		instance.ForEach = ""
		instance.Name = strings.NewReplacer(
			"{{name}}", el.Name(),
			"{{uuid}}", el.UUID(),
		).Replace(c.Name)
		instance.Params = make(map[string]string, len(c.Params)+2)
		for k, v := range c.Params {
			instance.Params[k] = v
		}
		instance.Params["name"] = el.Name()
		instance.Params["element"] = el.UUID()
		instances = append(instances, instance)
	}
	return instances, nil
}

// expand fills "{{key}}" placeholders in s from the config's params.
func (c Config) expand(s string) string {
	if len(c.Params) == 0 || !strings.Contains(s, "{{") {
		return s
	}
	pairs := make([]string, 0, len(c.Params)*2)
	for k, v := range c.Params {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}
