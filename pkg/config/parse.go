package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/goccy/go-yaml"

	"github.com/archsync/archsync/pkg/errors"
	"github.com/archsync/archsync/pkg/logging"
	"github.com/archsync/archsync/pkg/model"
)

// serializerPattern accepts a known base name with an optional
// "-variant" suffix, so one base serializer can be configured twice
// with different parameters.
var serializerPattern = regexp.MustCompile(`^([a-z_]+)(?:-[a-zA-Z0-9_]+)?$`)

// LoadOptions control configuration processing.
type LoadOptions struct {
	// TypePrefix is prepended to every derived remote type identifier.
	TypePrefix string

	// RolePrefix is prepended to every remote link role identifier.
	RolePrefix string

	// GroupedLinks is the environment-sourced toggle: when set, every
	// link spec without an explicit reverse field gets an implicit one.
	GroupedLinks bool
}

// Load reads and processes a matching configuration file.
func Load(path string, opts LoadOptions) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	cfg, err := Parse(raw, opts)
	if err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return cfg, nil
}

// Parse processes a matching configuration document.
//
// The document maps layer names to source-type names to one or more
// type-config entries. The wildcard layer "*" carries the default entry
// ("*"), the diagram entry ("Diagram"), and global per-type entries
// that specific layers inherit from. Wildcard link lists are merged
// into, not replaced by, the matched layer-specific entry.
func Parse(raw []byte, opts LoadOptions) (*Config, error) {
	var file rawFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, err
	}

	cfg := &Config{
		GroupedLinksCustomFields: opts.GroupedLinks,
		TargetTypes:              make(map[string]bool),
		layerConfigs:             make(map[string]map[string][]*TypeConfig),
		globalConfigs:            make(map[string]*TypeConfig),
		typePrefix:               opts.TypePrefix,
	}
	p := &processor{cfg: cfg, opts: opts}

	wildcardLayer := file[Wildcard]

	defaults := wildcardLayer[Wildcard]
	if len(defaults) > 1 {
		logging.Warn().Msg("Multiple configurations found for '*.*', using the first one")
	}
	var err error
	if len(defaults) > 0 {
		if cfg.defaultConfig, err = p.process(defaults[0], Wildcard, nil); err != nil {
			return nil, err
		}
		cfg.defaultConfig.TargetType = ""
	}

	diagrams := wildcardLayer[model.DiagramTypeName]
	if len(diagrams) > 1 {
		logging.Warn().Msg("Multiple configurations found for '*.Diagram', using the first one")
	}
	if len(diagrams) > 0 {
		if cfg.DiagramConfig, err = p.process(diagrams[0], model.DiagramTypeName, cfg.defaultConfig); err != nil {
			return nil, err
		}
		if cfg.DiagramConfig.TargetType != "" {
			cfg.TargetTypes[cfg.DiagramConfig.TargetType] = true
		}
	}

	for typeName, entries := range wildcardLayer {
		if typeName == Wildcard || typeName == model.DiagramTypeName {
			continue
		}
		if len(entries) > 1 {
			logging.Warn().Str("type", typeName).Msg("Multiple global configurations for type, using the first one")
		}
		processed, err := p.process(entries[0], typeName, cfg.defaultConfig)
		if err != nil {
			return nil, err
		}
		cfg.globalConfigs[typeName] = processed
		if processed.TargetType != "" {
			cfg.TargetTypes[processed.TargetType] = true
		}
	}

	for layer, types := range file {
		if layer == Wildcard {
			continue
		}
		cfg.layerConfigs[layer] = make(map[string][]*TypeConfig)
		for typeName, entries := range types {
			parent := cfg.globalConfigs[typeName]
			if parent == nil {
				parent = cfg.defaultConfig
			}
			var processed []*TypeConfig
			for _, entry := range entries {
				tc, err := p.process(entry, typeName, parent)
				if err != nil {
					return nil, err
				}
				processed = append(processed, tc)
				if tc.TargetType != "" {
					cfg.TargetTypes[tc.TargetType] = true
				}
			}
			// Discriminated variants take precedence over generic entries.
			sort.SliceStable(processed, func(i, j int) bool {
				return processed[i].discriminated() && !processed[j].discriminated()
			})
			cfg.layerConfigs[layer][typeName] = processed
		}
	}

	return cfg, nil
}

type processor struct {
	cfg  *Config
	opts LoadOptions
}

// process turns one raw entry into a TypeConfig, inheriting links and
// serializers from the parent entry and applying prefixes.
func (p *processor) process(entry rawTypeEntry, typeName string, parent *TypeConfig) (*TypeConfig, error) {
	links, err := p.processLinks(entry.Links, typeName)
	if err != nil {
		return nil, err
	}

	// Parent links are merged in, keyed by attribute path; a link
	// configured on the entry itself wins over the inherited one.
	haveAttr := make(map[string]bool, len(links))
	for _, link := range links {
		haveAttr[link.Attr] = true
	}
	if parent != nil {
		for _, link := range parent.Links {
			if !haveAttr[link.Attr] {
				links = append(links, link)
			}
		}
	}

	serializers, err := p.processSerializers(entry.Serializer, typeName)
	if err != nil {
		return nil, err
	}
	if parent != nil && len(parent.Serializers) > 0 {
		merged := make([]SerializerSpec, len(parent.Serializers))
		copy(merged, parent.Serializers)
		for _, spec := range serializers {
			replaced := false
			for i, inherited := range merged {
				if inherited.Name == spec.Name {
					merged[i] = spec
					replaced = true
					break
				}
			}
			if !replaced {
				merged = append(merged, spec)
			}
		}
		serializers = merged
	}

	targetType := entry.TargetType
	if targetType == "" && parent != nil {
		targetType = parent.TargetType
	}
	if targetType == "" && typeName != Wildcard && typeName != model.DiagramTypeName {
		targetType = defaultTypeConversion(typeName)
	}
	if targetType != "" {
		targetType = addPrefix(targetType, p.opts.TypePrefix)
	}

	return &TypeConfig{
		TargetType:      targetType,
		Serializers:     serializers,
		Links:           links,
		ActorSpecifier:  entry.IsActor,
		NatureSpecifier: entry.Nature,
	}, nil
}

func (p *processor) processLinks(raws []rawLink, typeName string) ([]LinkSpec, error) {
	var links []LinkSpec
	for _, raw := range raws {
		if raw.Attr == "" {
			return nil, errors.NewConfigurationError("", typeName, "link spec without attribute path")
		}
		role := raw.Role
		if role == "" {
			role = raw.Attr
		}
		linkField := raw.LinkField
		if linkField == "" {
			linkField = role
		}
		reverseField := raw.ReverseField
		if reverseField == "" && p.opts.GroupedLinks {
			reverseField = linkField + "_reverse"
		}
		links = append(links, LinkSpec{
			Attr:         raw.Attr,
			Role:         addPrefix(role, p.opts.RolePrefix),
			LinkField:    linkField,
			ReverseField: reverseField,
			Include:      raw.Include,
		})
	}
	return links, nil
}

func (p *processor) processSerializers(raw rawSerializer, typeName string) ([]SerializerSpec, error) {
	var specs []SerializerSpec
	for _, item := range raw.items {
		match := serializerPattern.FindStringSubmatch(item.name)
		if match == nil || !knownSerializers[match[1]] {
			return nil, errors.NewConfigurationError("", typeName,
				fmt.Sprintf("unknown serializer %q", item.name))
		}
		specs = append(specs, SerializerSpec{
			Name:   item.name,
			Kind:   match[1],
			Params: item.params,
		})
	}
	return specs, nil
}

// rawFile is the on-disk document: layer -> type -> entries.
type rawFile map[string]map[string]rawTypeEntryList

// rawTypeEntryList accepts either a single entry or a list of entries.
type rawTypeEntryList []rawTypeEntry

// UnmarshalYAML implements flexible decoding for type entries.
func (l *rawTypeEntryList) UnmarshalYAML(b []byte) error {
	var list []rawTypeEntry
	if err := yaml.Unmarshal(b, &list); err == nil {
		*l = list
		return nil
	}
	var single rawTypeEntry
	if err := yaml.Unmarshal(b, &single); err != nil {
		return err
	}
	*l = rawTypeEntryList{single}
	return nil
}

type rawTypeEntry struct {
	TargetType string        `yaml:"target_type"`
	Serializer rawSerializer `yaml:"serializer"`
	Links      []rawLink     `yaml:"links"`
	IsActor    *bool         `yaml:"is_actor"`
	Nature     *string       `yaml:"nature"`
}

// rawSerializer accepts a bare name, a list of names, or a mapping of
// name to parameters. Mapping order is preserved because serializers
// run in configured order.
type rawSerializer struct {
	items []rawSerializerItem
}

type rawSerializerItem struct {
	name   string
	params map[string]any
}

// UnmarshalYAML implements flexible decoding for serializer specs.
func (s *rawSerializer) UnmarshalYAML(b []byte) error {
	var name string
	if err := yaml.Unmarshal(b, &name); err == nil {
		s.items = []rawSerializerItem{{name: name}}
		return nil
	}
	var names []string
	if err := yaml.Unmarshal(b, &names); err == nil {
		for _, n := range names {
			s.items = append(s.items, rawSerializerItem{name: n})
		}
		return nil
	}
	var ordered yaml.MapSlice
	if err := yaml.Unmarshal(b, &ordered); err != nil {
		return err
	}
	for _, entry := range ordered {
		name, ok := entry.Key.(string)
		if !ok {
			return fmt.Errorf("serializer name must be a string, got %T", entry.Key)
		}
		item := rawSerializerItem{name: name}
		if params, ok := entry.Value.(map[string]any); ok {
			item.params = params
		}
		s.items = append(s.items, item)
	}
	return nil
}

// rawLink accepts a bare attribute path or a full link mapping.
type rawLink struct {
	Attr         string            `yaml:"attr"`
	Role         string            `yaml:"role"`
	LinkField    string            `yaml:"link_field"`
	ReverseField string            `yaml:"reverse_field"`
	Include      map[string]string `yaml:"include"`
}

// UnmarshalYAML implements flexible decoding for link specs.
func (l *rawLink) UnmarshalYAML(b []byte) error {
	var attr string
	if err := yaml.Unmarshal(b, &attr); err == nil {
		l.Attr = attr
		return nil
	}
	type plain rawLink
	var full plain
	if err := yaml.Unmarshal(b, &full); err != nil {
		return err
	}
	*l = rawLink(full)
	return nil
}
