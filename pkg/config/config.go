// Package config loads the YAML matching configuration and resolves,
// per source element, the most specific target-type configuration:
// which remote type to produce, which serializers to apply, and which
// link specifications to follow.
package config

import (
	"strings"

	"github.com/archsync/archsync/pkg/model"
)

// Wildcard matches any layer or any source type in the configuration.
const Wildcard = "*"

// Serializer kind names accepted in the configuration. The generic
// serializer is always applied first; the others are additive.
const (
	SerializerGeneric           = "generic"
	SerializerDiagram           = "diagram"
	SerializerPrePostConditions = "pre_post_conditions"
	SerializerTemplate          = "template"
)

// knownSerializers lists every accepted serializer base name.
var knownSerializers = map[string]bool{
	SerializerGeneric:           true,
	SerializerDiagram:           true,
	SerializerPrePostConditions: true,
	SerializerTemplate:          true,
}

// SerializerSpec names one serializer to apply, with its parameters.
// Kind is the base name; Name keeps an optional "-variant" suffix so
// the same base serializer can run twice with different parameters.
type SerializerSpec struct {
	Name   string
	Kind   string
	Params map[string]any
}

// StringParam returns a string parameter, or the fallback when the
// parameter is missing or not a string.
func (s SerializerSpec) StringParam(key, fallback string) string {
	if v, ok := s.Params[key].(string); ok {
		return v
	}
	return fallback
}

// LinkSpec describes one configured link: the source attribute path to
// evaluate, the remote role to emit, the grouped field names, and
// optional include groups.
type LinkSpec struct {
	Attr         string            // dotted attribute path on the source element
	Role         string            // remote link role identifier
	LinkField    string            // grouped link field name on the source
	ReverseField string            // grouped backlink field name on the target
	Include      map[string]string // include-group label -> attribute name on the target
}

// TypeConfig is a fully resolved per-type configuration after wildcard
// merging and prefix application.
type TypeConfig struct {
	TargetType  string // remote work-item type identifier
	Serializers []SerializerSpec
	Links       []LinkSpec

	// Discriminators restrict this entry to elements whose attributes
	// match. Nil means "matches any value".
	ActorSpecifier  *bool
	NatureSpecifier *string
}

// discriminated reports whether this entry carries any discriminator.
func (tc *TypeConfig) discriminated() bool {
	return tc.ActorSpecifier != nil || tc.NatureSpecifier != nil
}

// Attributes are the discriminating attribute values read off a source
// element before matching.
type Attributes struct {
	IsActor *bool
	Nature  *string
}

// ReadAttributes extracts the discriminating attributes from an element.
func ReadAttributes(el model.Element) Attributes {
	var attrs Attributes
	if v, ok := el.Attribute("is_actor"); ok {
		if b, isBool := v.Bool(); isBool {
			attrs.IsActor = &b
		}
	}
	if v, ok := el.Attribute("nature"); ok {
		if s, isString := v.String(); isString {
			attrs.Nature = &s
		}
	}
	return attrs
}

// Config is the processed matching configuration for one run.
type Config struct {
	// GroupedLinksCustomFields mirrors the environment-sourced toggle:
	// when set, every link spec without an explicit reverse field gets
	// an implicit one derived from its role. Populated once at load
	// time, never read ad hoc during resolution.
	GroupedLinksCustomFields bool

	// TargetTypes collects every remote type identifier the
	// configuration can produce. The sync driver derives its
	// management scope from this set.
	TargetTypes map[string]bool

	DiagramConfig *TypeConfig

	layerConfigs  map[string]map[string][]*TypeConfig
	globalConfigs map[string]*TypeConfig
	defaultConfig *TypeConfig
	typePrefix    string
}

// addPrefix joins a prefix and base identifier with a single underscore.
func addPrefix(base, prefix string) string {
	if prefix == "" || base == "" {
		return base
	}
	return strings.TrimSuffix(prefix, "_") + "_" + strings.TrimPrefix(base, "_")
}

// defaultTypeConversion derives a remote type identifier from a source
// type name by lowercasing the leading character, e.g.
// "SystemFunction" becomes "systemFunction".
func defaultTypeConversion(typeName string) string {
	if typeName == "" {
		return ""
	}
	return strings.ToLower(typeName[:1]) + typeName[1:]
}
