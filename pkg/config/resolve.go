package config

import (
	"fmt"

	"github.com/archsync/archsync/pkg/errors"
	"github.com/archsync/archsync/pkg/model"
)

// Resolve returns the most specific matching type configuration by
// precedence order: a discriminated layer-specific variant beats a
// generic layer-specific entry, which beats the global per-type entry,
// which beats the wildcard default.
//
// Resolution fails when no configuration matches, or when two
// discriminated variants both match the given attributes.
func (c *Config) Resolve(layer, typeName string, attrs Attributes) (*TypeConfig, error) {
	var discriminated, generic []*TypeConfig
	for _, tc := range c.layerConfigs[layer][typeName] {
		if !tc.matches(attrs) {
			continue
		}
		if tc.discriminated() {
			discriminated = append(discriminated, tc)
		} else {
			generic = append(generic, tc)
		}
	}

	if len(discriminated) > 1 {
		return nil, &errors.ConfigurationError{
			Layer: layer,
			Type:  typeName,
			Message: fmt.Sprintf(
				"%d discriminated variants match is_actor=%s nature=%s",
				len(discriminated), formatBool(attrs.IsActor), formatString(attrs.Nature)),
			Err: errors.ErrAmbiguousMatch,
		}
	}
	if len(discriminated) == 1 {
		return discriminated[0], nil
	}
	if len(generic) > 0 {
		return generic[0], nil
	}

	if global, ok := c.globalConfigs[typeName]; ok && global.matches(attrs) {
		return global, nil
	}

	if c.defaultConfig != nil {
		fallback := *c.defaultConfig
		if fallback.TargetType == "" && typeName != Wildcard && typeName != model.DiagramTypeName {
			fallback.TargetType = addPrefix(defaultTypeConversion(typeName), c.typePrefix)
			// Derived types join the management scope like declared ones.
			c.TargetTypes[fallback.TargetType] = true
		}
		return &fallback, nil
	}

	return nil, &errors.ConfigurationError{
		Layer:   layer,
		Type:    typeName,
		Message: "no matching configuration",
		Err:     errors.ErrConfiguration,
	}
}

// ResolveElement resolves the configuration for a concrete element,
// using the diagram entry for diagram elements.
func (c *Config) ResolveElement(el model.Element) (*TypeConfig, error) {
	if el.TypeName() == model.DiagramTypeName {
		if c.DiagramConfig == nil {
			return nil, &errors.ConfigurationError{
				Type:    model.DiagramTypeName,
				Message: "no diagram configuration",
				Err:     errors.ErrConfiguration,
			}
		}
		return c.DiagramConfig, nil
	}
	return c.Resolve(el.Layer(), el.TypeName(), ReadAttributes(el))
}

// matches reports whether the entry's discriminators accept the given
// attribute values. A nil specifier accepts any value.
func (tc *TypeConfig) matches(attrs Attributes) bool {
	if tc.ActorSpecifier != nil {
		if attrs.IsActor == nil || *attrs.IsActor != *tc.ActorSpecifier {
			return false
		}
	}
	if tc.NatureSpecifier != nil {
		if attrs.Nature == nil || *attrs.Nature != *tc.NatureSpecifier {
			return false
		}
	}
	return true
}

func formatBool(b *bool) string {
	if b == nil {
		return "<unset>"
	}
	return fmt.Sprintf("%v", *b)
}

func formatString(s *string) string {
	if s == nil {
		return "<unset>"
	}
	return *s
}
