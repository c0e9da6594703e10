package serialize

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/archsync/archsync/pkg/config"
	"github.com/archsync/archsync/pkg/errors"
	"github.com/archsync/archsync/pkg/workitem"
)

// serializerFunc applies one serializer kind to an accumulator draft.
type serializerFunc func(s *Serializer, spec config.SerializerSpec, data *config.ConverterData) error

// registry maps serializer kinds to their implementations. The tag set
// is fixed; configuration extends behavior through parameters, not by
// registering new kinds at runtime.
var registry = map[string]serializerFunc{
	config.SerializerGeneric:           serializeGeneric,
	config.SerializerDiagram:           serializeDiagram,
	config.SerializerPrePostConditions: serializePrePostConditions,
	config.SerializerTemplate:          serializeTemplate,
}

// refPattern marks inline references to other model elements inside
// description text: {ref:<uuid>}.
var refPattern = regexp.MustCompile(`\{ref:([0-9a-zA-Z-]+)\}`)

// serializeGeneric fills the identity fields: title, description with
// resolved references, status, and requirement-type custom fields.
func serializeGeneric(s *Serializer, _ config.SerializerSpec, data *config.ConverterData) error {
	draft := data.Draft
	draft.Title = data.Element.Name()
	draft.Status = workitem.StatusOpen

	if v, ok := data.Element.Attribute("description"); ok {
		if text, isString := v.String(); isString {
			draft.Description = s.renderDescription(text, data)
		}
	}

	serializeRequirements(data)
	return nil
}

// renderDescription replaces {ref:uuid} tokens with remote references.
// A reference to an element without remote representation is rendered
// as plain text and recorded; the referenced keys feed the
// description-reference link serializer.
func (s *Serializer) renderDescription(text string, data *config.ConverterData) string {
	return refPattern.ReplaceAllStringFunc(text, func(token string) string {
		key := refPattern.FindStringSubmatch(token)[1]
		el, known := s.elementByKey(key)
		if !known {
			data.Errors.Add(errors.NewResolutionError(data.Element.UUID(), key,
				"description references an unknown element"))
			return brokenReference(key)
		}
		data.DescriptionReferences = append(data.DescriptionReferences, key)
		if ref, ok := s.resolveReference(el); ok {
			return ref
		}
		return el.Name()
	})
}

// serializeRequirements groups linked requirements by their type into
// one rich-text custom field per type.
func serializeRequirements(data *config.ConverterData) {
	v, ok := data.Element.Attribute("requirements")
	if !ok {
		return
	}
	groups := make(map[string][]string)
	for _, req := range v.Elements() {
		typeName := "requirement"
		if tv, ok := req.Attribute("type"); ok {
			if name, isString := tv.String(); isString && name != "" {
				typeName = strings.ToLower(name)
			}
		}
		text := req.Name()
		if tv, ok := req.Attribute("text"); ok {
			if body, isString := tv.String(); isString && body != "" {
				text = body
			}
		}
		groups[typeName] = append(groups[typeName], text)
	}
	for typeName, texts := range groups {
		sort.Strings(texts)
		var sb strings.Builder
		sb.WriteString("<ul>")
		for _, text := range texts {
			sb.WriteString("<li>" + text + "</li>")
		}
		sb.WriteString("</ul>")
		data.Draft.SetField(typeName, workitem.HTML(sb.String()))
	}
}

// serializeDiagram rasterizes the diagram, attaches the image and
// embeds it into the description. An unresolvable diagram is a fatal
// configuration error for this element only.
func serializeDiagram(s *Serializer, _ config.SerializerSpec, data *config.ConverterData) error {
	if s.rasterizer == nil {
		return errors.NewConfigurationError(data.Layer, data.Element.TypeName(),
			"diagram serializer configured without a rasterizer")
	}
	attachment, err := s.rasterizer.Rasterize(data.Element)
	if err != nil {
		return &errors.ConfigurationError{
			Layer:   data.Layer,
			Type:    data.Element.TypeName(),
			Message: fmt.Sprintf("rasterizing diagram %s: %v", data.Element.UUID(), err),
			Err:     err,
		}
	}
	data.Draft.Attachments = append(data.Draft.Attachments, attachment)
	data.Draft.Description += fmt.Sprintf(
		`<p><img style="max-width: 100%%" src="workitemimg:%s"/></p>`, attachment.FileName)
	return nil
}

// serializePrePostConditions copies the pre- and postcondition
// attributes into their dedicated rich-text fields.
func serializePrePostConditions(_ *Serializer, _ config.SerializerSpec, data *config.ConverterData) error {
	for attr, field := range map[string]string{
		"precondition":  "preCondition",
		"postcondition": "postCondition",
	} {
		v, ok := data.Element.Attribute(attr)
		if !ok {
			continue
		}
		if text, isString := v.String(); isString {
			data.Draft.SetField(field, workitem.HTML("<div>"+text+"</div>"))
		}
	}
	return nil
}

// serializeTemplate expands a configured template into a custom field,
// or appends to the description when no field is configured. A missing
// template is a fatal configuration error for this element only.
func serializeTemplate(s *Serializer, spec config.SerializerSpec, data *config.ConverterData) error {
	if s.templates == nil {
		return errors.NewConfigurationError(data.Layer, data.Element.TypeName(),
			"template serializer configured without a template engine")
	}
	template := spec.StringParam("template", "")
	if template == "" {
		return errors.NewConfigurationError(data.Layer, data.Element.TypeName(),
			fmt.Sprintf("serializer %q has no template parameter", spec.Name))
	}

	params := map[string]any{"element": data.Element}
	if extra, ok := spec.Params["params"].(map[string]any); ok {
		for k, v := range extra {
			params[k] = v
		}
	}

	rendered, err := s.templates.Expand(template, params, s.resolveReference)
	if err != nil {
		return &errors.ConfigurationError{
			Layer:   data.Layer,
			Type:    data.Element.TypeName(),
			Message: fmt.Sprintf("expanding template %q: %v", template, err),
			Err:     err,
		}
	}

	if field := spec.StringParam("field", ""); field != "" {
		data.Draft.SetField(field, workitem.HTML(rendered))
	} else {
		data.Draft.Description += rendered
	}
	return nil
}
