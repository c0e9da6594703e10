// Package serialize converts bound source elements into work-item
// drafts. A fixed registry of serializer kinds is applied per element:
// the generic serializer first (title, description, status,
// requirement fields), then every additionally configured serializer in
// configured order. Additional serializers may only add or overwrite
// the fields they own, never the identity fields.
package serialize

import (
	"fmt"

	"github.com/archsync/archsync/pkg/config"
	"github.com/archsync/archsync/pkg/errors"
	"github.com/archsync/archsync/pkg/logging"
	"github.com/archsync/archsync/pkg/model"
	"github.com/archsync/archsync/pkg/workitem"
)

// Rasterizer renders a diagram element to bitmap content. It is
// treated as a pure function of the diagram for checksum purposes: its
// output is hashed, never re-invoked to detect change.
type Rasterizer interface {
	Rasterize(diagram model.Element) (workitem.Attachment, error)
}

// ReferenceResolver turns a resolved source element into a clickable
// remote reference. It returns false when the element has no remote
// representation yet.
type ReferenceResolver func(el model.Element) (string, bool)

// TemplateEngine expands a template reference with named parameters
// into a rendered rich-text fragment. Implementations must be pure
// functions of their declared inputs.
type TemplateEngine interface {
	Expand(template string, params map[string]any, resolve ReferenceResolver) (string, error)
}

// Serializer drives draft creation for a whole session.
type Serializer struct {
	session    config.Session
	inventory  *workitem.Inventory
	graph      map[string]model.Element
	rasterizer Rasterizer
	templates  TemplateEngine
}

// Option configures a Serializer.
type Option func(*Serializer)

// WithRasterizer sets the diagram rasterization collaborator.
func WithRasterizer(r Rasterizer) Option {
	return func(s *Serializer) { s.rasterizer = r }
}

// WithTemplateEngine sets the template-expansion collaborator.
func WithTemplateEngine(t TemplateEngine) Option {
	return func(s *Serializer) { s.templates = t }
}

// New creates a Serializer over a session. The inventory is consulted
// to turn description references into remote links.
func New(session config.Session, inventory *workitem.Inventory, opts ...Option) *Serializer {
	s := &Serializer{
		session:   session,
		inventory: inventory,
		graph:     make(map[string]model.Element, len(session)),
	}
	for _, data := range session {
		s.graph[data.Element.UUID()] = data.Element
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SerializeAll produces a draft for every element in the session.
// A failing element is skipped and its error recorded on its binding;
// the run continues for other elements.
func (s *Serializer) SerializeAll() []*workitem.Draft {
	var drafts []*workitem.Draft
	for _, key := range s.session.Keys() {
		if draft := s.Serialize(key); draft != nil {
			drafts = append(drafts, draft)
		}
	}
	return drafts
}

// Serialize produces the draft for one element. It returns nil when a
// serializer fails; the failure is fatal for this element only.
func (s *Serializer) Serialize(externalKey string) *workitem.Draft {
	data, ok := s.session[externalKey]
	if !ok {
		return nil
	}
	draft := workitem.NewDraft(externalKey, data.TypeConfig.TargetType)
	data.Draft = draft

	if err := s.applyAll(data); err != nil {
		data.Errors.Add(err)
		data.Draft = nil
		logging.Error().
			Err(err).
			Str("external_key", externalKey).
			Str("type", data.Element.TypeName()).
			Msg("Serialization failed")
		return nil
	}
	return draft
}

// applyAll runs the generic serializer first, then the configured
// serializers in order. An explicitly configured generic entry replaces
// the implicit one in place.
func (s *Serializer) applyAll(data *config.ConverterData) error {
	genericSpec := config.SerializerSpec{Name: config.SerializerGeneric, Kind: config.SerializerGeneric}
	rest := make([]config.SerializerSpec, 0, len(data.TypeConfig.Serializers))
	for _, spec := range data.TypeConfig.Serializers {
		if spec.Kind == config.SerializerGeneric {
			genericSpec = spec
			continue
		}
		rest = append(rest, spec)
	}

	if err := s.apply(genericSpec, data); err != nil {
		return err
	}
	for _, spec := range rest {
		if err := s.apply(spec, data); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) apply(spec config.SerializerSpec, data *config.ConverterData) error {
	fn, ok := registry[spec.Kind]
	if !ok {
		return errors.NewConfigurationError(data.Layer, data.Element.TypeName(),
			fmt.Sprintf("unknown serializer kind %q", spec.Kind))
	}
	return fn(s, spec, data)
}

// resolveReference implements ReferenceResolver over the inventory.
func (s *Serializer) resolveReference(el model.Element) (string, bool) {
	id, ok := s.inventory.RemoteID(el.UUID())
	if !ok {
		return "", false
	}
	return FormatWorkItemReference(id), true
}

// elementByKey returns a session element by external key.
func (s *Serializer) elementByKey(key string) (model.Element, bool) {
	el, ok := s.graph[key]
	return el, ok
}
