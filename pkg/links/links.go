// Package links resolves configured link specifications into link
// descriptors and folds them into grouped link and backlink custom
// fields. Resolution is a two-pass pipeline: pass one produces the
// descriptor list per element, pass two folds all descriptors into
// per-target backlink fields, so no shared structure is mutated while
// forward links are still being discovered.
package links

import (
	"github.com/archsync/archsync/pkg/config"
	"github.com/archsync/archsync/pkg/errors"
	"github.com/archsync/archsync/pkg/logging"
	"github.com/archsync/archsync/pkg/model"
	"github.com/archsync/archsync/pkg/workitem"
)

// Pseudo attribute paths handled by dedicated resolvers instead of
// graph navigation.
const (
	// AttrDescriptionReference links to every element referenced from
	// the rendered description.
	AttrDescriptionReference = "description_reference"

	// AttrDiagramElements links a diagram to every element shown on it.
	AttrDiagramElements = "diagram_elements"
)

// Resolver resolves link specs for a session against the inventory's
// known external-key to remote-identifier mapping. The mapping grows
// as items are created, so elements processed later can link to items
// created earlier in the same run.
type Resolver struct {
	session   config.Session
	inventory *workitem.Inventory
}

// NewResolver creates a Resolver for one pass.
func NewResolver(session config.Session, inventory *workitem.Inventory) *Resolver {
	return &Resolver{session: session, inventory: inventory}
}

// ResolveAll runs pass one for every element with a draft and attaches
// the grouped link fields, then runs pass two to attach the grouped
// backlink fields. Broken link targets are recorded per element and
// never fatal.
func (r *Resolver) ResolveAll() {
	for _, key := range r.session.Keys() {
		data := r.session[key]
		if data.Draft == nil {
			logging.Warn().Str("external_key", key).Msg("Expected a draft for link resolution, but there is none")
			continue
		}
		data.Draft.Links = r.resolve(data)
		r.attachGroupedLinkFields(data)
	}
	r.finalizeBacklinks()
}

// resolve evaluates every link spec of one element and returns the
// deduplicated descriptor list.
func (r *Resolver) resolve(data *config.ConverterData) []workitem.LinkDescriptor {
	var descriptors []workitem.LinkDescriptor
	seen := make(map[[2]string]bool) // (role, target key)
	for _, spec := range data.TypeConfig.Links {
		for _, target := range r.targets(data, spec) {
			targetKey := target.UUID()
			if seen[[2]string{spec.Role, targetKey}] {
				continue
			}
			remoteID, ok := r.inventory.RemoteID(targetKey)
			if !ok {
				data.Errors.Add(errors.NewResolutionError(data.Element.UUID(), targetKey,
					"link target has no remote representation"))
				continue
			}
			seen[[2]string{spec.Role, targetKey}] = true
			descriptors = append(descriptors, workitem.LinkDescriptor{
				Role:        spec.Role,
				TargetKey:   targetKey,
				TargetID:    remoteID,
				TargetTitle: target.Name(),
				Includes:    r.includes(data, spec, target),
			})
		}
	}
	return descriptors
}

// targets evaluates a link spec's attribute path to zero or more
// target elements.
func (r *Resolver) targets(data *config.ConverterData, spec config.LinkSpec) []model.Element {
	switch spec.Attr {
	case AttrDescriptionReference:
		var targets []model.Element
		for _, key := range data.DescriptionReferences {
			if ref, ok := r.session[key]; ok {
				targets = append(targets, ref.Element)
			}
		}
		return targets
	case AttrDiagramElements:
		if v, ok := data.Element.Attribute("nodes"); ok {
			return v.Elements()
		}
		return nil
	default:
		value := model.ResolvePath(data.Element, spec.Attr)
		if value.IsAbsent() {
			logging.Debug().
				Str("external_key", data.Element.UUID()).
				Str("attr", spec.Attr).
				Msg("Link attribute is not set")
		}
		return value.Elements()
	}
}

// includes gathers the include-group references carried through a
// link: for every declared group, the remote identifiers of the
// elements reached from the target via the group's attribute.
func (r *Resolver) includes(data *config.ConverterData, spec config.LinkSpec, target model.Element) workitem.Includes {
	if len(spec.Include) == 0 {
		return nil
	}
	includes := make(workitem.Includes)
	for label, attr := range spec.Include {
		for _, included := range model.ResolvePath(target, attr).Elements() {
			remoteID, ok := r.inventory.RemoteID(included.UUID())
			if !ok {
				data.Errors.Add(errors.NewResolutionError(target.UUID(), included.UUID(),
					"included element has no remote representation"))
				continue
			}
			includes[label] = append(includes[label], remoteID)
		}
	}
	if len(includes) == 0 {
		return nil
	}
	return includes
}
