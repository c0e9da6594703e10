package document

import (
	"github.com/archsync/archsync/pkg/config"
	"github.com/archsync/archsync/pkg/errors"
	"github.com/archsync/archsync/pkg/workitem"
)

// Renderer expands templates into candidate section sequences. Every
// work-item reference is resolved against the synchronized inventory.
// Rendering runs strictly after element synchronization, so a
// reference to an element without a remote representation is an error
// for that document, never silently skipped.
type Renderer struct {
	session   config.Session
	inventory *workitem.Inventory
}

// NewRenderer creates a Renderer over a synchronized session.
func NewRenderer(session config.Session, inventory *workitem.Inventory) *Renderer {
	return &Renderer{session: session, inventory: inventory}
}

// Render expands the template into the candidate ordered section
// sequence for one document instance.
func (r *Renderer) Render(cfg Config, tpl *Template) ([]Section, error) {
	var sections []Section
	for _, entry := range tpl.Sections {
		switch {
		case entry.Heading != nil:
			sections = append(sections, Section{
				Kind:  KindHeading,
				Level: entry.Heading.Level,
				Text:  cfg.expand(entry.Heading.Text),
			})
		case entry.Text != "":
			sections = append(sections, Section{
				Kind: KindText,
				Text: cfg.expand(entry.Text),
			})
		case entry.WorkItem != "":
			section, err := r.reference(cfg, cfg.expand(entry.WorkItem))
			if err != nil {
				return nil, err
			}
			sections = append(sections, section)
		case entry.WorkItems != nil:
			expanded, err := r.query(cfg, entry.WorkItems)
			if err != nil {
				return nil, err
			}
			sections = append(sections, expanded...)
		case entry.Area == "start":
			sections = append(sections, Section{Kind: KindAreaStart})
		case entry.Area == "end":
			sections = append(sections, Section{Kind: KindAreaEnd})
		}
	}
	return sections, nil
}

// reference resolves one external key into a work-item section.
func (r *Renderer) reference(cfg Config, key string) (Section, error) {
	remoteID, ok := r.inventory.RemoteID(key)
	if !ok {
		return Section{}, errors.NewResolutionError(cfg.Space+"/"+cfg.Name, key,
			"document references an element without a remote representation")
	}
	return Section{Kind: KindWorkItemRef, ExternalKey: key, RemoteID: remoteID}, nil
}

// query expands a layer/type selection into one work-item section per
// matching session element, in session key order.
func (r *Renderer) query(cfg Config, q *QueryEntry) ([]Section, error) {
	var sections []Section
	for _, key := range r.session.Keys() {
		data := r.session[key]
		if data.Draft == nil {
			continue
		}
		if q.Layer != "" && data.Layer != q.Layer {
			continue
		}
		if q.Type != "" && data.Element.TypeName() != q.Type {
			continue
		}
		section, err := r.reference(cfg, key)
		if err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}
	return sections, nil
}
