package links

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/archsync/archsync/pkg/config"
	"github.com/archsync/archsync/pkg/serialize"
	"github.com/archsync/archsync/pkg/workitem"
)

// headingCaser formats include-group labels for display.
var headingCaser = cases.Title(language.Und)

// attachGroupedLinkFields merges all descriptors sharing a link field
// into one rich-text custom field on the source draft. The field value
// is a function of the link set only: entries are sorted by target
// title, then external key, so checksums stay stable across runs.
func (r *Resolver) attachGroupedLinkFields(data *config.ConverterData) {
	groups := make(map[string][]workitem.LinkDescriptor)
	for _, spec := range data.TypeConfig.Links {
		for _, descriptor := range data.Draft.Links {
			if descriptor.Role == spec.Role {
				groups[spec.LinkField] = append(groups[spec.LinkField], descriptor)
			}
		}
	}
	for field, descriptors := range groups {
		if len(descriptors) == 0 {
			continue
		}
		data.Draft.SetField(field, workitem.HTML(formatLinkList(descriptors)))
	}
}

// backref is one contribution to a target's grouped backlink field.
type backref struct {
	sourceKey   string
	sourceID    string
	sourceTitle string
}

// finalizeBacklinks is pass two: it folds every forward descriptor
// with a configured reverse field into the target draft's grouped
// backlink field. A target's backlink field is the union of links
// contributed by every other element, so this must run after all
// forward links are resolved.
func (r *Resolver) finalizeBacklinks() {
	// target key -> reverse field -> contributions
	backlinks := make(map[string]map[string][]backref)
	for _, key := range r.session.Keys() {
		data := r.session[key]
		if data.Draft == nil {
			continue
		}
		sourceID, _ := r.inventory.RemoteID(key)
		for _, spec := range data.TypeConfig.Links {
			if spec.ReverseField == "" {
				continue
			}
			for _, descriptor := range data.Draft.Links {
				if descriptor.Role != spec.Role {
					continue
				}
				fields := backlinks[descriptor.TargetKey]
				if fields == nil {
					fields = make(map[string][]backref)
					backlinks[descriptor.TargetKey] = fields
				}
				fields[spec.ReverseField] = append(fields[spec.ReverseField], backref{
					sourceKey:   key,
					sourceID:    sourceID,
					sourceTitle: data.Draft.Title,
				})
			}
		}
	}

	for targetKey, fields := range backlinks {
		target, ok := r.session[targetKey]
		if !ok || target.Draft == nil {
			continue
		}
		for field, refs := range fields {
			target.Draft.SetField(field, workitem.HTML(formatBackrefList(refs)))
		}
	}
}

// formatLinkList renders descriptors as a sorted unordered list with
// nested include groups.
func formatLinkList(descriptors []workitem.LinkDescriptor) string {
	sort.Slice(descriptors, func(i, j int) bool {
		if descriptors[i].TargetTitle != descriptors[j].TargetTitle {
			return descriptors[i].TargetTitle < descriptors[j].TargetTitle
		}
		return descriptors[i].TargetKey < descriptors[j].TargetKey
	})

	var sb strings.Builder
	sb.WriteString("<ul>")
	for _, descriptor := range descriptors {
		sb.WriteString("<li>" + serialize.FormatWorkItemReference(descriptor.TargetID) + "</li>")
		for _, label := range sortedLabels(descriptor.Includes) {
			sb.WriteString("<div>" + headingCaser.String(label) + ":</div><ul>")
			ids := append([]string(nil), descriptor.Includes[label]...)
			sort.Strings(ids)
			for _, id := range ids {
				sb.WriteString("<li>" + serialize.FormatWorkItemReference(id) + "</li>")
			}
			sb.WriteString("</ul>")
		}
	}
	sb.WriteString("</ul>")
	return sb.String()
}

// formatBackrefList renders backlink contributions sorted by source
// title, then external key.
func formatBackrefList(refs []backref) string {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].sourceTitle != refs[j].sourceTitle {
			return refs[i].sourceTitle < refs[j].sourceTitle
		}
		return refs[i].sourceKey < refs[j].sourceKey
	})
	var sb strings.Builder
	sb.WriteString("<ul>")
	for _, ref := range refs {
		sb.WriteString("<li>" + serialize.FormatWorkItemReference(ref.sourceID) + "</li>")
	}
	sb.WriteString("</ul>")
	return sb.String()
}

func sortedLabels(includes workitem.Includes) []string {
	labels := make([]string, 0, len(includes))
	for label := range includes {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
