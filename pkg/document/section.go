// Package document renders Live-Document templates into ordered section
// sequences and reconciles them against the remote document store.
// Documents are identified by their (space, name) pair and are created
// when absent, otherwise loaded, reconciled and patched. They are never
// implicitly deleted.
package document

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind discriminates the section variants of a rendered document.
type Kind string

// Section kinds.
const (
	KindHeading     Kind = "heading"
	KindText        Kind = "text"
	KindWorkItemRef Kind = "workitem"
	KindAreaStart   Kind = "area-start"
	KindAreaEnd     Kind = "area-end"
)

// numberingPrefix matches a computed heading number such as "2.1.3 ".
var numberingPrefix = regexp.MustCompile(`^\d+(\.\d+)*\s+`)

// Section is one ordered entry of a rendered document. Headings and
// text blocks are themselves remote work items; their RemoteID is empty
// until they have been upserted. Area markers delimit system-owned
// ranges in mixed-authority documents.
type Section struct {
	Kind  Kind
	Level int    // heading level, KindHeading only
	Text  string // heading text or rich-text content

	// ExternalKey references a synchronized element, KindWorkItemRef
	// only.
	ExternalKey string

	// RemoteID is the remote work-item identifier backing this
	// section, when known.
	RemoteID string

	// Status is the remote item's current status, used by the status
	// gate. Empty for sections without a remote representation.
	Status string
}

// StableKey returns the key used to match a candidate section to its
// remote counterpart across reruns. Headings match on level plus text
// with any computed numbering stripped, work-item references on their
// external key. Text blocks have no stable key and are always
// replaced.
func (s Section) StableKey() string {
	switch s.Kind {
	case KindHeading:
		return fmt.Sprintf("h%d:%s", s.Level, StripNumbering(s.Text))
	case KindWorkItemRef:
		return "wi:" + s.ExternalKey
	default:
		return ""
	}
}

// IsMarker reports whether the section is an area boundary.
func (s Section) IsMarker() bool {
	return s.Kind == KindAreaStart || s.Kind == KindAreaEnd
}

// StripNumbering removes a computed heading number prefix from a
// heading text, so stable keys survive renumbering.
func StripNumbering(text string) string {
	return numberingPrefix.ReplaceAllString(strings.TrimSpace(text), "")
}

// NumberHeadings rewrites heading texts in place with hierarchical
// numbers computed over the full merged sequence. Counters advance for
// every heading so numbers reflect preserved author sections too, but
// sections whose index is in protected keep their text untouched.
func NumberHeadings(sections []Section, protected map[int]bool) {
	var counters [16]int
	for i := range sections {
		if sections[i].Kind != KindHeading {
			continue
		}
		level := sections[i].Level
		if level < 1 || level > len(counters) {
			continue
		}
		counters[level-1]++
		for j := level; j < len(counters); j++ {
			counters[j] = 0
		}
		if protected[i] {
			continue
		}
		parts := make([]string, level)
		for j := range level {
			parts[j] = fmt.Sprintf("%d", counters[j])
		}
		sections[i].Text = strings.Join(parts, ".") + " " + StripNumbering(sections[i].Text)
	}
}
