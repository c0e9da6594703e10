package document

import (
	"fmt"

	"github.com/archsync/archsync/pkg/workitem"
)

// OpKind classifies one structural patch operation.
type OpKind string

// Structural patch operations.
const (
	OpKeep    OpKind = "keep"
	OpInsert  OpKind = "insert"
	OpDelete  OpKind = "delete"
	OpReorder OpKind = "reorder"
)

// Op is one entry of the structural patch. Index is the section's
// position in the final sequence, or the remote position for deletes.
type Op struct {
	Kind    OpKind
	Index   int
	Section Section
}

// Heading and text sections are work items of these types.
const (
	TypeHeading = "heading"
	TypeText    = "text"
)

// Patch is the reconciliation result for one document: the final
// ordered section sequence, the structural operations producing it,
// and the set of sections still needing a remote work item. Upserted
// items must exist before the document update is applied.
type Patch struct {
	Space            string
	Name             string
	HeadingNumbering bool

	// Create is set when the remote document does not exist yet.
	Create bool

	Sections []Section
	Ops      []Op

	// Skipped counts sections preserved by the status gate although
	// their candidate content differed.
	Skipped int
}

// Document returns the remote document carrying the final sequence.
func (p *Patch) Document() *RemoteDocument {
	return &RemoteDocument{
		Space:            p.Space,
		Name:             p.Name,
		HeadingNumbering: p.HeadingNumbering,
		Sections:         p.Sections,
	}
}

// upsertKey identifies one not-yet-created section across the upsert
// round trip.
func (p *Patch) upsertKey(index int) string {
	section := p.Sections[index]
	if key := section.StableKey(); key != "" {
		return fmt.Sprintf("doc:%s/%s:%s", p.Space, p.Name, key)
	}
	return fmt.Sprintf("doc:%s/%s:text:%d", p.Space, p.Name, index)
}

// Upserts returns a draft for every heading or text section that has
// no remote work item yet. The drafts' external keys match the keys
// Assign expects.
func (p *Patch) Upserts() []*workitem.Draft {
	var drafts []*workitem.Draft
	for i, section := range p.Sections {
		if section.RemoteID != "" {
			continue
		}
		switch section.Kind {
		case KindHeading:
			draft := workitem.NewDraft(p.upsertKey(i), TypeHeading)
			draft.Title = StripNumbering(section.Text)
			drafts = append(drafts, draft)
		case KindText:
			draft := workitem.NewDraft(p.upsertKey(i), TypeText)
			draft.Description = section.Text
			drafts = append(drafts, draft)
		}
	}
	return drafts
}

// Assign fills in remote identifiers allocated for the upserted
// drafts, keyed by their external keys.
func (p *Patch) Assign(ids map[string]string) {
	for i := range p.Sections {
		if p.Sections[i].RemoteID != "" {
			continue
		}
		if id, ok := ids[p.upsertKey(i)]; ok {
			p.Sections[i].RemoteID = id
		}
	}
}

// diffOps derives keep/insert/delete/reorder operations turning the
// remote sequence into the final one. Sections are identified by their
// remote work-item identifier; sections without one are inserts.
func diffOps(remote, final []Section) []Op {
	remotePos := make(map[string]int, len(remote))
	for i, section := range remote {
		if section.RemoteID != "" {
			remotePos[section.RemoteID] = i
		}
	}
	kept := make(map[string]bool, len(final))

	var ops []Op
	last := -1
	for i, section := range final {
		pos, known := remotePos[section.RemoteID]
		if section.RemoteID == "" || !known {
			ops = append(ops, Op{Kind: OpInsert, Index: i, Section: section})
			continue
		}
		kept[section.RemoteID] = true
		if pos > last {
			ops = append(ops, Op{Kind: OpKeep, Index: i, Section: section})
			last = pos
		} else {
			ops = append(ops, Op{Kind: OpReorder, Index: i, Section: section})
		}
	}
	for i, section := range remote {
		if section.RemoteID == "" || kept[section.RemoteID] {
			continue
		}
		ops = append(ops, Op{Kind: OpDelete, Index: i, Section: section})
	}
	return ops
}
