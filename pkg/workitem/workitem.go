// Package workitem holds the shared data model of the synchronization
// engine: locally computed work-item drafts, the last-known remote
// state, link descriptors, and the inventory mapping external keys to
// remote identifiers.
package workitem

// Custom field names reserved for administration. They carry identity
// and bookkeeping data and are excluded from checksum calculation.
const (
	// FieldExternalKey stores the source element's stable identifier
	// on the remote item.
	FieldExternalKey = "externalKey"

	// FieldChecksum stores the draft checksum on the remote item.
	FieldChecksum = "checksum"
)

// StatusDeleted marks a remote item whose source element disappeared.
const StatusDeleted = "deleted"

// StatusOpen is the status written on every content patch.
const StatusOpen = "open"

// FieldValue is a typed custom field value. Rich text fields carry the
// "text/html" content type; plain fields leave Type empty.
type FieldValue struct {
	Type  string `json:"type,omitempty"`
	Value string `json:"value"`
}

// HTML returns a rich-text field value.
func HTML(value string) FieldValue {
	return FieldValue{Type: "text/html", Value: value}
}

// Plain returns a plain-text field value.
func Plain(value string) FieldValue {
	return FieldValue{Value: value}
}

// LinkDescriptor describes one resolved link from a draft to a target
// element that has a remote representation.
type LinkDescriptor struct {
	Role        string   // remote link role identifier
	TargetKey   string   // external key of the target element
	TargetID    string   // remote identifier of the target, once known
	TargetTitle string   // target title, used for deterministic ordering
	Includes    Includes // optional included-reference groups
}

// Includes maps an include-group label to the remote identifiers of the
// referenced secondary elements carried through the link.
type Includes map[string][]string

// Attachment is binary content attached to a draft, typically a
// rasterized diagram. Content is hashed, never re-rendered to detect
// change.
type Attachment struct {
	FileName string
	MimeType string
	Title    string
	Content  []byte
}

// Draft is the locally computed target representation of one source
// element. Drafts are produced fresh every run and never reused.
type Draft struct {
	ExternalKey  string
	Type         string
	Title        string
	Description  string // rich text
	Status       string
	CustomFields map[string]FieldValue
	Links        []LinkDescriptor
	Attachments  []Attachment
}

// NewDraft creates a draft with an initialized custom field map.
func NewDraft(externalKey, typeID string) *Draft {
	return &Draft{
		ExternalKey:  externalKey,
		Type:         typeID,
		CustomFields: make(map[string]FieldValue),
	}
}

// SetField assigns a custom field. Administrative fields cannot be
// overwritten through this method.
func (d *Draft) SetField(name string, value FieldValue) {
	if name == FieldExternalKey || name == FieldChecksum {
		return
	}
	d.CustomFields[name] = value
}

// RemoteItem is the last-known remote state of a managed work item,
// loaded once at run start and mutated only through sync decisions.
type RemoteItem struct {
	ID           string // remote-assigned identifier
	ExternalKey  string
	Type         string
	Title        string
	Status       string
	Checksum     string
	CustomFields map[string]FieldValue
}
