package document

import "context"

// RemoteDocument is the last-known remote state of one Live-Document.
type RemoteDocument struct {
	Space            string
	Name             string
	HeadingNumbering bool
	Sections         []Section
}

// Identity returns the document's unique (space, name) identity.
func (d *RemoteDocument) Identity() string {
	return d.Space + "/" + d.Name
}

// Store is the remote document store boundary. GetDocument returns an
// error wrapping errors.ErrNotFound for documents that do not exist
// yet.
type Store interface {
	GetDocument(ctx context.Context, space, name string) (*RemoteDocument, error)

	CreateDocument(ctx context.Context, doc *RemoteDocument) error

	// UpdateDocument replaces the document's ordered section sequence
	// and its heading-numbering flag.
	UpdateDocument(ctx context.Context, doc *RemoteDocument) error
}
