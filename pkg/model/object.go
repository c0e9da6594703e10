package model

// Object is a map-backed Element implementation. The model-loading
// boundary materializes graph nodes into Objects; tests build small
// graphs from them directly.
type Object struct {
	ID    string
	Type  string
	Lay   string
	Label string
	Attrs map[string]Value
}

var _ Element = (*Object)(nil)

// NewObject creates an Object with an empty attribute map.
func NewObject(uuid, typeName, layer, name string) *Object {
	return &Object{
		ID:    uuid,
		Type:  typeName,
		Lay:   layer,
		Label: name,
		Attrs: make(map[string]Value),
	}
}

// UUID returns the stable external key of the object.
func (o *Object) UUID() string { return o.ID }

// TypeName returns the source type name.
func (o *Object) TypeName() string { return o.Type }

// Layer returns the layer classification.
func (o *Object) Layer() string { return o.Lay }

// Name returns the element name.
func (o *Object) Name() string { return o.Label }

// Attribute returns a named attribute value.
func (o *Object) Attribute(name string) (Value, bool) {
	v, ok := o.Attrs[name]
	return v, ok
}

// Set assigns an attribute value and returns the object for chaining.
func (o *Object) Set(name string, v Value) *Object {
	o.Attrs[name] = v
	return o
}
