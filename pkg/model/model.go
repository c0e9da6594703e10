// Package model defines the read-only capability interface over the
// engineering model graph. The synchronization engine never owns model
// elements; it navigates them through Element and the chained
// attribute-path evaluator in this package.
package model

// DiagramTypeName is the type name reported by diagram elements.
const DiagramTypeName = "Diagram"

// Element is an opaque node in the source graph. Implementations are
// provided by the model-loading collaborator; all access is read-only.
type Element interface {
	// UUID returns the stable external key of the element.
	UUID() string

	// TypeName returns the source type name (e.g. "SystemFunction").
	TypeName() string

	// Layer returns the layer classification (e.g. "oa", "sa"), or an
	// empty string for layer-less elements such as diagrams.
	Layer() string

	// Name returns the human-readable element name.
	Name() string

	// Attribute returns the value of a named attribute. The second
	// return value is false when the attribute does not exist on the
	// element's type.
	Attribute(name string) (Value, bool)
}

// Kind discriminates the typed result of an attribute access.
type Kind int

// Attribute value kinds.
const (
	KindAbsent Kind = iota
	KindElement
	KindCollection
	KindString
	KindBool
)

// Value is the typed result of an attribute access: a single element,
// an ordered collection of elements, a scalar, or absent.
type Value struct {
	kind     Kind
	element  Element
	elements []Element
	str      string
	boolean  bool
}

// Absent returns the absent value.
func Absent() Value { return Value{kind: KindAbsent} }

// Of returns a single-element value. A nil element yields Absent.
func Of(el Element) Value {
	if el == nil {
		return Absent()
	}
	return Value{kind: KindElement, element: el}
}

// OfList returns an ordered collection value.
func OfList(els []Element) Value {
	return Value{kind: KindCollection, elements: els}
}

// OfString returns a scalar string value.
func OfString(s string) Value { return Value{kind: KindString, str: s} }

// OfBool returns a scalar boolean value.
func OfBool(b bool) Value { return Value{kind: KindBool, boolean: b} }

// Kind returns the kind of the value.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether the value is absent.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// Element returns the single element, if the value holds one.
func (v Value) Element() (Element, bool) {
	return v.element, v.kind == KindElement
}

// Elements normalizes the value to an ordered element slice. A single
// element yields a one-element slice, scalars and absent yield nil.
func (v Value) Elements() []Element {
	switch v.kind {
	case KindElement:
		return []Element{v.element}
	case KindCollection:
		return v.elements
	default:
		return nil
	}
}

// String returns the scalar string, if the value holds one.
func (v Value) String() (string, bool) {
	return v.str, v.kind == KindString
}

// Bool returns the scalar boolean, if the value holds one.
func (v Value) Bool() (bool, bool) {
	return v.boolean, v.kind == KindBool
}
