package model

import (
	"strings"
)

// ResolvePath evaluates a dotted attribute path (e.g. "inputs.exchanges")
// against an element and returns the typed result.
//
// Each hop resolves one attribute. When a hop yields a collection, the
// remaining path is mapped over every member and the results are
// flattened in traversal order, deduplicated by UUID. A missing
// attribute on any hop yields Absent; scalars terminate the path.
func ResolvePath(el Element, path string) Value {
	if el == nil || path == "" {
		return Absent()
	}
	attr, rest, _ := strings.Cut(path, ".")
	value, ok := el.Attribute(attr)
	if !ok {
		return Absent()
	}
	if rest == "" {
		return value
	}

	switch value.Kind() {
	case KindElement:
		next, _ := value.Element()
		return ResolvePath(next, rest)
	case KindCollection:
		var flat []Element
		seen := make(map[string]bool)
		for _, member := range value.Elements() {
			for _, resolved := range ResolvePath(member, rest).Elements() {
				if !seen[resolved.UUID()] {
					seen[resolved.UUID()] = true
					flat = append(flat, resolved)
				}
			}
		}
		return OfList(flat)
	default:
		// Scalars have no further attributes to navigate.
		return Absent()
	}
}

// HasAttribute reports whether the first hop of a dotted path exists on
// the element's type. Used to validate link specs against the model.
func HasAttribute(el Element, path string) bool {
	if el == nil || path == "" {
		return false
	}
	attr, _, _ := strings.Cut(path, ".")
	_, ok := el.Attribute(attr)
	return ok
}
