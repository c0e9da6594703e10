package config

import (
	"sort"

	"github.com/archsync/archsync/pkg/errors"
	"github.com/archsync/archsync/pkg/model"
	"github.com/archsync/archsync/pkg/workitem"
)

// ConverterData binds one source element to its resolved layer and
// type configuration for the duration of a synchronization pass. The
// draft and the per-element error list are filled in as the element
// moves through serialization and link resolution.
type ConverterData struct {
	Element    model.Element
	Layer      string
	TypeConfig *TypeConfig

	Draft *workitem.Draft

	// DescriptionReferences collects external keys of elements
	// referenced from the rendered description, consumed by the
	// description-reference link serializer.
	DescriptionReferences []string

	Errors errors.Collector
}

// Session is the per-run collection of element bindings, keyed by the
// element's external key.
type Session map[string]*ConverterData

// Keys returns all external keys in sorted order. Deterministic
// iteration keeps run reports and batch payloads stable.
func (s Session) Keys() []string {
	keys := make([]string, 0, len(s))
	for key := range s {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// NewSession resolves a configuration binding for every element that
// matches the configuration. Elements without a matching configuration
// are reported through the returned collector; an ambiguous match is a
// configuration error for that element only.
func NewSession(cfg *Config, elements []model.Element) (Session, *errors.Collector) {
	session := make(Session, len(elements))
	var failed errors.Collector
	for _, el := range elements {
		tc, err := cfg.ResolveElement(el)
		if err != nil {
			failed.Add(err)
			continue
		}
		session[el.UUID()] = &ConverterData{
			Element:    el,
			Layer:      el.Layer(),
			TypeConfig: tc,
		}
	}
	return session, &failed
}
