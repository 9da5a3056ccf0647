// Package fieldtype holds the field types known to the repository.
package fieldtype

import (
	"sort"

	"github.com/contentcore/contentcore/internal/shared"
)

// Value is the in-memory value of a field.
type Value interface {
	IsEmpty() bool
}

// FieldType converts field values to and from their hash form.
type FieldType interface {
	Identifier() string
	EmptyValue() Value
	FromHash(hash map[string]any) (Value, error)
	ToHash(v Value) (map[string]any, error)
}

// Registry maps identifiers to field types. It is built once and read-only.
type Registry struct {
	types   map[string]FieldType
	aliases *AliasRegistry
}

// NewRegistry registers types. aliases may be nil.
func NewRegistry(aliases *AliasRegistry, types ...FieldType) (*Registry, error) {
	r := &Registry{types: make(map[string]FieldType, len(types)), aliases: aliases}
	for _, t := range types {
		id := t.Identifier()
		if _, dup := r.types[id]; dup {
			return nil, shared.NewInvalidArgument("fieldType", "'%s' registered twice", id)
		}
		r.types[id] = t
	}
	return r, nil
}

// Get returns the field type for an identifier or a legacy alias of it.
func (r *Registry) Get(identifier string) (FieldType, error) {
	if r.aliases != nil {
		identifier = r.aliases.Resolve(identifier)
	}
	t, ok := r.types[identifier]
	if !ok {
		return nil, shared.NewNotFound("FieldType", identifier)
	}
	return t, nil
}

// Has reports whether an identifier resolves to a registered type.
func (r *Registry) Has(identifier string) bool {
	_, err := r.Get(identifier)
	return err == nil
}

// Identifiers lists registered identifiers in order.
func (r *Registry) Identifiers() []string {
	out := make([]string, 0, len(r.types))
	for id := range r.types {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// AliasRegistry maps legacy field type identifiers to current ones.
type AliasRegistry struct {
	aliases map[string]string
}

// DefaultAliases are the legacy identifiers renamed by the platform.
func DefaultAliases() map[string]string {
	return map[string]string{
		"ezimage":      "ibexa_image",
		"ezbinaryfile": "ibexa_binaryfile",
		"ezmedia":      "ibexa_media",
		"ezstring":     "ibexa_string",
		"eztext":       "ibexa_text",
		"ezuser":       "ibexa_user",
	}
}

// NewAliasRegistry copies aliases.
func NewAliasRegistry(aliases map[string]string) *AliasRegistry {
	a := &AliasRegistry{aliases: make(map[string]string, len(aliases))}
	for from, to := range aliases {
		a.aliases[from] = to
	}
	return a
}

// Resolve returns the current identifier, or identifier itself.
func (a *AliasRegistry) Resolve(identifier string) string {
	if to, ok := a.aliases[identifier]; ok {
		return to
	}
	return identifier
}

// IsAlias reports whether identifier is a legacy alias.
func (a *AliasRegistry) IsAlias(identifier string) bool {
	_, ok := a.aliases[identifier]
	return ok
}
