package language

import (
	"context"
	"sort"
	"sync"

	"github.com/contentcore/contentcore/internal/shared"
)

// Lookup resolves languages without I/O.
type Lookup interface {
	ByCode(code string) (Language, error)
	ByID(id int64) (Language, error)
}

// Loader supplies the full language list.
type Loader interface {
	LoadAll(ctx context.Context) ([]Language, error)
}

// Resolver is an in-memory Lookup refreshed from a Loader.
type Resolver struct {
	mu     sync.RWMutex
	byCode map[string]Language
	byID   map[int64]Language
}

// NewResolver builds a resolver seeded with the given languages.
func NewResolver(languages ...Language) *Resolver {
	r := &Resolver{}
	r.set(languages)
	return r
}

// LoadResolver builds a resolver from the loader.
func LoadResolver(ctx context.Context, loader Loader) (*Resolver, error) {
	r := NewResolver()
	if err := r.Refresh(ctx, loader); err != nil {
		return nil, err
	}
	return r, nil
}

// Refresh reloads all languages.
func (r *Resolver) Refresh(ctx context.Context, loader Loader) error {
	languages, err := loader.LoadAll(ctx)
	if err != nil {
		return err
	}
	r.set(languages)
	return nil
}

func (r *Resolver) set(languages []Language) {
	byCode := make(map[string]Language, len(languages))
	byID := make(map[int64]Language, len(languages))
	for _, l := range languages {
		byCode[l.Code] = l
		byID[l.ID] = l
	}
	r.mu.Lock()
	r.byCode = byCode
	r.byID = byID
	r.mu.Unlock()
}

// ByCode returns the language with the given code.
func (r *Resolver) ByCode(code string) (Language, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.byCode[code]
	if !ok {
		return Language{}, shared.NewNotFound("Language", code)
	}
	return l, nil
}

// ByID returns the language with the given id. The always-available bit is ignored.
func (r *Resolver) ByID(id int64) (Language, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.byID[id&^AlwaysAvailableBit]
	if !ok {
		return Language{}, shared.NewNotFound("Language", id)
	}
	return l, nil
}

// Mask ORs the ids of the given codes, adding the always-available bit when requested.
func Mask(lookup Lookup, codes []string, alwaysAvailable bool) (int64, error) {
	var mask int64
	for _, code := range codes {
		l, err := lookup.ByCode(code)
		if err != nil {
			return 0, err
		}
		mask |= l.ID
	}
	if alwaysAvailable {
		mask |= AlwaysAvailableBit
	}
	return mask, nil
}

// CodesFromMask lists the codes whose ids are set in mask, ordered by id.
func CodesFromMask(lookup Lookup, mask int64) []string {
	var ids []int64
	for bit := int64(2); bit > 0 && bit <= mask; bit <<= 1 {
		if mask&bit != 0 {
			ids = append(ids, bit)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	codes := make([]string, 0, len(ids))
	for _, id := range ids {
		if l, err := lookup.ByID(id); err == nil {
			codes = append(codes, l.Code)
		}
	}
	return codes
}
