// Package language maps content language codes to the numeric ids and bit
// masks stored by the legacy schema.
package language

// AlwaysAvailableBit marks a translation row or mask as always available.
const AlwaysAvailableBit int64 = 1

// Language is a row of ibexa_content_language. IDs are powers of two.
type Language struct {
	ID       int64
	Code     string
	Name     string
	Disabled bool
}
