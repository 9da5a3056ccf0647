// Package objectstate persists object state groups, their priority-ordered
// states and the state of every content item.
package objectstate

// Group is a named set of mutually exclusive states.
type Group struct {
	ID                  int64
	Identifier          string
	DefaultLanguageCode string
	LanguageCodes       []string
	Names               map[string]string
	Descriptions        map[string]string
}

// State is one member of a Group. Priorities within a group run 0..n-1.
type State struct {
	ID                  int64
	GroupID             int64
	Identifier          string
	Priority            int
	DefaultLanguageCode string
	LanguageCodes       []string
	Names               map[string]string
	Descriptions        map[string]string
}

// InputStruct carries the translatable input of a group or a state.
type InputStruct struct {
	Identifier          string            `validate:"required,max=45"`
	DefaultLanguageCode string            `validate:"required"`
	Names               map[string]string `validate:"required,min=1,dive,keys,required,endkeys,required"`
	Descriptions        map[string]string
}

// Translation is one language row of a group or state.
type Translation struct {
	LanguageID  int64
	Name        string
	Description string
}

// Record is the persisted shape of a group or state after language codes have
// been resolved to ids.
type Record struct {
	ID                int64
	Identifier        string
	DefaultLanguageID int64
	LanguageMask      int64
	Translations      []Translation
}
