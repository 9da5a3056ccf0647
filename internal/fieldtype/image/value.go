// Package image implements the image field type.
package image

import (
	"github.com/mitchellh/mapstructure"

	"github.com/contentcore/contentcore/internal/fieldtype"
	"github.com/contentcore/contentcore/internal/shared"
)

// Identifier is the field type identifier.
const Identifier = "ibexa_image"

// Value is an image field value. Nil pointers are unset.
type Value struct {
	ID              *string        `mapstructure:"id"`
	AlternativeText *string        `mapstructure:"alternativeText"`
	FileName        *string        `mapstructure:"fileName"`
	FileSize        *int64         `mapstructure:"fileSize"`
	URI             *string        `mapstructure:"uri"`
	InputURI        *string        `mapstructure:"inputUri"`
	Width           *int           `mapstructure:"width"`
	Height          *int           `mapstructure:"height"`
	AdditionalData  map[string]any `mapstructure:"additionalData"`
	ImageID         *string        `mapstructure:"imageId"`
	Mime            *string        `mapstructure:"mime"`
}

// IsEmpty reports whether the value points to no image.
func (v Value) IsEmpty() bool {
	return v.ID == nil && v.InputURI == nil
}

// Type is the image field type.
type Type struct{}

var _ fieldtype.FieldType = Type{}

func (Type) Identifier() string { return Identifier }

func (Type) EmptyValue() fieldtype.Value { return Value{} }

// FromHash decodes a hash. Numeric strings are accepted for numbers; unknown
// keys are rejected.
func (Type) FromHash(hash map[string]any) (fieldtype.Value, error) {
	var v Value
	if hash == nil {
		return v, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &v,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		ZeroFields:       true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(hash); err != nil {
		return nil, shared.NewInvalidArgument("hash", "%v", err)
	}
	return v, nil
}

// ToHash encodes a value. Every key is present; unset ones are nil.
func (Type) ToHash(fv fieldtype.Value) (map[string]any, error) {
	v, ok := fv.(Value)
	if !ok {
		return nil, shared.NewInvalidArgument("value", "expected image value, got %T", fv)
	}
	additional := v.AdditionalData
	if additional == nil {
		additional = map[string]any{}
	}
	return map[string]any{
		"id":              ptrValue(v.ID),
		"alternativeText": ptrValue(v.AlternativeText),
		"fileName":        ptrValue(v.FileName),
		"fileSize":        ptrValue(v.FileSize),
		"uri":             ptrValue(v.URI),
		"inputUri":        ptrValue(v.InputURI),
		"width":           ptrValue(v.Width),
		"height":          ptrValue(v.Height),
		"additionalData":  additional,
		"imageId":         ptrValue(v.ImageID),
		"mime":            ptrValue(v.Mime),
	}, nil
}

func ptrValue[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
