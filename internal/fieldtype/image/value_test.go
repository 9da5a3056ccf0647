package image

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentcore/contentcore/internal/shared"
)

func TestHashRoundTrip(t *testing.T) {
	hashes := map[string]map[string]any{
		"stored image": {
			"id":              "images/1/2/3/logo.png",
			"alternativeText": "Company logo",
			"fileName":        "logo.png",
			"fileSize":        int64(4242),
			"uri":             "/var/site/storage/images/1/2/3/logo.png",
			"inputUri":        nil,
			"width":           300,
			"height":          120,
			"additionalData":  map[string]any{"focalPointX": 10},
			"imageId":         "54-321",
			"mime":            "image/png",
		},
		"new upload": {
			"id":              nil,
			"alternativeText": nil,
			"fileName":        "photo.jpg",
			"fileSize":        nil,
			"uri":             nil,
			"inputUri":        "/tmp/photo.jpg",
			"width":           nil,
			"height":          nil,
			"additionalData":  map[string]any{},
			"imageId":         nil,
			"mime":            nil,
		},
	}
	for name, hash := range hashes {
		t.Run(name, func(t *testing.T) {
			v, err := Type{}.FromHash(hash)
			require.NoError(t, err)
			assert.False(t, v.IsEmpty())
			out, err := Type{}.ToHash(v)
			require.NoError(t, err)
			assert.Equal(t, hash, out)
		})
	}
}

func TestFromHashCoercesAndRejects(t *testing.T) {
	v, err := Type{}.FromHash(map[string]any{"id": "a.png", "width": "300", "fileSize": "12"})
	require.NoError(t, err)
	img := v.(Value)
	require.NotNil(t, img.Width)
	assert.Equal(t, 300, *img.Width)
	assert.Equal(t, int64(12), *img.FileSize)

	_, err = Type{}.FromHash(map[string]any{"id": "a.png", "colour": "red"})
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)

	empty, err := Type{}.FromHash(nil)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
}
