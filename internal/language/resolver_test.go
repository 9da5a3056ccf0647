package language

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentcore/contentcore/internal/shared"
)

type stubLoader struct {
	languages []Language
	err       error
}

func (s stubLoader) LoadAll(ctx context.Context) ([]Language, error) {
	return s.languages, s.err
}

func testResolver() *Resolver {
	return NewResolver(
		Language{ID: 2, Code: "eng-GB", Name: "English (United Kingdom)"},
		Language{ID: 4, Code: "ger-DE", Name: "German"},
		Language{ID: 8, Code: "pol-PL", Name: "Polish"},
	)
}

func TestResolverLookups(t *testing.T) {
	r := testResolver()

	l, err := r.ByCode("ger-DE")
	require.NoError(t, err)
	assert.Equal(t, int64(4), l.ID)

	l, err = r.ByID(3)
	require.NoError(t, err)
	assert.Equal(t, "eng-GB", l.Code, "always-available bit must be ignored")

	_, err = r.ByCode("fre-FR")
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestMask(t *testing.T) {
	r := testResolver()

	mask, err := Mask(r, []string{"eng-GB", "pol-PL"}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2|8|1), mask)

	mask, err = Mask(r, []string{"ger-DE"}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(4), mask)

	_, err = Mask(r, []string{"xxx-XX"}, false)
	assert.Error(t, err)
}

func TestCodesFromMask(t *testing.T) {
	r := testResolver()
	assert.Equal(t, []string{"eng-GB", "pol-PL"}, CodesFromMask(r, 2|8|1))
	assert.Empty(t, CodesFromMask(r, 1))
}

func TestRefreshReplacesLanguages(t *testing.T) {
	r, err := LoadResolver(context.Background(), stubLoader{languages: []Language{{ID: 2, Code: "eng-GB"}}})
	require.NoError(t, err)

	require.NoError(t, r.Refresh(context.Background(), stubLoader{languages: []Language{{ID: 2, Code: "eng-US"}}}))
	_, err = r.ByCode("eng-GB")
	assert.Error(t, err)
	l, err := r.ByID(2)
	require.NoError(t, err)
	assert.Equal(t, "eng-US", l.Code)

	err = r.Refresh(context.Background(), stubLoader{err: errors.New("boom")})
	assert.EqualError(t, err, "boom")
}
