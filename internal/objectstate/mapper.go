package objectstate

import (
	"sort"

	"golang.org/x/text/unicode/norm"

	"github.com/contentcore/contentcore/internal/language"
	"github.com/contentcore/contentcore/internal/shared"
)

// Mapper converts between rows, records and domain values.
type Mapper struct {
	languages language.Lookup
}

// NewMapper returns a Mapper resolving languages through lookup.
func NewMapper(lookup language.Lookup) Mapper {
	return Mapper{languages: lookup}
}

func (m Mapper) code(languageID int64) string {
	l, err := m.languages.ByID(languageID)
	if err != nil {
		return ""
	}
	return l.Code
}

// MapGroups groups rows by id, keeping the row order.
func (m Mapper) MapGroups(rows []GroupRow) []Group {
	var (
		out   []Group
		index = map[int64]int{}
	)
	for _, row := range rows {
		i, ok := index[row.ID]
		if !ok {
			i = len(out)
			index[row.ID] = i
			out = append(out, Group{
				ID:                  row.ID,
				Identifier:          row.Identifier,
				DefaultLanguageCode: m.code(row.DefaultLanguageID),
				Names:               map[string]string{},
				Descriptions:        map[string]string{},
			})
		}
		g := &out[i]
		code := m.code(row.LanguageID)
		if code == "" {
			continue
		}
		if _, seen := g.Names[code]; !seen {
			g.LanguageCodes = append(g.LanguageCodes, code)
		}
		g.Names[code] = row.Name
		g.Descriptions[code] = row.Description
	}
	return out
}

// MapStates groups rows by id, keeping the row order.
func (m Mapper) MapStates(rows []StateRow) []State {
	var (
		out   []State
		index = map[int64]int{}
	)
	for _, row := range rows {
		i, ok := index[row.ID]
		if !ok {
			i = len(out)
			index[row.ID] = i
			out = append(out, State{
				ID:                  row.ID,
				GroupID:             row.GroupID,
				Identifier:          row.Identifier,
				Priority:            row.Priority,
				DefaultLanguageCode: m.code(row.DefaultLanguageID),
				Names:               map[string]string{},
				Descriptions:        map[string]string{},
			})
		}
		s := &out[i]
		code := m.code(row.LanguageID)
		if code == "" {
			continue
		}
		if _, seen := s.Names[code]; !seen {
			s.LanguageCodes = append(s.LanguageCodes, code)
		}
		s.Names[code] = row.Name
		s.Descriptions[code] = row.Description
	}
	return out
}

// Record resolves the languages of an input struct. Names and descriptions
// are stored in NFC.
func (m Mapper) Record(id int64, in InputStruct) (Record, error) {
	if _, ok := in.Names[in.DefaultLanguageCode]; !ok {
		return Record{}, shared.NewInvalidArgument("defaultLanguageCode", "no name given for '%s'", in.DefaultLanguageCode)
	}
	def, err := m.languages.ByCode(in.DefaultLanguageCode)
	if err != nil {
		return Record{}, err
	}
	codes := make([]string, 0, len(in.Names))
	for code := range in.Names {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	mask, err := language.Mask(m.languages, codes, true)
	if err != nil {
		return Record{}, err
	}

	rec := Record{ID: id, Identifier: in.Identifier, DefaultLanguageID: def.ID, LanguageMask: mask}
	for _, code := range codes {
		l, err := m.languages.ByCode(code)
		if err != nil {
			return Record{}, err
		}
		rec.Translations = append(rec.Translations, Translation{
			LanguageID:  l.ID,
			Name:        norm.NFC.String(in.Names[code]),
			Description: norm.NFC.String(in.Descriptions[code]),
		})
	}
	return rec, nil
}
