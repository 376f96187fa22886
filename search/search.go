// Package search builds the match keys of catalog records and filters them
// against autocomplete queries. A record matches when the folded query is a
// substring of its folded text, its full pinyin or its pinyin initials.
package search

import (
	"slices"
	"strings"

	"github.com/giygas/lighthospital/entities"
	"github.com/mozillazg/go-pinyin"
	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Fold normalizes s for comparison: compatibility composition, full-width
// to half-width and case folding. "ＡＭＯ" and "amo" fold to the same key.
func Fold(s string) string {
	t := transform.Chain(norm.NFKC, width.Fold, cases.Fold())
	folded, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return folded
}

// Pinyin returns the toneless pinyin of the Han characters in s, joined
// without separators. Other characters are dropped.
func Pinyin(s string) string {
	args := pinyin.NewArgs()
	args.Style = pinyin.Normal
	return join(pinyin.Pinyin(s, args))
}

// Initials returns the first pinyin letter of each Han character in s.
func Initials(s string) string {
	args := pinyin.NewArgs()
	args.Style = pinyin.FirstLetter
	return join(pinyin.Pinyin(s, args))
}

func join(syllables [][]string) string {
	var b strings.Builder
	for _, s := range syllables {
		if len(s) > 0 {
			b.WriteString(s[0])
		}
	}
	return b.String()
}

// Keys computes the match keys of the given field values.
func Keys(fields ...string) entities.SearchKeys {
	keys := entities.SearchKeys{
		Folded:   make([]string, 0, len(fields)),
		Pinyin:   make([]string, 0, len(fields)),
		Initials: make([]string, 0, len(fields)),
	}
	for _, f := range fields {
		if f == "" {
			continue
		}
		keys.Folded = append(keys.Folded, Fold(f))
		if p := Pinyin(f); p != "" {
			keys.Pinyin = append(keys.Pinyin, p)
			keys.Initials = append(keys.Initials, Initials(f))
		}
	}
	return keys
}

// IndexMedicine fills the match keys of m from its name and specification.
func IndexMedicine(m *entities.Medicine) {
	m.SearchKeys = Keys(m.Name, m.Specification)
}

// IndexPatient fills the match keys of p from its name and phone, and the
// pinyin field when the record has none.
func IndexPatient(p *entities.Patient) {
	if p.Pinyin == "" {
		p.Pinyin = Pinyin(p.Name)
	}
	p.SearchKeys = Keys(p.Name, p.Phone)
	if p.Pinyin != "" && !slices.Contains(p.SearchKeys.Pinyin, p.Pinyin) {
		p.SearchKeys.Pinyin = append(p.SearchKeys.Pinyin, p.Pinyin)
	}
}

// Query is a prepared autocomplete query.
type Query struct {
	folded  string
	compact string // folded without spaces, for pinyin keys
}

// NewQuery prepares raw for matching. The zero Query matches nothing.
func NewQuery(raw string) Query {
	folded := Fold(strings.TrimSpace(raw))
	return Query{
		folded:  folded,
		compact: strings.Join(strings.Fields(folded), ""),
	}
}

// Empty reports whether the query has nothing to match.
func (q Query) Empty() bool {
	return q.folded == ""
}

// Match reports whether keys satisfy the query.
func (q Query) Match(keys entities.SearchKeys) bool {
	if q.Empty() {
		return false
	}
	for _, k := range keys.Folded {
		if strings.Contains(k, q.folded) {
			return true
		}
	}
	for _, k := range keys.Pinyin {
		if strings.Contains(k, q.compact) {
			return true
		}
	}
	for _, k := range keys.Initials {
		if strings.Contains(k, q.compact) {
			return true
		}
	}
	return false
}

// Medicines returns up to limit medicines matching raw, in catalog order.
// A limit of zero or less means no limit.
func Medicines(catalog []entities.Medicine, raw string, limit int) []entities.Medicine {
	q := NewQuery(raw)
	matched := make([]entities.Medicine, 0)
	if q.Empty() {
		return matched
	}
	for _, m := range catalog {
		if q.Match(m.SearchKeys) {
			matched = append(matched, m)
			if limit > 0 && len(matched) == limit {
				break
			}
		}
	}
	return matched
}

// Patients returns every patient matching raw, in catalog order.
func Patients(catalog []entities.Patient, raw string) []entities.Patient {
	q := NewQuery(raw)
	matched := make([]entities.Patient, 0)
	if q.Empty() {
		return matched
	}
	for _, p := range catalog {
		if q.Match(p.SearchKeys) {
			matched = append(matched, p)
		}
	}
	return matched
}
