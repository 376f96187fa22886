package combobox

import "strings"

// Target is the set of form fields a selection writes into, usually one
// prescription row. Set is a programmatic assignment and must not raise
// input events.
type Target interface {
	Get(field string) string
	Set(field, value string)
	Alive() bool
}

// FillPolicy decides whether a mapped field may replace what is already there.
type FillPolicy int

const (
	// FillIfEmpty writes only into empty fields so user edits survive.
	FillIfEmpty FillPolicy = iota
	// AlwaysOverwrite mirrors the candidate value unconditionally.
	AlwaysOverwrite
)

func (p FillPolicy) String() string {
	if p == AlwaysOverwrite {
		return "always"
	}
	return "if-empty"
}

// Mapping copies one candidate field into one sibling field.
// With From empty, Fallback is used as a constant default.
type Mapping struct {
	From     string
	To       string
	Fallback string
	Policy   FillPolicy
}

func (m Mapping) value(c Candidate) string {
	if m.From != "" {
		if v := c.Field(m.From); v != "" {
			return v
		}
	}
	return m.Fallback
}

// Binding associates a bound input with the sibling fields it populates and
// the derived fields to recompute after a selection.
type Binding struct {
	Input    string
	Mappings []Mapping
	Derived  []func(t Target)
}

// Commit applies candidate c to t. It returns false, writing nothing, when
// the target is gone.
func (b *Binding) Commit(t Target, c Candidate) bool {
	if t == nil || !t.Alive() {
		return false
	}

	t.Set(b.Input, c.Name)

	for _, m := range b.Mappings {
		if m.Policy == FillIfEmpty && strings.TrimSpace(t.Get(m.To)) != "" {
			continue
		}
		t.Set(m.To, m.value(c))
	}

	for _, recompute := range b.Derived {
		recompute(t)
	}
	return true
}
