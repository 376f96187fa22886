// Package render reflects combobox views onto a text terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/giygas/lighthospital/combobox"
	"github.com/giygas/lighthospital/pricing"
	"github.com/giygas/lighthospital/searchclient"
)

const separator = " | "

// Text writes each dropdown change as a block of lines. A closed view is
// written once after an open one, repeated closes are silent.
type Text struct {
	mu    sync.Mutex
	w     io.Writer
	kind  searchclient.Kind
	label string
	open  bool
}

var _ combobox.Renderer = (*Text)(nil)

// NewText creates a renderer for a combobox looking up kind. label prefixes
// every block so several dropdowns can share one terminal.
func NewText(w io.Writer, kind searchclient.Kind, label string) *Text {
	return &Text{w: w, kind: kind, label: label}
}

// Render implements combobox.Renderer
func (t *Text) Render(v combobox.View) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !v.Open || len(v.Candidates) == 0 {
		if t.open {
			fmt.Fprintf(t.w, "[%s] (closed)\n", t.label)
		}
		t.open = false
		return
	}
	t.open = true

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %d suggestion(s)\n", t.label, len(v.Candidates))
	for i, c := range v.Candidates {
		marker := "  "
		if i == v.Highlight {
			marker = "> "
		}
		fmt.Fprintf(&b, "%s%d. %s", marker, i+1, c.Name)
		if d := Detail(t.kind, c); d != "" {
			b.WriteString("  ")
			b.WriteString(d)
		}
		b.WriteByte('\n')
	}
	io.WriteString(t.w, b.String())
}

// Detail is the secondary line shown under a candidate name
func Detail(kind searchclient.Kind, c combobox.Candidate) string {
	var parts []string
	switch kind {
	case searchclient.KindMedicine:
		parts = []string{
			c.Field(searchclient.FieldSpecification),
			c.Field(searchclient.FieldUnit),
			price(c.Field(searchclient.FieldPrice)),
			stock(c.Field(searchclient.FieldStock)),
		}
	case searchclient.KindPatient:
		parts = []string{
			c.Field(searchclient.FieldGender),
			age(c.Field(searchclient.FieldAge)),
			c.Field(searchclient.FieldPhone),
			c.Field(searchclient.FieldPinyin),
		}
	}

	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, separator)
}

func price(p string) string {
	if p == "" {
		return ""
	}
	return "¥" + pricing.Total("1", p)
}

func stock(s string) string {
	if s == "" {
		return ""
	}
	return "stock " + s
}

func age(a string) string {
	if a == "" {
		return ""
	}
	return a + "y"
}
