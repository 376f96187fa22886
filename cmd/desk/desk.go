package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/giygas/lighthospital/combobox"
	"github.com/giygas/lighthospital/prescription"
	"github.com/giygas/lighthospital/render"
	"github.com/giygas/lighthospital/searchclient"
)

const focusPatient = "patient"

const helpText = `Type text to fill the focused input. Commands:
  :patient            focus the patient picker
  :add                add a prescription line and focus it
  :row N              focus line N
  :rm [N]             remove the focused line or line N
  :down :up :enter    move or commit in the dropdown
  :esc :blur          close the dropdown
  :pick N             click suggestion N
  :set FIELD VALUE    edit a field of the focused line or header
  :show               print the focused line or header
  :total              print the prescription total
  :items              print the lines as submitted
  :page NAME          switch desk page
  :help :quit`

// lockedWriter serialises writes from renderers and the prompt
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// desk drives a prescription form from text commands
type desk struct {
	form  *prescription.Form
	out   io.Writer
	focus string
}

func rowLabel(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return "line " + id
}

// kindOf returns the record kind a searcher looks up, fallback when the
// searcher does not say
func kindOf(s combobox.Searcher, fallback searchclient.Kind) searchclient.Kind {
	if k, ok := s.(interface{ Kind() searchclient.Kind }); ok {
		return k.Kind()
	}
	return fallback
}

func newDesk(out io.Writer, opts prescription.Options) *desk {
	w := &lockedWriter{w: out}
	patientKind := kindOf(opts.Patients, searchclient.KindPatient)
	medicineKind := kindOf(opts.Medicines, searchclient.KindMedicine)
	opts.Renderers = func(name string) combobox.Renderer {
		if name == focusPatient {
			return render.NewText(w, patientKind, "patient")
		}
		return render.NewText(w, medicineKind, rowLabel(name))
	}
	return &desk{
		form:  prescription.NewForm(opts),
		out:   w,
		focus: focusPatient,
	}
}

// run reads commands until :quit or the end of input
func (d *desk) run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if d.exec(scanner.Text()) {
			break
		}
	}
	d.form.Close()
	return scanner.Err()
}

func (d *desk) printf(format string, args ...any) {
	fmt.Fprintf(d.out, format+"\n", args...)
}

// exec runs one line and reports whether the desk should stop
func (d *desk) exec(line string) bool {
	if !strings.HasPrefix(line, ":") {
		d.typeText(line)
		return false
	}

	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case ":quit", ":q":
		return true
	case ":help":
		d.printf("%s", helpText)
	case ":patient":
		d.focus = focusPatient
	case ":add":
		r := d.form.AddRow()
		d.focus = r.ID()
		d.printf("added %s (#%d)", rowLabel(r.ID()), len(d.form.Rows()))
	case ":row":
		if r, ok := d.rowArg(args); ok {
			d.focus = r.ID()
		}
	case ":rm":
		d.remove(args)
	case ":down", ":up", ":enter", ":esc":
		d.key(cmd)
	case ":blur":
		if box := d.box(); box != nil {
			box.Blur()
		}
	case ":pick":
		d.pick(args)
	case ":set":
		d.set(args)
	case ":show":
		d.show()
	case ":total":
		d.printf("total ¥%s", d.form.Total())
	case ":items":
		d.items()
	case ":page":
		if len(args) == 1 {
			d.form.SetPage(args[0])
		}
		d.printf("page %s", d.form.Page())
	default:
		d.printf("unknown command %s, try :help", cmd)
	}
	return false
}

func (d *desk) row() *prescription.Row {
	if d.focus == focusPatient {
		return nil
	}
	r, ok := d.form.Row(d.focus)
	if !ok {
		return nil
	}
	return r
}

func (d *desk) box() *combobox.Combobox {
	if d.focus == focusPatient {
		return d.form.PatientBox()
	}
	if r := d.row(); r != nil {
		return r.Box()
	}
	return nil
}

func (d *desk) rowArg(args []string) (*prescription.Row, bool) {
	rows := d.form.Rows()
	if len(args) != 1 {
		d.printf("usage: :row N (1-%d)", len(rows))
		return nil, false
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(rows) {
		d.printf("no line %s", args[0])
		return nil, false
	}
	return rows[n-1], true
}

func (d *desk) typeText(text string) {
	if d.focus == focusPatient {
		d.form.EditHeader(prescription.FieldPatientName, text)
		return
	}
	r := d.row()
	if r == nil {
		d.printf("no line focused, use :add")
		return
	}
	r.Edit(prescription.FieldMedicineName, text)
}

func (d *desk) key(cmd string) {
	box := d.box()
	if box == nil {
		return
	}
	k := map[string]combobox.Key{
		":down":  combobox.KeyDown,
		":up":    combobox.KeyUp,
		":enter": combobox.KeyEnter,
		":esc":   combobox.KeyEscape,
	}[cmd]
	if !box.Key(k) {
		d.printf("(no dropdown)")
		return
	}
	if k == combobox.KeyEnter {
		d.show()
	}
}

func (d *desk) pick(args []string) {
	box := d.box()
	if box == nil || len(args) != 1 {
		d.printf("usage: :pick N")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || !box.Click(n-1) {
		d.printf("(no suggestion %s)", args[0])
		return
	}
	d.show()
}

func (d *desk) remove(args []string) {
	r := d.row()
	if len(args) > 0 {
		var ok bool
		if r, ok = d.rowArg(args); !ok {
			return
		}
	}
	if r == nil {
		d.printf("no line focused")
		return
	}
	d.form.RemoveRow(r.ID())
	if d.focus == r.ID() {
		d.focus = focusPatient
		if rows := d.form.Rows(); len(rows) > 0 {
			d.focus = rows[len(rows)-1].ID()
		}
	}
	d.printf("removed %s", rowLabel(r.ID()))
}

func (d *desk) set(args []string) {
	if len(args) < 1 {
		d.printf("usage: :set FIELD VALUE")
		return
	}
	field, value := args[0], strings.Join(args[1:], " ")

	if d.focus == focusPatient {
		d.form.EditHeader(field, value)
		return
	}
	r := d.row()
	if r == nil {
		d.printf("no line focused")
		return
	}
	r.Edit(field, value)
	if field == prescription.FieldQuantity || field == prescription.FieldUnitPrice {
		d.printf("%s total ¥%s", rowLabel(r.ID()), r.Get(prescription.FieldTotalPrice))
	}
}

func (d *desk) show() {
	var values map[string]string
	label := "patient"
	if d.focus == focusPatient {
		values = map[string]string{}
		for _, f := range []string{prescription.FieldPatientID, prescription.FieldPatientName,
			prescription.FieldGender, prescription.FieldAge, prescription.FieldPhone} {
			values[f] = d.form.Header(f)
		}
	} else if r := d.row(); r != nil {
		values = r.Fields()
		label = rowLabel(r.ID())
	} else {
		return
	}

	keys := make([]string, 0, len(values))
	for k, v := range values {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+values[k])
	}
	d.printf("%s: %s", label, strings.Join(parts, " "))
}

func (d *desk) items() {
	id, name := d.form.Patient()
	payload := map[string]any{
		"doctor":       d.form.Doctor(),
		"patient_id":   id,
		"patient_name": name,
		"items":        d.form.Items(),
		"total":        d.form.Total(),
	}
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		d.printf("cannot encode items: %v", err)
		return
	}
	d.printf("%s", out)
}

