// Package combobox implements the search-as-you-type selector used on the
// prescription desk. The state machine has no UI dependency: events come in
// through method calls (Input, Key, Click, Blur, Teardown), searches go out
// through a Searcher, and every visible change is pushed to a Renderer as a
// complete View.
//
// A Combobox is safe for concurrent use. Timer callbacks and search
// completions arrive on their own goroutines and are serialised with the
// caller's events by a mutex.
package combobox

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/giygas/lighthospital/logging"
	"github.com/jonboulle/clockwork"
)

// DefaultDebounce is the quiet window between the last keystroke and the search.
const DefaultDebounce = 300 * time.Millisecond

// State is the position of a combobox in its lifecycle.
type State int

const (
	Idle State = iota
	Pending
	Searching
	Showing
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Searching:
		return "searching"
	case Showing:
		return "showing"
	case Closed:
		return "closed"
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

// Key is a navigation key the combobox reacts to.
type Key int

const (
	KeyDown Key = iota + 1
	KeyUp
	KeyEnter
	KeyEscape
)

// Candidate is one suggestion returned by a search.
type Candidate struct {
	ID     int64
	Name   string
	Fields map[string]string
}

// FieldID addresses the candidate ID in a Mapping.
const FieldID = "id"

// Field returns a named field of the candidate, or "" when absent.
func (c Candidate) Field(name string) string {
	if name == FieldID {
		if c.ID == 0 {
			return ""
		}
		return strconv.FormatInt(c.ID, 10)
	}
	return c.Fields[name]
}

// Searcher runs one query against the search endpoint.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Candidate, error)
}

// SearchFunc adapts a function to the Searcher interface.
type SearchFunc func(ctx context.Context, query string) ([]Candidate, error)

func (f SearchFunc) Search(ctx context.Context, query string) ([]Candidate, error) {
	return f(ctx, query)
}

// View is what the dropdown should look like right now.
type View struct {
	Open       bool
	Candidates []Candidate
	Highlight  int
}

// Renderer reflects a View onto concrete UI elements. Render is called with
// the combobox lock held and must not call back into the combobox.
type Renderer interface {
	Render(v View)
}

// RenderFunc adapts a function to the Renderer interface.
type RenderFunc func(v View)

func (f RenderFunc) Render(v View) { f(v) }

// Options configures a Combobox. Zero values get sensible defaults.
type Options struct {
	Name           string
	Debounce       time.Duration
	MinQueryLength int
	Clock          clockwork.Clock
	Renderer       Renderer

	// Binding and Target receive the side effects of a committed selection.
	Binding *Binding
	Target  Target
}

// Snapshot is a copy of the combobox state.
type Snapshot struct {
	State   State
	Text    string
	Results []Candidate
	Index   int
	Alive   bool
}

// Stats counts what happened to the searches of one combobox.
type Stats struct {
	Issued    int
	Rendered  int
	Empty     int
	Discarded int
	Failed    int
	Committed int
}

// Combobox is the autocomplete state machine bound to one text input.
type Combobox struct {
	mu       sync.Mutex
	searcher Searcher
	opts     Options

	state   State
	text    string
	results []Candidate
	index   int

	timer    clockwork.Timer
	timerGen uint64
	token    uint64
	cancel   context.CancelFunc
	dead     bool

	stats Stats
}

// New creates an idle combobox that queries searcher.
func New(searcher Searcher, opts Options) *Combobox {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.MinQueryLength <= 0 {
		opts.MinQueryLength = 1
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Renderer == nil {
		opts.Renderer = RenderFunc(func(View) {})
	}
	if opts.Name == "" {
		opts.Name = "combobox"
	}

	return &Combobox{
		searcher: searcher,
		opts:     opts,
		state:    Idle,
		index:    -1,
	}
}

// Input handles a keystroke that left text in the bound input.
func (c *Combobox) Input(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dead {
		return
	}

	c.text = text
	c.stopTimerLocked()
	c.abortSearchLocked()

	if utf8.RuneCountInString(strings.TrimSpace(text)) < c.opts.MinQueryLength {
		c.closeLocked()
		return
	}

	if c.state == Showing {
		c.opts.Renderer.Render(View{Highlight: -1})
	}
	c.state = Pending
	c.index = -1

	c.timerGen++
	gen := c.timerGen
	c.timer = c.opts.Clock.AfterFunc(c.opts.Debounce, func() { c.fire(gen) })
}

// Key handles a navigation key and reports whether it was consumed.
// Escape closes the dropdown from any state.
func (c *Combobox) Key(k Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dead {
		return false
	}

	if k == KeyEscape {
		wasOpen := c.state == Showing
		c.stopTimerLocked()
		c.abortSearchLocked()
		c.closeLocked()
		return wasOpen
	}

	if c.state != Showing {
		return false
	}

	switch k {
	case KeyDown:
		c.index = min(c.index+1, len(c.results)-1)
		c.renderLocked()
	case KeyUp:
		c.index = max(c.index-1, -1)
		c.renderLocked()
	case KeyEnter:
		if c.index >= 0 {
			c.commitLocked(c.index)
		}
	default:
		return false
	}
	return true
}

// Click commits the candidate at index i if the dropdown shows it.
func (c *Combobox) Click(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dead || c.state != Showing || i < 0 || i >= len(c.results) {
		return false
	}
	c.commitLocked(i)
	return true
}

// Blur handles focus leaving the component's region.
func (c *Combobox) Blur() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dead {
		return
	}
	c.stopTimerLocked()
	c.abortSearchLocked()
	c.closeLocked()
}

// Teardown detaches the combobox from its row. Pending timers are stopped
// and responses that arrive later are dropped without touching anything.
func (c *Combobox) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dead {
		return
	}
	c.stopTimerLocked()
	c.abortSearchLocked()
	c.dead = true
	c.state = Closed
	c.index = -1
	c.results = nil

	logging.Debug("Combobox torn down",
		"combobox", c.opts.Name,
		"issued", c.stats.Issued,
		"rendered", c.stats.Rendered,
		"empty", c.stats.Empty,
		"discarded", c.stats.Discarded,
		"failed", c.stats.Failed,
		"committed", c.stats.Committed)
}

// Snapshot returns a copy of the current state.
func (c *Combobox) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		State:   c.state,
		Text:    c.text,
		Results: slices.Clone(c.results),
		Index:   c.index,
		Alive:   !c.dead,
	}
}

// Stats returns the search counters.
func (c *Combobox) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// fire runs when the debounce window of timer generation gen elapses.
func (c *Combobox) fire(gen uint64) {
	c.mu.Lock()
	if c.dead || gen != c.timerGen || c.state != Pending {
		c.mu.Unlock()
		return
	}

	c.timer = nil
	query := strings.TrimSpace(c.text)
	c.abortSearchLocked()
	token := c.token
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.state = Searching
	c.stats.Issued++
	c.mu.Unlock()

	go func() {
		results, err := c.searcher.Search(ctx, query)
		c.deliver(token, query, results, err)
	}()
}

// deliver applies a search response unless a newer request or a different
// input text has superseded it.
func (c *Combobox) deliver(token uint64, query string, results []Candidate, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dead || token != c.token || query != strings.TrimSpace(c.text) {
		c.stats.Discarded++
		logging.Debug("Discarded stale autocomplete response",
			"combobox", c.opts.Name, "query", query, "alive", !c.dead)
		return
	}

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	if err != nil {
		c.stats.Failed++
		logging.Warn("Autocomplete search failed", "combobox", c.opts.Name, "query", query, "error", err)
		c.closeLocked()
		return
	}

	if len(results) == 0 {
		c.stats.Empty++
		c.closeLocked()
		return
	}

	c.results = slices.Clone(results)
	c.index = -1
	c.state = Showing
	c.stats.Rendered++
	c.renderLocked()
}

func (c *Combobox) commitLocked(i int) {
	candidate := c.results[i]
	c.text = candidate.Name
	c.closeLocked()
	c.stats.Committed++

	if c.opts.Binding != nil && c.opts.Target != nil {
		if !c.opts.Binding.Commit(c.opts.Target, candidate) {
			logging.Debug("Selection not applied to a detached row", "combobox", c.opts.Name)
		}
	}
}

func (c *Combobox) closeLocked() {
	c.state = Closed
	c.index = -1
	c.opts.Renderer.Render(View{Highlight: -1})
}

func (c *Combobox) renderLocked() {
	c.opts.Renderer.Render(View{
		Open:       true,
		Candidates: slices.Clone(c.results),
		Highlight:  c.index,
	})
}

func (c *Combobox) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	// a callback that already fired sees a stale generation and returns
	c.timerGen++
}

// abortSearchLocked invalidates the in-flight request, if any.
func (c *Combobox) abortSearchLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.token++
}
