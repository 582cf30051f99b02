package recordsync

import (
	"log/slog"
	"sync"

	"github.com/reoring/recordsync/i18n"
)

// Engine keeps an editable JSON text in sync with a Store. It owns the
// current text, the current diagnostic and the line highlight.
//
// The engine subscribes to its store: any commit, including ones made by
// other editors, re-renders the text and clears the diagnostic and the
// highlight.
type Engine struct {
	store *Store
	opts  Options
	log   *slog.Logger
	hl    *Highlighter

	// commitMu serializes check-then-mutate sequences against the store.
	commitMu sync.Mutex

	mu   sync.Mutex
	text string
	diag *Diagnostic

	unsubscribe func()
}

// NewEngine binds an engine to store. The initial text is the store's
// current collection.
func NewEngine(store *Store, opts ...Option) *Engine {
	o := buildOptions(opts)
	e := &Engine{
		store: store,
		opts:  o,
		log:   o.logger(),
		hl:    NewHighlighter(o.HighlightDuration, o.OnHighlight),
		text:  ToText(store.Data()),
	}
	e.unsubscribe = store.Subscribe(e.update)
	return e
}

func (e *Engine) update(c Collection) {
	e.mu.Lock()
	e.text = ToText(c)
	e.diag = nil
	e.mu.Unlock()
	e.hl.Clear()
}

// Store returns the bound store.
func (e *Engine) Store() *Store { return e.store }

// Text returns the current editor text.
func (e *Engine) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.text
}

// SetText replaces the editor text without validating it. When no diagnostic
// is shown, a lingering highlight is cleared.
func (e *Engine) SetText(text string) {
	e.mu.Lock()
	e.text = text
	quiet := e.diag == nil
	e.mu.Unlock()
	if quiet {
		e.hl.Clear()
	}
}

// Diagnostic returns the current diagnostic, or nil.
func (e *Engine) Diagnostic() *Diagnostic {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.diag
}

// Highlight returns the current highlight state.
func (e *Engine) Highlight() Highlight { return e.hl.Current() }

// Validate checks text with the engine's options without touching any state.
func (e *Engine) Validate(text string) (Collection, error) {
	c, d := validate(text, e.opts)
	if d != nil {
		return nil, d
	}
	return c, nil
}

// Apply validates the current text and commits it on success. On failure the
// store is untouched and the diagnostic replaces any previous one. The
// highlight moves to the diagnostic's line, or is cleared when the line is
// unknown.
func (e *Engine) Apply() (Collection, error) {
	e.commitMu.Lock()
	defer e.commitMu.Unlock()

	text := e.Text()
	c, d := validate(text, e.opts)
	if d != nil {
		e.mu.Lock()
		e.diag = d
		e.mu.Unlock()
		if d.Line > 0 {
			e.hl.Arm(d.Line)
		} else {
			e.hl.Clear()
		}
		e.log.Info("apply rejected", "kind", d.Kind.String(), "code", d.Code, "line", d.Line, "path", d.Path)
		return nil, d
	}
	e.store.SetData(c)
	e.clearDiagnostic()
	e.log.Debug("apply committed", "records", len(c))
	return c, nil
}

// ApplyText sets the editor text and applies it.
func (e *Engine) ApplyText(text string) (Collection, error) {
	e.mu.Lock()
	e.text = text
	e.mu.Unlock()
	return e.Apply()
}

// Reset discards unsaved edits: the text is re-rendered from the store and the
// diagnostic and highlight are cleared. It returns the new text.
func (e *Engine) Reset() string {
	e.commitMu.Lock()
	defer e.commitMu.Unlock()

	text := ToText(e.store.Data())
	e.mu.Lock()
	e.text = text
	e.diag = nil
	e.mu.Unlock()
	e.hl.Clear()
	return text
}

// AddItem appends r after checking it against the collection invariants
// (non-negative fields, unused id).
func (e *Engine) AddItem(r Record) error {
	e.commitMu.Lock()
	defer e.commitMu.Unlock()

	next := append(e.store.Data(), r)
	if d := checkRecords(next, e.opts, i18n.MsgIDExists); d != nil {
		return d
	}
	e.store.AddItem(r)
	e.clearDiagnostic()
	return nil
}

// Replace commits a typed collection, as a table editor does, after checking
// the collection invariants.
func (e *Engine) Replace(c Collection) error {
	e.commitMu.Lock()
	defer e.commitMu.Unlock()

	if d := checkRecords(c, e.opts, i18n.MsgDuplicateID); d != nil {
		return d
	}
	e.store.SetData(c)
	e.clearDiagnostic()
	return nil
}

// Close detaches the engine from its store and stops the highlight timer.
func (e *Engine) Close() {
	e.unsubscribe()
	e.hl.Clear()
}

func (e *Engine) clearDiagnostic() {
	e.mu.Lock()
	e.diag = nil
	e.mu.Unlock()
	e.hl.Clear()
}
