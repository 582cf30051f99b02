package recordsync

import (
	"log/slog"
	"time"

	"github.com/reoring/recordsync/i18n"
)

// Record is a single {id, value} entry. Both fields are non-negative in a
// valid collection.
type Record struct {
	ID    int64 `json:"id"`
	Value int64 `json:"value"`
}

// Collection is an ordered sequence of records. Order is insertion order; ids
// are pairwise distinct at rest.
type Collection []Record

// Clone returns an independent copy. The result is never nil.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

// Equal reports whether both collections hold the same records in the same order.
func (c Collection) Equal(other Collection) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}

// Severity expresses how strictly a condition is enforced.
type Severity int

const (
	Ignore Severity = iota
	Error
)

// Strictness configures enforcement for duplicate keys inside one object.
type Strictness struct {
	OnDuplicateKey Severity // Ignore keeps the last value, Error rejects the text.
}

// DefaultHighlightDuration is how long a located line stays highlighted.
const DefaultHighlightDuration = 5 * time.Second

// Options bundles validation and engine options.
type Options struct {
	Driver     Driver
	Strictness Strictness
	MaxDepth   int   // 0 disables the check
	MaxBytes   int64 // 0 disables the check
	Translator i18n.Translator

	HighlightDuration time.Duration
	OnHighlight       func(Highlight)
	Logger            *slog.Logger
}

// Option mutates Options.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		Strictness:        Strictness{OnDuplicateKey: Error},
		HighlightDuration: DefaultHighlightDuration,
	}
}

func buildOptions(opts []Option) Options {
	o := defaultOptions()
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

func (o Options) translator() i18n.Translator {
	if o.Translator != nil {
		return o.Translator
	}
	return i18n.Current()
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) driver() Driver {
	if o.Driver != nil {
		return o.Driver
	}
	return currentDriver()
}

// WithDriver selects the JSON driver used for parsing.
func WithDriver(d Driver) Option { return func(o *Options) { o.Driver = d } }

// WithStrictness sets the duplicate-key policy.
func WithStrictness(s Strictness) Option { return func(o *Options) { o.Strictness = s } }

// WithMaxDepth rejects documents nested deeper than n levels.
func WithMaxDepth(n int) Option { return func(o *Options) { o.MaxDepth = n } }

// WithMaxBytes rejects texts longer than n bytes.
func WithMaxBytes(n int64) Option { return func(o *Options) { o.MaxBytes = n } }

// WithTranslator localizes diagnostic messages.
func WithTranslator(tr i18n.Translator) Option { return func(o *Options) { o.Translator = tr } }

// WithLanguage is shorthand for WithTranslator(i18n.For(lang)).
func WithLanguage(lang string) Option { return WithTranslator(i18n.For(lang)) }

// WithHighlightDuration sets how long a located line stays highlighted.
func WithHighlightDuration(d time.Duration) Option {
	return func(o *Options) { o.HighlightDuration = d }
}

// WithHighlightFunc receives every highlight change of an Engine.
func WithHighlightFunc(fn func(Highlight)) Option { return func(o *Options) { o.OnHighlight = fn } }

// WithLogger sets the logger used by Store and Engine.
func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }
