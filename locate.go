package recordsync

import (
	"regexp"
	"strconv"
	"strings"
)

// locator maps validation failures back to 1-based lines of the text that was
// validated. The text may have been reformatted freely, so nothing here relies
// on tree positions: a string-aware bracket scan bounds every top-level array
// element and key patterns are searched inside those bounds. Every lookup
// returns 0 when nothing plausible is found.
type locator struct {
	text  string
	spans []span
}

// span is the byte range [start, end) of one top-level element.
type span struct{ start, end int }

var keyPattern = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"\s*:`)

func newLocator(text string) *locator {
	return &locator{text: text, spans: scanElements(text)}
}

func scanElements(text string) []span {
	var (
		spans   []span
		cur     span
		open    bool
		depth   int
		inStr   bool
		escaped bool
		lastEnd int // end of the last non-blank byte
	)
	closeAt := func(end int) {
		cur.end = end
		spans = append(spans, cur)
		open = false
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			lastEnd = i + 1
			continue
		}
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		}
		if depth == 1 && !open && c != ',' && c != ']' {
			open = true
			cur = span{start: i}
		}
		switch c {
		case '"':
			inStr = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if open && depth == 1 {
				closeAt(i + 1)
			} else if open && depth == 0 {
				closeAt(lastEnd)
			}
		case ',':
			if open && depth == 1 {
				closeAt(lastEnd)
			}
		}
		lastEnd = i + 1
	}
	if open {
		closeAt(lastEnd)
	}
	return spans
}

// lineAt converts a byte offset into a line number. Negative offsets are
// unknown and yield 0.
func (l *locator) lineAt(off int64) int {
	if off < 0 {
		return 0
	}
	if off > int64(len(l.text)) {
		off = int64(len(l.text))
	}
	return 1 + strings.Count(l.text[:off], "\n")
}

// lastLine is the line of the last non-blank character, where a truncated
// document stops.
func (l *locator) lastLine() int {
	trimmed := strings.TrimRight(l.text, " \t\r\n")
	if trimmed == "" {
		return 1
	}
	return l.lineAt(int64(len(trimmed) - 1))
}

// elementLine is the line where element i starts.
func (l *locator) elementLine(i int) int {
	if i < 0 || i >= len(l.spans) {
		return 0
	}
	return l.lineAt(int64(l.spans[i].start))
}

func (l *locator) element(i int) (span, bool) {
	if i < 0 || i >= len(l.spans) {
		return span{}, false
	}
	return l.spans[i], true
}

// keyLine is the line where key first appears inside element i.
func (l *locator) keyLine(i int, key string) int {
	sp, ok := l.element(i)
	if !ok {
		return 0
	}
	return l.nthMatchLine(keyRegexp(key), sp, 1)
}

// foreignKeyLine is the line of the first key inside element i whose name is
// not except. A missing required field is usually a mistyped one, so this is
// where the user has to look.
func (l *locator) foreignKeyLine(i int, except string) int {
	sp, ok := l.element(i)
	if !ok {
		return 0
	}
	for _, m := range keyPattern.FindAllStringSubmatchIndex(l.text[sp.start:sp.end], -1) {
		name := unquoteKey(l.text[sp.start+m[2] : sp.start+m[3]])
		if name != except {
			return l.lineAt(int64(sp.start + m[0]))
		}
	}
	return 0
}

// duplicateIDLine finds the second textual `"id": <id>` in the whole text.
// When the literal cannot be matched twice, the start of element second is
// used instead.
func (l *locator) duplicateIDLine(id int64, second int) int {
	re := regexp.MustCompile(`"id"\s*:\s*` + regexp.QuoteMeta(strconv.FormatInt(id, 10)) + `(?:[^0-9.eE]|$)`)
	if line := l.nthMatchLine(re, span{end: len(l.text)}, 2); line > 0 {
		return line
	}
	return l.elementLine(second)
}

// repeatedKeyLine locates the second occurrence of key for a duplicate-key
// failure reported without an offset. p scopes the search to one element
// when it is element-scoped.
func (l *locator) repeatedKeyLine(p pathRef, key string) int {
	sp := span{end: len(l.text)}
	if p.index > 0 {
		var ok bool
		if sp, ok = l.element(p.index - 1); !ok {
			return 0
		}
	}
	if line := l.nthMatchLine(keyRegexp(key), sp, 2); line > 0 {
		return line
	}
	if p.index > 0 {
		return l.elementLine(p.index - 1)
	}
	return 0
}

func (l *locator) nthMatchLine(re *regexp.Regexp, sp span, n int) int {
	ms := re.FindAllStringIndex(l.text[sp.start:sp.end], n)
	if len(ms) < n {
		return 0
	}
	return l.lineAt(int64(sp.start + ms[n-1][0]))
}

func keyRegexp(key string) *regexp.Regexp {
	return regexp.MustCompile(`"` + regexp.QuoteMeta(key) + `"\s*:`)
}

func unquoteKey(raw string) string {
	if !strings.Contains(raw, `\`) {
		return raw
	}
	if s, err := strconv.Unquote(`"` + raw + `"`); err == nil {
		return s
	}
	return raw
}
