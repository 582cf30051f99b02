package recordsync

import (
	"errors"

	"github.com/reoring/recordsync/i18n"
	eng "github.com/reoring/recordsync/internal/engine"
)

// decodeText turns text into a generic tree through the configured driver,
// applying the duplicate-key policy and depth limit while tokens stream
// through. Decode failures are mapped to a TextDecodeError with the best line
// the driver allows.
func decodeText(text string, o Options, loc *locator) (any, *Diagnostic) {
	src := o.driver().NewBytes([]byte(text))
	enforced := eng.WrapWithEnforcement(src, eng.EnforceOptions{
		OnDuplicate: toEngineDup(o.Strictness.OnDuplicateKey),
		MaxDepth:    o.MaxDepth,
	})
	v, err := eng.DecodeDocument(enforced)
	if err != nil {
		return nil, decodeDiagnostic(err, o, loc)
	}
	return v, nil
}

func decodeDiagnostic(err error, o Options, loc *locator) *Diagnostic {
	tr := o.translator()
	var (
		ie eng.IssueError
		se *eng.SyntaxError
		d  *Diagnostic
	)
	switch {
	case errors.As(err, &ie) && ie.Code == CodeDuplicateKey:
		p := parsePointer(ie.Path)
		line := loc.lineAt(ie.Offset)
		if line == 0 {
			line = loc.repeatedKeyLine(p, ie.Key)
		}
		d = diagAt(tr, KindTextDecode, CodeDuplicateKey, p, line, i18n.MsgDuplicateKey, map[string]any{"key": ie.Key})
	case errors.As(err, &ie):
		d = diagAt(tr, KindTextDecode, CodeParseError, parsePointer(ie.Path), loc.lineAt(ie.Offset), i18n.MsgTooDeep, map[string]any{"max": o.MaxDepth})
	case errors.As(err, &se):
		d = diagAt(tr, KindTextDecode, CodeParseError, rootRef(), loc.lineAt(se.Offset), i18n.MsgSyntax, map[string]any{"detail": se.Msg})
	case errors.Is(err, eng.ErrUnexpectedEnd):
		d = diagAt(tr, KindTextDecode, CodeParseError, rootRef(), loc.lastLine(), i18n.MsgSyntax, map[string]any{"detail": err.Error()})
	default:
		d = diagAt(tr, KindTextDecode, CodeParseError, rootRef(), 0, i18n.MsgSyntax, map[string]any{"detail": err.Error()})
	}
	d.Cause = err
	return d
}

func toEngineDup(s Severity) eng.DuplicateStrictness {
	if s == Error {
		return eng.DupError
	}
	return eng.DupIgnore
}
