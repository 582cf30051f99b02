package recordsync

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/reoring/recordsync/i18n"
)

// diagAt creates a Diagnostic at p. params are exposed on the Diagnostic and
// also fill the message placeholders; "index" is added when p is
// element-scoped. A known line appends the localized line suffix.
func diagAt(tr i18n.Translator, kind Kind, code string, p pathRef, line int, msgID string, params map[string]any) *Diagnostic {
	data := make(map[string]string, len(params)+2)
	for k, v := range params {
		data[k] = paramString(v)
	}
	if p.index > 0 {
		data["index"] = strconv.Itoa(p.index)
	}
	if p.field != "" {
		data["field"] = p.field
	}
	msg := tr.Message(msgID, data)
	if line > 0 {
		msg += tr.Message(i18n.MsgLineSuffix, map[string]string{"line": strconv.Itoa(line)})
	}
	return &Diagnostic{
		Kind:    kind,
		Code:    code,
		Message: msg,
		Line:    line,
		Path:    p.Pointer(),
		Index:   p.index,
		Field:   p.field,
		Params:  params,
	}
}

func paramString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []string:
		return strings.Join(x, ", ")
	default:
		return fmt.Sprint(x)
	}
}
