package recordsync

import (
	"math"
	"strconv"

	gojson "github.com/goccy/go-json"

	"github.com/reoring/recordsync/i18n"
	eng "github.com/reoring/recordsync/internal/engine"
)

// ToText renders c as the canonical editable text: JSON indented with two
// spaces, fields in id, value order, no trailing newline. An empty or nil
// collection renders as "[]".
func ToText(c Collection) string {
	if len(c) == 0 {
		return "[]"
	}
	b, err := gojson.MarshalIndent(c, "", "  ")
	if err != nil {
		// Records are plain integers; encoding cannot fail.
		panic("recordsync: encode collection: " + err.Error())
	}
	return string(b)
}

// Validate decodes text and checks it against the record schema. Checks run
// in a fixed order and the first failure is returned as a *Diagnostic:
//
//	size -> parse -> array shape -> per element (object, id present, value
//	present, id integer, id >= 0, value integer, value >= 0, no extra keys)
//	-> unique ids
//
// On success the returned collection preserves document order.
func Validate(text string, opts ...Option) (Collection, error) {
	c, d := validate(text, buildOptions(opts))
	if d != nil {
		return nil, d
	}
	return c, nil
}

// CheckCollection enforces the at-rest invariants on an already typed
// collection: non-negative ids and values, and pairwise distinct ids. It is
// the single entry point used by every path that mutates a store without
// going through text.
func CheckCollection(c Collection, opts ...Option) error {
	if d := checkRecords(c, buildOptions(opts), i18n.MsgDuplicateID); d != nil {
		return d
	}
	return nil
}

func validate(text string, o Options) (Collection, *Diagnostic) {
	tr := o.translator()
	if o.MaxBytes > 0 && int64(len(text)) > o.MaxBytes {
		return nil, diagAt(tr, KindTextDecode, CodeTruncated, rootRef(), 0, i18n.MsgTooLarge, map[string]any{"max": o.MaxBytes})
	}
	loc := newLocator(text)
	root, d := decodeText(text, o, loc)
	if d != nil {
		return nil, d
	}
	arr, ok := root.([]any)
	if !ok {
		return nil, diagAt(tr, KindSchemaShape, CodeInvalidType, rootRef(), 1, i18n.MsgNotArray, nil)
	}
	out := make(Collection, 0, len(arr))
	for i, el := range arr {
		r, d := checkElement(tr, loc, rootRef().Index(i), el)
		if d != nil {
			return nil, d
		}
		out = append(out, r)
	}
	if _, second, ok := firstDuplicate(out); ok {
		id := out[second].ID
		return nil, diagAt(tr, KindDuplicateIdentity, CodeUniqueness, rootRef().Index(second).Field("id"),
			loc.duplicateIDLine(id, second), i18n.MsgDuplicateID, map[string]any{"id": id})
	}
	return out, nil
}

func checkElement(tr i18n.Translator, loc *locator, at pathRef, el any) (Record, *Diagnostic) {
	i := at.index - 1
	obj, ok := el.(*eng.Object)
	if !ok {
		return Record{}, diagAt(tr, KindSchemaShape, CodeInvalidType, at, loc.elementLine(i), i18n.MsgNotObject, nil)
	}
	for _, f := range [...]string{"id", "value"} {
		if !obj.Has(f) {
			line := loc.foreignKeyLine(i, "id")
			if line == 0 {
				line = loc.elementLine(i)
			}
			return Record{}, diagAt(tr, KindSchemaField, CodeRequired, at.Field(f), line, i18n.MsgFieldMissing, nil)
		}
	}
	var r Record
	for _, f := range [...]string{"id", "value"} {
		v, _ := obj.Get(f)
		n, msgID := toInt(v)
		if msgID != "" {
			return Record{}, diagAt(tr, KindSchemaType, CodeInvalidType, at.Field(f), loc.keyLine(i, f), msgID, nil)
		}
		if n < 0 {
			return Record{}, diagAt(tr, KindSchemaRange, CodeTooSmall, at.Field(f), loc.keyLine(i, f), i18n.MsgFieldNegative, map[string]any{"min": 0})
		}
		if f == "id" {
			r.ID = n
		} else {
			r.Value = n
		}
	}
	var extra []string
	for _, k := range obj.Keys {
		if k != "id" && k != "value" {
			extra = append(extra, k)
		}
	}
	if len(extra) > 0 {
		line := loc.keyLine(i, extra[0])
		if line == 0 {
			line = loc.elementLine(i)
		}
		return Record{}, diagAt(tr, KindSchemaExtraField, CodeUnknownKey, at.Field(extra[0]), line, i18n.MsgExtraKeys, map[string]any{"keys": extra})
	}
	return r, nil
}

// toInt accepts JSON numbers with an integral value that fits int64 ("7",
// "7.0", "7e0"). On failure it returns the message id describing why.
func toInt(v any) (int64, string) {
	n, ok := v.(eng.Number)
	if !ok {
		return 0, i18n.MsgFieldType
	}
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return i, ""
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, i18n.MsgFieldInteger
	}
	return int64(f), ""
}

// firstDuplicate returns the positions of the first id that occurs twice,
// second being the later occurrence.
func firstDuplicate(c Collection) (first, second int, ok bool) {
	seen := make(map[int64]int, len(c))
	for i, r := range c {
		if j, dup := seen[r.ID]; dup {
			return j, i, true
		}
		seen[r.ID] = i
	}
	return 0, 0, false
}

func checkRecords(c Collection, o Options, dupMsg string) *Diagnostic {
	tr := o.translator()
	for i, r := range c {
		at := rootRef().Index(i)
		if r.ID < 0 {
			return diagAt(tr, KindSchemaRange, CodeTooSmall, at.Field("id"), 0, i18n.MsgFieldNegative, map[string]any{"min": 0})
		}
		if r.Value < 0 {
			return diagAt(tr, KindSchemaRange, CodeTooSmall, at.Field("value"), 0, i18n.MsgFieldNegative, map[string]any{"min": 0})
		}
	}
	if _, second, ok := firstDuplicate(c); ok {
		return diagAt(tr, KindDuplicateIdentity, CodeUniqueness, rootRef().Index(second).Field("id"), 0, dupMsg, map[string]any{"id": c[second].ID})
	}
	return nil
}
