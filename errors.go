package recordsync

import (
	"errors"
	"strconv"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeParseError   = "parse_error"
	CodeTruncated    = "truncated"
	CodeDuplicateKey = "duplicate_key"
	CodeInvalidType  = "invalid_type"
	CodeRequired     = "required"
	CodeTooSmall     = "too_small"
	CodeUnknownKey   = "unknown_key"
	CodeUniqueness   = "uniqueness"
)

// Kind classifies a Diagnostic.
type Kind int

const (
	KindTextDecode        Kind = iota + 1 // text is not well-formed JSON
	KindSchemaShape                       // not an array, or an element is not an object
	KindSchemaField                       // missing id or value
	KindSchemaType                        // id or value is not an integer
	KindSchemaRange                       // id or value is negative
	KindSchemaExtraField                  // unrecognized key
	KindDuplicateIdentity                 // two records share an id
)

// Sentinels matched by errors.Is against a *Diagnostic of the same Kind.
var (
	ErrTextDecode        = errors.New("recordsync: text decode error")
	ErrSchemaShape       = errors.New("recordsync: schema shape error")
	ErrSchemaField       = errors.New("recordsync: schema field error")
	ErrSchemaType        = errors.New("recordsync: schema type error")
	ErrSchemaRange       = errors.New("recordsync: schema range error")
	ErrSchemaExtraField  = errors.New("recordsync: schema extra field error")
	ErrDuplicateIdentity = errors.New("recordsync: duplicate identity error")
)

var kindNames = map[Kind]string{
	KindTextDecode:        "TextDecodeError",
	KindSchemaShape:       "SchemaShapeError",
	KindSchemaField:       "SchemaFieldError",
	KindSchemaType:        "SchemaTypeError",
	KindSchemaRange:       "SchemaRangeError",
	KindSchemaExtraField:  "SchemaExtraFieldError",
	KindDuplicateIdentity: "DuplicateIdentityError",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// MarshalText renders the kind name in JSON payloads.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k Kind) sentinel() error {
	switch k {
	case KindTextDecode:
		return ErrTextDecode
	case KindSchemaShape:
		return ErrSchemaShape
	case KindSchemaField:
		return ErrSchemaField
	case KindSchemaType:
		return ErrSchemaType
	case KindSchemaRange:
		return ErrSchemaRange
	case KindSchemaExtraField:
		return ErrSchemaExtraField
	case KindDuplicateIdentity:
		return ErrDuplicateIdentity
	}
	return nil
}

// Diagnostic is a single validation failure. Validation is fail-fast, so one
// call produces at most one Diagnostic.
type Diagnostic struct {
	Kind    Kind   `json:"kind"`
	Code    string `json:"code"`              // One of the codes listed above.
	Message string `json:"message"`           // Localized; ends with a line suffix when Line is known.
	Line    int    `json:"line,omitempty"`    // 1-based best-effort line; 0 when unknown.
	Path    string `json:"path,omitempty"`    // JSON Pointer (for example: /2/value).
	Index   int    `json:"index,omitempty"`   // 1-based element position; 0 when not element-scoped.
	Field   string `json:"field,omitempty"`   // Offending key, when one applies.
	// Params carries structured values (id, keys, max...) for callers that
	// want to build their own message.
	Params map[string]any `json:"params,omitempty"`
	Cause  error          `json:"-"`
}

func (d *Diagnostic) Error() string { return d.Message }

// Is matches the sentinel error of the diagnostic's Kind.
func (d *Diagnostic) Is(target error) bool {
	s := d.Kind.sentinel()
	return s != nil && s == target
}

func (d *Diagnostic) Unwrap() error { return d.Cause }

// HasLine reports whether a source line could be attributed.
func (d *Diagnostic) HasLine() bool { return d.Line > 0 }

// AsDiagnostic extracts a *Diagnostic from an error using errors.As internally.
func AsDiagnostic(err error) (*Diagnostic, bool) {
	if err == nil {
		return nil, false
	}
	var d *Diagnostic
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}
