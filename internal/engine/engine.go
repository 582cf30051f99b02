package engine

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Number is the leaf type produced for JSON numbers.
type Number = json.Number

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64 // -1 when the driver cannot report it.
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// SyntaxError is the driver-neutral form of a malformed-input error. Drivers
// translate their own syntax errors into it so callers can recover the byte
// offset without knowing which decoder produced it.
type SyntaxError struct {
	Msg    string
	Offset int64 // byte offset of the failure; -1 when unknown
}

func (e *SyntaxError) Error() string {
	if e.Offset >= 0 {
		return e.Msg + " (offset " + strconv.FormatInt(e.Offset, 10) + ")"
	}
	return e.Msg
}

// ErrUnexpectedEnd reports input that ended before the document was complete.
var ErrUnexpectedEnd = errors.New("unexpected end of JSON input")

// Object is a decoded JSON object that remembers key order. Duplicate keys
// keep their first position and the last value, matching common JSON parsers.
type Object struct {
	Keys   []string
	Values map[string]any
}

// NewObject returns an empty object.
func NewObject() *Object { return &Object{Values: make(map[string]any)} }

// Set stores v under k.
func (o *Object) Set(k string, v any) {
	if _, ok := o.Values[k]; !ok {
		o.Keys = append(o.Keys, k)
	}
	o.Values[k] = v
}

// Get returns the value stored under k.
func (o *Object) Get(k string) (any, bool) {
	v, ok := o.Values[k]
	return v, ok
}

// Has reports whether k is present.
func (o *Object) Has(k string) bool {
	_, ok := o.Values[k]
	return ok
}

// DecodeDocument builds a value tree from the token source. Objects decode to
// *Object, arrays to []any, numbers to json.Number. Exactly one top-level value
// is accepted; anything after it is a syntax error.
func DecodeDocument(src TokenSource) (any, error) {
	tok, err := src.NextToken()
	if err != nil {
		return nil, endOf(err)
	}
	v, err := decodeValue(src, tok)
	if err != nil {
		return nil, err
	}
	next, err := src.NextToken()
	switch {
	case err == nil:
		return nil, &SyntaxError{Msg: "invalid character after top-level value", Offset: next.Offset}
	case errors.Is(err, io.EOF):
		return v, nil
	default:
		return nil, err
	}
}

// endOf maps a premature EOF to ErrUnexpectedEnd and passes other errors through.
func endOf(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrUnexpectedEnd
	}
	return err
}

func decodeValue(src TokenSource, tok Token) (any, error) {
	switch tok.Kind {
	case KindBeginObject:
		return decodeObject(src)
	case KindBeginArray:
		return decodeArray(src)
	case KindString:
		return tok.String, nil
	case KindNumber:
		return Number(tok.Number), nil
	case KindBool:
		return tok.Bool, nil
	case KindNull:
		return nil, nil
	default:
		return nil, &SyntaxError{Msg: "unexpected token", Offset: tok.Offset}
	}
}

func decodeObject(src TokenSource) (any, error) {
	obj := NewObject()
	for {
		tok, err := src.NextToken()
		if err != nil {
			return nil, endOf(err)
		}
		if tok.Kind == KindEndObject {
			return obj, nil
		}
		if tok.Kind != KindKey {
			return nil, &SyntaxError{Msg: "expected object key", Offset: tok.Offset}
		}
		vt, err := src.NextToken()
		if err != nil {
			return nil, endOf(err)
		}
		v, err := decodeValue(src, vt)
		if err != nil {
			return nil, err
		}
		obj.Set(tok.String, v)
	}
}

func decodeArray(src TokenSource) (any, error) {
	arr := []any{}
	for {
		tok, err := src.NextToken()
		if err != nil {
			return nil, endOf(err)
		}
		if tok.Kind == KindEndArray {
			return arr, nil
		}
		v, err := decodeValue(src, tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}
