package json

import (
	"errors"
	"io"
	"strings"
	"testing"

	eng "github.com/reoring/recordsync/internal/engine"
)

func kinds(t *testing.T, src eng.TokenSource) []eng.Kind {
	t.Helper()
	var out []eng.Kind
	for {
		tok, err := src.NextToken()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out = append(out, tok.Kind)
	}
}

func TestTokens_KeysAndValues(t *testing.T) {
	got := kinds(t, NewBytes([]byte(`{"a": "b", "c": [1, true, null]}`)))
	want := []eng.Kind{
		eng.KindBeginObject, eng.KindKey, eng.KindString, eng.KindKey,
		eng.KindBeginArray, eng.KindNumber, eng.KindBool, eng.KindNull, eng.KindEndArray,
		eng.KindEndObject,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestTokens_OffsetsAndNumbers(t *testing.T) {
	src := NewReader(strings.NewReader("[\n  12.5e1\n]"))
	if _, err := src.NextToken(); err != nil {
		t.Fatal(err)
	}
	tok, err := src.NextToken()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Number != "12.5e1" {
		t.Fatalf("number text must be preserved, got %q", tok.Number)
	}
	if tok.Offset != 10 || src.Location() != 10 {
		t.Fatalf("expected offset 10, got %d", tok.Offset)
	}
}

func TestSyntaxErrorIsTranslated(t *testing.T) {
	src := NewBytes([]byte("[1,\n}"))
	var err error
	for err == nil {
		_, err = src.NextToken()
	}
	var se *eng.SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected engine SyntaxError, got %T %v", err, err)
	}
	if se.Offset != 4 {
		t.Fatalf("expected offset 4, got %d", se.Offset)
	}
}
