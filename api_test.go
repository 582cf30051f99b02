package recordsync_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	rs "github.com/reoring/recordsync"
)

func seed() rs.Collection {
	return rs.Collection{{ID: 0, Value: 75}, {ID: 1, Value: 20}, {ID: 2, Value: 80}, {ID: 3, Value: 100}, {ID: 4, Value: 70}}
}

func mustDiag(t *testing.T, err error) *rs.Diagnostic {
	t.Helper()
	if err == nil {
		t.Fatalf("expected a diagnostic, got nil")
	}
	d, ok := rs.AsDiagnostic(err)
	if !ok {
		t.Fatalf("expected *Diagnostic, got %T: %v", err, err)
	}
	return d
}

func TestToText_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "seed", []byte(rs.ToText(seed())))
	g.Assert(t, "empty", []byte(rs.ToText(nil)))
}

func TestValidate_RoundTrip(t *testing.T) {
	cases := []rs.Collection{
		seed(),
		{},
		{{ID: 9, Value: 0}},
		{{ID: 42, Value: 1 << 40}, {ID: 7, Value: 3}, {ID: 0, Value: 0}},
	}
	for _, c := range cases {
		got, err := rs.Validate(rs.ToText(c))
		if err != nil {
			t.Fatalf("round trip of %v failed: %v", c, err)
		}
		if !got.Equal(c) {
			t.Fatalf("round trip mismatch: got %v want %v", got, c)
		}
	}
}

func TestValidate_AcceptsWhitespaceVariance(t *testing.T) {
	text := "\n\n[ {\"id\":1,\n\n   \"value\" :   2},\t{\"value\": 3, \"id\": 4} ]\n\n"
	got, err := rs.Validate(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := rs.Collection{{ID: 1, Value: 2}, {ID: 4, Value: 3}}
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestValidate_IntegralNumbers(t *testing.T) {
	got, err := rs.Validate(`[{"id": 2.0, "value": 1e2}]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(rs.Collection{{ID: 2, Value: 100}}) {
		t.Fatalf("unexpected collection %v", got)
	}
}

func TestValidate_FailFastOrdering(t *testing.T) {
	text := "[\n  {\n    \"id\": -1,\n    \"valeu\": 5\n  }\n]"
	d := mustDiag(t, func() error { _, err := rs.Validate(text); return err }())
	if d.Kind != rs.KindSchemaField || d.Field != "value" {
		t.Fatalf("expected missing value first, got %v %q", d.Kind, d.Field)
	}
	if d.Line != 4 {
		t.Fatalf("expected the mistyped key line 4, got %d", d.Line)
	}
	if d.Message != "item #1 is missing the value property. (line 4)" {
		t.Fatalf("unexpected message %q", d.Message)
	}
}

func TestValidate_MissingID(t *testing.T) {
	_, err := rs.Validate("[\n  {\n    \"value\": 5\n  }\n]")
	d := mustDiag(t, err)
	if d.Kind != rs.KindSchemaField || d.Code != rs.CodeRequired || d.Field != "id" || d.Line != 3 {
		t.Fatalf("unexpected diagnostic %+v", d)
	}

	_, err = rs.Validate("[\n  {\"id\": 1, \"value\": 1},\n  {}\n]")
	d = mustDiag(t, err)
	if d.Index != 2 || d.Line != 3 {
		t.Fatalf("expected element start line for empty object, got %+v", d)
	}
}

func TestValidate_DuplicateID(t *testing.T) {
	text := rs.ToText(rs.Collection{{ID: 1, Value: 5}, {ID: 1, Value: 9}})
	_, err := rs.Validate(text)
	d := mustDiag(t, err)
	if !errors.Is(err, rs.ErrDuplicateIdentity) {
		t.Fatalf("expected ErrDuplicateIdentity, got %v", err)
	}
	if d.Line != 7 {
		t.Fatalf("expected second occurrence on line 7, got %d", d.Line)
	}
	if d.Params["id"] != int64(1) || d.Path != "/1/id" || d.Index != 2 {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
	if d.Message != "duplicate ID: 1 (line 7)" {
		t.Fatalf("unexpected message %q", d.Message)
	}

	// compact text: everything on line 1
	_, err = rs.Validate(`[{"id":1,"value":5},{"id":1,"value":9}]`)
	if d := mustDiag(t, err); d.Line != 1 || d.Kind != rs.KindDuplicateIdentity {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
}

func TestValidate_DuplicateIDDoesNotMatchLongerNumbers(t *testing.T) {
	text := "[\n  {\"id\": 10, \"value\": 1},\n  {\"id\": 1, \"value\": 2},\n  {\"id\": 1, \"value\": 3}\n]"
	_, err := rs.Validate(text)
	if d := mustDiag(t, err); d.Line != 4 {
		t.Fatalf("expected line 4, got %d", d.Line)
	}
}

func TestValidate_DuplicateIDFallsBackToElementStart(t *testing.T) {
	text := "[\n  {\"id\": 1, \"value\": 5},\n  {\"id\": 1.0, \"value\": 9}\n]"
	_, err := rs.Validate(text)
	if d := mustDiag(t, err); d.Line != 3 {
		t.Fatalf("expected element start line 3, got %d", d.Line)
	}
}

func TestValidate_NegativeRejection(t *testing.T) {
	_, err := rs.Validate(rs.ToText(rs.Collection{{ID: -1, Value: 5}}))
	d := mustDiag(t, err)
	if !errors.Is(err, rs.ErrSchemaRange) || d.Field != "id" || d.Line != 3 {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
	if d.Message != "the id of item #1 cannot be negative. (line 3)" {
		t.Fatalf("unexpected message %q", d.Message)
	}

	_, err = rs.Validate(rs.ToText(rs.Collection{{ID: 1, Value: -5}}))
	d = mustDiag(t, err)
	if d.Kind != rs.KindSchemaRange || d.Field != "value" || d.Line != 4 || d.Code != rs.CodeTooSmall {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
}

func TestValidate_ExtraField(t *testing.T) {
	_, err := rs.Validate(`[{"id":1,"value":5,"extra":true}]`)
	d := mustDiag(t, err)
	if !errors.Is(err, rs.ErrSchemaExtraField) || d.Field != "extra" || d.Line != 1 {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
	if !strings.Contains(d.Message, "extra") {
		t.Fatalf("message should name the key: %q", d.Message)
	}

	text := "[\n  {\n    \"id\": 1,\n    \"value\": 5,\n    \"b\": 1,\n    \"a\": 2\n  }\n]"
	_, err = rs.Validate(text)
	d = mustDiag(t, err)
	if d.Line != 5 {
		t.Fatalf("expected first extra key line 5, got %d", d.Line)
	}
	keys, _ := d.Params["keys"].([]string)
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Fatalf("expected keys in document order, got %v", d.Params["keys"])
	}
	if d.Message != "item #1 has properties that are not allowed: b, a (line 5)" {
		t.Fatalf("unexpected message %q", d.Message)
	}
}

func TestValidate_NonArray(t *testing.T) {
	for _, text := range []string{`{"id":1,"value":5}`, `5`, `null`, `"x"`} {
		_, err := rs.Validate(text)
		d := mustDiag(t, err)
		if d.Kind != rs.KindSchemaShape || d.Line != 1 {
			t.Fatalf("%s: unexpected diagnostic %+v", text, d)
		}
	}
}

func TestValidate_ElementNotObject(t *testing.T) {
	_, err := rs.Validate("[\n  {\"id\": 2, \"value\": 3},\n  null\n]")
	d := mustDiag(t, err)
	if d.Kind != rs.KindSchemaShape || d.Index != 2 || d.Line != 3 {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
	if d.Message != "item #2 must be an object. (line 3)" {
		t.Fatalf("unexpected message %q", d.Message)
	}
}

func TestValidate_TypeErrors(t *testing.T) {
	_, err := rs.Validate("[\n  {\n    \"id\": \"1\",\n    \"value\": 2\n  }\n]")
	d := mustDiag(t, err)
	if !errors.Is(err, rs.ErrSchemaType) || d.Field != "id" || d.Line != 3 {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
	if d.Message != "the id of item #1 must be a number. (line 3)" {
		t.Fatalf("unexpected message %q", d.Message)
	}

	_, err = rs.Validate("[\n  {\n    \"id\": 1,\n    \"value\": 1.5\n  }\n]")
	d = mustDiag(t, err)
	if d.Kind != rs.KindSchemaType || d.Field != "value" || d.Line != 4 {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
	if d.Message != "the value of item #1 must be an integer. (line 4)" {
		t.Fatalf("unexpected message %q", d.Message)
	}
}

func TestValidate_Korean(t *testing.T) {
	_, err := rs.Validate(`{"id":1,"value":5}`, rs.WithLanguage("ko-KR"))
	d := mustDiag(t, err)
	if d.Message != "JSON은 배열 형태여야 합니다. (약 1번째 줄)" {
		t.Fatalf("unexpected message %q", d.Message)
	}
}

func TestCheckCollection(t *testing.T) {
	if err := rs.CheckCollection(seed()); err != nil {
		t.Fatalf("seed should be valid: %v", err)
	}
	err := rs.CheckCollection(rs.Collection{{ID: 1, Value: 1}, {ID: 2, Value: -1}})
	d := mustDiag(t, err)
	if d.Kind != rs.KindSchemaRange || d.Path != "/1/value" || d.HasLine() {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
	err = rs.CheckCollection(rs.Collection{{ID: 1, Value: 1}, {ID: 1, Value: 2}})
	if !errors.Is(err, rs.ErrDuplicateIdentity) {
		t.Fatalf("expected duplicate identity, got %v", err)
	}
}
