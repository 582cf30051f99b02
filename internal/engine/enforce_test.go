package engine

import (
	"errors"
	"testing"
)

func drain(src TokenSource) error {
	_, err := DecodeDocument(src)
	return err
}

func TestEnforce_DuplicateKeyPath(t *testing.T) {
	src := &sliceSource{toks: []Token{
		tok(KindBeginArray),
		tok(KindBeginObject), key("id"), num("1"), tok(KindEndObject),
		tok(KindBeginObject), key("id"), num("1"), {Kind: KindKey, String: "id", Offset: 42}, num("2"), tok(KindEndObject),
		tok(KindEndArray),
	}}
	err := drain(WrapWithEnforcement(src, EnforceOptions{OnDuplicate: DupError}))
	var ie IssueError
	if !errors.As(err, &ie) {
		t.Fatalf("expected IssueError, got %v", err)
	}
	if ie.Code != "duplicate_key" || ie.Path != "/1/id" || ie.Key != "id" || ie.Offset != 42 {
		t.Fatalf("unexpected issue %+v", ie.SimpleIssue)
	}
}

func TestEnforce_SameKeyInSiblingObjectsIsFine(t *testing.T) {
	src := &sliceSource{toks: []Token{
		tok(KindBeginObject),
		key("a"), tok(KindBeginObject), key("x"), num("1"), tok(KindEndObject),
		key("b"), tok(KindBeginObject), key("x"), num("2"), tok(KindEndObject),
		tok(KindEndObject),
	}}
	if err := drain(WrapWithEnforcement(src, EnforceOptions{OnDuplicate: DupError})); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestEnforce_MaxDepth(t *testing.T) {
	src := &sliceSource{toks: []Token{
		tok(KindBeginObject), key("a"), tok(KindBeginObject), key("b"), tok(KindBeginArray), tok(KindEndArray), tok(KindEndObject), tok(KindEndObject),
	}}
	err := drain(WrapWithEnforcement(src, EnforceOptions{MaxDepth: 2}))
	var ie IssueError
	if !errors.As(err, &ie) || ie.Code != "parse_error" || ie.Path != "/a/b" {
		t.Fatalf("expected depth issue at /a/b, got %v", err)
	}
}

func TestEnforce_DisabledReturnsInner(t *testing.T) {
	src := &sliceSource{}
	if got := WrapWithEnforcement(src, EnforceOptions{}); got != TokenSource(src) {
		t.Fatalf("expected the inner source back")
	}
}
