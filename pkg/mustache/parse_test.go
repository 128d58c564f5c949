package mustache

import (
	"errors"
	"testing"
)

func TestParse_Simple(t *testing.T) {
	tokens, err := New().Parse("Hi {{name}}!")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(tokens) != 3 {
		t.Fatalf("Parse() returned %d tokens, want 3", len(tokens))
	}

	text, ok := tokens[0].(*TextToken)
	if !ok || text.Value != "Hi " || text.Start != 0 || text.End != 3 {
		t.Errorf("tokens[0] = %#v, want text %q at [0,3)", tokens[0], "Hi ")
	}
	name, ok := tokens[1].(*NameToken)
	if !ok || name.Name != "name" || name.Start != 3 || name.End != 11 {
		t.Errorf("tokens[1] = %#v, want name at [3,11)", tokens[1])
	}
	if tokens[2].Kind() != KindText {
		t.Errorf("tokens[2].Kind() = %v, want text", tokens[2].Kind())
	}
}

func TestParse_SectionSpan(t *testing.T) {
	const tmpl = "{{#a}}x{{/a}}"
	tokens, err := New().Parse(tmpl)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	sec, ok := tokens[0].(*SectionToken)
	if !ok {
		t.Fatalf("tokens[0] = %T, want *SectionToken", tokens[0])
	}
	if sec.Name != "a" || sec.End != 6 || sec.CloseStart != 7 {
		t.Errorf("section = %+v, want name a, end 6, close start 7", sec.Block)
	}
	if got := tmpl[sec.End:sec.CloseStart]; got != "x" {
		t.Errorf("section body = %q, want %q", got, "x")
	}
	if len(sec.Children) != 1 {
		t.Errorf("section has %d children, want 1", len(sec.Children))
	}
}

func TestParse_StandaloneLines(t *testing.T) {
	tokens, err := New().Parse("a\n{{#s}}\nb\n{{/s}}\nc")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(tokens) != 3 {
		t.Fatalf("Parse() returned %d tokens, want 3", len(tokens))
	}
	if v := tokens[0].(*TextToken).Value; v != "a\n" {
		t.Errorf("leading text = %q, want %q", v, "a\n")
	}
	sec := tokens[1].(*SectionToken)
	if v := sec.Children[0].(*TextToken).Value; v != "b\n" {
		t.Errorf("section text = %q, want %q", v, "b\n")
	}
	if v := tokens[2].(*TextToken).Value; v != "c" {
		t.Errorf("trailing text = %q, want %q", v, "c")
	}
}

func TestParse_PartialIndentation(t *testing.T) {
	tokens, err := New().Parse("  {{> p}}\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(tokens) != 1 {
		t.Fatalf("Parse() returned %d tokens, want the partial alone", len(tokens))
	}
	p := tokens[0].(*PartialToken)
	if p.Name != "p" || p.Indentation != "  " || p.TagIndex != 0 || p.LineHasNonSpace {
		t.Errorf("partial = %+v", p)
	}
}

func TestParse_Errors(t *testing.T) {
	r := New()

	var unclosed *UnclosedSectionError
	if _, err := r.Parse("{{#a}}"); !errors.As(err, &unclosed) || unclosed.Name != "a" {
		t.Errorf("Parse(open section) error = %v, want *UnclosedSectionError for a", err)
	}

	var unopened *UnopenedSectionError
	if _, err := r.Parse("{{/a}}"); !errors.As(err, &unopened) || unopened.Pos != 0 {
		t.Errorf("Parse(close only) error = %v, want *UnopenedSectionError at 0", err)
	}

	var mismatch *SectionMismatchError
	if _, err := r.Parse("{{#a}}{{/b}}"); !errors.As(err, &mismatch) {
		t.Errorf("Parse(mismatch) error = %v, want *SectionMismatchError", err)
	} else if mismatch.Open != "a" || mismatch.Close != "b" || mismatch.Pos != 6 {
		t.Errorf("mismatch = %+v", mismatch)
	}

	var tagErr *UnclosedTagError
	if _, err := r.Parse("hi {{name"); !errors.As(err, &tagErr) {
		t.Errorf("Parse(unclosed tag) error = %v, want *UnclosedTagError", err)
	}

	var delimErr *InvalidDelimiterError
	if _, err := r.Parse("{{=<%=}}"); !errors.As(err, &delimErr) {
		t.Errorf("Parse(bad delimiters) error = %v, want *InvalidDelimiterError", err)
	}

	if r.CacheLen() != 0 {
		t.Errorf("failed parses were cached: CacheLen() = %d", r.CacheLen())
	}
}

func TestParse_Empty(t *testing.T) {
	tokens, err := New().Parse("")
	if err != nil || len(tokens) != 0 {
		t.Errorf("Parse(\"\") = %v, %v; want no tokens", tokens, err)
	}
	if _, err = New().Parse("", WithTags(Tags{"", "}}"})); err == nil {
		t.Error("Parse(\"\") with invalid tags should still fail")
	}
}

func TestWalk(t *testing.T) {
	tokens, err := New().Parse("{{#a}}{{b}}{{^c}}{{> d}}{{/c}}{{/a}}{{e}}")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	var kinds []Kind
	Walk(tokens, func(tok Token) bool {
		kinds = append(kinds, tok.Kind())
		return true
	})
	want := []Kind{KindSection, KindName, KindInverted, KindPartial, KindName}
	if len(kinds) != len(want) {
		t.Fatalf("Walk() visited %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("Walk() visited %v, want %v", kinds, want)
			break
		}
	}
}
