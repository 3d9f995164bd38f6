package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestDigestOf(t *testing.T) {
	if DigestOf("a", "bc") == DigestOf("ab", "c") {
		t.Errorf("DigestOf() should separate parts")
	}
	if DigestOf("x") != DigestOf("x") {
		t.Errorf("DigestOf() should be deterministic")
	}
	if got := len(DigestOf("x").String()); got != 16 {
		t.Errorf("Digest.String() length = %d, want 16", got)
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "empty", text: "", want: nil},
		{name: "no trailing newline", text: "a\nb", want: []string{"a", "b"}},
		{name: "trailing newline", text: "a\nb\n", want: []string{"a", "b"}},
		{name: "crlf", text: "a\r\nb\r\n", want: []string{"a", "b"}},
		{name: "blank lines kept", text: "a\n\nb\n", want: []string{"a", "", "b"}},
		{name: "single newline", text: "\n", want: []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitLines(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitLines(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestBatch_SizeAndDigest(t *testing.T) {
	b := Batch{Files: []CandidateFile{
		{Path: "a.py", Content: []byte("abc"), Seq: 0},
		{Path: "b.py", Content: []byte("de"), Seq: 1},
	}}

	if b.Size() != 5 {
		t.Errorf("Size() = %d, want 5", b.Size())
	}
	if !reflect.DeepEqual(b.Paths(), []string{"a.py", "b.py"}) {
		t.Errorf("Paths() = %v", b.Paths())
	}

	same := Batch{Index: 7, Files: []CandidateFile{
		{Path: "a.py", Content: []byte("xyz"), Seq: 3},
		{Path: "b.py", Content: []byte("zz"), Seq: 4},
	}}
	if b.Digest() != same.Digest() {
		t.Errorf("Digest() should depend only on paths and sizes")
	}

	grown := Batch{Files: []CandidateFile{
		{Path: "a.py", Content: []byte("abcd")},
		{Path: "b.py", Content: []byte("de")},
	}}
	if b.Digest() == grown.Digest() {
		t.Errorf("Digest() should change when a size changes")
	}

	if b.Oversized(0) || b.Oversized(5) || !b.Oversized(4) {
		t.Errorf("Oversized() wrong for size %d", b.Size())
	}
}

func TestFailure_Error(t *testing.T) {
	cause := errors.New("boom")
	f := &Failure{Kind: KindTransient, Err: cause}

	if f.Error() != "transient: boom" {
		t.Errorf("Error() = %q", f.Error())
	}
	if !errors.Is(f, cause) {
		t.Errorf("Failure should unwrap to its cause")
	}

	f = &Failure{Kind: KindParse, Detail: "no directives"}
	if f.Error() != "parse: no directives" {
		t.Errorf("Error() = %q", f.Error())
	}
}

func TestRetryState_Terminal(t *testing.T) {
	terminal := map[RetryState]bool{
		StatePending:   false,
		StateInFlight:  false,
		StateRetrying:  false,
		StateSucceeded: true,
		StateFailed:    true,
	}
	for s, want := range terminal {
		if s.Terminal() != want {
			t.Errorf("%s.Terminal() = %v, want %v", s, s.Terminal(), want)
		}
	}
}

func TestMatchRecord_LineNumbers(t *testing.T) {
	m := MatchRecord{Ranges: []LineRange{{Start: 2, End: 3}, {Start: 7, End: 7}}}
	want := []int{2, 3, 7}
	if got := m.LineNumbers(); !reflect.DeepEqual(got, want) {
		t.Errorf("LineNumbers() = %v, want %v", got, want)
	}
	if (LineRange{Start: 4, End: 4}).String() != "4" {
		t.Errorf("single line range should render as one number")
	}
}
