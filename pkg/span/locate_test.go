package span_test

import (
	"testing"

	"github.com/yaklabco/mdsync/pkg/mdast"
	"github.com/yaklabco/mdsync/pkg/span"
)

func TestLocate(t *testing.T) {
	t.Parallel()

	haystack := []byte("alpha beta alpha")

	tests := []struct {
		name   string
		needle string
		from   int
		want   mdast.SourceRange
		ok     bool
	}{
		{"first occurrence", "alpha", 0, mdast.SourceRange{StartOffset: 0, EndOffset: 5}, true},
		{"after from", "alpha", 1, mdast.SourceRange{StartOffset: 11, EndOffset: 16}, true},
		{"from at match", "beta", 6, mdast.SourceRange{StartOffset: 6, EndOffset: 10}, true},
		{"missing", "gamma", 0, mdast.SourceRange{}, false},
		{"past last", "alpha", 12, mdast.SourceRange{}, false},
		{"empty needle", "", 0, mdast.SourceRange{}, false},
		{"from out of range", "alpha", 99, mdast.SourceRange{}, false},
		{"negative from", "alpha", -1, mdast.SourceRange{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := span.Locate(haystack, []byte(tt.needle), tt.from)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Locate(%q, %d) = %+v, %v; want %+v, %v", tt.needle, tt.from, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestCursor_BlockAdvancesMonotonically(t *testing.T) {
	t.Parallel()

	source := []byte("Same\n\nSame\n\nSame\n")
	cursor := span.NewCursor(source)

	var starts []int
	for range 3 {
		found, ok := cursor.Block([]byte("Same"))
		if !ok {
			t.Fatal("expected a match")
		}
		starts = append(starts, found.StartOffset)
	}

	want := []int{0, 6, 12}
	for i := range want {
		if starts[i] != want[i] {
			t.Errorf("block %d located at %d, want %d", i, starts[i], want[i])
		}
	}

	if _, ok := cursor.Block([]byte("Same")); ok {
		t.Error("a fourth block must not match an earlier occurrence")
	}
}

// Inline lookups do not advance the cursor, so a repeated phrase inside one
// block resolves to its first occurrence.
func TestCursor_InlineDoesNotAdvance(t *testing.T) {
	t.Parallel()

	source := []byte("word and *word*\n")
	cursor := span.NewCursor(source)
	block := mdast.SourceRange{StartOffset: 0, EndOffset: 15}

	first, ok := cursor.Inline(block, []byte("word"))
	if !ok {
		t.Fatal("expected a match")
	}
	second, ok := cursor.Inline(block, []byte("word"))
	if !ok {
		t.Fatal("expected a match")
	}

	if first.StartOffset != 0 || second.StartOffset != 0 {
		t.Errorf("inline lookups should both anchor at 0, got %d and %d", first.StartOffset, second.StartOffset)
	}
	if cursor.Pos() != 0 {
		t.Errorf("cursor moved to %d", cursor.Pos())
	}
}

func TestCursor_InlineStaysInsideBlock(t *testing.T) {
	t.Parallel()

	source := []byte("first\n\nsecond target\n")
	cursor := span.NewCursor(source)

	if _, ok := cursor.Inline(mdast.SourceRange{StartOffset: 0, EndOffset: 5}, []byte("target")); ok {
		t.Error("match outside the enclosing block must be rejected")
	}
	if _, ok := cursor.Inline(mdast.SourceRange{StartOffset: 0, EndOffset: 99}, []byte("first")); ok {
		t.Error("invalid enclosing range must be rejected")
	}
}

func TestCursor_NextLine(t *testing.T) {
	t.Parallel()

	source := []byte("\n  \n---\r\nnext")
	cursor := span.NewCursor(source)

	line, ok := cursor.NextLine()
	if !ok {
		t.Fatal("expected a line")
	}
	if got := string(source[line.StartOffset:line.EndOffset]); got != "---" {
		t.Errorf("got %q", got)
	}

	line, ok = cursor.NextLine()
	if !ok || string(source[line.StartOffset:line.EndOffset]) != "next" {
		t.Errorf("expected trailing line without newline, got %+v %v", line, ok)
	}

	if _, ok := cursor.NextLine(); ok {
		t.Error("expected no more lines")
	}
}

func TestCursor_SeekIsForwardOnly(t *testing.T) {
	t.Parallel()

	cursor := span.NewCursor([]byte("0123456789"))
	cursor.Seek(6)
	cursor.Seek(2)
	cursor.Seek(50)

	if cursor.Pos() != 6 {
		t.Errorf("expected 6, got %d", cursor.Pos())
	}
}
