package store

import (
	"bytes"
	"testing"
)

func TestSpliceRangeOverwriteWithin(t *testing.T) {
	got := spliceRange([]byte("hello world"), []byte("there"), 6)
	if !bytes.Equal(got, []byte("hello there")) {
		t.Fatalf("expected 'hello there', got %q", got)
	}
}

func TestSpliceRangeExtendsPastEnd(t *testing.T) {
	got := spliceRange([]byte("hello"), []byte("world"), 3)
	if !bytes.Equal(got, []byte("helworld")) {
		t.Fatalf("expected 'helworld', got %q", got)
	}
}

func TestSpliceRangeZeroFillsGap(t *testing.T) {
	got := spliceRange([]byte("ab"), []byte("cd"), 4)
	want := []byte{'a', 'b', 0, 0, 'c', 'd'}
	if !bytes.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSpliceRangeIntoEmptyContent(t *testing.T) {
	got := spliceRange(nil, []byte("abc"), 0)
	if !bytes.Equal(got, []byte("abc")) {
		t.Fatalf("expected 'abc', got %q", got)
	}
}

func TestSpliceRangeEmptyBody(t *testing.T) {
	got := spliceRange([]byte("abc"), nil, 1)
	if !bytes.Equal(got, []byte("abc")) {
		t.Fatalf("expected content unchanged, got %q", got)
	}
}

func TestRangeOffset(t *testing.T) {
	cases := []struct {
		name   string
		op     RangeOp
		offset int64
		size   int64
		want   int64
	}{
		{"write at", RangeWriteAt, 10, 100, 10},
		{"append", RangeAppend, 0, 100, 100},
		{"append ignores offset", RangeAppend, 42, 7, 7},
		{"from end", RangeFromEnd, 5, 100, 95},
		{"from end exact", RangeFromEnd, 100, 100, 0},
		{"from end clamps", RangeFromEnd, 200, 100, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := rangeOffset(tc.op, tc.offset, tc.size); got != tc.want {
				t.Errorf("expected %d, got %d", tc.want, got)
			}
		})
	}
}
