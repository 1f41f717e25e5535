package dav

import "testing"

func TestParseUpdateRangeAppend(t *testing.T) {
	for _, header := range []string{"append", "APPEND", " Append "} {
		parsed, ok := ParseUpdateRange(header)
		if !ok {
			t.Fatalf("expected %q to parse", header)
		}
		if parsed.Kind != RangeAppend {
			t.Fatalf("expected append kind for %q, got %v", header, parsed.Kind)
		}
	}
}

func TestParseUpdateRangeStartBounded(t *testing.T) {
	parsed, ok := ParseUpdateRange("bytes=10-15")
	if !ok {
		t.Fatalf("expected bytes=10-15 to parse")
	}
	if parsed.Kind != RangeStartBounded || parsed.Start != 10 || !parsed.HasEnd || parsed.End != 15 {
		t.Fatalf("unexpected parse result: %+v", parsed)
	}
}

func TestParseUpdateRangeStartBoundedOpenEnd(t *testing.T) {
	parsed, ok := ParseUpdateRange("bytes=10-")
	if !ok {
		t.Fatalf("expected bytes=10- to parse")
	}
	if parsed.Kind != RangeStartBounded || parsed.Start != 10 || parsed.HasEnd {
		t.Fatalf("unexpected parse result: %+v", parsed)
	}
}

func TestParseUpdateRangeSuffix(t *testing.T) {
	parsed, ok := ParseUpdateRange("bytes=-5")
	if !ok {
		t.Fatalf("expected bytes=-5 to parse")
	}
	if parsed.Kind != RangeSuffix || parsed.SuffixLength != 5 {
		t.Fatalf("unexpected parse result: %+v", parsed)
	}
}

func TestParseUpdateRangeCaseInsensitivePrefix(t *testing.T) {
	parsed, ok := ParseUpdateRange("Bytes=0-0")
	if !ok {
		t.Fatalf("expected Bytes=0-0 to parse")
	}
	if parsed.Kind != RangeStartBounded || parsed.Start != 0 || parsed.End != 0 {
		t.Fatalf("unexpected parse result: %+v", parsed)
	}
}

func TestParseUpdateRangeMalformed(t *testing.T) {
	malformed := []string{
		"",
		"bytes=",
		"foo",
		"bytes=5-3-1",
		"bytes=-",
		"bytes=a-b",
		"bytes=5x-10",
		"bytes=-5x",
		"append extra",
		"bytes= 5-10",
	}
	for _, header := range malformed {
		if _, ok := ParseUpdateRange(header); ok {
			t.Errorf("expected %q to be rejected", header)
		}
	}
}

func TestParseUpdateRangeIdempotent(t *testing.T) {
	for _, header := range []string{"append", "bytes=10-15", "bytes=10-", "bytes=-5"} {
		first, ok1 := ParseUpdateRange(header)
		second, ok2 := ParseUpdateRange(header)
		if ok1 != ok2 || first != second {
			t.Errorf("re-parsing %q gave different results: %+v vs %+v", header, first, second)
		}
	}
}
