package dav

import (
	"strconv"
	"strings"
)

// RangeKind is the shape of a partial-update range.
type RangeKind int

const (
	// RangeAppend writes the body after the current end of the resource.
	RangeAppend RangeKind = iota
	// RangeStartBounded writes the body at an explicit start offset, with an
	// explicit or inferred end offset.
	RangeStartBounded
	// RangeSuffix writes the body over the last N bytes of the resource.
	RangeSuffix
)

func (k RangeKind) String() string {
	switch k {
	case RangeAppend:
		return "append"
	case RangeStartBounded:
		return "start-bounded"
	case RangeSuffix:
		return "suffix"
	}
	return "unknown"
}

// UpdateRange is the parsed form of the X-Update-Range header.
// Exactly one of the three shapes is populated, discriminated by Kind.
type UpdateRange struct {
	Kind RangeKind

	// Start and End are valid for RangeStartBounded. End is only meaningful
	// when HasEnd is set; otherwise it is inferred later from the declared
	// content length.
	Start  int64
	End    int64
	HasEnd bool

	// SuffixLength is valid for RangeSuffix: the write covers the last
	// SuffixLength bytes of the resource.
	SuffixLength int64
}

// ParseUpdateRange parses an X-Update-Range header value. The grammar is
// case-insensitive and admits exactly three shapes:
//
//	append
//	bytes=<start>-<end?>
//	bytes=-<suffix>
//
// The parse is purely syntactic; length validation against the declared
// content length is the caller's job.
func ParseUpdateRange(header string) (UpdateRange, bool) {
	value := strings.ToLower(strings.TrimSpace(header))
	if value == "" {
		return UpdateRange{}, false
	}

	if value == "append" {
		return UpdateRange{Kind: RangeAppend}, true
	}

	rest, found := strings.CutPrefix(value, "bytes=")
	if !found || rest == "" {
		return UpdateRange{}, false
	}

	if suffix, found := strings.CutPrefix(rest, "-"); found {
		n, err := strconv.ParseInt(suffix, 10, 64)
		if err != nil || !allDigits(suffix) {
			return UpdateRange{}, false
		}
		return UpdateRange{Kind: RangeSuffix, SuffixLength: n}, true
	}

	startStr, endStr, found := strings.Cut(rest, "-")
	if !found || startStr == "" || !allDigits(startStr) {
		return UpdateRange{}, false
	}
	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil {
		return UpdateRange{}, false
	}

	parsed := UpdateRange{Kind: RangeStartBounded, Start: start}
	if endStr != "" {
		if !allDigits(endStr) {
			return UpdateRange{}, false
		}
		end, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return UpdateRange{}, false
		}
		parsed.End = end
		parsed.HasEnd = true
	}
	return parsed, true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
