package store

// spliceRange overwrites body into content starting at off, growing the
// result when the write extends past the current end. A start offset beyond
// the end zero-fills the gap. off must be non-negative.
func spliceRange(content, body []byte, off int64) []byte {
	end := off + int64(len(body))
	size := int64(len(content))
	if end < size {
		end = size
	}

	result := make([]byte, end)
	copy(result, content)
	copy(result[off:], body)
	return result
}

// rangeOffset resolves a RangeOp to the absolute start offset within a file
// of the given size.
func rangeOffset(op RangeOp, offset, size int64) int64 {
	switch op {
	case RangeAppend:
		return size
	case RangeFromEnd:
		start := size - offset
		if start < 0 {
			start = 0
		}
		return start
	}
	return offset
}
