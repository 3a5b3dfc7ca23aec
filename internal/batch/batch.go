// Package batch splits an ordered list into consecutive fixed-size spans.
package batch

// Span is one contiguous slice of the input list. Start/End are 0-based
// half-open offsets; Index is the 1-based batch number used in filenames.
type Span struct {
	Index int
	Start int
	End   int
}

// Len returns the number of elements covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// First returns the 1-based offset of the span's first element.
func (s Span) First() int { return s.Start + 1 }

// Last returns the 1-based offset of the span's last element.
func (s Span) Last() int { return s.End }

// Split partitions n elements into spans of at most size elements each.
// All spans but the last hold exactly size elements; spans are contiguous,
// ordered, and cover 0..n exactly once. n == 0 yields no spans.
// size must be >= 1.
func Split(n, size int) []Span {
	if n <= 0 || size < 1 {
		return nil
	}
	num := (n + size - 1) / size
	spans := make([]Span, 0, num)
	for i := 0; i < num; i++ {
		end := (i + 1) * size
		if end > n {
			end = n
		}
		spans = append(spans, Span{
			Index: i + 1,
			Start: i * size,
			End:   end,
		})
	}
	return spans
}
