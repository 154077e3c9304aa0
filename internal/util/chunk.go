package util

// Chunk splits items into consecutive batches of at most size elements.
// The last batch may be shorter. A size of zero or less yields a single
// batch containing all items. The returned batches share backing storage
// with the input slice.
func Chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 || size >= len(items) {
		return [][]T{items}
	}

	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
