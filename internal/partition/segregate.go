package partition

import "fmt"

// Segregate splits items into consecutive groups of size items. The last
// group holds the remainder and is never empty. Order is preserved.
func Segregate[T any](items []T, size int) ([][]T, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: group size must be at least 1, got %d", ErrInvalidConfiguration, size)
	}
	var groups [][]T
	for i := 0; i < len(items); i += size {
		end := min(i+size, len(items))
		group := make([]T, end-i)
		copy(group, items[i:end])
		groups = append(groups, group)
	}
	return groups, nil
}

// Slice returns a copy of items[skip:skip+count], clamped to the bounds of
// items. It never mutates items.
func Slice[T any](items []T, skip, count int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) || count <= 0 {
		return []T{}
	}
	end := min(skip+count, len(items))
	out := make([]T, end-skip)
	copy(out, items[skip:end])
	return out
}
