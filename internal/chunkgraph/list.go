package chunkgraph

// uniqueList is an insertion-ordered list without duplicates.
// The zero value is ready to use.
type uniqueList[T comparable] struct {
	items []T
	set   map[T]struct{}
}

func (l *uniqueList[T]) has(v T) bool {
	_, ok := l.set[v]
	return ok
}

func (l *uniqueList[T]) add(v T) bool {
	if l.has(v) {
		return false
	}
	if l.set == nil {
		l.set = make(map[T]struct{})
	}
	l.set[v] = struct{}{}
	l.items = append(l.items, v)
	return true
}

// insertFront prepends v unless it is already present.
func (l *uniqueList[T]) insertFront(v T) bool {
	if l.has(v) {
		return false
	}
	if l.set == nil {
		l.set = make(map[T]struct{})
	}
	l.set[v] = struct{}{}
	l.items = append([]T{v}, l.items...)
	return true
}

func (l *uniqueList[T]) remove(v T) bool {
	if !l.has(v) {
		return false
	}
	delete(l.set, v)
	for i, item := range l.items {
		if item == v {
			l.items = append(l.items[:i], l.items[i+1:]...)
			break
		}
	}
	return true
}

func (l *uniqueList[T]) len() int {
	return len(l.items)
}

// slice returns a copy so callers can iterate while the list changes.
func (l *uniqueList[T]) slice() []T {
	if len(l.items) == 0 {
		return nil
	}
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

func (l *uniqueList[T]) reset() {
	l.items = nil
	l.set = nil
}
