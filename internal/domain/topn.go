package domain

import "sort"

// TopN is a size-bounded list kept sorted by a caller-supplied ordering
// at all times. Inserting into a full list either displaces the current
// worst element or is a no-op.
//
// Two disciplines share this container and must not be mixed up:
//
//   - NewTopN: order-only. Every insert is a distinct entry (kill
//     history lists, where one record is one kill).
//   - NewKeyedTopN: identity-merged. An entry with the same key is
//     replaced only if the new item orders strictly better, and is never
//     duplicated (best-performer lists).
type TopN[T any] struct {
	Items []T

	cap  int
	less func(a, b T) bool
	key  func(T) string
}

// NewTopN returns an order-only bounded list. less(a, b) reports whether
// a ranks ahead of b; pass an ascending comparison for "fastest" lists
// and a descending one for "best" lists.
func NewTopN[T any](cap int, less func(a, b T) bool) *TopN[T] {
	return &TopN[T]{cap: cap, less: less}
}

// NewKeyedTopN returns an identity-merged bounded list.
func NewKeyedTopN[T any](cap int, less func(a, b T) bool, key func(T) string) *TopN[T] {
	return &TopN[T]{cap: cap, less: less, key: key}
}

// Restore rebinds the ordering functions to a list whose Items were
// loaded from storage. The persisted slice is already sorted.
func Restore[T any](items []T, cap int, less func(a, b T) bool, key func(T) string) *TopN[T] {
	return &TopN[T]{Items: items, cap: cap, less: less, key: key}
}

// Insert adds item under the container's discipline and reports whether
// the list changed.
func (t *TopN[T]) Insert(item T) bool {
	if t.key != nil {
		if idx := t.indexOfKey(t.key(item)); idx >= 0 {
			if !t.less(item, t.Items[idx]) {
				return false
			}
			t.Items = append(t.Items[:idx], t.Items[idx+1:]...)
			t.insertSorted(item)
			return true
		}
	}

	if len(t.Items) >= t.cap {
		worst := t.Items[len(t.Items)-1]
		if !t.less(item, worst) {
			return false
		}
	}

	t.insertSorted(item)
	if len(t.Items) > t.cap {
		t.Items = t.Items[:t.cap]
	}
	return true
}

func (t *TopN[T]) insertSorted(item T) {
	pos := sort.Search(len(t.Items), func(i int) bool {
		return t.less(item, t.Items[i])
	})
	t.Items = append(t.Items, item)
	copy(t.Items[pos+1:], t.Items[pos:])
	t.Items[pos] = item
}

func (t *TopN[T]) indexOfKey(k string) int {
	for i := range t.Items {
		if t.key(t.Items[i]) == k {
			return i
		}
	}
	return -1
}

func (t *TopN[T]) Len() int { return len(t.Items) }

func (t *TopN[T]) Cap() int { return t.cap }
