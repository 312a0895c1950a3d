package rx

import "fmt"

// ListChange describes one structural modification of an ObservableList.
//
// For a plain modification, Removed lists the elements that were at
// From..From+len(Removed) and Added the elements now at From..From+len(Added).
// For a permutation, Permutation is non-nil and Permutation[i] is the new
// index of the element previously at From+i; Removed and Added are empty.
type ListChange[T any] struct {
	From        int
	Removed     []T
	Added       []T
	Permutation []int
}

// IsPermutation reports whether the change only reorders elements.
func (c ListChange[T]) IsPermutation() bool {
	return c.Permutation != nil
}

func (c ListChange[T]) String() string {
	if c.IsPermutation() {
		return fmt.Sprintf("permute(from=%d, %v)", c.From, c.Permutation)
	}
	return fmt.Sprintf("change(from=%d, removed=%d, added=%d)", c.From, len(c.Removed), len(c.Added))
}

// ObservableList is a list that reports its structural changes.
type ObservableList[T any] interface {
	Len() int
	At(i int) T
	// Items returns a copy of the current elements.
	Items() []T
	Subscribe(fn func(ListChange[T])) Subscription
}

// List is a mutable ObservableList.
type List[T any] struct {
	items []T
	obs   observers[ListChange[T]]
}

// NewList creates a list holding items.
func NewList[T any](items ...T) *List[T] {
	return &List[T]{items: append([]T(nil), items...)}
}

func (l *List[T]) Len() int { return len(l.items) }

func (l *List[T]) At(i int) T { return l.items[i] }

func (l *List[T]) Items() []T {
	return append([]T(nil), l.items...)
}

func (l *List[T]) Subscribe(fn func(ListChange[T])) Subscription {
	return l.obs.add(fn)
}

// Observers reports the number of live subscriptions.
func (l *List[T]) Observers() int {
	return l.obs.len()
}

// Add appends items at the end.
func (l *List[T]) Add(items ...T) {
	l.Insert(len(l.items), items...)
}

// Insert inserts items before index i.
func (l *List[T]) Insert(i int, items ...T) {
	l.Replace(i, i, items...)
}

// RemoveAt removes and returns the element at i.
func (l *List[T]) RemoveAt(i int) T {
	v := l.items[i]
	l.Replace(i, i+1)
	return v
}

// RemoveRange removes elements [from, to).
func (l *List[T]) RemoveRange(from, to int) {
	l.Replace(from, to)
}

// Set replaces the element at i.
func (l *List[T]) Set(i int, v T) {
	l.Replace(i, i+1, v)
}

// SetAll replaces the whole content.
func (l *List[T]) SetAll(items ...T) {
	l.Replace(0, len(l.items), items...)
}

// Clear removes all elements.
func (l *List[T]) Clear() {
	l.Replace(0, len(l.items))
}

// Replace substitutes elements [from, to) with items and emits a single
// change. Nothing is emitted when the range is empty and items is empty.
func (l *List[T]) Replace(from, to int, items ...T) {
	if from < 0 || to > len(l.items) || from > to {
		panic(fmt.Sprintf("rx: replace range [%d, %d) out of bounds for length %d", from, to, len(l.items)))
	}
	if from == to && len(items) == 0 {
		return
	}
	removed := append([]T(nil), l.items[from:to]...)
	added := append([]T(nil), items...)

	next := make([]T, 0, len(l.items)-len(removed)+len(added))
	next = append(next, l.items[:from]...)
	next = append(next, added...)
	next = append(next, l.items[to:]...)
	l.items = next

	l.obs.notify(ListChange[T]{From: from, Removed: removed, Added: added})
}

// Swap exchanges the elements at i and j and emits a permutation.
func (l *List[T]) Swap(i, j int) {
	if i == j {
		return
	}
	if i > j {
		i, j = j, i
	}
	l.items[i], l.items[j] = l.items[j], l.items[i]

	perm := make([]int, j-i+1)
	for k := range perm {
		perm[k] = i + k
	}
	perm[0], perm[len(perm)-1] = j, i
	l.obs.notify(ListChange[T]{From: i, Permutation: perm})
}

type fixedList[T any] struct {
	items []T
}

// ListOf returns an immutable ObservableList.
func ListOf[T any](items ...T) ObservableList[T] {
	return fixedList[T]{items: items}
}

func (f fixedList[T]) Len() int { return len(f.items) }

func (f fixedList[T]) At(i int) T { return f.items[i] }

func (f fixedList[T]) Items() []T { return append([]T(nil), f.items...) }

func (f fixedList[T]) Subscribe(func(ListChange[T])) Subscription { return Empty() }

type mappedList[T, R any] struct {
	src ObservableList[T]
	fn  func(T) R
}

// MapList returns a view of src with every element transformed by fn.
// fn is applied lazily and again for every reported change.
func MapList[T, R any](src ObservableList[T], fn func(T) R) ObservableList[R] {
	return mappedList[T, R]{src: src, fn: fn}
}

func (m mappedList[T, R]) Len() int { return m.src.Len() }

func (m mappedList[T, R]) At(i int) R { return m.fn(m.src.At(i)) }

func (m mappedList[T, R]) Items() []R {
	return mapSlice(m.src.Items(), m.fn)
}

func (m mappedList[T, R]) Subscribe(fn func(ListChange[R])) Subscription {
	return m.src.Subscribe(func(c ListChange[T]) {
		fn(ListChange[R]{
			From:        c.From,
			Removed:     mapSlice(c.Removed, m.fn),
			Added:       mapSlice(c.Added, m.fn),
			Permutation: c.Permutation,
		})
	})
}

func mapSlice[T, R any](in []T, fn func(T) R) []R {
	if in == nil {
		return nil
	}
	out := make([]R, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}
