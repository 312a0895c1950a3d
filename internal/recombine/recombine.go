// Package recombine keeps one live handle per element of an observable list,
// reusing handles across structural changes where possible.
//
// When a change removes and adds elements at the same slot, the existing
// handle is rebound to the new element instead of being torn down and
// recreated. Only the surplus on either side is unsubscribed or created.
package recombine

import (
	"fmt"

	"github.com/livefir/livestring/rx"
)

// Handle is the live subscription serving one list element.
type Handle[T any] interface {
	// Rebind moves the handle to a new element and returns the handle that
	// serves it from now on, usually the receiver.
	Rebind(v T) Handle[T]
	Unsubscribe()
}

// Factory creates the handle for v, which is about to live at index.
type Factory[T any] func(index int, v T) Handle[T]

// Option configures a ListHandle.
type Option func(*config)

type config struct {
	permuteAsRebind bool
}

// WithPermutationRebind rebinds the handles of a permuted range to their new
// elements positionally. By default a permutation only reorders handles.
// Handles that own a position in a text need this option, since rebinding is
// what rewrites each position with its new element and so makes the text
// follow the new order.
func WithPermutationRebind() Option {
	return func(c *config) {
		c.permuteAsRebind = true
	}
}

// ListHandle is the aggregate subscription over a whole list.
type ListHandle[T any] struct {
	cfg     config
	factory Factory[T]
	source  rx.ObservableList[T]
	sub     rx.Subscription
	handles []Handle[T]
	closed  bool
}

// Recombine subscribes factory-created handles to every element of list and
// keeps them in sync with later changes.
func Recombine[T any](list rx.ObservableList[T], factory Factory[T], opts ...Option) *ListHandle[T] {
	h := &ListHandle[T]{factory: factory}
	for _, opt := range opts {
		opt(&h.cfg)
	}
	h.attach(list)
	return h
}

func (h *ListHandle[T]) attach(list rx.ObservableList[T]) {
	h.source = list
	items := list.Items()
	h.handles = make([]Handle[T], 0, len(items))
	for i, v := range items {
		h.handles = append(h.handles, h.factory(i, v))
	}
	h.sub = list.Subscribe(h.onChange)
}

// Len returns the number of live handles.
func (h *ListHandle[T]) Len() int { return len(h.handles) }

// At returns the handle serving index i.
func (h *ListHandle[T]) At(i int) Handle[T] { return h.handles[i] }

// Source returns the list currently tracked.
func (h *ListHandle[T]) Source() rx.ObservableList[T] { return h.source }

func (h *ListHandle[T]) onChange(c rx.ListChange[T]) {
	if h.closed {
		return
	}
	if c.IsPermutation() {
		h.permute(c)
		return
	}
	h.splice(c.From, len(c.Removed), c.Added)
}

// splice rebinds matched slots, then unsubscribes surplus handles or creates
// handles for surplus elements.
func (h *ListHandle[T]) splice(from, removed int, added []T) {
	if from < 0 || from+removed > len(h.handles) {
		panic(fmt.Sprintf("recombine: change [%d, %d) outside %d handles", from, from+removed, len(h.handles)))
	}
	matched := min(removed, len(added))
	for k := 0; k < matched; k++ {
		h.handles[from+k] = h.handles[from+k].Rebind(added[k])
	}

	at := from + matched
	for k := matched; k < removed; k++ {
		old := h.handles[at]
		h.handles = append(h.handles[:at], h.handles[at+1:]...)
		old.Unsubscribe()
	}

	for k := matched; k < len(added); k++ {
		idx := from + k
		h.handles = append(h.handles, nil)
		copy(h.handles[idx+1:], h.handles[idx:])
		h.handles[idx] = h.factory(idx, added[k])
	}
}

func (h *ListHandle[T]) permute(c rx.ListChange[T]) {
	if h.cfg.permuteAsRebind {
		for i := range c.Permutation {
			idx := c.From + i
			h.handles[idx] = h.handles[idx].Rebind(h.source.At(idx))
		}
		return
	}
	moved := make([]Handle[T], len(c.Permutation))
	for i, to := range c.Permutation {
		moved[to-c.From] = h.handles[c.From+i]
	}
	copy(h.handles[c.From:], moved)
}

// Rebind switches to a new source list, applying the same positional
// matching to the whole list: the first min(old, new) handles are rebound,
// surplus handles are unsubscribed and surplus elements get fresh handles.
func (h *ListHandle[T]) Rebind(list rx.ObservableList[T]) {
	if h.closed {
		panic("recombine: rebind after unsubscribe")
	}
	h.sub.Unsubscribe()
	h.source = list
	h.splice(0, len(h.handles), list.Items())
	h.sub = list.Subscribe(h.onChange)
}

// Unsubscribe stops tracking the source and releases every handle, last
// element first.
func (h *ListHandle[T]) Unsubscribe() {
	if h.closed {
		return
	}
	h.closed = true
	h.sub.Unsubscribe()
	for i := len(h.handles) - 1; i >= 0; i-- {
		h.handles[i].Unsubscribe()
	}
	h.handles = nil
}
