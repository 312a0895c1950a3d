package livestring

import (
	"github.com/livefir/livestring/rx"
)

// SeqRenderer turns a list of values into the list of rendered elements of
// a sequence binding.
type SeqRenderer[T any] struct {
	build func(cfg *settings) func(rx.ObservableList[T]) rx.ObservableList[item]
}

// ForItems renders every element with r, with nothing in between.
func ForItems[T any](r ItemRenderer[T]) SeqRenderer[T] {
	return SeqRenderer[T]{
		build: func(cfg *settings) func(rx.ObservableList[T]) rx.ObservableList[item] {
			render := r.build(cfg)
			return func(list rx.ObservableList[T]) rx.ObservableList[item] {
				return rx.MapList(list, render)
			}
		},
	}
}

// Delimited renders every element with r, separated by delim, the whole
// enclosed in prefix and suffix. An empty list renders as prefix+suffix.
// Prefix, suffix and delim are taken literally, without escaping.
func Delimited[T any](r ItemRenderer[T], prefix, suffix, delim string) SeqRenderer[T] {
	return SeqRenderer[T]{
		build: func(cfg *settings) func(rx.ObservableList[T]) rx.ObservableList[item] {
			render := r.build(cfg)
			return func(list rx.ObservableList[T]) rx.ObservableList[item] {
				return &delimitedList[T]{
					src:    list,
					render: render,
					prefix: textItem(prefix),
					suffix: textItem(suffix),
					delim:  textItem(delim),
				}
			}
		},
	}
}

// delimitedList is the view [prefix, e0, delim, e1, ..., en-1, suffix] of a
// source list. Element k sits at index 2k+1.
type delimitedList[T any] struct {
	src    rx.ObservableList[T]
	render func(T) item
	prefix item
	suffix item
	delim  item
}

func (d *delimitedList[T]) Len() int {
	return viewLen(d.src.Len())
}

func viewLen(n int) int {
	if n == 0 {
		return 2
	}
	return 2*n + 1
}

func (d *delimitedList[T]) At(i int) item {
	switch {
	case i == 0:
		return d.prefix
	case i == d.Len()-1:
		return d.suffix
	case i%2 == 1:
		return d.render(d.src.At((i - 1) / 2))
	default:
		return d.delim
	}
}

func (d *delimitedList[T]) Items() []item {
	out := make([]item, d.Len())
	for i := range out {
		out[i] = d.At(i)
	}
	return out
}

func (d *delimitedList[T]) Subscribe(fn func(rx.ListChange[item])) rx.Subscription {
	return d.src.Subscribe(func(c rx.ListChange[T]) {
		if v, ok := d.translate(c); ok {
			fn(v)
		}
	})
}

// translate maps a source change onto the view. Each element travels with
// the delimiter before it, or with the one after it when the change starts
// at the first element, so that the untouched part of the view is preserved.
func (d *delimitedList[T]) translate(c rx.ListChange[T]) (rx.ListChange[item], bool) {
	removed, added := c.Removed, c.Added
	if c.IsPermutation() {
		added = make([]T, len(c.Permutation))
		removed = make([]T, len(c.Permutation))
		for i, to := range c.Permutation {
			added[i] = d.src.At(c.From + i)
			removed[i] = d.src.At(to)
		}
	}
	if len(removed) == 0 && len(added) == 0 {
		return rx.ListChange[item]{}, false
	}

	nNew := d.src.Len()
	nOld := nNew - len(added) + len(removed)

	var pairWith func([]T) []item
	switch {
	case c.From > 0:
		pairWith = func(xs []T) []item {
			out := make([]item, 0, 2*len(xs))
			for _, x := range xs {
				out = append(out, d.delim, d.render(x))
			}
			return out
		}
	case len(removed) < nOld:
		pairWith = func(xs []T) []item {
			out := make([]item, 0, 2*len(xs))
			for _, x := range xs {
				out = append(out, d.render(x), d.delim)
			}
			return out
		}
	default:
		// the whole list is replaced
		pairWith = func(xs []T) []item {
			var out []item
			for i, x := range xs {
				if i > 0 {
					out = append(out, d.delim)
				}
				out = append(out, d.render(x))
			}
			return out
		}
	}

	from := 1
	if c.From > 0 {
		from = 2 * c.From
	}
	return rx.ListChange[item]{From: from, Removed: pairWith(removed), Added: pairWith(added)}, true
}
