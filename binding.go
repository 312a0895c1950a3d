package livestring

import (
	"github.com/livefir/livestring/rx"
)

// Text returns a constant binding.
func Text[D any](text string) Binding[D] {
	return constantBinding[D](text)
}

type renderBinding[D, T any] struct {
	extract func(D) T
	r       ItemRenderer[T]
}

// Render binds the value extract returns. The value is read once per attach
// or rebind; use Bind to follow an observable.
func Render[D, T any](extract func(D) T, r ItemRenderer[T]) Binding[D] {
	return renderBinding[D, T]{extract: extract, r: r}
}

func (b renderBinding[D, T]) compile(cfg *settings) compiled[D] {
	render := b.r.build(cfg)
	return compiled[D]{
		kind: b.r.kind(),
		extract: func(ctx D) rx.ObservableList[item] {
			return rx.ListOf(render(b.extract(ctx)))
		},
	}
}

type valueBinding[D, T any] struct {
	extract func(D) rx.Observable[T]
	r       ItemRenderer[T]
}

// Bind follows the observable extract returns and renders each of its values.
func Bind[D, T any](extract func(D) rx.Observable[T], r ItemRenderer[T]) Binding[D] {
	return valueBinding[D, T]{extract: extract, r: r}
}

// BindString follows an observable string, escaped with the default escape.
func BindString[D any](extract func(D) rx.Observable[string]) Binding[D] {
	return Bind(extract, Identity())
}

// BindTemplate renders the observed value through a sub-template declared
// by sub. The sub-template inherits the builder settings.
func BindTemplate[D, S any](extract func(D) rx.Observable[S], sub func(*Builder[S])) Binding[D] {
	return Bind(extract, Templated(sub))
}

func (b valueBinding[D, T]) compile(cfg *settings) compiled[D] {
	render := b.r.build(cfg)
	return compiled[D]{
		kind: b.r.kind(),
		extract: func(ctx D) rx.ObservableList[item] {
			src := b.extract(ctx)
			if isNil(src) {
				return rx.ListOf[item](textItem(""))
			}
			return rx.ListOf[item](&observedItem[T]{src: src, render: render})
		},
	}
}

type seqBinding[D, T any] struct {
	extract func(D) rx.ObservableList[T]
	r       SeqRenderer[T]
}

// BindSeq renders every element of the list extract returns.
func BindSeq[D, T any](extract func(D) rx.ObservableList[T], r SeqRenderer[T]) Binding[D] {
	return seqBinding[D, T]{extract: extract, r: r}
}

// BindStrings renders a list of strings, escaped with the default escape.
func BindStrings[D any](extract func(D) rx.ObservableList[string]) Binding[D] {
	return BindSeq(extract, ForItems(Identity()))
}

// BindTemplatedSeq renders every element of a list through a sub-template.
func BindTemplatedSeq[D, S any](extract func(D) rx.ObservableList[S], sub func(*Builder[S])) Binding[D] {
	return BindSeq(extract, ForItems(Templated(sub)))
}

func (b seqBinding[D, T]) compile(cfg *settings) compiled[D] {
	view := b.r.build(cfg)
	return compiled[D]{
		kind: KindSequence,
		extract: func(ctx D) rx.ObservableList[item] {
			return view(extractList(b.extract(ctx)))
		},
	}
}
