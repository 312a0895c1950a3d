package livestring

import (
	"fmt"
	"math/bits"

	"github.com/livefir/livestring/rx"
)

// Kind classifies a binding.
type Kind int

const (
	// KindConstant is fixed text, never re-evaluated.
	KindConstant Kind = iota
	// KindScalar renders one value.
	KindScalar
	// KindSequence renders every element of a list.
	KindSequence
	// KindNested embeds a sub-template bound to one value.
	KindNested
)

func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "constant"
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindNested:
		return "nested"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// compiled is a binding with its renderers resolved against the builder
// settings.
type compiled[D any] struct {
	kind    Kind
	text    string
	extract func(D) rx.ObservableList[item]
}

// definition is the immutable, shareable form of a template.
type definition[D any] struct {
	bindings []compiled[D]
	// static marks the constant bindings, skipped on rebind.
	static bitset
}

func newDefinition[D any](bindings []compiled[D]) *definition[D] {
	def := &definition[D]{bindings: bindings, static: newBitset(len(bindings))}
	for i, b := range bindings {
		if b.kind == KindConstant {
			def.static.set(i)
		}
	}
	return def
}

func (d *definition[D]) kinds() []Kind {
	out := make([]Kind, len(d.bindings))
	for i, b := range d.bindings {
		out[i] = b.kind
	}
	return out
}

type bitset []uint64

func newBitset(n int) bitset {
	return make(bitset, (n+63)/64)
}

func (b bitset) set(i int) {
	b[i/64] |= 1 << (uint(i) % 64)
}

func (b bitset) has(i int) bool {
	return b[i/64]&(1<<(uint(i)%64)) != 0
}

func (b bitset) count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}
