package livestring

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/livefir/livestring/internal/offsets"
	"github.com/livefir/livestring/internal/recombine"
	"github.com/livefir/livestring/rx"
)

// item is the rendered form of one element: a piece of text, an observed
// value, or a nested template instance.
type item interface {
	// open makes the item live inside s and writes its initial text.
	open(s *slot) liveItem
	// mapText returns an item whose text is fn applied to this item's text.
	mapText(fn func(string) string) item
}

// liveItem is an opened item.
type liveItem interface {
	// reuse moves the live item to next in place, reporting false when next
	// has a different shape and must be opened from scratch.
	reuse(next item) bool
	close()
}

// slot is the live subscription of one sequence element. It owns a marker
// of its instance's offset table.
type slot struct {
	buf  *buffer
	id   offsets.ID
	live liveItem
}

// set replaces the slot's whole text.
func (s *slot) set(text string) {
	if s.buf.state == stateUnbound {
		return
	}
	start := s.buf.table.Absolute(s.id)
	s.buf.contentChange(s.id, start, start+s.buf.table.Length(s.id), text)
}

// text returns the slot's current text.
func (s *slot) text() string {
	start := s.buf.table.Absolute(s.id)
	return s.buf.text[start : start+s.buf.table.Length(s.id)]
}

func (s *slot) Rebind(next item) recombine.Handle[item] {
	reused := s.live.reuse(next)
	if !reused {
		s.live.close()
		s.live = next.open(s)
	}
	s.buf.env.metrics.IncrementSlotRebind(reused)
	return s
}

func (s *slot) Unsubscribe() {
	s.live.close()
	if s.buf.state == stateUnbound {
		return
	}
	s.set("")
	s.buf.table.Delete(s.id)
	s.buf.env.metrics.IncrementMarkerDeleted()
}

// textItem is a fixed piece of text.
type textItem string

func (t textItem) open(s *slot) liveItem {
	s.set(string(t))
	return textLive{slot: s}
}

func (t textItem) mapText(fn func(string) string) item {
	return textItem(fn(string(t)))
}

type textLive struct {
	slot *slot
}

func (l textLive) reuse(next item) bool {
	t, ok := next.(textItem)
	if ok {
		l.slot.set(string(t))
	}
	return ok
}

func (textLive) close() {}

// observedItem follows an observable and renders each of its values.
type observedItem[T any] struct {
	src    rx.Observable[T]
	render func(T) item
}

func (o *observedItem[T]) open(s *slot) liveItem {
	l := &observedLive[T]{slot: s}
	l.follow(o)
	return l
}

func (o *observedItem[T]) mapText(fn func(string) string) item {
	render := o.render
	return &observedItem[T]{
		src:    o.src,
		render: func(v T) item { return render(v).mapText(fn) },
	}
}

type observedLive[T any] struct {
	slot  *slot
	item  *observedItem[T]
	sub   rx.Subscription
	inner liveItem
}

func (l *observedLive[T]) follow(o *observedItem[T]) {
	l.item = o
	l.show(o.src.Get())
	l.sub = o.src.Subscribe(l.show)
}

func (l *observedLive[T]) show(v T) {
	next := l.item.render(v)
	if l.inner != nil {
		if l.inner.reuse(next) {
			return
		}
		l.inner.close()
	}
	l.inner = next.open(l.slot)
}

func (l *observedLive[T]) reuse(next item) bool {
	o, ok := next.(*observedItem[T])
	if !ok {
		return false
	}
	l.sub.Unsubscribe()
	l.follow(o)
	return true
}

func (l *observedLive[T]) verify() error {
	if v, ok := l.inner.(interface{ verify() error }); ok {
		return v.verify()
	}
	return nil
}

func (l *observedLive[T]) close() {
	l.sub.Unsubscribe()
	if l.inner != nil {
		l.inner.close()
	}
}

// lazyDefinition compiles a sub-template on first use. Its address
// identifies the sub-template when deciding whether a nested instance can
// be rebound.
type lazyDefinition[S any] struct {
	once  sync.Once
	def   *definition[S]
	build func() *definition[S]
}

func (l *lazyDefinition[S]) get() *definition[S] {
	l.once.Do(func() {
		l.def = l.build()
	})
	return l.def
}

// nestedItem renders value through a sub-template. When transform is set
// the nested text is replaced as a whole by transform(text) instead of
// being forwarded edit by edit.
type nestedItem[S any] struct {
	value     S
	def       *lazyDefinition[S]
	transform func(string) string
}

func (n *nestedItem[S]) open(s *slot) liveItem {
	l := &nestedLive[S]{slot: s, def: n.def, transform: n.transform}
	l.show(n.value)
	return l
}

func (n *nestedItem[S]) mapText(fn func(string) string) item {
	transform := fn
	if prev := n.transform; prev != nil {
		transform = func(s string) string { return fn(prev(s)) }
	}
	return &nestedItem[S]{value: n.value, def: n.def, transform: transform}
}

type nestedLive[S any] struct {
	slot      *slot
	def       *lazyDefinition[S]
	transform func(string) string
	child     *instance[S]
}

func (l *nestedLive[S]) render() string {
	if l.child == nil {
		return ""
	}
	if l.transform != nil {
		return l.transform(l.child.text)
	}
	return l.child.text
}

// show attaches, rebinds or drops the child instance for v.
func (l *nestedLive[S]) show(v S) {
	if isNil(v) {
		l.drop()
		l.slot.set("")
		return
	}
	if l.child == nil {
		child := newInstance(l.def.get(), l.slot.buf.env, l.slot.buf.diffMode)
		child.attach(v)
		l.child = child
		l.slot.set(l.render())
		if l.transform != nil {
			child.invalidate = l.retransform
		} else {
			child.forward = l.forward
			child.invalidate = l.settle
		}
		return
	}
	l.child.diffMode = l.slot.buf.diffMode
	l.child.rebind(v)
	if l.transform != nil {
		l.slot.set(l.render())
	}
}

// forward re-emits a child edit to the parent, translated by the slot's
// offset at the time of the edit.
func (l *nestedLive[S]) forward(ev ReplaceEvent) {
	buf := l.slot.buf
	if buf.state == stateUnbound {
		return
	}
	start := buf.table.Absolute(l.slot.id)
	buf.apply(l.slot.id, ReplaceEvent{Start: start + ev.Start, End: start + ev.End, Text: ev.Text})
}

// settle ends a forwarded child change with one invalidation of the parent.
func (l *nestedLive[S]) settle(string) {
	l.slot.buf.changed()
}

// retransform replaces the whole slot once the child change is complete.
func (l *nestedLive[S]) retransform(string) {
	l.slot.set(l.render())
}

func (l *nestedLive[S]) reuse(next item) bool {
	n, ok := next.(*nestedItem[S])
	if !ok || n.def != l.def || (n.transform == nil) != (l.transform == nil) {
		return false
	}
	l.transform = n.transform
	l.show(n.value)
	return true
}

func (l *nestedLive[S]) drop() {
	if l.child == nil {
		return
	}
	l.child.forward = nil
	l.child.invalidate = nil
	l.child.detach()
	l.child = nil
}

func (l *nestedLive[S]) close() {
	l.drop()
}

func (l *nestedLive[S]) verify() error {
	if l.child == nil {
		return nil
	}
	if err := l.child.verify(); err != nil {
		return err
	}
	if got, want := l.slot.text(), l.render(); got != want {
		return fmt.Errorf("nested text %q differs from child text %q", got, want)
	}
	return nil
}

// isNil reports whether v is nil or a typed nil.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}

// toString renders a value for AsString. Pointers are rendered as the
// value they point to.
func toString(v any) string {
	if isNil(v) {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	case error:
		return x.Error()
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		return toString(rv.Elem().Interface())
	}
	return fmt.Sprint(v)
}
