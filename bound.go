package livestring

import (
	"fmt"
	"log/slog"

	"github.com/livefir/livestring/internal/diff"
	"github.com/livefir/livestring/internal/metrics"
	"github.com/livefir/livestring/internal/offsets"
	"github.com/livefir/livestring/internal/recombine"
	"github.com/livefir/livestring/rx"
)

type state int

const (
	stateUninitialized state = iota
	stateInitializing
	stateLive
	stateUnbound
)

func (s state) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateInitializing:
		return "initializing"
	case stateLive:
		return "live"
	case stateUnbound:
		return "unbound"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// environment is shared by a root instance and all of its nested instances.
type environment struct {
	logger  *slog.Logger
	metrics *metrics.Collector
}

// buffer is the text owner of a bound instance: the composed text, its
// offset table, and the handlers that observe it.
type buffer struct {
	text     string
	table    *offsets.Table
	state    state
	diffMode bool

	// forward is the internal handler of a nested instance. Its failures
	// propagate.
	forward func(ReplaceEvent)
	// handlers are the external handlers of a root instance.
	handlers *handlerSet
	// invalidate is pushed the new text once per live content change,
	// after all of its patches.
	invalidate func(string)

	env *environment
}

// contentChange replaces [start, end) with text on behalf of the marker id.
// It is the only path that changes the text of an instance.
func (b *buffer) contentChange(id offsets.ID, start, end int, text string) {
	if start == end && text == "" {
		return
	}
	checkRange(start, end, len(b.text))

	edits := diff.Plan(b.text[start:end], text, start, b.diffMode)
	if len(edits) == 0 {
		return
	}
	b.env.metrics.RecordContentChange(len(edits))
	for _, e := range edits {
		b.apply(id, ReplaceEvent{Start: e.Start, End: e.End, Text: e.Text})
	}
	b.changed()
}

// apply performs one replace, shifts the offsets after marker id and, once
// the instance is live, notifies handlers.
func (b *buffer) apply(id offsets.ID, ev ReplaceEvent) {
	checkRange(ev.Start, ev.End, len(b.text))

	b.text = ev.Apply(b.text)
	b.table.ShiftContent(id, len(ev.Text)-(ev.End-ev.Start))
	b.env.metrics.RecordReplace(ev.End-ev.Start, len(ev.Text))

	if b.state == stateLive {
		b.notify(ev)
	}
}

// changed pushes the text once a whole content change has been applied.
func (b *buffer) changed() {
	if b.state == stateLive && b.invalidate != nil {
		b.invalidate(b.text)
	}
}

// notify delivers ev to the internal handler first, then to every external
// handler. External failures are logged and do not stop delivery.
func (b *buffer) notify(ev ReplaceEvent) {
	if b.forward != nil {
		b.forward(ev)
	}
	if b.handlers == nil {
		return
	}
	for _, e := range b.handlers.snapshot() {
		b.deliver(e, ev)
	}
}

func (b *buffer) deliver(e *handlerEntry, ev ReplaceEvent) {
	b.env.metrics.IncrementHandlerCall()
	if err := safeReplace(e.handler, ev); err != nil {
		b.env.metrics.IncrementHandlerFailure()
		b.env.logger.Error("replace handler failed",
			"handler", e.id,
			"start", ev.Start,
			"end", ev.End,
			"error", &HandlerError{Handler: e.id, Event: ev, Err: err})
	}
}

func safeReplace(h ReplaceHandler, ev ReplaceEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError("ReplaceHandler.Replace", r)
		}
	}()
	return h.Replace(ev.Start, ev.End, ev.Text)
}

// instance is one activation of a template definition against a data
// context.
type instance[D any] struct {
	buffer
	def   *definition[D]
	lists []*recombine.ListHandle[item]
	ctx   D
}

func newInstance[D any](def *definition[D], env *environment, diffMode bool) *instance[D] {
	in := &instance[D]{def: def}
	in.env = env
	in.diffMode = diffMode
	return in
}

// attach builds the text and markers of every binding in declaration
// order, then goes live with a single insertion of the whole text.
func (in *instance[D]) attach(ctx D) {
	if in.state != stateUninitialized {
		panic(fmt.Sprintf("livestring: attach on %s instance", in.state))
	}
	in.state = stateInitializing
	in.ctx = ctx
	in.table = offsets.NewTable(len(in.def.bindings))
	in.lists = make([]*recombine.ListHandle[item], len(in.def.bindings))

	for i, b := range in.def.bindings {
		if in.def.static.has(i) {
			in.text += b.text
			in.table.Grow(i, len(b.text))
			continue
		}
		in.lists[i] = recombine.Recombine(b.extract(ctx), in.factory(i), recombine.WithPermutationRebind())
	}

	in.state = stateLive
	in.env.metrics.IncrementInstanceAttached()
	in.env.logger.Debug("instance attached", "bindings", len(in.def.bindings), "length", len(in.text))

	if in.text != "" {
		in.notify(ReplaceEvent{Start: 0, End: 0, Text: in.text})
		if in.invalidate != nil {
			in.invalidate(in.text)
		}
	}
}

func (in *instance[D]) factory(outer int) recombine.Factory[item] {
	return func(pos int, it item) recombine.Handle[item] {
		s := &slot{buf: &in.buffer, id: in.table.Insert(outer, pos)}
		in.env.metrics.IncrementMarkerCreated()
		s.live = it.open(s)
		return s
	}
}

// rebind re-evaluates every non-constant binding against ctx, recombining
// the existing element subscriptions with the new values.
func (in *instance[D]) rebind(ctx D) {
	if in.state != stateLive {
		panic(fmt.Sprintf("livestring: rebind on %s instance", in.state))
	}
	in.ctx = ctx
	for i, b := range in.def.bindings {
		if in.def.static.has(i) {
			continue
		}
		in.lists[i].Rebind(b.extract(ctx))
	}
	in.env.metrics.IncrementContextRebind()
	in.env.logger.Debug("instance rebound", "length", len(in.text))
}

// detach announces the removal of the whole text as one event, then
// releases every subscription without further events.
func (in *instance[D]) detach() {
	if in.state != stateLive && in.state != stateInitializing {
		return
	}
	n := len(in.text)
	wasLive := in.state == stateLive
	in.state = stateUnbound

	if wasLive && n > 0 {
		in.notify(ReplaceEvent{Start: 0, End: n, Text: ""})
	}
	in.text = ""

	markers := in.table.Live()
	for i := len(in.lists) - 1; i >= 0; i-- {
		if l := in.lists[i]; l != nil {
			l.Unsubscribe()
		}
	}
	in.lists = nil
	in.table = nil

	for i := 0; i < markers; i++ {
		in.env.metrics.IncrementMarkerDeleted()
	}
	in.env.metrics.IncrementInstanceDetached()
	in.env.logger.Debug("instance detached", "length", n)
}

// verify checks the offset invariants of the instance and its nested
// instances.
func (in *instance[D]) verify() error {
	if in.state != stateLive {
		if in.text != "" {
			return fmt.Errorf("%s instance holds text %q", in.state, in.text)
		}
		return nil
	}
	if err := in.table.Verify(len(in.text)); err != nil {
		return err
	}
	if in.table.Bindings() != len(in.def.bindings) {
		return fmt.Errorf("table indexes %d bindings, want %d", in.table.Bindings(), len(in.def.bindings))
	}
	for i, b := range in.def.bindings {
		if in.def.static.has(i) {
			if got := in.table.BindingLength(i); got != len(b.text) || in.table.SeqLen(i) != 0 {
				return fmt.Errorf("constant binding %d covers %d bytes, want %d", i, got, len(b.text))
			}
			if start := in.table.Start(i); in.text[start:start+len(b.text)] != b.text {
				return fmt.Errorf("constant binding %d does not hold %q at offset %d", i, b.text, start)
			}
			continue
		}
		l := in.lists[i]
		if in.table.SeqLen(i) != l.Len() {
			return fmt.Errorf("binding %d has %d markers for %d elements", i, in.table.SeqLen(i), l.Len())
		}
		if l.Len() == 0 && in.table.BindingLength(i) != 0 {
			return fmt.Errorf("empty binding %d covers %d bytes", i, in.table.BindingLength(i))
		}
		for pos := 0; pos < l.Len(); pos++ {
			s := l.At(pos).(*slot)
			if in.table.At(i, pos) != s.id || in.table.Outer(s.id) != i {
				return fmt.Errorf("binding %d element %d is not indexed by its marker", i, pos)
			}
			if in.table.Position(s.id) != pos {
				return fmt.Errorf("binding %d element %d sits at position %d", i, pos, in.table.Position(s.id))
			}
			if v, ok := s.live.(interface{ verify() error }); ok {
				if err := v.verify(); err != nil {
					return fmt.Errorf("binding %d element %d: %w", i, pos, err)
				}
			}
		}
	}
	return nil
}

// extractList substitutes an empty list for a nil one.
func extractList[T any](list rx.ObservableList[T]) rx.ObservableList[T] {
	if isNil(list) {
		return rx.ListOf[T]()
	}
	return list
}
