// Package livestring maintains a text assembled from the bindings of a
// template over a data context, and keeps it up to date incrementally as
// the values behind the bindings change.
//
// Consumers observe the text through replace events, each describing the
// smallest range that changed, instead of re-reading the whole text:
//
//	b := livestring.NewBuilder[*Person]().
//		Append("Hello, ").
//		Add(livestring.BindString(func(p *Person) rx.Observable[string] { return p.Name }))
//	t, _ := b.ToBoundTemplate(person, livestring.ReplaceFunc(func(start, end int, text string) error {
//		fmt.Println(start, end, text)
//		return nil
//	}))
//
// Templates are not safe for concurrent use.
package livestring

import (
	"github.com/livefir/livestring/internal/metrics"
	"github.com/livefir/livestring/rx"
)

// Metrics is a snapshot of a template's activity counters.
type Metrics = metrics.ApplicationMetrics

// Template is a live text over data contexts of type D. It is created
// unbound by Builder.ToTemplate and follows whatever context it is given.
type Template[D any] struct {
	def      *definition[D]
	cfg      *settings
	env      *environment
	inst     *instance[D]
	handlers handlerSet
	text     *rx.Var[string]
	ctx      D
	bound    bool
}

func newTemplate[D any](def *definition[D], cfg *settings) *Template[D] {
	return &Template[D]{
		def:  def,
		cfg:  cfg,
		env:  &environment{logger: cfg.logger, metrics: metrics.NewCollector()},
		text: rx.NewVar(""),
	}
}

// SetDataContext binds the template to ctx. A live template is rebound in
// place, reusing its element subscriptions, unless rebind reuse is off, in
// which case the current instance is detached first. A nil ctx is rejected
// with ErrNilDataContext; use Detach to unbind.
func (t *Template[D]) SetDataContext(ctx D) error {
	if isNil(ctx) {
		return ErrNilDataContext
	}
	t.ctx, t.bound = ctx, true

	if t.inst != nil && t.inst.state == stateLive && t.cfg.rebindReuse {
		t.inst.diffMode = t.cfg.diffMode
		t.inst.rebind(ctx)
		return nil
	}
	t.detachInstance()

	inst := newInstance(t.def, t.env, t.cfg.diffMode)
	inst.handlers = &t.handlers
	inst.invalidate = t.text.Set
	t.inst = inst
	inst.attach(ctx)
	if t.text.Get() != inst.text {
		t.text.Set(inst.text)
	}
	return nil
}

// BindDataContext follows src: every value is applied with SetDataContext,
// and nil values detach the template. The returned subscription stops
// following src without detaching.
func (t *Template[D]) BindDataContext(src rx.Observable[D]) rx.Subscription {
	apply := func(ctx D) {
		if isNil(ctx) {
			t.Detach()
			return
		}
		_ = t.SetDataContext(ctx)
	}
	apply(src.Get())
	return src.Subscribe(apply)
}

// Detach unbinds the template. Handlers receive one deletion of the whole
// text, after which the text is empty.
func (t *Template[D]) Detach() {
	var zero D
	t.ctx, t.bound = zero, false
	if t.detachInstance() {
		t.text.Set("")
	}
}

func (t *Template[D]) detachInstance() bool {
	if t.inst == nil {
		return false
	}
	inst := t.inst
	t.inst = nil
	inst.detach()
	return true
}

// DataContext returns the current context and whether the template is bound.
func (t *Template[D]) DataContext() (D, bool) {
	return t.ctx, t.bound
}

// IsBound reports whether the template is attached to a context.
func (t *Template[D]) IsBound() bool {
	return t.bound
}

// Text returns the current text.
func (t *Template[D]) Text() string {
	if t.inst == nil {
		return ""
	}
	return t.inst.text
}

// Get returns the current text.
func (t *Template[D]) Get() string {
	return t.Text()
}

// Subscribe registers fn to receive the new text after every change.
func (t *Template[D]) Subscribe(fn func(string)) rx.Subscription {
	return t.text.Subscribe(fn)
}

// AddReplaceHandler registers h. If the template is bound and its text is
// not empty, h immediately receives an insertion of the whole text.
func (t *Template[D]) AddReplaceHandler(h ReplaceHandler) rx.Subscription {
	entry, sub := t.handlers.add(h)
	if t.inst != nil && t.inst.state == stateLive && t.inst.text != "" {
		t.inst.deliver(entry, ReplaceEvent{Start: 0, End: 0, Text: t.inst.text})
	}
	return sub
}

// OnReplace registers fn as a replace handler.
func (t *Template[D]) OnReplace(fn func(ReplaceEvent)) rx.Subscription {
	return t.AddReplaceHandler(ReplaceFunc(func(start, end int, text string) error {
		fn(ReplaceEvent{Start: start, End: end, Text: text})
		return nil
	}))
}

// SetDiffMode enables or disables minimal-diff replace events. The live
// instance switches immediately; nested instances pick the flag up when
// they are next attached or rebound.
func (t *Template[D]) SetDiffMode(enabled bool) {
	t.cfg.diffMode = enabled
	if t.inst != nil {
		t.inst.diffMode = enabled
	}
}

// DiffMode reports whether minimal-diff replace events are enabled.
func (t *Template[D]) DiffMode() bool {
	return t.cfg.diffMode
}

// Copy returns an unbound template with the same bindings and settings and
// no handlers.
func (t *Template[D]) Copy() *Template[D] {
	return newTemplate(t.def, t.cfg.clone())
}

// Kinds returns the kind of every binding, in declaration order.
func (t *Template[D]) Kinds() []Kind {
	return t.def.kinds()
}

// MarkerCount returns the number of live markers of the root instance.
func (t *Template[D]) MarkerCount() int {
	if t.inst == nil || t.inst.table == nil {
		return 0
	}
	return t.inst.table.Live()
}

// Metrics returns a snapshot of the template's counters, nested instances
// included.
func (t *Template[D]) Metrics() Metrics {
	return t.env.metrics.GetMetrics()
}

// ReuseRate returns the percentage of element rebinds that kept their live
// subscription.
func (t *Template[D]) ReuseRate() float64 {
	return t.env.metrics.GetReuseRate()
}

// HandlerSuccessRate returns the percentage of replace handler deliveries
// that neither failed nor panicked.
func (t *Template[D]) HandlerSuccessRate() float64 {
	return t.env.metrics.GetHandlerSuccessRate()
}

// AverageEventSize returns the mean number of bytes deleted plus inserted
// per replace event.
func (t *Template[D]) AverageEventSize() float64 {
	return t.env.metrics.GetAverageEventSize()
}

// verify checks the internal invariants of the live instance.
func (t *Template[D]) verify() error {
	if t.inst == nil {
		return nil
	}
	return t.inst.verify()
}
