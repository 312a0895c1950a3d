// Package rx provides the small push-observable primitives the template
// engine is built on: single values, lists, and composable subscriptions.
//
// Everything in this package is single-threaded. Notifications are delivered
// synchronously from the call that produced the change.
package rx

// Subscription releases an observer registration.
type Subscription interface {
	Unsubscribe()
}

// SubscriptionFunc adapts a plain function to Subscription.
type SubscriptionFunc func()

// Unsubscribe calls f.
func (f SubscriptionFunc) Unsubscribe() {
	if f != nil {
		f()
	}
}

type emptySubscription struct{}

func (emptySubscription) Unsubscribe() {}

// Empty returns a subscription that does nothing.
func Empty() Subscription {
	return emptySubscription{}
}

// multi composes several subscriptions into one disposer.
type multi struct {
	subs []Subscription
	done bool
}

// Multi returns a subscription that releases all of subs, in reverse order,
// the first time it is unsubscribed. Nil entries are skipped.
func Multi(subs ...Subscription) Subscription {
	m := &multi{subs: make([]Subscription, 0, len(subs))}
	for _, s := range subs {
		if s != nil {
			m.subs = append(m.subs, s)
		}
	}
	return m
}

func (m *multi) Unsubscribe() {
	if m.done {
		return
	}
	m.done = true
	for i := len(m.subs) - 1; i >= 0; i-- {
		m.subs[i].Unsubscribe()
	}
	m.subs = nil
}

// observers is the registry shared by Var and List.
type observers[T any] struct {
	entries []*observer[T]
}

type observer[T any] struct {
	fn      func(T)
	removed bool
}

func (o *observers[T]) add(fn func(T)) Subscription {
	e := &observer[T]{fn: fn}
	o.entries = append(o.entries, e)
	return SubscriptionFunc(func() {
		if e.removed {
			return
		}
		e.removed = true
		for i, x := range o.entries {
			if x == e {
				o.entries = append(o.entries[:i:i], o.entries[i+1:]...)
				break
			}
		}
	})
}

// notify delivers v to a snapshot of the registry; observers removed while
// the notification is in flight are skipped.
func (o *observers[T]) notify(v T) {
	if len(o.entries) == 0 {
		return
	}
	snapshot := make([]*observer[T], len(o.entries))
	copy(snapshot, o.entries)
	for _, e := range snapshot {
		if !e.removed {
			e.fn(v)
		}
	}
}

func (o *observers[T]) len() int {
	return len(o.entries)
}
