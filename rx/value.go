package rx

// Observable is a value that can change over time.
type Observable[T any] interface {
	// Get returns the current value.
	Get() T
	// Subscribe registers fn to be called with every new value.
	Subscribe(fn func(T)) Subscription
}

// Var is a mutable Observable.
type Var[T any] struct {
	value T
	equal func(a, b T) bool
	obs   observers[T]
}

// NewVar creates a Var holding initial. Every Set notifies observers.
func NewVar[T any](initial T) *Var[T] {
	return &Var[T]{value: initial}
}

// NewVarWithEquality creates a Var that skips notification when Set is
// called with a value equal to the current one.
func NewVarWithEquality[T any](initial T, equal func(a, b T) bool) *Var[T] {
	return &Var[T]{value: initial, equal: equal}
}

// NewComparableVar is NewVarWithEquality using ==.
func NewComparableVar[T comparable](initial T) *Var[T] {
	return NewVarWithEquality(initial, func(a, b T) bool { return a == b })
}

func (v *Var[T]) Get() T {
	return v.value
}

// Set stores value and notifies observers.
func (v *Var[T]) Set(value T) {
	if v.equal != nil && v.equal(v.value, value) {
		return
	}
	v.value = value
	v.obs.notify(value)
}

// Update applies fn to the current value and stores the result.
func (v *Var[T]) Update(fn func(T) T) {
	v.Set(fn(v.value))
}

func (v *Var[T]) Subscribe(fn func(T)) Subscription {
	return v.obs.add(fn)
}

// Observers reports the number of live subscriptions.
func (v *Var[T]) Observers() int {
	return v.obs.len()
}

type constant[T any] struct {
	value T
}

// Const returns an Observable that never changes.
func Const[T any](value T) Observable[T] {
	return constant[T]{value: value}
}

func (c constant[T]) Get() T { return c.value }

func (c constant[T]) Subscribe(func(T)) Subscription { return Empty() }

type mapped[T, R any] struct {
	src Observable[T]
	fn  func(T) R
}

// Map returns a view of src transformed by fn. fn is applied on every Get
// and on every notification.
func Map[T, R any](src Observable[T], fn func(T) R) Observable[R] {
	return mapped[T, R]{src: src, fn: fn}
}

func (m mapped[T, R]) Get() R {
	return m.fn(m.src.Get())
}

func (m mapped[T, R]) Subscribe(fn func(R)) Subscription {
	return m.src.Subscribe(func(v T) { fn(m.fn(v)) })
}
