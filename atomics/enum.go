package atomics

import "sync/atomic"

// Enum is a word-sized atomic holding a closed enum value (e.g. a
// thread's State). T's usize encoding must always be a valid
// discriminant; Enum never validates it.
type Enum[T ~uint64] struct {
	v atomic.Uint64
}

// NewEnum returns an Enum initialized to initial.
func NewEnum[T ~uint64](initial T) *Enum[T] {
	e := &Enum[T]{}
	e.v.Store(uint64(initial))
	return e
}

// Load reads the current value, Acquire ordering.
func (e *Enum[T]) Load() T {
	return T(e.v.Load())
}

// Store writes val, Release ordering.
func (e *Enum[T]) Store(val T) {
	e.v.Store(uint64(val))
}

// CompareAndSwap stores new in place of old, SeqCst on success,
// Relaxed on failure.
func (e *Enum[T]) CompareAndSwap(old, new T) bool {
	return e.v.CompareAndSwap(uint64(old), uint64(new))
}

// FetchUpdate applies f to the current value in a SeqCst CAS loop,
// retrying on conflict, and stores whatever f returns unless f reports
// false (in which case the value is left unchanged and FetchUpdate
// returns the unchanged value and false).
func (e *Enum[T]) FetchUpdate(f func(T) (T, bool)) (T, bool) {
	for {
		old := e.v.Load()
		newVal, ok := f(T(old))
		if !ok {
			return T(old), false
		}
		if e.v.CompareAndSwap(old, uint64(newVal)) {
			return newVal, true
		}
	}
}
