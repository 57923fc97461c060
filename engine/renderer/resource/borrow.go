package resource

// Borrow is a pass output that is either a value the pass produced for the caller or a
// reference into storage another pass owns. A borrowed value must not be released by the
// receiver and is only valid until the owning pass is refreshed or released.
type Borrow[T any] struct {
	owned T
	ref   *T
}

// Owned wraps a value handed over to the receiver.
func Owned[T any](v T) Borrow[T] {
	return Borrow[T]{owned: v}
}

// Borrowed wraps a reference into another pass's storage.
func Borrowed[T any](p *T) Borrow[T] {
	return Borrow[T]{ref: p}
}

// Get returns the value.
func (b Borrow[T]) Get() T {
	if b.ref != nil {
		return *b.ref
	}
	return b.owned
}

// IsOwned reports whether the receiver owns the value.
func (b Borrow[T]) IsOwned() bool {
	return b.ref == nil
}
