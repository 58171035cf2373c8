// Package resolve provides the ordered fallback chain used wherever a value
// may come from several optional sources.
package resolve

// Source yields a value and whether it is defined.
type Source[T any] func() (T, bool)

// FirstDefined returns the value of the first source that reports ok.
// Sources after the first hit are not evaluated.
func FirstDefined[T any](sources ...Source[T]) (T, bool) {
	for _, src := range sources {
		if src == nil {
			continue
		}
		if v, ok := src(); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// Or is like [FirstDefined] but returns fallback when no source is defined.
func Or[T any](fallback T, sources ...Source[T]) T {
	if v, ok := FirstDefined(sources...); ok {
		return v
	}
	return fallback
}

// Ptr returns a source that is defined when p is non-nil.
func Ptr[T any](p *T) Source[T] {
	return func() (T, bool) {
		if p == nil {
			var zero T
			return zero, false
		}
		return *p, true
	}
}

// NonZero returns a source that is defined when v differs from its zero value.
func NonZero[T comparable](v T) Source[T] {
	return func() (T, bool) {
		var zero T
		return v, v != zero
	}
}
