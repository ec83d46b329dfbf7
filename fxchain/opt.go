package fxchain

import "fmt"

// Opt is an optional parameter value. The zero Opt is absent; Some marks a
// value as present even when it is the zero value of T.
type Opt[T any] struct {
	value T
	set   bool
}

// Some returns a present Opt holding v.
func Some[T any](v T) Opt[T] {
	return Opt[T]{value: v, set: true}
}

// None returns an absent Opt.
func None[T any]() Opt[T] {
	return Opt[T]{}
}

// IsSet reports whether a value is present.
func (o Opt[T]) IsSet() bool { return o.set }

// Get returns the value and whether it is present.
func (o Opt[T]) Get() (T, bool) { return o.value, o.set }

// Or returns the value if present and def otherwise.
func (o Opt[T]) Or(def T) T {
	if o.set {
		return o.value
	}

	return def
}

// Default returns o if present and Some(def) otherwise.
func (o Opt[T]) Default(def T) Opt[T] {
	if o.set {
		return o
	}

	return Some(def)
}

func (o Opt[T]) String() string {
	if !o.set {
		return "<unset>"
	}

	return fmt.Sprint(o.value)
}
