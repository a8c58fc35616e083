// Package option carries values that may be absent, such as the
// inequality field of a filter tree without inequality leaves.
package option

import "fmt"

type Option[T any] struct {
	val     T
	present bool
}

func Some[T any](val T) Option[T] {
	return Option[T]{val: val, present: true}
}

func Nothing[T any]() Option[T] {
	return Option[T]{}
}

func (o Option[T]) IsSome() bool {
	return o.present
}

func (o Option[T]) IsNothing() bool {
	return !o.present
}

// Unwrap panics on Nothing.
func (o Option[T]) Unwrap() T {
	if !o.present {
		panic("called Unwrap on a Nothing Option")
	}
	return o.val
}

func (o Option[T]) UnwrapOr(fallback T) T {
	if !o.present {
		return fallback
	}
	return o.val
}

// Map converts the value of a Some. Nothing maps to Nothing.
func Map[T any, U any](o Option[T], f func(T) U) Option[U] {
	if !o.present {
		return Nothing[U]()
	}
	return Some(f(o.val))
}

func (o Option[T]) String() string {
	if !o.present {
		return "Nothing"
	}
	return fmt.Sprintf("Some(%v)", o.val)
}
