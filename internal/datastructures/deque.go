package datastructures

import (
	"errors"
)

// Errors returned by the bounded Deque.
var (
	ErrDequeFull  = errors.New("deque is full")
	ErrDequeEmpty = errors.New("deque is empty")
)

// Deque is a fixed-capacity double-ended queue over a ring buffer. The
// hard bound is the point: a producer that outruns its consumer gets
// ErrDequeFull back instead of growing without limit, so callers decide
// whether to drop the oldest entry or the newest one.
//
// Like List, a Deque is not safe for concurrent use on its own.
type Deque[T any] struct {
	data []T
	head int
	size int
}

// NewDeque creates an empty deque holding at most capacity elements.
func NewDeque[T any](capacity int) *Deque[T] {
	if capacity <= 0 {
		panic("deque capacity must be greater than 0")
	}
	return &Deque[T]{data: make([]T, capacity)}
}

// PushFront adds an element at the front of the deque.
func (d *Deque[T]) PushFront(value T) error {
	if d.size == len(d.data) {
		return ErrDequeFull
	}
	d.head = (d.head - 1 + len(d.data)) % len(d.data)
	d.data[d.head] = value
	d.size++
	return nil
}

// PushBack adds an element at the back of the deque.
func (d *Deque[T]) PushBack(value T) error {
	if d.size == len(d.data) {
		return ErrDequeFull
	}
	d.data[(d.head+d.size)%len(d.data)] = value
	d.size++
	return nil
}

// PopFront removes and returns the front element. The vacated cell is
// zeroed so popped payloads become collectable.
func (d *Deque[T]) PopFront() (T, error) {
	var zero T
	if d.size == 0 {
		return zero, ErrDequeEmpty
	}
	value := d.data[d.head]
	d.data[d.head] = zero
	d.head = (d.head + 1) % len(d.data)
	d.size--
	return value, nil
}

// PopBack removes and returns the back element.
func (d *Deque[T]) PopBack() (T, error) {
	var zero T
	if d.size == 0 {
		return zero, ErrDequeEmpty
	}
	idx := (d.head + d.size - 1) % len(d.data)
	value := d.data[idx]
	d.data[idx] = zero
	d.size--
	return value, nil
}

// Front returns the front element without removing it.
func (d *Deque[T]) Front() (T, error) {
	var zero T
	if d.size == 0 {
		return zero, ErrDequeEmpty
	}
	return d.data[d.head], nil
}

// Back returns the back element without removing it.
func (d *Deque[T]) Back() (T, error) {
	var zero T
	if d.size == 0 {
		return zero, ErrDequeEmpty
	}
	return d.data[(d.head+d.size-1)%len(d.data)], nil
}

// Size returns the number of elements in the deque.
func (d *Deque[T]) Size() int {
	return d.size
}

// Empty reports whether the deque holds no elements.
func (d *Deque[T]) Empty() bool {
	return d.size == 0
}

// Full reports whether the deque is at capacity.
func (d *Deque[T]) Full() bool {
	return d.size == len(d.data)
}
