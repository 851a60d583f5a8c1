package datastructures

import (
	"errors"
	"iter"
)

// Direction selects the traversal order of an Iterator.
type Direction int

const (
	// Forward walks head to tail.
	Forward Direction = iota
	// Backward walks tail to head.
	Backward
)

// ErrIteratorInvalidated is reported by Iterator.Err after the element the
// iterator was parked on has been deleted, or after Clear discarded the
// whole list.
var ErrIteratorInvalidated = errors.New("list changed under iterator")

// Iterator is a cursor over a List. It does not snapshot: each Next reads
// the links as they are now, so elements inserted or deleted elsewhere in
// the list during iteration are observed naturally. Only two mutations
// break an iterator: deleting the exact element it is parked on, and
// Clear. Both are detected on the following Next, which returns false and
// records ErrIteratorInvalidated.
//
// Like the List it walks, an Iterator is not safe for concurrent use.
type Iterator struct {
	list  *List
	dir   Direction
	cur   int32
	gen   uint32
	end   int32
	epoch uint32
	err   error
}

// Iterate returns a head-to-tail iterator over the list.
func (l *List) Iterate() *Iterator {
	cur := l.slots[headSlot].next
	return &Iterator{
		list:  l,
		dir:   Forward,
		cur:   cur,
		gen:   l.slots[cur].gen,
		end:   tailSlot,
		epoch: l.epoch,
	}
}

// ReverseIterate returns a tail-to-head iterator over the list.
func (l *List) ReverseIterate() *Iterator {
	cur := l.slots[tailSlot].prev
	return &Iterator{
		list:  l,
		dir:   Backward,
		cur:   cur,
		gen:   l.slots[cur].gen,
		end:   headSlot,
		epoch: l.epoch,
	}
}

// Next returns the value under the cursor and advances one step in the
// iterator's direction. It returns false once the far sentinel is
// reached, and keeps returning false from then on. It also returns false
// if the iterator has been invalidated; Err tells the two cases apart.
func (it *Iterator) Next() (string, bool) {
	if it.err != nil || it.cur == it.end {
		return "", false
	}
	// The epoch guard runs first: after Clear the old indices must not
	// touch the rebuilt arena at all.
	if it.epoch != it.list.epoch || it.list.slots[it.cur].gen != it.gen {
		it.err = ErrIteratorInvalidated
		return "", false
	}
	value := it.list.slots[it.cur].value
	switch it.dir {
	case Forward:
		it.cur = it.list.slots[it.cur].next
	case Backward:
		it.cur = it.list.slots[it.cur].prev
	}
	it.gen = it.list.slots[it.cur].gen
	return value, true
}

// Err returns ErrIteratorInvalidated if the iterator was broken by a
// mutation, and nil after a clean exhaustion.
func (it *Iterator) Err() error {
	return it.err
}

// All returns a head-to-tail sequence usable with range. The same
// mutation contract as Iterate applies.
func (l *List) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for idx := l.slots[headSlot].next; idx != tailSlot; idx = l.slots[idx].next {
			if !yield(l.slots[idx].value) {
				return
			}
		}
	}
}

// Reversed returns a tail-to-head sequence usable with range.
func (l *List) Reversed() iter.Seq[string] {
	return func(yield func(string) bool) {
		for idx := l.slots[tailSlot].prev; idx != headSlot; idx = l.slots[idx].prev {
			if !yield(l.slots[idx].value) {
				return
			}
		}
	}
}
