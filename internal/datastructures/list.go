package datastructures

import (
	"io"
)

// Reserved arena indices. The two sentinels are allocated once by NewList
// and survive every mutation, including Clear, so linking code never has
// to branch on an empty or one-element list.
const (
	headSlot int32 = 0
	tailSlot int32 = 1
	nilSlot  int32 = -1
)

type (
	// List is a doubly linked list of strings backed by a slot arena.
	// Elements live in a flat slice and link to each other by index
	// instead of by pointer; every insertion happens between the two
	// sentinel slots, so there are no end-of-list special cases.
	//
	// A List is not safe for concurrent use. Callers that share one
	// across goroutines must serialize access themselves.
	List struct {
		slots  []slot
		free   int32
		length int
		epoch  uint32
	}

	// slot is one arena cell. Freed slots are chained through next onto
	// the free list and keep their gen bump so parked iterators can tell
	// the cell was recycled.
	slot struct {
		value string
		prev  int32
		next  int32
		gen   uint32
	}
)

// NewList creates an empty list with its two sentinel slots in place.
func NewList() *List {
	l := &List{free: nilSlot}
	l.slots = make([]slot, 2)
	l.slots[headSlot] = slot{prev: nilSlot, next: tailSlot}
	l.slots[tailSlot] = slot{prev: headSlot, next: nilSlot}
	return l
}

// alloc takes a slot from the free list, or grows the arena by one.
func (l *List) alloc(value string) int32 {
	if l.free != nilSlot {
		idx := l.free
		l.free = l.slots[idx].next
		l.slots[idx].value = value
		return idx
	}
	l.slots = append(l.slots, slot{value: value})
	return int32(len(l.slots) - 1)
}

// release returns an unlinked slot to the free list. The generation bump
// is what invalidates any iterator still parked on this cell.
func (l *List) release(idx int32) {
	s := &l.slots[idx]
	s.gen++
	s.value = ""
	s.prev = nilSlot
	s.next = l.free
	l.free = idx
}

// linkAfter splices slot idx between anchor and anchor's successor.
func (l *List) linkAfter(anchor, idx int32) {
	next := l.slots[anchor].next
	l.slots[idx].next = next
	l.slots[next].prev = idx
	l.slots[anchor].next = idx
	l.slots[idx].prev = anchor
}

// unlink removes slot idx from the chain without touching idx itself.
func (l *List) unlink(idx int32) {
	l.slots[l.slots[idx].prev].next = l.slots[idx].next
	l.slots[l.slots[idx].next].prev = l.slots[idx].prev
}

// find walks head to tail and returns the first slot holding value.
func (l *List) find(value string) int32 {
	for idx := l.slots[headSlot].next; idx != tailSlot; idx = l.slots[idx].next {
		if l.slots[idx].value == value {
			return idx
		}
	}
	return nilSlot
}

// Append adds a value at the tail of the list.
func (l *List) Append(value string) {
	idx := l.alloc(value)
	l.linkAfter(l.slots[tailSlot].prev, idx)
	l.length++
}

// Prepend adds a value at the head of the list.
func (l *List) Prepend(value string) {
	idx := l.alloc(value)
	l.linkAfter(headSlot, idx)
	l.length++
}

// First returns the head value, or false if the list is empty.
func (l *List) First() (string, bool) {
	if l.length == 0 {
		return "", false
	}
	return l.slots[l.slots[headSlot].next].value, true
}

// Last returns the tail value, or false if the list is empty.
func (l *List) Last() (string, bool) {
	if l.length == 0 {
		return "", false
	}
	return l.slots[l.slots[tailSlot].prev].value, true
}

// Contains reports whether value is present in the list.
func (l *List) Contains(value string) bool {
	return l.find(value) != nilSlot
}

// Delete removes the first occurrence of value and reports whether
// anything was removed.
func (l *List) Delete(value string) bool {
	idx := l.find(value)
	if idx == nilSlot {
		return false
	}
	l.unlink(idx)
	l.release(idx)
	l.length--
	return true
}

// PopFirst removes and returns the head value, or false if the list is
// empty.
func (l *List) PopFirst() (string, bool) {
	if l.length == 0 {
		return "", false
	}
	idx := l.slots[headSlot].next
	value := l.slots[idx].value
	l.unlink(idx)
	l.release(idx)
	l.length--
	return value, true
}

// PopLast removes and returns the tail value, or false if the list is
// empty.
func (l *List) PopLast() (string, bool) {
	if l.length == 0 {
		return "", false
	}
	idx := l.slots[tailSlot].prev
	value := l.slots[idx].value
	l.unlink(idx)
	l.release(idx)
	l.length--
	return value, true
}

// Len returns the number of elements in the list.
func (l *List) Len() int {
	return l.length
}

// Count is an alias for Len to maintain consistency with the required
// operations.
func (l *List) Count() int {
	return l.Len()
}

// Values returns the element values in head-to-tail order.
func (l *List) Values() []string {
	values := make([]string, 0, l.length)
	for idx := l.slots[headSlot].next; idx != tailSlot; idx = l.slots[idx].next {
		values = append(values, l.slots[idx].value)
	}
	return values
}

// Clear removes all elements and replaces the arena with a fresh one so
// the backing memory of a large list can be reclaimed. The epoch bump
// invalidates every outstanding iterator.
func (l *List) Clear() {
	slots := make([]slot, 2)
	slots[headSlot] = slot{prev: nilSlot, next: tailSlot}
	slots[tailSlot] = slot{prev: headSlot, next: nilSlot}
	l.slots = slots
	l.free = nilSlot
	l.length = 0
	l.epoch++
}

// Dump writes the values head to tail, space separated, on one line.
func (l *List) Dump(w io.Writer) {
	first := true
	for value := range l.All() {
		if !first {
			io.WriteString(w, " ")
		}
		io.WriteString(w, value)
		first = false
	}
	io.WriteString(w, "\n")
}

// DumpReversed writes the values tail to head, space separated, on one
// line.
func (l *List) DumpReversed(w io.Writer) {
	first := true
	for value := range l.Reversed() {
		if !first {
			io.WriteString(w, " ")
		}
		io.WriteString(w, value)
		first = false
	}
	io.WriteString(w, "\n")
}
