// Package ring implements the intrusive doubly linked list used by the
// reactor's connection pool. A single Connection can be a member of up to
// three such lists at once (the global idle list, the global busy list, and
// its peer's per-address queue); ring.List lets each of those three
// memberships live as plain pointer fields on the element instead of
// allocating a wrapper node per list per insertion.
package ring

// List is an intrusive doubly linked list over elements of type T (normally
// a pointer type). The caller supplies accessors for one pair of prev/next
// fields on T; a type with three independent link pairs can be threaded
// through three independent Lists built with three different accessor sets,
// exactly as spec'd for the pool's idle list, busy list, and per-address
// queue. See internal/ring/list_test.go for the pattern applied to a small
// element type.
type List[T comparable] struct {
	head, tail T
	zero       T
	size       int

	next    func(T) T
	setNext func(T, T)
	prev    func(T) T
	setPrev func(T, T)
}

// New builds a List using the given link accessors.
func New[T comparable](next func(T) T, setNext func(T, T), prev func(T) T, setPrev func(T, T)) *List[T] {
	return &List[T]{next: next, setNext: setNext, prev: prev, setPrev: setPrev}
}

// Len returns the number of elements currently linked.
func (l *List[T]) Len() int { return l.size }

// Front returns the head element, or the zero value if empty.
func (l *List[T]) Front() T { return l.head }

// Back returns the tail element, or the zero value if empty.
func (l *List[T]) Back() T { return l.tail }

// PushBack appends v at the tail. O(1).
func (l *List[T]) PushBack(v T) {
	l.setPrev(v, l.tail)
	l.setNext(v, l.zero)

	if l.tail != l.zero {
		l.setNext(l.tail, v)
	} else {
		l.head = v
	}
	l.tail = v
	l.size++
}

// PushFront prepends v at the head. O(1).
func (l *List[T]) PushFront(v T) {
	l.setNext(v, l.head)
	l.setPrev(v, l.zero)

	if l.head != l.zero {
		l.setPrev(l.head, v)
	} else {
		l.tail = v
	}
	l.head = v
	l.size++
}

// Remove unlinks v from the list. v must currently be a member; removing a
// non-member is a caller bug, not guarded against here (mirrors the
// single-reactor-thread invariant that membership is always known precisely
// by the caller).
func (l *List[T]) Remove(v T) {
	p, n := l.prev(v), l.next(v)

	if p != l.zero {
		l.setNext(p, n)
	} else {
		l.head = n
	}

	if n != l.zero {
		l.setPrev(n, p)
	} else {
		l.tail = p
	}

	l.setPrev(v, l.zero)
	l.setNext(v, l.zero)
	l.size--
}

// PopBack removes and returns the tail element, or the zero value if empty.
func (l *List[T]) PopBack() T {
	v := l.tail
	if v == l.zero {
		return l.zero
	}
	l.Remove(v)
	return v
}

// PopFront removes and returns the head element, or the zero value if empty.
func (l *List[T]) PopFront() T {
	v := l.head
	if v == l.zero {
		return l.zero
	}
	l.Remove(v)
	return v
}
