package mlfq

// FIFO is a growable ring buffer, used as the per-level ready queue, and as
// the wait queue of a semaphore. The zero value is not usable, see NewFIFO.
type FIFO[E any] struct {
	s    []E
	r, w uint
}

// NewFIFO returns an empty FIFO with the given initial capacity, which must be
// a power of 2.
func NewFIFO[E any](size int) *FIFO[E] {
	if size <= 0 || size&(size-1) != 0 {
		panic(`mlfq: fifo: size must be a power of 2`)
	}
	return &FIFO[E]{s: make([]E, size)}
}

func (x *FIFO[E]) mask(val uint) uint {
	return val & (uint(len(x.s)) - 1)
}

func (x *FIFO[E]) bounds() (i1, l1, l2 int) {
	if x.r == x.w {
		return
	}
	i1 = int(x.mask(x.r))
	l1 = int(x.mask(x.w))
	if l1 <= i1 {
		l2 = l1
		l1 = len(x.s)
	}
	return
}

func (x *FIFO[E]) Len() int {
	return int(x.w - x.r)
}

func (x *FIFO[E]) Cap() int {
	return len(x.s)
}

// Get returns the i-th element, counting from the head.
func (x *FIFO[E]) Get(i int) E {
	if i < 0 || i >= x.Len() {
		panic(`mlfq: fifo: get: index out of range`)
	}
	return x.s[x.mask(x.r+uint(i))]
}

// Slice copies the contents, head first.
func (x *FIFO[E]) Slice() (b []E) {
	if l := x.Len(); l != 0 {
		b = make([]E, l)
		i1, l1, l2 := x.bounds()
		copy(b, x.s[i1:l1])
		copy(b[l1-i1:], x.s[:l2])
	}
	return b
}

// PushBack appends to the tail, growing the buffer if it is full.
func (x *FIFO[E]) PushBack(value E) {
	if x.Len() == len(x.s) {
		s := make([]E, uint(len(x.s))<<1)
		if len(s) == 0 {
			panic(`mlfq: fifo: push: overflow`)
		}
		// unwrap into the new buffer, starting at 0
		i1, l1, l2 := x.bounds()
		n := copy(s, x.s[i1:l1])
		n += copy(s[n:], x.s[:l2])
		x.r = 0
		x.w = uint(n)
		x.s = s
	}
	x.s[x.mask(x.w)] = value
	x.w++
}

// PopFront removes and returns the head, ok will be false if empty.
func (x *FIFO[E]) PopFront() (value E, ok bool) {
	if x.r == x.w {
		return
	}
	i := x.mask(x.r)
	value = x.s[i]
	var zero E
	x.s[i] = zero
	x.r++
	if x.r == x.w {
		x.r = 0
		x.w = 0
	}
	return value, true
}

// Front returns the head without removing it.
func (x *FIFO[E]) Front() (value E, ok bool) {
	if x.r == x.w {
		return
	}
	return x.s[x.mask(x.r)], true
}
