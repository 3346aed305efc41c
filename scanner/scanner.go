// Package scanner provides a buffering cursor over any pull-based sequence.
// It adds peek, unget and skip on top of a plain "give me the next item"
// function without consuming the underlying sequence ahead of time.
//
// The line source keeps its pushed-back lines in a Getter, so a directive
// handler can read ahead into a block and hand back what it does not use.
package scanner

// PullFunc returns the next item of a sequence. ok is false once the
// sequence is exhausted. A non-nil error aborts iteration.
type PullFunc[T any] func() (item T, ok bool, err error)

// Getter is a lookahead buffer over a PullFunc.
//
// Ungot items are kept in a stack: the last item ungot is the first one
// returned. Once the underlying sequence reports the end, it is never
// called again, but ungot items are still returned before end is reported.
type Getter[T any] struct {
	pull    PullFunc[T]
	pending []T // top of stack is the next item to return
	done    bool
	err     error // sticky pull error
	count   int   // items handed out net of ungets
}

// New creates a Getter reading from pull.
func New[T any](pull PullFunc[T]) *Getter[T] {
	return &Getter[T]{pull: pull}
}

// FromSlice creates a Getter over a copy of items.
func FromSlice[T any](items []T) *Getter[T] {
	i := 0
	return New(func() (T, bool, error) {
		var zero T
		if i >= len(items) {
			return zero, false, nil
		}
		item := items[i]
		i++
		return item, true, nil
	})
}

// Get returns the next item, or ok == false at end of input.
func (g *Getter[T]) Get() (T, bool, error) {
	if n := len(g.pending); n > 0 {
		item := g.pending[n-1]
		var zero T
		g.pending[n-1] = zero
		g.pending = g.pending[:n-1]
		g.count++
		return item, true, nil
	}
	var zero T
	if g.err != nil {
		return zero, false, g.err
	}
	if g.done {
		return zero, false, nil
	}
	item, ok, err := g.pull()
	if err != nil {
		g.err = err
		return zero, false, err
	}
	if !ok {
		g.done = true
		return zero, false, nil
	}
	g.count++
	return item, true, nil
}

// Unget pushes item back so the next Get returns it.
func (g *Getter[T]) Unget(item T) {
	g.pending = append(g.pending, item)
	g.count--
}

// Peek returns the next item without consuming it.
func (g *Getter[T]) Peek() (T, bool, error) {
	item, ok, err := g.Get()
	if err != nil || !ok {
		return item, ok, err
	}
	g.Unget(item)
	return item, true, nil
}

// Skip discards the next item. It reports whether an item was discarded.
func (g *Getter[T]) Skip() (bool, error) {
	_, ok, err := g.Get()
	return ok, err
}

// EOF reports whether the sequence has no more items. It peeks and leaves
// the buffer as it found it. A pull error is reported as not-EOF; the error
// is kept and returned by the next Get.
func (g *Getter[T]) EOF() bool {
	_, ok, err := g.Peek()
	if err != nil {
		return false
	}
	return !ok
}

// Count returns how many items have been handed out, net of ungets.
func (g *Getter[T]) Count() int { return g.count }

// Buffered returns the number of ungot items waiting to be returned.
func (g *Getter[T]) Buffered() int { return len(g.pending) }
