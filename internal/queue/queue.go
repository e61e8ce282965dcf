// Package queue provides a FIFO used to hold events read ahead of the merge.
package queue

// Queue is a generic FIFO. It is not safe for concurrent use.
type Queue[T any] struct {
	items []T
}

// New creates a new empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		items: make([]T, 0),
	}
}

// Push appends items to the back of the queue.
func (q *Queue[T]) Push(items ...T) {
	q.items = append(q.items, items...)
}

// Pop removes and returns the first item. It reports false when the queue is empty.
func (q *Queue[T]) Pop() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}
