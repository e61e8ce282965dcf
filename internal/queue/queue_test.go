package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRow struct {
	Line int
	Kind string
}

func TestQueue_PushPop(t *testing.T) {
	q := New[testRow]()

	_, ok := q.Pop()
	assert.False(t, ok, "pop from empty queue")

	q.Push(testRow{1, "SPELL_DAMAGE"}, testRow{2, "UNIT_DIED"})
	q.Push(testRow{3, "ENCOUNTER_END"})

	for _, want := range []int{1, 2, 3} {
		got, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, want, got.Line)
	}

	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestQueue_PushNothing(t *testing.T) {
	q := New[*testRow]()
	q.Push()

	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestQueue_ReuseAfterDrain(t *testing.T) {
	q := New[string]()
	q.Push("a")
	_, _ = q.Pop()

	q.Push("b", "c")
	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "b", v)
}
