package scanner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain[T any](t *testing.T, g *Getter[T]) []T {
	t.Helper()
	var out []T
	for {
		item, ok, err := g.Get()
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, item)
	}
}

func TestGetter_BasicIteration(t *testing.T) {
	g := FromSlice([]string{"a", "b", "c"})
	assert.Equal(t, []string{"a", "b", "c"}, drain(t, g))

	_, ok, err := g.Get()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetter_PeekDoesNotConsume(t *testing.T) {
	g := FromSlice([]int{1, 2, 3})
	item, ok, err := g.Peek()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, item)

	item, _, _ = g.Peek()
	assert.Equal(t, 1, item, "repeated peek returns the same item")
	assert.Equal(t, []int{1, 2, 3}, drain(t, g))
}

func TestGetter_UngetIsLIFO(t *testing.T) {
	g := FromSlice([]int{1, 2, 3})
	a, _, _ := g.Get()
	b, _, _ := g.Get()
	g.Unget(b)
	g.Unget(a)
	assert.Equal(t, []int{1, 2, 3}, drain(t, g))
}

func TestGetter_UngetAfterEnd(t *testing.T) {
	calls := 0
	g := New(func() (string, bool, error) {
		calls++
		return "", false, nil
	})
	assert.True(t, g.EOF())
	g.Unget("late")
	assert.False(t, g.EOF())
	assert.Equal(t, []string{"late"}, drain(t, g))
	assert.Equal(t, 1, calls, "exhausted source is never pulled again")
}

func TestGetter_Skip(t *testing.T) {
	g := FromSlice([]string{"x", "y"})
	ok, err := g.Skip()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"y"}, drain(t, g))

	ok, err = g.Skip()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetter_EOFLeavesStateUntouched(t *testing.T) {
	g := FromSlice([]string{"only"})
	assert.False(t, g.EOF())
	assert.False(t, g.EOF())
	assert.Equal(t, 0, g.Count())
	assert.Equal(t, []string{"only"}, drain(t, g))
	assert.True(t, g.EOF())
}

func TestGetter_PeekUngetTransparent(t *testing.T) {
	input := []int{5, 6, 7, 8}
	plain := drain(t, FromSlice(input))

	g := FromSlice(input)
	var got []int
	for i := 0; ; i++ {
		if i%2 == 0 {
			g.Peek()
			g.EOF()
		}
		item, ok, err := g.Get()
		require.NoError(t, err)
		if !ok {
			break
		}
		if i == 1 {
			g.Unget(item)
			item, _, _ = g.Get()
		}
		got = append(got, item)
	}
	assert.Equal(t, plain, got)
}

func TestGetter_ErrorIsSticky(t *testing.T) {
	boom := errors.New("boom")
	g := New(func() (int, bool, error) { return 0, false, boom })
	assert.False(t, g.EOF(), "errors are not end of input")
	_, _, err := g.Get()
	assert.ErrorIs(t, err, boom)
	_, _, err = g.Get()
	assert.ErrorIs(t, err, boom)
}

func TestGetter_Count(t *testing.T) {
	g := FromSlice([]string{"a", "b"})
	g.Get()
	g.Get()
	assert.Equal(t, 2, g.Count())
	g.Unget("b")
	assert.Equal(t, 1, g.Count())
	assert.Equal(t, 1, g.Buffered())
}
