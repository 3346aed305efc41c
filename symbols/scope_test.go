package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContext_Builtins(t *testing.T) {
	c := NewContext("custom")
	assert.True(t, c.AtGlobalLevel())
	assert.True(t, c.Has("console"))
	assert.True(t, c.Has("custom"))
	assert.False(t, c.Has("nope"))
	assert.Equal(t, GlobalScope, c.Current().Name)
}

func TestContext_Nesting(t *testing.T) {
	c := NewContext()
	c.BeginScope("f", "a", "b")
	assert.False(t, c.AtGlobalLevel())
	c.Add("local")
	c.AddGlobal("g")
	c.BeginScope("inner")
	assert.Equal(t, 3, c.Depth())
	assert.True(t, c.Has("a"))
	assert.True(t, c.Has("local"))
	assert.True(t, c.Has("g"))
	c.EndScope()

	f := c.EndScope()
	assert.Equal(t, []string{"a", "b", "local"}, f.Names())
	assert.True(t, c.AtGlobalLevel())
	assert.False(t, c.Has("a"))
	assert.True(t, c.Has("g"))

	closed := c.Closed()
	assert.Len(t, closed, 2)
	assert.Equal(t, "inner", closed[0].Name)
	assert.Equal(t, "f", closed[1].Name)
}

func TestContext_EndScopeAtGlobalPanics(t *testing.T) {
	c := NewContext()
	assert.Panics(t, func() { c.EndScope() })
}

func TestScope_AddReportsNew(t *testing.T) {
	s := NewScope("s", "x", "x")
	assert.Equal(t, 1, s.Len())
	assert.False(t, s.Add("x"))
	assert.True(t, s.Add("y"))
	assert.Equal(t, []string{"x", "y"}, s.Names())
}
