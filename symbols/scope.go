// Package symbols tracks lexical scopes over a generic expression tree
// and classifies identifiers as imported, exported, used or missing.
package symbols

import "slices"

// GlobalScope is the name of the outermost scope.
const GlobalScope = "global"

// Builtins are the names every Context starts with.
var Builtins = []string{
	"undefined", "NaN", "Infinity", "globalThis", "console", "arguments",
	"Object", "Array", "String", "Number", "Boolean", "Symbol", "BigInt",
	"Function", "Math", "JSON", "Date", "RegExp", "Promise", "Proxy", "Reflect",
	"Map", "Set", "WeakMap", "WeakSet",
	"Error", "TypeError", "RangeError", "SyntaxError", "ReferenceError",
	"parseInt", "parseFloat", "isNaN", "isFinite",
	"encodeURI", "decodeURI", "encodeURIComponent", "decodeURIComponent",
	"setTimeout", "clearTimeout", "setInterval", "clearInterval",
	"require", "module", "exports",
}

// Scope is a named set of symbols.
type Scope struct {
	Name    string
	symbols map[string]struct{}
	order   []string
}

// NewScope creates a scope holding the initial names.
func NewScope(name string, initial ...string) *Scope {
	s := &Scope{Name: name, symbols: make(map[string]struct{}, len(initial))}
	for _, n := range initial {
		s.Add(n)
	}
	return s
}

// Add inserts name and reports whether it was new.
func (s *Scope) Add(name string) bool {
	if _, ok := s.symbols[name]; ok {
		return false
	}
	s.symbols[name] = struct{}{}
	s.order = append(s.order, name)
	return true
}

func (s *Scope) Has(name string) bool {
	_, ok := s.symbols[name]
	return ok
}

// Names returns the symbols in insertion order.
func (s *Scope) Names() []string { return slices.Clone(s.order) }

func (s *Scope) Len() int { return len(s.order) }

// Context is a stack of scopes over a global scope. Calls to BeginScope and
// EndScope must nest strictly.
type Context struct {
	scopes []*Scope
	closed []*Scope
}

// NewContext returns a context whose global scope holds Builtins and extra.
func NewContext(extra ...string) *Context {
	global := NewScope(GlobalScope, Builtins...)
	for _, n := range extra {
		global.Add(n)
	}
	return &Context{scopes: []*Scope{global}}
}

// Global returns the global scope.
func (c *Context) Global() *Scope { return c.scopes[0] }

// Current returns the innermost scope.
func (c *Context) Current() *Scope { return c.scopes[len(c.scopes)-1] }

// Depth returns the number of scopes on the stack, 1 at global level.
func (c *Context) Depth() int { return len(c.scopes) }

// AtGlobalLevel reports whether only the global scope is active.
func (c *Context) AtGlobalLevel() bool { return len(c.scopes) == 1 }

// AddGlobal adds name to the global scope regardless of nesting.
func (c *Context) AddGlobal(name string) bool { return c.Global().Add(name) }

// Add adds name to the innermost scope.
func (c *Context) Add(name string) bool { return c.Current().Add(name) }

// BeginScope pushes a new scope seeded with params.
func (c *Context) BeginScope(name string, params ...string) *Scope {
	s := NewScope(name, params...)
	c.scopes = append(c.scopes, s)
	return s
}

// EndScope pops the innermost scope. Popping the global scope panics.
func (c *Context) EndScope() *Scope {
	if len(c.scopes) == 1 {
		panic("symbols: EndScope without matching BeginScope")
	}
	s := c.Current()
	c.scopes = c.scopes[:len(c.scopes)-1]
	c.closed = append(c.closed, s)
	return s
}

// Has searches for name from the innermost scope outward.
func (c *Context) Has(name string) bool {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if c.scopes[i].Has(name) {
			return true
		}
	}
	return false
}

// Closed returns every scope ended so far, in closing order.
func (c *Context) Closed() []*Scope { return slices.Clone(c.closed) }
