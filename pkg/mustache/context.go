package mustache

import "strings"

// Context is one scope of the view hierarchy. Lookups search the nearest
// scope first and walk towards the root. A Context belongs to a single render
// call and is not safe for concurrent use.
type Context struct {
	view   any
	parent *Context
	cache  map[string]any
}

// NewContext returns a root Context wrapping view.
func NewContext(view any) *Context {
	return &Context{view: view}
}

// View returns the value wrapped by this scope.
func (c *Context) View() any { return c.view }

// Parent returns the enclosing scope, or nil for the root.
func (c *Context) Parent() *Context { return c.parent }

// Push returns a child scope wrapping view. A nil view has nothing to look up,
// so the receiver itself is returned. Strings, numbers and other primitives
// do get their own scope so that "." inside a section yields the element;
// names looked up on them fall through to the parent.
func (c *Context) Push(view any) *Context {
	if isNil(view) {
		return c
	}
	return &Context{view: view, parent: c}
}

// Lookup resolves name against the chain and returns nil when it is missing.
//
// "." is the current view. A bare name is looked up scope by scope, and a
// scope where the name is present ends the search even if the value is nil.
// A dotted name "a.b.c" finds "a" the same way and then resolves the rest
// inside that value only; a nil or missing step yields nil. Functions taking
// no arguments are called and their result is returned.
func (c *Context) Lookup(name string) any {
	value, ok := c.cache[name]
	if !ok {
		value = c.resolve(name)
		if c.cache == nil {
			c.cache = make(map[string]any, 4)
		}
		c.cache[name] = value
	}
	return call(value)
}

func (c *Context) resolve(name string) any {
	if name == "." {
		return c.view
	}

	var rest []string
	if i := strings.IndexByte(name, '.'); i > 0 {
		rest = strings.Split(name[i+1:], ".")
		name = name[:i]
	}

	for ctx := c; ctx != nil; ctx = ctx.parent {
		value, found := property(ctx.view, name)
		if !found {
			continue
		}
		for _, seg := range rest {
			value = call(value)
			if isNil(value) {
				return nil
			}
			if value, found = property(value, seg); !found {
				return nil
			}
		}
		return value
	}
	return nil
}
