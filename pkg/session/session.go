package session

import (
	"sync"

	"github.com/google/uuid"
)

// Context holds the session identifier for one application lifetime. It is
// created once by the composition root and passed to whatever needs the id.
type Context struct {
	mu      sync.Mutex
	id      string
	created bool
	newID   func() string
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithIDGenerator replaces the UUID v4 generator.
func WithIDGenerator(gen func() string) ContextOption {
	return func(c *Context) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// NewContext creates a Context with no identifier yet.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{newID: uuid.NewString}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCreateID returns the session identifier, generating it on first call.
// Later calls return the same value, even if the generator returned "".
func (c *Context) GetOrCreateID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.created {
		c.id = c.newID()
		c.created = true
	}
	return c.id
}

// ID returns the identifier without creating one. ok reports whether it has
// been created.
func (c *Context) ID() (id string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id, c.created
}
