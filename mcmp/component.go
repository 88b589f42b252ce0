// Package mcmp implements a hierarchy of Components. Each part of a program
// (the http server, the redis publisher, the file encoder, ...) is given its
// own Component, which holds configuration parameters, lifecycle hooks and log
// annotations for that part.
package mcmp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Nick-ccq/k10-base64/mctx"
)

type child struct {
	*Component
	name string
}

// Component describes a single component of a program, and holds onto
// key/values for that component for use by the packages which instantiate
// it.
//
// Components can spawn child Components, each with a blank key/value
// namespace. Children are differentiated from each other by name, and a
// Component's Path (the sequence of names of its ancestors) identifies it
// within the whole hierarchy. The root Component is created with:
//
//	new(Component)
//
// Methods on Component are thread-safe.
type Component struct {
	l sync.RWMutex

	path     []string
	parent   *Component
	children []child

	kv  map[interface{}]interface{}
	ctx context.Context
}

// SetValue sets the given key to the given value on the Component, overwriting
// any previous value for that key.
func (c *Component) SetValue(key, value interface{}) {
	c.l.Lock()
	defer c.l.Unlock()
	if c.kv == nil {
		c.kv = make(map[interface{}]interface{}, 1)
	}
	c.kv[key] = value
}

func (c *Component) value(key interface{}) (interface{}, bool) {
	c.l.RLock()
	defer c.l.RUnlock()
	value, ok := c.kv[key]
	return value, ok
}

// Value returns the value which has been set for the given key, or nil.
func (c *Component) Value(key interface{}) interface{} {
	value, _ := c.value(key)
	return value
}

// HasValue returns true if the given key has had a value set on it with
// SetValue.
func (c *Component) HasValue(key interface{}) bool {
	_, ok := c.value(key)
	return ok
}

// InheritedValue looks for the key on the Component, then on its parent, and
// so on up to the root. If no Component has the key then false is returned.
func (c *Component) InheritedValue(key interface{}) (interface{}, bool) {
	if value, ok := c.value(key); ok {
		return value, ok
	} else if c.parent == nil {
		return nil, false
	}
	return c.parent.InheritedValue(key)
}

// Child returns a new child of the Component with the given name. The child's
// Path is the receiver's Path with name appended. The child does not inherit
// any of the receiver's key/value pairs.
//
// If a child of the given name has already been created this method will panic.
func (c *Component) Child(name string) *Component {
	c.l.Lock()
	defer c.l.Unlock()
	for _, child := range c.children {
		if child.name == name {
			panic(fmt.Sprintf("child with name %q already exists", name))
		}
	}

	path := make([]string, len(c.path), len(c.path)+1)
	copy(path, c.path)
	childComp := &Component{
		path:   append(path, name),
		parent: c,
	}
	c.children = append(c.children, child{name: name, Component: childComp})
	return childComp
}

// Children returns all Components created via the Child method on this
// Component, in the order they were created.
func (c *Component) Children() []*Component {
	c.l.RLock()
	defer c.l.RUnlock()
	children := make([]*Component, len(c.children))
	for i := range c.children {
		children[i] = c.children[i].Component
	}
	return children
}

// Name returns the name this Component was created with, or false if it is
// the root Component.
func (c *Component) Name() (string, bool) {
	c.l.RLock()
	defer c.l.RUnlock()
	if len(c.path) == 0 {
		return "", false
	}
	return c.path[len(c.path)-1], true
}

// Path returns the sequence of names which were passed into Child calls in
// order to create this Component.
//
//	root := new(Component)
//	srv := root.Child("http")
//	lis := srv.Child("listener")
//	fmt.Printf("%#v\n", root.Path()) // []string(nil)
//	fmt.Printf("%#v\n", lis.Path())  // []string{"http", "listener"}
//
func (c *Component) Path() []string {
	c.l.RLock()
	defer c.l.RUnlock()
	return c.path
}

func (c *Component) pathStr() string {
	path := make([]string, len(c.path))
	for i := range c.path {
		path[i] = strings.ReplaceAll(c.path[i], "/", `\/`)
	}
	return "/" + strings.Join(path, "/")
}

type annotateKey string

func (c *Component) getCtx() context.Context {
	if c.ctx == nil {
		c.ctx = mctx.Annotated(annotateKey("componentPath"), c.pathStr())
	}
	return c.ctx
}

// Annotate annotates the Component's internal Context in-place, so the
// annotations are included in all future calls to Context.
func (c *Component) Annotate(kv ...interface{}) {
	c.l.Lock()
	defer c.l.Unlock()
	c.ctx = mctx.Annotate(c.getCtx(), kv...)
}

// Context returns a Context annotated with the Component's path and anything
// passed to Annotate.
func (c *Component) Context() context.Context {
	c.l.Lock()
	defer c.l.Unlock()
	return c.getCtx()
}

// BreadthFirstVisit visits this Component and all of its descendants in
// breadth-first order. If the callback returns false no further Components
// are visited.
func BreadthFirstVisit(c *Component, callback func(*Component) bool) {
	queue := []*Component{c}
	for len(queue) > 0 {
		if !callback(queue[0]) {
			return
		}
		queue = append(queue, queue[0].Children()...)
		queue = queue[1:]
	}
}
