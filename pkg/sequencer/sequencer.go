// Package sequencer defines how content extractors write the structure they
// derive from an input stream into the value model.
package sequencer

import (
	"context"
	"io"

	"github.com/duynguyendang/contentgraph/pkg/property"
	"github.com/duynguyendang/contentgraph/pkg/value"
)

// Output receives the nodes and properties a sequencer produces. Node paths
// are relative to wherever the output is eventually stored.
type Output interface {
	// SetProperty sets name on the node at path. Calling it with no values
	// removes the property.
	SetProperty(path *value.Path, name value.Name, values ...any) error
	// SetReference sets name to path values pointing at other nodes.
	SetReference(path *value.Path, name value.Name, paths ...*value.Path) error
}

// Context carries what a sequencer knows about its input.
type Context struct {
	Values          *value.ValueFactories
	InputPath       *value.Path
	InputProperties []property.Property
}

// InputProperty returns the input property called name.
func (c *Context) InputProperty(name value.Name) (property.Property, bool) {
	for _, p := range c.InputProperties {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Sequencer extracts structure from input.
type Sequencer interface {
	Sequence(ctx context.Context, input io.Reader, out Output, sc *Context) error
}

// Func adapts a function to the Sequencer interface.
type Func func(ctx context.Context, input io.Reader, out Output, sc *Context) error

func (f Func) Sequence(ctx context.Context, input io.Reader, out Output, sc *Context) error {
	return f(ctx, input, out, sc)
}
