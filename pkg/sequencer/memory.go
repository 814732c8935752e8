package sequencer

import (
	"fmt"
	"slices"
	"sync"

	cgerrors "github.com/duynguyendang/contentgraph/pkg/common/errors"
	"github.com/duynguyendang/contentgraph/pkg/property"
	"github.com/duynguyendang/contentgraph/pkg/value"
)

// MemoryOutput records sequencer output in memory. It is safe for concurrent
// use.
type MemoryOutput struct {
	factory *property.Factory

	mu    sync.Mutex
	nodes map[string]*node
}

type node struct {
	path  *value.Path
	props map[value.Name]property.Property
}

var _ Output = (*MemoryOutput)(nil)

// NewMemoryOutput records properties built by factory. A nil factory uses
// default value factories.
func NewMemoryOutput(factory *property.Factory) *MemoryOutput {
	if factory == nil {
		factory = property.NewFactory(nil)
	}
	return &MemoryOutput{factory: factory, nodes: make(map[string]*node)}
}

func (o *MemoryOutput) SetProperty(path *value.Path, name value.Name, values ...any) error {
	if len(values) == 0 {
		return o.remove(path, name)
	}
	p, err := o.factory.Create(name, values...)
	if err != nil {
		return err
	}
	return o.put(path, p)
}

func (o *MemoryOutput) SetReference(path *value.Path, name value.Name, paths ...*value.Path) error {
	if len(paths) == 0 {
		return o.remove(path, name)
	}
	values := make([]any, len(paths))
	for i, p := range paths {
		values[i] = p
	}
	p, err := o.factory.CreateTyped(name, value.TypePath, values...)
	if err != nil {
		return err
	}
	return o.put(path, p)
}

// key identifies a node independently of how its path was written.
func key(path *value.Path) (string, *value.Path, error) {
	if path == nil {
		return "", nil, cgerrors.NewInvalidPathError("", "node path is required")
	}
	norm, err := path.NormalizedPath()
	if err != nil {
		return "", nil, fmt.Errorf("node path %s: %w", path, err)
	}
	return norm.String(), norm, nil
}

func (o *MemoryOutput) put(path *value.Path, p property.Property) error {
	k, norm, err := key(path)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	n, ok := o.nodes[k]
	if !ok {
		n = &node{path: norm, props: make(map[value.Name]property.Property)}
		o.nodes[k] = n
	}
	n.props[p.Name()] = p
	return nil
}

func (o *MemoryOutput) remove(path *value.Path, name value.Name) error {
	k, _, err := key(path)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if n, ok := o.nodes[k]; ok {
		delete(n.props, name)
		if len(n.props) == 0 {
			delete(o.nodes, k)
		}
	}
	return nil
}

// Property returns the property name of the node at path.
func (o *MemoryOutput) Property(path *value.Path, name value.Name) (property.Property, bool) {
	k, _, err := key(path)
	if err != nil {
		return nil, false
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	n, ok := o.nodes[k]
	if !ok {
		return nil, false
	}
	p, ok := n.props[name]
	return p, ok
}

// Properties returns the properties of the node at path ordered by name.
func (o *MemoryOutput) Properties(path *value.Path) []property.Property {
	k, _, err := key(path)
	if err != nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	n, ok := o.nodes[k]
	if !ok {
		return nil
	}
	props := make([]property.Property, 0, len(n.props))
	for _, p := range n.props {
		props = append(props, p)
	}
	slices.SortFunc(props, func(a, b property.Property) int { return a.Name().Compare(b.Name()) })
	return props
}

// Paths returns the normalized paths of all nodes with properties, in path
// order.
func (o *MemoryOutput) Paths() []*value.Path {
	o.mu.Lock()
	paths := make([]*value.Path, 0, len(o.nodes))
	for _, n := range o.nodes {
		paths = append(paths, n.path)
	}
	o.mu.Unlock()
	slices.SortFunc(paths, (*value.Path).Compare)
	return paths
}

// Len returns the number of nodes with properties.
func (o *MemoryOutput) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.nodes)
}
