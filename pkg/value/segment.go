package value

import (
	"cmp"
	"strconv"

	"github.com/duynguyendang/contentgraph/pkg/namespace"
	"github.com/duynguyendang/contentgraph/pkg/text"
)

// DefaultIndex is the same-name-sibling index of a segment written without one.
const DefaultIndex = 1

// Segment is one element of a Path: a name with a same-name-sibling index, or
// an opaque identifier.
type Segment struct {
	name       Name
	index      int
	identifier bool
}

// NewSegment creates a segment with the default index.
func NewSegment(name Name) Segment {
	return Segment{name: name, index: DefaultIndex}
}

// NewIndexedSegment creates a segment with an explicit index. Self and parent
// references always carry the default index.
func NewIndexedSegment(name Name, index int) Segment {
	if name.IsSelf() || name.IsParent() {
		index = DefaultIndex
	}
	return Segment{name: name, index: index}
}

// NewIdentifierSegment creates the segment of an identifier path.
func NewIdentifierSegment(id string) Segment {
	return Segment{name: Name{localName: id}, index: DefaultIndex, identifier: true}
}

func (s Segment) Name() Name { return s.name }
func (s Segment) Index() int { return s.index }

// HasIndex reports whether the index differs from DefaultIndex and is rendered.
func (s Segment) HasIndex() bool { return s.index != DefaultIndex }

func (s Segment) IsSelfReference() bool   { return !s.identifier && s.name.IsSelf() }
func (s Segment) IsParentReference() bool { return !s.identifier && s.name.IsParent() }
func (s Segment) IsIdentifier() bool      { return s.identifier }

// Identifier returns the opaque id of an identifier segment.
func (s Segment) Identifier() string {
	if !s.identifier {
		return ""
	}
	return s.name.localName
}

// Compare orders by name, then index, then plain before identifier segments.
func (s Segment) Compare(o Segment) int {
	if c := s.name.Compare(o.name); c != 0 {
		return c
	}
	if c := cmp.Compare(s.index, o.index); c != 0 {
		return c
	}
	switch {
	case s.identifier == o.identifier:
		return 0
	case s.identifier:
		return 1
	default:
		return -1
	}
}

func (s Segment) Equal(o Segment) bool { return s == o }

func (s Segment) String() string {
	return s.StringWith(nil, nil, nil)
}

// StringWith renders the segment name through reg and the encoders, followed by
// "[index]" when the index is explicit.
func (s Segment) StringWith(reg namespace.Registry, enc, delim text.Encoder) string {
	if s.identifier {
		return "[" + s.name.localName + "]"
	}
	out := s.name.StringWith(reg, enc, delim)
	if s.HasIndex() {
		out += "[" + strconv.Itoa(s.index) + "]"
	}
	return out
}
