package value

import (
	"encoding/binary"
	"iter"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	cgerrors "github.com/duynguyendang/contentgraph/pkg/common/errors"
	"github.com/duynguyendang/contentgraph/pkg/namespace"
	"github.com/duynguyendang/contentgraph/pkg/text"
)

// Delimiter separates path segments.
const Delimiter = "/"

type pathKind uint8

const (
	kindSegments pathKind = iota
	kindRoot
	kindIdentifier
)

// Path is an immutable sequence of segments plus an absolute flag.
//
// A path is either the root, an identifier path holding one opaque segment, or
// a plain segment list. A plain path built by appending one segment keeps a
// pointer to its parent and flattens the full list on first use.
type Path struct {
	kind       pathKind
	absolute   bool
	normalized bool
	size       int

	segments []Segment

	// child representation
	parent *Path
	last   Segment
	flat   atomic.Pointer[[]Segment]

	hash atomic.Uint64
}

// Shared singletons. All of them are built here so no initialization order
// between them matters.
var (
	SelfSegment   = Segment{name: SelfName, index: DefaultIndex}
	ParentSegment = Segment{name: ParentName, index: DefaultIndex}

	RootPath          = &Path{kind: kindRoot, absolute: true, normalized: true}
	SelfPath          = &Path{kind: kindSegments, size: 1, segments: []Segment{SelfSegment}}
	ParentPath        = &Path{kind: kindSegments, size: 1, segments: []Segment{ParentSegment}, normalized: true}
	EmptyRelativePath = &Path{kind: kindSegments, normalized: true}
)

// newPath builds a plain path, reusing the singletons where possible. segs is
// owned by the result.
func newPath(segs []Segment, absolute bool) *Path {
	switch {
	case len(segs) == 0 && absolute:
		return RootPath
	case len(segs) == 0:
		return EmptyRelativePath
	case len(segs) == 1 && absolute:
		return newChildPath(RootPath, segs[0])
	}
	return &Path{
		kind:       kindSegments,
		absolute:   absolute,
		normalized: isNormalized(segs, absolute),
		size:       len(segs),
		segments:   segs,
	}
}

func newChildPath(parent *Path, seg Segment) *Path {
	if parent.size == 0 && !parent.absolute {
		return newPath([]Segment{seg}, false)
	}
	p := &Path{
		kind:     kindSegments,
		absolute: parent.absolute,
		size:     parent.size + 1,
		parent:   parent,
		last:     seg,
	}
	switch {
	case seg.IsSelfReference():
		p.normalized = false
	case seg.IsParentReference():
		p.normalized = parent.normalized && !parent.absolute &&
			(parent.size == 0 || parent.lastSegment().IsParentReference())
	default:
		p.normalized = parent.normalized
	}
	return p
}

func newIdentifierPath(seg Segment) *Path {
	return &Path{
		kind:       kindIdentifier,
		absolute:   true,
		normalized: true,
		size:       1,
		segments:   []Segment{seg},
	}
}

func isNormalized(segs []Segment, absolute bool) bool {
	seenName := false
	for _, s := range segs {
		switch {
		case s.IsSelfReference():
			return false
		case s.IsParentReference():
			if absolute || seenName {
				return false
			}
		default:
			seenName = true
		}
	}
	return true
}

// segs returns the shared segment slice; callers must not modify it.
func (p *Path) segs() []Segment {
	if p.parent == nil {
		return p.segments
	}
	if cached := p.flat.Load(); cached != nil {
		return *cached
	}
	parentSegs := p.parent.segs()
	flat := make([]Segment, len(parentSegs), len(parentSegs)+1)
	copy(flat, parentSegs)
	flat = append(flat, p.last)
	p.flat.CompareAndSwap(nil, &flat)
	return *p.flat.Load()
}

func (p *Path) lastSegment() Segment {
	if p.parent != nil {
		return p.last
	}
	if p.size == 0 {
		return Segment{}
	}
	return p.segments[p.size-1]
}

func (p *Path) Size() int          { return p.size }
func (p *Path) IsRoot() bool       { return p.kind == kindRoot }
func (p *Path) IsAbsolute() bool   { return p.absolute }
func (p *Path) IsNormalized() bool { return p.normalized }
func (p *Path) IsIdentifier() bool { return p.kind == kindIdentifier }

// Segments returns a copy of the segments.
func (p *Path) Segments() []Segment {
	return slices.Clone(p.segs())
}

// Segment returns the segment at i.
func (p *Path) Segment(i int) (Segment, error) {
	if i < 0 || i >= p.size {
		return Segment{}, cgerrors.OutOfBounds(p.String(), "segment index %d outside [0,%d)", i, p.size)
	}
	if i == p.size-1 {
		return p.lastSegment(), nil
	}
	return p.segs()[i], nil
}

// LastSegment returns the final segment; ok is false for the root and the
// empty relative path.
func (p *Path) LastSegment() (Segment, bool) {
	if p.size == 0 {
		return Segment{}, false
	}
	return p.lastSegment(), true
}

// All iterates the segments with their positions.
func (p *Path) All() iter.Seq2[int, Segment] {
	return func(yield func(int, Segment) bool) {
		for i, s := range p.segs() {
			if !yield(i, s) {
				return
			}
		}
	}
}

// Parent returns the path without its last segment, or nil when there is none:
// for the root, identifier paths and single-segment relative paths.
func (p *Path) Parent() *Path {
	switch {
	case p.kind != kindSegments, p.size == 0:
		return nil
	case p.parent != nil:
		return p.parent
	case p.size == 1:
		if p.absolute {
			return RootPath
		}
		return nil
	}
	return newPath(p.segs()[:p.size-1:p.size-1], p.absolute)
}

// Ancestor returns the ancestor n levels up. n == 0 is the path itself and
// n == Size() is the root of an absolute path.
func (p *Path) Ancestor(n int) (*Path, error) {
	if n == 0 {
		return p, nil
	}
	if p.kind == kindIdentifier {
		return nil, cgerrors.NewInvalidPathError(p.String(), "an identifier path has no ancestors")
	}
	if n < 0 || n > p.size {
		return nil, cgerrors.NewInvalidPathError(p.String(), "ancestor degree %d exceeds path size %d", n, p.size)
	}
	if n == p.size {
		if p.absolute {
			return RootPath, nil
		}
		return nil, cgerrors.NewInvalidPathError(p.String(), "a relative path has no ancestor of degree %d", n)
	}
	if n == 1 && p.parent != nil {
		return p.parent, nil
	}
	return newPath(p.segs()[:p.size-n:p.size-n], p.absolute), nil
}

// NormalizedPath removes self references and cancels each parent reference
// against the preceding name. Leading parent references of a relative path
// are kept. A fully cancelled path becomes RootPath or SelfPath.
func (p *Path) NormalizedPath() (*Path, error) {
	if p.normalized {
		return p, nil
	}
	var out []Segment
	for _, s := range p.segs() {
		switch {
		case s.IsSelfReference():
			continue
		case s.IsParentReference():
			if len(out) == 0 {
				if p.absolute {
					return nil, cgerrors.NewInvalidPathError(p.String(), "absolute path cannot be normalized above the root")
				}
				out = append(out, s)
				continue
			}
			if !out[len(out)-1].IsParentReference() {
				out = out[:len(out)-1]
				continue
			}
			out = append(out, s)
		default:
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		if p.absolute {
			return RootPath, nil
		}
		return SelfPath, nil
	}
	return newPath(out, p.absolute), nil
}

// CanonicalPath returns the normalized form of an absolute path.
func (p *Path) CanonicalPath() (*Path, error) {
	if !p.absolute {
		return nil, cgerrors.NewInvalidPathError(p.String(), "a relative path has no canonical form")
	}
	return p.NormalizedPath()
}

// RelativeTo returns the relative path that leads from start to p.
func (p *Path) RelativeTo(start *Path) (*Path, error) {
	if start == nil {
		return nil, cgerrors.NewInvalidPathError(p.String(), "starting path is required")
	}
	if p.IsIdentifier() || start.IsIdentifier() {
		return nil, cgerrors.NewInvalidPathError(p.String(), "identifier paths cannot be relativized")
	}
	if !start.absolute {
		return nil, cgerrors.NewInvalidPathError(start.String(), "starting path must be absolute")
	}
	if !p.absolute {
		return nil, cgerrors.NewInvalidPathError(p.String(), "path must be absolute")
	}
	norm, err := p.NormalizedPath()
	if err != nil {
		return nil, err
	}
	startNorm, err := start.NormalizedPath()
	if err != nil {
		return nil, err
	}

	to, from := norm.segs(), startNorm.segs()
	common := 0
	for common < len(to) && common < len(from) && to[common] == from[common] {
		common++
	}
	out := make([]Segment, 0, len(from)-common+len(to)-common)
	for range len(from) - common {
		out = append(out, ParentSegment)
	}
	out = append(out, to[common:]...)
	if len(out) == 0 {
		return SelfPath, nil
	}
	return newPath(out, false), nil
}

// Resolve resolves the relative path rel against the absolute path p.
func (p *Path) Resolve(rel *Path) (*Path, error) {
	if rel == nil {
		return nil, cgerrors.NewInvalidPathError(p.String(), "relative path is required")
	}
	if p.IsIdentifier() || rel.IsIdentifier() {
		return nil, cgerrors.NewInvalidPathError(p.String(), "identifier paths cannot be resolved")
	}
	if !p.absolute {
		return nil, cgerrors.NewInvalidPathError(p.String(), "cannot resolve against a relative path")
	}
	if rel.absolute {
		return nil, cgerrors.NewInvalidPathError(rel.String(), "path to resolve must be relative")
	}
	norm, err := rel.NormalizedPath()
	if err != nil {
		return nil, err
	}
	if norm.size == 1 {
		switch s := norm.lastSegment(); {
		case s.IsSelfReference():
			return p, nil
		case s.IsParentReference():
			base, err := p.NormalizedPath()
			if err != nil {
				return nil, err
			}
			parent := base.Parent()
			if parent == nil {
				return nil, cgerrors.NewInvalidPathError(p.String(), "the root has no parent")
			}
			return parent, nil
		}
	}
	segs := make([]Segment, 0, p.size+norm.size)
	segs = append(segs, p.segs()...)
	segs = append(segs, norm.segs()...)
	return newPath(segs, true).NormalizedPath()
}

// ResolveAgainst resolves p against the absolute path base.
func (p *Path) ResolveAgainst(base *Path) (*Path, error) {
	if base == nil {
		return nil, cgerrors.NewInvalidPathError(p.String(), "base path is required")
	}
	return base.Resolve(p)
}

// Subpath returns the segments in [begin, end), keeping p's absolute flag.
func (p *Path) Subpath(begin, end int) (*Path, error) {
	if begin < 0 || end > p.size || begin > end {
		return nil, cgerrors.OutOfBounds(p.String(), "subpath [%d,%d) outside [0,%d]", begin, end, p.size)
	}
	if begin == 0 && end == p.size {
		return p, nil
	}
	if p.kind == kindIdentifier {
		return RootPath, nil
	}
	return newPath(slices.Clone(p.segs()[begin:end]), p.absolute), nil
}

// SubpathFrom returns the segments from begin to the end.
func (p *Path) SubpathFrom(begin int) (*Path, error) {
	return p.Subpath(begin, p.size)
}

// IsAncestorOf reports whether p is a proper prefix of d. Identifier paths are
// never ancestors or descendants.
func (p *Path) IsAncestorOf(d *Path) bool {
	if d == nil || p == d || p.IsIdentifier() || d.IsIdentifier() || p.absolute != d.absolute {
		return false
	}
	if p.IsRoot() {
		return !d.IsRoot()
	}
	return p.size < d.size && p.hasPrefixOf(d)
}

func (p *Path) IsDescendantOf(a *Path) bool {
	return a != nil && a.IsAncestorOf(p)
}

// IsAtOrAbove reports whether p equals d or is one of its ancestors.
func (p *Path) IsAtOrAbove(d *Path) bool {
	if d == nil {
		return false
	}
	if p.IsIdentifier() || d.IsIdentifier() {
		return p.Equal(d)
	}
	return p.absolute == d.absolute && p.size <= d.size && p.hasPrefixOf(d)
}

func (p *Path) IsAtOrBelow(a *Path) bool {
	return a != nil && a.IsAtOrAbove(p)
}

func (p *Path) hasPrefixOf(d *Path) bool {
	mine, theirs := p.segs(), d.segs()
	for i := range mine {
		if mine[i] != theirs[i] {
			return false
		}
	}
	return true
}

// HasSameAncestor reports whether p and o share the same parent.
func (p *Path) HasSameAncestor(o *Path) bool {
	if o == nil || p.IsIdentifier() || o.IsIdentifier() {
		return false
	}
	if p.absolute != o.absolute || p.size != o.size || p.size == 0 {
		return false
	}
	mine, theirs := p.segs(), o.segs()
	for i := 0; i < p.size-1; i++ {
		if mine[i] != theirs[i] {
			return false
		}
	}
	return true
}

// CommonAncestor returns the deepest path that is at or above both absolute
// paths, comparing their normalized forms.
func (p *Path) CommonAncestor(o *Path) (*Path, error) {
	if o == nil {
		return nil, cgerrors.NewInvalidPathError(p.String(), "other path is required")
	}
	if p.IsIdentifier() || o.IsIdentifier() {
		return nil, cgerrors.NewInvalidPathError(p.String(), "identifier paths have no common ancestor")
	}
	if !p.absolute || !o.absolute {
		return nil, cgerrors.NewInvalidPathError(p.String(), "common ancestor requires absolute paths")
	}
	if o.IsRoot() {
		return o, nil
	}
	norm, err := p.NormalizedPath()
	if err != nil {
		return nil, err
	}
	other, err := o.NormalizedPath()
	if err != nil {
		return nil, err
	}
	a, b := norm.segs(), other.segs()
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	if n == 0 {
		return RootPath, nil
	}
	return norm.Subpath(0, n)
}

// EndsWith reports whether the last segment has the given name.
func (p *Path) EndsWith(name Name) bool {
	last, ok := p.LastSegment()
	return ok && !last.identifier && last.name == name
}

// EndsWithIndexed reports whether the last segment has the given name and index.
func (p *Path) EndsWithIndexed(name Name, index int) bool {
	last, ok := p.LastSegment()
	return ok && !last.identifier && last.name == name && last.index == index
}

// IsSameAs reports whether both paths denote the same location once
// normalized.
func (p *Path) IsSameAs(o *Path) bool {
	if p.Equal(o) {
		return true
	}
	if o == nil {
		return false
	}
	a, errA := p.NormalizedPath()
	b, errB := o.NormalizedPath()
	return errA == nil && errB == nil && a.Equal(b)
}

// Equal compares structure, ignoring how either path is represented.
func (p *Path) Equal(o *Path) bool {
	if p == o {
		return true
	}
	if p == nil || o == nil {
		return false
	}
	if p.IsRoot() != o.IsRoot() || p.IsIdentifier() != o.IsIdentifier() ||
		p.absolute != o.absolute || p.size != o.size {
		return false
	}
	if p.size == 0 {
		return true
	}
	// The last segment is the most likely to differ.
	if p.lastSegment() != o.lastSegment() {
		return false
	}
	if p.hash.Load() != 0 && o.hash.Load() != 0 && p.hash.Load() != o.hash.Load() {
		return false
	}
	mine, theirs := p.segs(), o.segs()
	for i := 0; i < p.size-1; i++ {
		if mine[i] != theirs[i] {
			return false
		}
	}
	return true
}

// Compare orders segment by segment; a proper prefix sorts first and relative
// paths sort before absolute ones with the same segments.
func (p *Path) Compare(o *Path) int {
	if p == o {
		return 0
	}
	mine, theirs := p.segs(), o.segs()
	for i := 0; i < len(mine) && i < len(theirs); i++ {
		if c := mine[i].Compare(theirs[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(mine) < len(theirs):
		return -1
	case len(mine) > len(theirs):
		return 1
	case p.absolute == o.absolute:
		return 0
	case p.absolute:
		return 1
	default:
		return -1
	}
}

// Hash returns an order-sensitive hash, computed once.
func (p *Path) Hash() uint64 {
	if h := p.hash.Load(); h != 0 {
		return h
	}
	d := xxhash.New()
	var buf [8]byte
	flags := byte(p.kind)
	if p.absolute {
		flags |= 0x80
	}
	_, _ = d.Write([]byte{flags})
	for _, s := range p.segs() {
		_, _ = d.WriteString(s.name.namespaceURI)
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(s.name.localName)
		binary.LittleEndian.PutUint64(buf[:], uint64(s.index))
		_, _ = d.Write(buf[:])
		if s.identifier {
			_, _ = d.Write([]byte{1})
		}
	}
	h := d.Sum64()
	if h == 0 {
		h = 1
	}
	p.hash.Store(h)
	return h
}

func (p *Path) String() string {
	return p.StringWith(nil, nil, nil)
}

// StringWith renders the path, showing prefixes from reg. enc escapes names
// and delim re-escapes the structural characters including the delimiter.
func (p *Path) StringWith(reg namespace.Registry, enc, delim text.Encoder) string {
	sep := encodeDelim(delim, Delimiter)
	switch p.kind {
	case kindRoot:
		return sep
	case kindIdentifier:
		return p.segments[0].StringWith(reg, enc, delim)
	}
	var sb strings.Builder
	if p.absolute {
		sb.WriteString(sep)
	}
	for i, s := range p.segs() {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(s.StringWith(reg, enc, delim))
	}
	return sb.String()
}

// MarshalText renders the registry-free form.
func (p *Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// GoString helps when paths show up in test failures.
func (p *Path) GoString() string {
	return "Path(" + strconv.Quote(p.String()) + ")"
}
