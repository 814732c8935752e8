package value

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	cgerrors "github.com/duynguyendang/contentgraph/pkg/common/errors"
	"github.com/duynguyendang/contentgraph/pkg/text"
)

var (
	errMissingBrace  = errors.New("missing closing brace")
	errEmptySegment  = errors.New("empty segment")
	errBadIndex      = errors.New("malformed same-name-sibling index")
	errIdentifierUse = errors.New("identifier segments only form single-segment absolute paths")
)

// PathFactory parses and assembles paths.
type PathFactory struct {
	dispatcher[*Path]
	names *NameFactory
}

var _ ValueFactory[*Path] = (*PathFactory)(nil)

func NewPathFactory(names *NameFactory) *PathFactory {
	f := &PathFactory{names: names}
	f.dispatcher = dispatcher[*Path]{typ: TypePath, conv: f}
	return f
}

// RootPath returns the root singleton.
func (f *PathFactory) RootPath() *Path { return RootPath }

// CreateString parses the path syntax: '/' separated segments, a leading '/'
// for absolute paths, "." and ".." references, "name[n]" indexes and "[id]"
// identifier paths. A '{' opens a namespace URI that may itself contain '/'.
func (f *PathFactory) CreateString(s string, dec text.Decoder) (*Path, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return EmptyRelativePath, nil
	case Delimiter:
		return RootPath, nil
	case ".":
		return SelfPath, nil
	case "..":
		return ParentPath, nil
	}
	if isIdentifierText(s) {
		return newIdentifierPath(NewIdentifierSegment(s[1 : len(s)-1])), nil
	}

	absolute := strings.HasPrefix(s, Delimiter)
	body := strings.TrimPrefix(s, Delimiter)
	body = strings.TrimSuffix(body, Delimiter)
	if body == "" {
		return RootPath, nil
	}

	parts, err := splitSegments(body)
	if err != nil {
		return nil, f.invalid(s, err)
	}
	segs := make([]Segment, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, f.invalid(s, errEmptySegment)
		}
		seg, err := f.ParseSegment(part, dec)
		if err != nil {
			return nil, f.invalid(s, err)
		}
		if seg.identifier {
			return nil, f.invalid(s, errIdentifierUse)
		}
		segs = append(segs, seg)
	}
	return newPath(segs, absolute), nil
}

// splitSegments splits on '/' outside of "{...}" spans.
func splitSegments(body string) ([]string, error) {
	var parts []string
	start := 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '{':
			end := strings.IndexByte(body[i:], '}')
			if end < 0 {
				return nil, errMissingBrace
			}
			i += end
		case '/':
			parts = append(parts, body[start:i])
			start = i + 1
		}
	}
	return append(parts, body[start:]), nil
}

func isIdentifierText(s string) bool {
	return len(s) >= 2 && s[0] == '[' && s[len(s)-1] == ']'
}

// ParseSegment parses one segment: ".", "..", "[id]" or "name" with an
// optional "[n]" index, n >= 1.
func (f *PathFactory) ParseSegment(s string, dec text.Decoder) (Segment, error) {
	switch s {
	case ".":
		return SelfSegment, nil
	case "..":
		return ParentSegment, nil
	}
	if isIdentifierText(s) {
		return NewIdentifierSegment(s[1 : len(s)-1]), nil
	}

	from := 0
	if strings.HasPrefix(s, "{") {
		if end := strings.IndexByte(s, '}'); end > 0 {
			from = end
		}
	}
	index := DefaultIndex
	namePart := s
	if open := strings.IndexByte(s[from:], '['); open >= 0 {
		open += from
		if !strings.HasSuffix(s, "]") {
			return Segment{}, errBadIndex
		}
		n, err := strconv.Atoi(s[open+1 : len(s)-1])
		if err != nil || n < 1 {
			return Segment{}, errBadIndex
		}
		index, namePart = n, s[:open]
	}
	name, err := f.names.CreateString(namePart, dec)
	if err != nil {
		return Segment{}, err
	}
	return NewIndexedSegment(name, index), nil
}

// CreateName returns the single-segment absolute path "/name".
func (f *PathFactory) CreateName(v Name) (*Path, error) {
	return newChildPath(RootPath, NewSegment(v)), nil
}

func (f *PathFactory) CreatePath(v *Path) (*Path, error) {
	if v == nil {
		return f.reject(nil)
	}
	return v, nil
}

// CreateSegment returns the absolute path holding only v.
func (f *PathFactory) CreateSegment(v Segment) (*Path, error) {
	if v.identifier {
		return newIdentifierPath(v), nil
	}
	return newChildPath(RootPath, v), nil
}

// CreateURI accepts only URIs that denote a single relative segment.
func (f *PathFactory) CreateURI(v *url.URL) (*Path, error) {
	if v == nil {
		return f.reject(nil)
	}
	s := strings.TrimPrefix(v.String(), "./")
	if s == "" || strings.Contains(s, Delimiter) {
		return f.reject(v)
	}
	return f.CreateString(s, nil)
}

// CreateAbsolutePath assembles an absolute path. A single identifier segment
// yields an identifier path.
func (f *PathFactory) CreateAbsolutePath(segs ...Segment) (*Path, error) {
	if len(segs) == 1 && segs[0].identifier {
		return newIdentifierPath(segs[0]), nil
	}
	if err := checkNoIdentifiers(segs); err != nil {
		return nil, err
	}
	return newPath(append([]Segment(nil), segs...), true), nil
}

// CreateRelativePath assembles a relative path.
func (f *PathFactory) CreateRelativePath(segs ...Segment) (*Path, error) {
	if err := checkNoIdentifiers(segs); err != nil {
		return nil, err
	}
	return newPath(append([]Segment(nil), segs...), false), nil
}

// CreateAbsolutePathFromNames assembles an absolute path of default-index
// segments.
func (f *PathFactory) CreateAbsolutePathFromNames(names ...Name) *Path {
	segs := make([]Segment, len(names))
	for i, n := range names {
		segs[i] = NewSegment(n)
	}
	return newPath(segs, true)
}

// CreateRelativePathFromNames assembles a relative path of default-index
// segments.
func (f *PathFactory) CreateRelativePathFromNames(names ...Name) *Path {
	segs := make([]Segment, len(names))
	for i, n := range names {
		segs[i] = NewSegment(n)
	}
	return newPath(segs, false)
}

// CreateChild appends one named segment to parent, sharing parent's storage.
func (f *PathFactory) CreateChild(parent *Path, name Name, index int) (*Path, error) {
	return f.CreateChildSegments(parent, NewIndexedSegment(name, index))
}

// CreateChildSegments appends segs to parent.
func (f *PathFactory) CreateChildSegments(parent *Path, segs ...Segment) (*Path, error) {
	if parent == nil {
		return nil, cgerrors.NewInvalidPathError("", "parent path is required")
	}
	if parent.IsIdentifier() {
		return nil, cgerrors.NewInvalidPathError(parent.String(), "identifier paths cannot be extended")
	}
	if err := checkNoIdentifiers(segs); err != nil {
		return nil, err
	}
	switch len(segs) {
	case 0:
		return parent, nil
	case 1:
		return newChildPath(parent, segs[0]), nil
	}
	all := make([]Segment, 0, parent.size+len(segs))
	all = append(all, parent.segs()...)
	all = append(all, segs...)
	return newPath(all, parent.absolute), nil
}

// CreateFromPaths appends the relative path child to parent.
func (f *PathFactory) CreateFromPaths(parent, child *Path) (*Path, error) {
	if child == nil {
		return nil, cgerrors.NewInvalidPathError("", "child path is required")
	}
	if child.IsIdentifier() || child.absolute {
		if parent != nil && parent.IsRoot() && !child.IsIdentifier() {
			return child, nil
		}
		return nil, cgerrors.NewInvalidPathError(child.String(), "child path must be relative")
	}
	return f.CreateChildSegments(parent, child.segs()...)
}

// CreateFromSubpath parses sub as a relative path and appends it to parent.
func (f *PathFactory) CreateFromSubpath(parent *Path, sub string) (*Path, error) {
	child, err := f.CreateString(strings.TrimPrefix(strings.TrimSpace(sub), Delimiter), nil)
	if err != nil {
		return nil, err
	}
	if child.IsRoot() {
		return parent, nil
	}
	return f.CreateFromPaths(parent, child)
}

func checkNoIdentifiers(segs []Segment) error {
	for _, s := range segs {
		if s.identifier {
			return cgerrors.NewInvalidPathError("", "%s", errIdentifierUse.Error())
		}
	}
	return nil
}
