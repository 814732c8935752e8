package value

import (
	"net/url"

	"github.com/duynguyendang/contentgraph/pkg/text"
)

// URIFactory creates URIs. Names and paths are rendered through the string
// factory; relative forms get a "./" prefix so a prefixed first segment is not
// read as a scheme.
type URIFactory struct {
	dispatcher[*url.URL]
	strings *StringFactory
}

var _ ValueFactory[*url.URL] = (*URIFactory)(nil)

func NewURIFactory(strings *StringFactory) *URIFactory {
	f := &URIFactory{strings: strings}
	f.dispatcher = dispatcher[*url.URL]{typ: TypeURI, conv: f}
	return f
}

func (f *URIFactory) CreateString(s string, dec text.Decoder) (*url.URL, error) {
	s = decodeTrim(s, dec)
	u, err := url.Parse(s)
	if err != nil {
		return nil, f.invalid(s, err)
	}
	return u, nil
}

func (f *URIFactory) CreateName(v Name) (*url.URL, error) {
	s, _ := f.strings.CreateName(v)
	return f.CreateString("./"+s, nil)
}

func (f *URIFactory) CreatePath(v *Path) (*url.URL, error) {
	if v == nil {
		return f.reject(nil)
	}
	s, _ := f.strings.CreatePath(v)
	if !v.IsAbsolute() {
		s = "./" + s
	}
	return f.CreateString(s, nil)
}

func (f *URIFactory) CreateSegment(v Segment) (*url.URL, error) {
	s, _ := f.strings.CreateSegment(v)
	return f.CreateString("./"+s, nil)
}

func (f *URIFactory) CreateURI(v *url.URL) (*url.URL, error) {
	if v == nil {
		return f.reject(nil)
	}
	return v, nil
}
