package value

import (
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	cgerrors "github.com/duynguyendang/contentgraph/pkg/common/errors"
	"github.com/duynguyendang/contentgraph/pkg/namespace"
	"github.com/duynguyendang/contentgraph/pkg/text"
)

// Defaults for the cache of fully qualified name parses.
const (
	DefaultNameCacheSize = 4096
	DefaultNameCacheTTL  = 10 * time.Minute
)

// NameFactory parses "prefix:local" and "{uri}local" names.
//
// Only "{uri}local" parses with the default decoder are cached: a prefixed
// parse depends on the registry, which can change at any time.
type NameFactory struct {
	dispatcher[Name]
	registry namespace.Registry
	decoder  text.Decoder
	cache    *expirable.LRU[string, Name]
}

var _ ValueFactory[Name] = (*NameFactory)(nil)

// NewNameFactory creates a factory resolving prefixes through reg. A
// cacheSize <= 0 disables the parse cache.
func NewNameFactory(reg namespace.Registry, dec text.Decoder, cacheSize int, ttl time.Duration) *NameFactory {
	f := &NameFactory{registry: reg, decoder: text.OrDefaultDecoder(dec)}
	if cacheSize > 0 {
		f.cache = expirable.NewLRU[string, Name](cacheSize, nil, ttl)
	}
	f.dispatcher = dispatcher[Name]{typ: TypeName, conv: f}
	return f
}

func (f *NameFactory) Registry() namespace.Registry { return f.registry }

// CreateNS builds a name from raw namespace and local parts.
func (f *NameFactory) CreateNS(namespaceURI, localName string) Name {
	return NewName(namespaceURI, localName)
}

// CreateString parses s. Text that does not start with '{' is first read as
// "prefix:local"; otherwise, or when that reading does not apply, as
// "{uri}local". Text with more than one unescaped ':' is malformed.
func (f *NameFactory) CreateString(s string, dec text.Decoder) (Name, error) {
	switch s {
	case "*":
		return AnyName, nil
	case "":
		return BlankName, nil
	}
	cacheable := dec == nil && f.cache != nil
	dec = text.OrDefaultDecoder(orDecoder(dec, f.decoder))

	if !strings.HasPrefix(s, "{") {
		name, ok, err := f.parsePrefixed(s, dec)
		if err != nil || ok {
			return name, err
		}
	}
	if strings.HasPrefix(s, "{") {
		if end := strings.IndexByte(s, '}'); end > 0 {
			if cacheable {
				if name, ok := f.cache.Get(s); ok {
					return name, nil
				}
			}
			name := NewName(dec.Decode(s[1:end]), dec.Decode(s[end+1:]))
			if cacheable {
				f.cache.Add(s, name)
			}
			return name, nil
		}
	}
	return NewName("", dec.Decode(s)), nil
}

// parsePrefixed reports ok == false when s may still be read as "{uri}local"
// or a blank-namespace local name.
func (f *NameFactory) parsePrefixed(s string, dec text.Decoder) (Name, bool, error) {
	switch strings.Count(s, ":") {
	case 0:
		uri := ""
		if f.registry != nil {
			uri = f.registry.DefaultNamespaceURI()
		}
		return NewName(uri, dec.Decode(s)), true, nil
	case 1:
		prefix, local, _ := strings.Cut(s, ":")
		if prefix == "" || strings.Contains(prefix, "/") {
			return Name{}, false, nil
		}
		prefix = dec.Decode(prefix)
		var (
			uri string
			ok  bool
		)
		if f.registry != nil {
			uri, ok = f.registry.NamespaceForPrefix(prefix)
		}
		if !ok {
			return Name{}, false, cgerrors.NewValueFormatError(s, "String", TypeName.String(), "",
				namespace.UnknownPrefixError(f.registry, prefix))
		}
		return NewName(uri, dec.Decode(local)), true, nil
	}
	return Name{}, false, cgerrors.NewValueFormatError(s, "String", TypeName.String(),
		"unescaped ':' in local name", nil)
}

func (f *NameFactory) CreateName(v Name) (Name, error) { return v, nil }

// CreatePath returns the name of a single-segment path.
func (f *NameFactory) CreatePath(v *Path) (Name, error) {
	if v == nil || v.Size() != 1 || v.IsIdentifier() {
		return f.reject(v)
	}
	return v.lastSegment().name, nil
}

func (f *NameFactory) CreateSegment(v Segment) (Name, error) {
	if v.identifier {
		return f.reject(v)
	}
	return v.name, nil
}

// CreateURI parses the string form of the URI.
func (f *NameFactory) CreateURI(v *url.URL) (Name, error) {
	if v == nil {
		return f.reject(nil)
	}
	return f.CreateString(v.String(), nil)
}

func orDecoder(dec, fallback text.Decoder) text.Decoder {
	if dec != nil {
		return dec
	}
	return fallback
}
