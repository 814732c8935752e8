package value

import (
	"cmp"
	"strings"

	"github.com/duynguyendang/contentgraph/pkg/namespace"
	"github.com/duynguyendang/contentgraph/pkg/text"
)

// Name is a namespace-qualified name. Prefixes are not part of its identity;
// they only appear when a Name is rendered through a registry.
//
// Name is comparable and can be used as a map key.
type Name struct {
	namespaceURI string
	localName    string
}

// Reserved names.
var (
	SelfName   = Name{localName: "."}
	ParentName = Name{localName: ".."}
	AnyName    = Name{localName: "*"}
	BlankName  = Name{}
)

// NewName creates a name from raw (already decoded) parts.
func NewName(namespaceURI, localName string) Name {
	return Name{namespaceURI: namespaceURI, localName: localName}
}

func (n Name) NamespaceURI() string { return n.namespaceURI }
func (n Name) LocalName() string    { return n.localName }

// IsSelf reports whether n is the "." reference.
func (n Name) IsSelf() bool { return n == SelfName }

// IsParent reports whether n is the ".." reference.
func (n Name) IsParent() bool { return n == ParentName }

// Compare orders by local name, then namespace URI.
func (n Name) Compare(o Name) int {
	if c := cmp.Compare(n.localName, o.localName); c != 0 {
		return c
	}
	return cmp.Compare(n.namespaceURI, o.namespaceURI)
}

func (n Name) Equal(o Name) bool { return n == o }

// String renders n without a registry: the bare local name in the blank
// namespace, "{uri}local" otherwise.
func (n Name) String() string {
	return n.StringWith(nil, nil, nil)
}

// StringWith renders n. With a registry the URI is shown as its prefix,
// generating one when necessary. enc escapes the name parts and delim
// re-escapes the structural characters '{', '}' and ':'. Nil encoders fall back
// to the default codec and to no delimiter escaping respectively.
func (n Name) StringWith(reg namespace.Registry, enc, delim text.Encoder) string {
	if n.namespaceURI == "" && (n.IsSelf() || n.IsParent()) {
		return n.localName
	}
	enc = text.OrDefaultEncoder(enc)
	if n.namespaceURI == "" {
		return enc.Encode(n.localName)
	}

	var sb strings.Builder
	if reg != nil {
		prefix, _ := reg.PrefixForNamespaceURI(n.namespaceURI, true)
		if prefix == "" {
			return enc.Encode(n.localName)
		}
		sb.WriteString(enc.Encode(prefix))
		sb.WriteString(encodeDelim(delim, ":"))
		sb.WriteString(enc.Encode(n.localName))
		return sb.String()
	}

	sb.WriteString(encodeDelim(delim, "{"))
	sb.WriteString(enc.Encode(n.namespaceURI))
	sb.WriteString(encodeDelim(delim, "}"))
	sb.WriteString(enc.Encode(n.localName))
	return sb.String()
}

// MarshalText renders the registry-free form.
func (n Name) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func encodeDelim(delim text.Encoder, s string) string {
	if delim == nil {
		return s
	}
	return delim.Encode(s)
}
