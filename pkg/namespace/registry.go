// Package namespace implements the bidirectional prefix <-> URI registries
// used to render and parse qualified names.
//
// Four registries share the Registry contract:
//   - SimpleRegistry: the in-memory map, not safe for concurrent use
//   - LocalRegistry: a session-scoped overlay that shadows a delegate
//   - ThreadSafeRegistry: a reader/writer-locked wrapper
//   - PersistentRegistry: an in-memory snapshot synchronized with a Store
package namespace

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agext/levenshtein"

	cgerrors "github.com/duynguyendang/contentgraph/pkg/common/errors"
)

// Well-known namespaces.
const (
	JcrPrefix  = "jcr"
	JcrURI     = "http://www.jcp.org/jcr/1.0"
	NtPrefix   = "nt"
	NtURI      = "http://www.jcp.org/jcr/nt/1.0"
	MixPrefix  = "mix"
	MixURI     = "http://www.jcp.org/jcr/mix/1.0"
	XMLPrefix  = "xml"
	XMLURI     = "http://www.w3.org/XML/1998/namespace"
	ModePrefix = "mode"
	ModeURI    = "http://www.modeshape.org/1.0"

	// DefaultPrefixTemplate is the fmt template used to generate prefixes.
	DefaultPrefixTemplate = "ns%03d"
)

// Namespace is one prefix/URI binding.
type Namespace struct {
	Prefix string `json:"prefix" yaml:"prefix"`
	URI    string `json:"uri" yaml:"uri"`
}

func (n Namespace) String() string {
	return n.Prefix + "=" + n.URI
}

// Registry maps prefixes to namespace URIs and back.
//
// Lookups that find nothing return ok == false; errors are reserved for
// contract violations and persistence failures.
type Registry interface {
	// NamespaceForPrefix returns the URI bound to prefix.
	NamespaceForPrefix(prefix string) (uri string, ok bool)

	// PrefixForNamespaceURI returns the prefix bound to uri. When the uri is not
	// registered and generateIfMissing is set, a fresh prefix is generated,
	// registered and returned; ok is then always true.
	PrefixForNamespaceURI(uri string, generateIfMissing bool) (prefix string, ok bool)

	// IsRegisteredNamespaceURI reports whether uri has a prefix.
	IsRegisteredNamespaceURI(uri string) bool

	// DefaultNamespaceURI returns the URI bound to the empty prefix.
	DefaultNamespaceURI() string

	// Register binds prefix to uri, evicting any stale counterpart, and returns
	// the URI previously bound to prefix.
	Register(prefix, uri string) (previousURI string, err error)

	// Unregister removes the binding for uri.
	Unregister(uri string) (bool, error)

	// RegisteredNamespaceURIs returns a sorted snapshot of the registered URIs.
	RegisteredNamespaceURIs() []string

	// Namespaces returns a snapshot of all bindings sorted by prefix.
	Namespaces() []Namespace
}

// WellKnown returns the namespaces pre-registered by NewSimpleRegistry.
func WellKnown() []Namespace {
	return []Namespace{
		{Prefix: JcrPrefix, URI: JcrURI},
		{Prefix: NtPrefix, URI: NtURI},
		{Prefix: MixPrefix, URI: MixURI},
		{Prefix: XMLPrefix, URI: XMLURI},
		{Prefix: ModePrefix, URI: ModeURI},
	}
}

// ValidatePrefix rejects prefixes that would break the name syntax.
func ValidatePrefix(prefix string) error {
	if strings.TrimSpace(prefix) != prefix {
		return fmt.Errorf("%w: prefix %q has surrounding whitespace", cgerrors.ErrInvalidInput, prefix)
	}
	if strings.ContainsAny(prefix, ":/{}[]* \t\n") {
		return fmt.Errorf("%w: prefix %q contains a reserved character", cgerrors.ErrInvalidInput, prefix)
	}
	return nil
}

// Suggest returns the registered prefix closest to prefix, or "" when nothing
// is within two edits.
func Suggest(reg Registry, prefix string) string {
	if reg == nil || prefix == "" {
		return ""
	}
	best, bestDist := "", 3
	for _, ns := range reg.Namespaces() {
		if ns.Prefix == "" {
			continue
		}
		if d := levenshtein.Distance(prefix, ns.Prefix, nil); d < bestDist {
			best, bestDist = ns.Prefix, d
		}
	}
	return best
}

// UnknownPrefixError builds the error returned when prefix cannot be resolved.
func UnknownPrefixError(reg Registry, prefix string) error {
	return &cgerrors.NamespaceError{Prefix: prefix, Suggestion: Suggest(reg, prefix)}
}

func sortNamespaces(namespaces []Namespace) []Namespace {
	sort.Slice(namespaces, func(i, j int) bool {
		return namespaces[i].Prefix < namespaces[j].Prefix
	})
	return namespaces
}

func urisOf(namespaces []Namespace) []string {
	seen := make(map[string]struct{}, len(namespaces))
	uris := make([]string, 0, len(namespaces))
	for _, ns := range namespaces {
		if _, dup := seen[ns.URI]; dup {
			continue
		}
		seen[ns.URI] = struct{}{}
		uris = append(uris, ns.URI)
	}
	sort.Strings(uris)
	return uris
}
