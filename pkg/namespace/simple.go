package namespace

import (
	"fmt"
	"strings"

	cgerrors "github.com/duynguyendang/contentgraph/pkg/common/errors"
)

// SimpleRegistry is the plain in-memory registry. It is not safe for
// concurrent use; wrap it with NewThreadSafeRegistry when sharing it.
//
// Every non-empty prefix maps to exactly one URI and vice versa. The empty
// prefix is bound separately to the default namespace, whose URI may also be
// reachable through a regular prefix.
type SimpleRegistry struct {
	defaultURI string
	byPrefix   map[string]string
	byURI      map[string]string

	template string
	counter  int
}

// Option configures a SimpleRegistry.
type Option func(*SimpleRegistry)

// WithPrefixTemplate sets the fmt template (one integer verb) used when
// generating prefixes.
func WithPrefixTemplate(template string) Option {
	return func(r *SimpleRegistry) {
		if template == "" {
			return
		}
		if !strings.Contains(template, "%") {
			template += "%d"
		}
		r.template = template
	}
}

// WithoutWellKnown leaves the registry empty apart from the default namespace.
func WithoutWellKnown() Option {
	return func(r *SimpleRegistry) {
		r.byPrefix = make(map[string]string)
		r.byURI = make(map[string]string)
	}
}

// WithNamespaces pre-registers the given bindings.
func WithNamespaces(namespaces ...Namespace) Option {
	return func(r *SimpleRegistry) {
		for _, ns := range namespaces {
			r.bind(ns.Prefix, ns.URI)
		}
	}
}

// NewSimpleRegistry creates a registry holding the well-known namespaces.
func NewSimpleRegistry(opts ...Option) *SimpleRegistry {
	r := &SimpleRegistry{
		byPrefix: make(map[string]string),
		byURI:    make(map[string]string),
		template: DefaultPrefixTemplate,
	}
	for _, ns := range WellKnown() {
		r.bind(ns.Prefix, ns.URI)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *SimpleRegistry) NamespaceForPrefix(prefix string) (string, bool) {
	if prefix == "" {
		return r.defaultURI, true
	}
	uri, ok := r.byPrefix[prefix]
	return uri, ok
}

func (r *SimpleRegistry) PrefixForNamespaceURI(uri string, generateIfMissing bool) (string, bool) {
	if prefix, ok := r.byURI[uri]; ok {
		return prefix, true
	}
	if uri == r.defaultURI {
		return "", true
	}
	if !generateIfMissing {
		return "", false
	}
	prefix := r.GeneratePrefix(nil)
	r.bind(prefix, uri)
	return prefix, true
}

func (r *SimpleRegistry) IsRegisteredNamespaceURI(uri string) bool {
	if uri == r.defaultURI {
		return true
	}
	_, ok := r.byURI[uri]
	return ok
}

func (r *SimpleRegistry) DefaultNamespaceURI() string {
	return r.defaultURI
}

func (r *SimpleRegistry) Register(prefix, uri string) (string, error) {
	if err := checkBinding(prefix, uri); err != nil {
		return "", err
	}
	return r.bind(prefix, uri), nil
}

// bind performs the registration without validation and returns the URI
// previously bound to prefix.
func (r *SimpleRegistry) bind(prefix, uri string) string {
	if prefix == "" {
		previous := r.defaultURI
		r.defaultURI = uri
		return previous
	}
	previous, hadPrefix := r.byPrefix[prefix]
	if hadPrefix && previous != uri {
		delete(r.byURI, previous)
	}
	if oldPrefix, ok := r.byURI[uri]; ok && oldPrefix != prefix {
		delete(r.byPrefix, oldPrefix)
	}
	r.byPrefix[prefix] = uri
	r.byURI[uri] = prefix
	return previous
}

func (r *SimpleRegistry) Unregister(uri string) (bool, error) {
	removed := false
	if prefix, ok := r.byURI[uri]; ok {
		delete(r.byURI, uri)
		delete(r.byPrefix, prefix)
		removed = true
	}
	if uri != "" && r.defaultURI == uri {
		r.defaultURI = ""
		removed = true
	}
	return removed, nil
}

func (r *SimpleRegistry) RegisteredNamespaceURIs() []string {
	return urisOf(r.Namespaces())
}

func (r *SimpleRegistry) Namespaces() []Namespace {
	namespaces := make([]Namespace, 0, len(r.byPrefix)+1)
	namespaces = append(namespaces, Namespace{Prefix: "", URI: r.defaultURI})
	for prefix, uri := range r.byPrefix {
		namespaces = append(namespaces, Namespace{Prefix: prefix, URI: uri})
	}
	return sortNamespaces(namespaces)
}

// GeneratePrefix returns the next unused prefix produced by the template.
// taken, when non-nil, rejects additional candidates.
func (r *SimpleRegistry) GeneratePrefix(taken func(string) bool) string {
	for {
		r.counter++
		candidate := fmt.Sprintf(r.template, r.counter)
		if _, used := r.byPrefix[candidate]; used {
			continue
		}
		if taken != nil && taken(candidate) {
			continue
		}
		return candidate
	}
}

// Len returns the number of non-default bindings.
func (r *SimpleRegistry) Len() int {
	return len(r.byPrefix)
}

func checkBinding(prefix, uri string) error {
	if err := ValidatePrefix(prefix); err != nil {
		return err
	}
	if uri == "" && prefix != "" {
		return fmt.Errorf("%w: prefix %q cannot be bound to the empty namespace", cgerrors.ErrInvalidInput, prefix)
	}
	return nil
}
