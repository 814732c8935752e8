package namespace

import "fmt"

// LocalRegistry overlays a delegate registry so that a scope such as a
// session can rebind prefixes without touching the shared delegate.
//
// A URI that was remapped locally is never resurrected under its delegate
// prefix, and a delegate prefix that is shadowed locally is never returned.
type LocalRegistry struct {
	delegate Registry

	byPrefix   map[string]string
	byURI      map[string]string
	defaultURI string
	hasDefault bool

	template string
	counter  int
}

// NewLocalRegistry creates an empty overlay over delegate.
func NewLocalRegistry(delegate Registry) *LocalRegistry {
	return &LocalRegistry{
		delegate: delegate,
		byPrefix: make(map[string]string),
		byURI:    make(map[string]string),
		template: DefaultPrefixTemplate,
	}
}

// Delegate returns the registry this overlay shadows.
func (r *LocalRegistry) Delegate() Registry {
	return r.delegate
}

func (r *LocalRegistry) NamespaceForPrefix(prefix string) (string, bool) {
	if prefix == "" && r.hasDefault {
		return r.defaultURI, true
	}
	if uri, ok := r.byPrefix[prefix]; ok {
		return uri, true
	}
	uri, ok := r.delegate.NamespaceForPrefix(prefix)
	if !ok {
		return "", false
	}
	if localPrefix, remapped := r.byURI[uri]; remapped && localPrefix != prefix {
		return "", false
	}
	return uri, true
}

func (r *LocalRegistry) PrefixForNamespaceURI(uri string, generateIfMissing bool) (string, bool) {
	if prefix, ok := r.byURI[uri]; ok {
		return prefix, true
	}
	if r.hasDefault && uri == r.defaultURI {
		return "", true
	}
	if prefix, ok := r.delegate.PrefixForNamespaceURI(uri, false); ok && !r.shadows(prefix, uri) {
		return prefix, true
	}
	if !generateIfMissing {
		return "", false
	}
	prefix := r.generatePrefix()
	r.bind(prefix, uri)
	return prefix, true
}

// shadows reports whether the delegate binding prefix->uri is hidden by a
// local binding of the same prefix to another URI.
func (r *LocalRegistry) shadows(prefix, uri string) bool {
	if prefix == "" {
		return r.hasDefault && r.defaultURI != uri
	}
	local, ok := r.byPrefix[prefix]
	return ok && local != uri
}

func (r *LocalRegistry) generatePrefix() string {
	for {
		r.counter++
		candidate := fmt.Sprintf(r.template, r.counter)
		if _, used := r.byPrefix[candidate]; used {
			continue
		}
		if _, used := r.delegate.NamespaceForPrefix(candidate); used {
			continue
		}
		return candidate
	}
}

func (r *LocalRegistry) IsRegisteredNamespaceURI(uri string) bool {
	_, ok := r.PrefixForNamespaceURI(uri, false)
	return ok
}

func (r *LocalRegistry) DefaultNamespaceURI() string {
	uri, _ := r.NamespaceForPrefix("")
	return uri
}

func (r *LocalRegistry) Register(prefix, uri string) (string, error) {
	if err := checkBinding(prefix, uri); err != nil {
		return "", err
	}
	previous, _ := r.NamespaceForPrefix(prefix)
	r.bind(prefix, uri)
	return previous, nil
}

func (r *LocalRegistry) bind(prefix, uri string) {
	if prefix == "" {
		r.defaultURI = uri
		r.hasDefault = true
		return
	}
	if previous, ok := r.byPrefix[prefix]; ok && previous != uri {
		delete(r.byURI, previous)
	}
	if oldPrefix, ok := r.byURI[uri]; ok && oldPrefix != prefix {
		delete(r.byPrefix, oldPrefix)
	}
	r.byPrefix[prefix] = uri
	r.byURI[uri] = prefix
}

// Unregister removes a local binding only; delegate bindings are untouched.
func (r *LocalRegistry) Unregister(uri string) (bool, error) {
	removed := false
	if prefix, ok := r.byURI[uri]; ok {
		delete(r.byURI, uri)
		delete(r.byPrefix, prefix)
		removed = true
	}
	if r.hasDefault && r.defaultURI == uri {
		r.hasDefault = false
		r.defaultURI = ""
		removed = true
	}
	return removed, nil
}

func (r *LocalRegistry) RegisteredNamespaceURIs() []string {
	return urisOf(r.Namespaces())
}

func (r *LocalRegistry) Namespaces() []Namespace {
	namespaces := r.LocalNamespaces()
	for _, ns := range r.delegate.Namespaces() {
		if ns.Prefix == "" {
			if r.hasDefault {
				continue
			}
		} else if _, shadowed := r.byPrefix[ns.Prefix]; shadowed {
			continue
		}
		if localPrefix, remapped := r.byURI[ns.URI]; remapped && localPrefix != ns.Prefix {
			continue
		}
		namespaces = append(namespaces, ns)
	}
	return sortNamespaces(namespaces)
}

// LocalNamespaces returns only the bindings made in this overlay.
func (r *LocalRegistry) LocalNamespaces() []Namespace {
	namespaces := make([]Namespace, 0, len(r.byPrefix)+1)
	if r.hasDefault {
		namespaces = append(namespaces, Namespace{Prefix: "", URI: r.defaultURI})
	}
	for prefix, uri := range r.byPrefix {
		namespaces = append(namespaces, Namespace{Prefix: prefix, URI: uri})
	}
	return sortNamespaces(namespaces)
}
