package property

import (
	"maps"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/duynguyendang/contentgraph/pkg/value"
)

// LookupFunc resolves one variable name.
type LookupFunc func(name string) (string, bool)

// SystemFactory is a Factory that expands "${name}" references in string
// values before converting them.
//
// A reference lists one or more comma separated candidates and an optional
// default after the first ':', as in "${HOME,USERPROFILE:/tmp}". Each
// candidate is tried against the environment and then against the system
// properties; the first hit wins. References that resolve to nothing and have
// no default stay in the text unchanged.
type SystemFactory struct {
	*Factory
	env        LookupFunc
	properties map[string]string
}

// SystemOption configures a SystemFactory.
type SystemOption func(*SystemFactory)

// WithEnvironment replaces os.LookupEnv as the environment source.
func WithEnvironment(lookup LookupFunc) SystemOption {
	return func(f *SystemFactory) { f.env = lookup }
}

// WithProperties adds system properties. Later options win on conflicts.
func WithProperties(props map[string]string) SystemOption {
	return func(f *SystemFactory) { maps.Copy(f.properties, props) }
}

func NewSystemFactory(values *value.ValueFactories, opts ...SystemOption) *SystemFactory {
	f := &SystemFactory{
		Factory:    NewFactory(values),
		env:        os.LookupEnv,
		properties: make(map[string]string),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.Factory.prepare = f.substitute
	return f
}

// LoadProperties reads .env style files into a property map. Later files
// override earlier ones.
func LoadProperties(files ...string) (map[string]string, error) {
	if len(files) == 0 {
		return map[string]string{}, nil
	}
	return godotenv.Read(files...)
}

// Property returns the system property name.
func (f *SystemFactory) Property(name string) (string, bool) {
	v, ok := f.properties[name]
	return v, ok
}

func (f *SystemFactory) substitute(v any) any {
	if s, ok := v.(string); ok {
		return f.SubstitutedValue(s)
	}
	return v
}

func (f *SystemFactory) lookup(name string) (string, bool) {
	if f.env != nil {
		if v, ok := f.env(name); ok {
			return v, true
		}
	}
	v, ok := f.properties[name]
	return v, ok
}

// SubstitutedValue expands every "${...}" reference in s, scanning left to
// right. An unterminated reference ends the scan and the rest of s is kept
// as is. Substituted text is not scanned again.
func (f *SystemFactory) SubstitutedValue(s string) string {
	if strings.TrimSpace(s) == "" || !strings.Contains(s, "${") {
		return s
	}
	var sb strings.Builder
	rest := s
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			sb.WriteString(rest)
			return sb.String()
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			sb.WriteString(rest)
			return sb.String()
		}
		end += start

		sb.WriteString(rest[:start])
		if resolved, ok := f.resolve(rest[start+2 : end]); ok {
			sb.WriteString(resolved)
		} else {
			sb.WriteString(rest[start : end+1])
		}
		rest = rest[end+1:]
	}
}

// resolve evaluates the body of one reference.
func (f *SystemFactory) resolve(body string) (string, bool) {
	candidates, def, hasDefault := strings.Cut(body, ":")
	for _, name := range strings.Split(candidates, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if v, ok := f.lookup(name); ok {
			return v, true
		}
	}
	return def, hasDefault
}
