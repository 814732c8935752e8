package value

import (
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cgerrors "github.com/duynguyendang/contentgraph/pkg/common/errors"
	"github.com/duynguyendang/contentgraph/pkg/namespace"
	"github.com/duynguyendang/contentgraph/pkg/text"
)

// ValueFactories bundles one factory per property type around a shared
// namespace registry.
type ValueFactories struct {
	registry namespace.Registry
	encoder  text.Encoder
	decoder  text.Decoder
	opts     options

	strings        *StringFactory
	binaries       *BinaryFactory
	longs          *LongFactory
	doubles        *DoubleFactory
	decimals       *DecimalFactory
	dates          *DateTimeFactory
	booleans       *BooleanFactory
	names          *NameFactory
	paths          *PathFactory
	references     *ReferenceFactory
	weakReferences *ReferenceFactory
	uris           *URIFactory
	uuids          *UUIDFactory
	objects        *ObjectFactory
}

type options struct {
	encoder       text.Encoder
	decoder       text.Decoder
	location      *time.Location
	nameCacheSize int
	nameCacheTTL  time.Duration
}

// Option configures ValueFactories.
type Option func(*options)

// WithEncoder sets the encoder used to render names and paths as strings.
func WithEncoder(enc text.Encoder) Option {
	return func(o *options) { o.encoder = enc }
}

// WithDecoder sets the decoder used when parsing names and paths.
func WithDecoder(dec text.Decoder) Option {
	return func(o *options) { o.decoder = dec }
}

// WithLocation sets the zone of dates parsed without one.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.location = loc }
}

// WithNameCache sizes the cache of fully qualified name parses; size <= 0
// disables it.
func WithNameCache(size int, ttl time.Duration) Option {
	return func(o *options) {
		o.nameCacheSize = size
		o.nameCacheTTL = ttl
	}
}

// New builds the factories around reg, or around a fresh SimpleRegistry when
// reg is nil.
func New(reg namespace.Registry, opts ...Option) *ValueFactories {
	o := options{
		nameCacheSize: DefaultNameCacheSize,
		nameCacheTTL:  DefaultNameCacheTTL,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if reg == nil {
		reg = namespace.NewSimpleRegistry()
	}

	vf := &ValueFactories{
		registry: reg,
		encoder:  text.OrDefaultEncoder(o.encoder),
		decoder:  text.OrDefaultDecoder(o.decoder),
		opts:     o,
	}
	vf.strings = NewStringFactory(reg, vf.encoder)
	vf.binaries = NewBinaryFactory(vf.strings)
	vf.longs = NewLongFactory()
	vf.doubles = NewDoubleFactory()
	vf.decimals = NewDecimalFactory()
	vf.dates = NewDateTimeFactory(o.location)
	vf.booleans = NewBooleanFactory()
	vf.names = NewNameFactory(reg, vf.decoder, o.nameCacheSize, o.nameCacheTTL)
	vf.paths = NewPathFactory(vf.names)
	vf.references = NewReferenceFactory(false)
	vf.weakReferences = NewReferenceFactory(true)
	vf.uris = NewURIFactory(vf.strings)
	vf.uuids = NewUUIDFactory()
	vf.objects = NewObjectFactory(vf.binaries)
	return vf
}

// WithRegistry returns factories sharing these options but resolving prefixes
// through reg, as a session overlay needs.
func (vf *ValueFactories) WithRegistry(reg namespace.Registry) *ValueFactories {
	return New(reg, func(o *options) { *o = vf.opts })
}

func (vf *ValueFactories) Registry() namespace.Registry      { return vf.registry }
func (vf *ValueFactories) Strings() *StringFactory           { return vf.strings }
func (vf *ValueFactories) Binaries() *BinaryFactory          { return vf.binaries }
func (vf *ValueFactories) Longs() *LongFactory               { return vf.longs }
func (vf *ValueFactories) Doubles() *DoubleFactory           { return vf.doubles }
func (vf *ValueFactories) Decimals() *DecimalFactory         { return vf.decimals }
func (vf *ValueFactories) Dates() *DateTimeFactory           { return vf.dates }
func (vf *ValueFactories) Booleans() *BooleanFactory         { return vf.booleans }
func (vf *ValueFactories) Names() *NameFactory               { return vf.names }
func (vf *ValueFactories) Paths() *PathFactory               { return vf.paths }
func (vf *ValueFactories) References() *ReferenceFactory     { return vf.references }
func (vf *ValueFactories) WeakReferences() *ReferenceFactory { return vf.weakReferences }
func (vf *ValueFactories) URIs() *URIFactory                 { return vf.uris }
func (vf *ValueFactories) UUIDs() *UUIDFactory               { return vf.uuids }
func (vf *ValueFactories) Objects() *ObjectFactory           { return vf.objects }

// AnyFactory is a ValueFactory with its result type erased.
type AnyFactory interface {
	Type() PropertyType
	Create(v any) (any, error)
	CreateAll(values []any) ([]any, error)
}

type erased[T any] struct {
	f ValueFactory[T]
}

func (e erased[T]) Type() PropertyType { return e.f.Type() }

func (e erased[T]) Create(v any) (any, error) {
	t, err := e.f.Create(v)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (e erased[T]) CreateAll(values []any) ([]any, error) {
	ts, err := e.f.CreateAll(values)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(ts))
	for i, t := range ts {
		out[i] = t
	}
	return out, nil
}

// Erase wraps a typed factory as an AnyFactory.
func Erase[T any](f ValueFactory[T]) AnyFactory {
	return erased[T]{f: f}
}

// For returns the factory of the given type.
func (vf *ValueFactories) For(t PropertyType) (AnyFactory, error) {
	switch t {
	case TypeString:
		return Erase[string](vf.strings), nil
	case TypeBinary:
		return Erase[Binary](vf.binaries), nil
	case TypeLong:
		return Erase[int64](vf.longs), nil
	case TypeDouble:
		return Erase[float64](vf.doubles), nil
	case TypeDecimal:
		return Erase[decimal.Decimal](vf.decimals), nil
	case TypeDate:
		return Erase[DateTime](vf.dates), nil
	case TypeBoolean:
		return Erase[bool](vf.booleans), nil
	case TypeName:
		return Erase[Name](vf.names), nil
	case TypePath:
		return Erase[*Path](vf.paths), nil
	case TypeReference:
		return Erase[Reference](vf.references), nil
	case TypeWeakReference:
		return Erase[Reference](vf.weakReferences), nil
	case TypeURI:
		return Erase[*url.URL](vf.uris), nil
	case TypeUUID:
		return Erase[uuid.UUID](vf.uuids), nil
	case TypeObject:
		return Erase[any](vf.objects), nil
	}
	return nil, fmt.Errorf("%w: no factory for %s", cgerrors.ErrInvalidInput, t)
}

// Convert converts v to the given type.
func (vf *ValueFactories) Convert(t PropertyType, v any) (any, error) {
	f, err := vf.For(t)
	if err != nil {
		return nil, err
	}
	return f.Create(v)
}
