package value

import (
	"github.com/google/uuid"

	"github.com/duynguyendang/contentgraph/pkg/text"
)

// ReferenceFactory creates strong or weak references from UUIDs.
type ReferenceFactory struct {
	dispatcher[Reference]
	weak bool
}

var _ ValueFactory[Reference] = (*ReferenceFactory)(nil)

func NewReferenceFactory(weak bool) *ReferenceFactory {
	f := &ReferenceFactory{weak: weak}
	typ := TypeReference
	if weak {
		typ = TypeWeakReference
	}
	f.dispatcher = dispatcher[Reference]{typ: typ, conv: f}
	return f
}

func (f *ReferenceFactory) CreateString(s string, dec text.Decoder) (Reference, error) {
	s = decodeTrim(s, dec)
	id, err := uuid.Parse(s)
	if err != nil {
		return Reference{}, f.invalid(s, err)
	}
	return NewReference(id, f.weak), nil
}

func (f *ReferenceFactory) CreateUUID(v uuid.UUID) (Reference, error) {
	return NewReference(v, f.weak), nil
}

func (f *ReferenceFactory) CreateReference(v Reference) (Reference, error) {
	return NewReference(v.id, f.weak), nil
}

// UUIDFactory creates UUIDs.
type UUIDFactory struct {
	dispatcher[uuid.UUID]
}

var _ ValueFactory[uuid.UUID] = (*UUIDFactory)(nil)

func NewUUIDFactory() *UUIDFactory {
	f := &UUIDFactory{}
	f.dispatcher = dispatcher[uuid.UUID]{typ: TypeUUID, conv: f}
	return f
}

func (f *UUIDFactory) CreateString(s string, dec text.Decoder) (uuid.UUID, error) {
	s = decodeTrim(s, dec)
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, f.invalid(s, err)
	}
	return id, nil
}

func (f *UUIDFactory) CreateUUID(v uuid.UUID) (uuid.UUID, error) { return v, nil }

func (f *UUIDFactory) CreateReference(v Reference) (uuid.UUID, error) { return v.id, nil }
