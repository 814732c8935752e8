package value

import (
	"bytes"

	"github.com/google/uuid"
)

// Reference points at a node by its UUID. Weak references do not keep their
// target alive.
type Reference struct {
	id   uuid.UUID
	weak bool
}

func NewReference(id uuid.UUID, weak bool) Reference {
	return Reference{id: id, weak: weak}
}

func (r Reference) UUID() uuid.UUID { return r.id }
func (r Reference) IsWeak() bool    { return r.weak }
func (r Reference) String() string  { return r.id.String() }

// Compare orders by UUID, then strong before weak.
func (r Reference) Compare(o Reference) int {
	if c := bytes.Compare(r.id[:], o.id[:]); c != 0 {
		return c
	}
	switch {
	case r.weak == o.weak:
		return 0
	case r.weak:
		return 1
	default:
		return -1
	}
}
