package scan

import (
	"reflect"

	gofac "github.com/Ngone6325/gofac-autoscan"
)

// Unit is a discovered implementation together with what it provides and
// what its richest constructor asks for.
type Unit struct {
	Impl         TypeID
	Capabilities []TypeID
	Requires     []TypeID

	Lifetime    gofac.LifetimeScope
	HasLifetime bool
	Excluded    bool
	Abstract    bool

	// Constructor and Types are only set by reflection-based sources.
	Constructor any
	Types       map[TypeID]reflect.Type
}

// Namespace is the namespace of the implementation.
func (u Unit) Namespace() string { return u.Impl.Namespace }

// ReflectType returns the reflected type behind id, when the source knew it.
func (u Unit) ReflectType(id TypeID) (reflect.Type, bool) {
	t, ok := u.Types[id]
	return t, ok
}

// Candidate is a unit accepted for registration under one capability.
type Candidate struct {
	Impl       TypeID
	Capability TypeID
	Lifetime   gofac.LifetimeScope
	Unit       Unit
}

// SelfRegistered reports whether the candidate is registered as its own type.
func (c Candidate) SelfRegistered() bool { return c.Capability == c.Impl }

// TypeSet is a set of type identities.
type TypeSet map[TypeID]struct{}

// KnownSet holds capabilities already registered outside the current pass.
type KnownSet = TypeSet

// NewTypeSet returns a set holding ids.
func NewTypeSet(ids ...TypeID) TypeSet {
	s := make(TypeSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// NewKnownSet returns a known set holding ids.
func NewKnownSet(ids ...TypeID) KnownSet { return NewTypeSet(ids...) }

// Has reports membership. A nil set is empty.
func (s TypeSet) Has(id TypeID) bool {
	_, ok := s[id]
	return ok
}

func (s TypeSet) Add(id TypeID) { s[id] = struct{}{} }
