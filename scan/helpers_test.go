package scan

import (
	gofac "github.com/Ngone6325/gofac-autoscan"
)

const testNS = "example.com/app"

func tid(name string) TypeID { return TypeID{Namespace: testNS, Name: "*" + name} }

func tids(names ...string) []TypeID {
	out := make([]TypeID, len(names))
	for i, n := range names {
		out[i] = tid(n)
	}
	return out
}

func marked(name string, lifetime gofac.LifetimeScope, requires ...string) Unit {
	return Unit{
		Impl:        tid(name),
		Requires:    tids(requires...),
		Lifetime:    lifetime,
		HasLifetime: true,
	}
}

func cand(name string, requires ...string) Candidate {
	u := marked(name, gofac.Singleton, requires...)
	return Candidate{Impl: u.Impl, Capability: u.Impl, Lifetime: u.Lifetime, Unit: u}
}

func implsOf(cs []Candidate) []TypeID {
	out := make([]TypeID, len(cs))
	for i, c := range cs {
		out[i] = c.Impl
	}
	return out
}

type staticSource struct {
	name  string
	units []Unit
	err   error
	calls int
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Units() ([]Unit, error) {
	s.calls++
	return s.units, s.err
}
