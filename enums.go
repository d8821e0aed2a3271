package gofac

import (
	"fmt"
	"strings"
)

type LifetimeScope int

const (
	Transient LifetimeScope = iota // Transient: creates new instance on each retrieval
	Singleton                      // Singleton: globally unique, cached in root container
	Scoped                         // Scoped: unique within scope, isolated between different scopes
)

// String returns the lower-case name used in configuration files and diagnostics.
func (s LifetimeScope) String() string {
	switch s {
	case Transient:
		return "transient"
	case Singleton:
		return "singleton"
	case Scoped:
		return "scoped"
	default:
		return fmt.Sprintf("LifetimeScope(%d)", int(s))
	}
}

// ParseLifetimeScope parses a lifetime name, case-insensitively.
func ParseLifetimeScope(s string) (LifetimeScope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "transient":
		return Transient, nil
	case "singleton":
		return Singleton, nil
	case "scoped":
		return Scoped, nil
	}
	return Transient, fmt.Errorf("%w: %q", ErrUnknownLifetime, s)
}

func (s LifetimeScope) MarshalText() ([]byte, error) {
	if s < Transient || s > Scoped {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLifetime, int(s))
	}
	return []byte(s.String()), nil
}

func (s *LifetimeScope) UnmarshalText(text []byte) error {
	parsed, err := ParseLifetimeScope(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// LifetimeMarker is implemented by types that declare their own lifetime.
// Embed one of SingletonService, ScopedService or TransientService to get it.
type LifetimeMarker interface {
	ServiceLifetime() LifetimeScope
}

// IgnoreMarker is implemented by types that must never be picked up by
// convention scanning. Embed IgnoredService to get it.
type IgnoreMarker interface {
	ServiceIgnored()
}

type SingletonService struct{}

func (SingletonService) ServiceLifetime() LifetimeScope { return Singleton }

type ScopedService struct{}

func (ScopedService) ServiceLifetime() LifetimeScope { return Scoped }

type TransientService struct{}

func (TransientService) ServiceLifetime() LifetimeScope { return Transient }

type IgnoredService struct{}

func (IgnoredService) ServiceIgnored() {}
