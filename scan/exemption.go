package scan

import (
	"strings"

	gofac "github.com/Ngone6325/gofac-autoscan"
)

// Exemptions lists capabilities that never need an in-batch provider.
type Exemptions struct {
	Types []TypeID
	// Namespaces are matched by whole path segment: "github.com/acme/sh"
	// covers "github.com/acme/sh/x" but not "github.com/acme/shop".
	Namespaces []string
	Predicates []func(TypeID) bool
}

// Policy decides whether an unresolved requirement may be ignored.
// A nil *Policy applies only the built-in rules.
type Policy struct {
	types      TypeSet
	namespaces []string
	predicates []func(TypeID) bool
}

// NewPolicy copies ex into a policy layered over the built-in rules.
func NewPolicy(ex Exemptions) *Policy {
	return &Policy{
		types:      NewTypeSet(ex.Types...),
		namespaces: append([]string(nil), ex.Namespaces...),
		predicates: append([]func(TypeID) bool(nil), ex.Predicates...),
	}
}

var scalarTypes = NewTypeSet(
	TypeID{Name: "bool"}, TypeID{Name: "string"},
	TypeID{Name: "int"}, TypeID{Name: "int8"}, TypeID{Name: "int16"}, TypeID{Name: "int32"}, TypeID{Name: "int64"},
	TypeID{Name: "uint"}, TypeID{Name: "uint8"}, TypeID{Name: "uint16"}, TypeID{Name: "uint32"}, TypeID{Name: "uint64"},
	TypeID{Name: "uintptr"}, TypeID{Name: "byte"}, TypeID{Name: "rune"},
	TypeID{Name: "float32"}, TypeID{Name: "float64"},
	TypeID{Name: "complex64"}, TypeID{Name: "complex128"},
	TypeID{Name: "error"}, TypeID{Name: "any"}, TypeID{Name: "interface {}"},
)

// Namespaces whose types the host environment provides.
var infrastructureNamespaces = []string{
	// logging
	"log",
	"github.com/go-logr/logr",
	"go.uber.org/zap",
	// configuration and options
	"flag",
	"github.com/spf13/pflag",
	"github.com/spf13/viper",
	// hosting
	"context",
	"os",
	// http client
	"net/http",
	"iter",
}

// The container injects itself and hands out scopes.
var containerTypes = NewTypeSet(
	TypeFor[*gofac.Container](),
	TypeFor[*gofac.Scope](),
)

// IsExempt reports whether capability may stay unresolved within the batch.
// Checks run in order: user types, user namespaces, user predicates, the
// known set, then the built-in rules.
func (p *Policy) IsExempt(capability TypeID, known KnownSet) bool {
	if p != nil {
		if p.types.Has(capability) {
			return true
		}
		if matchesAnyNamespace(capability.Namespace, p.namespaces) {
			return true
		}
		for _, pred := range p.predicates {
			if pred(capability) {
				return true
			}
		}
	}
	if known.Has(capability) {
		return true
	}
	return p.builtin(capability, known)
}

func (p *Policy) builtin(id TypeID, known KnownSet) bool {
	if id.Namespace == "" && scalarTypes.Has(id) {
		return true
	}
	if matchesAnyNamespace(id.Namespace, infrastructureNamespaces) {
		return true
	}
	if containerTypes.Has(id) {
		return true
	}
	if strings.HasPrefix(id.Name, "[]") || strings.HasPrefix(id.Name, "map[string]") {
		return true
	}
	if base, ok := id.genericBase(); ok {
		return p.IsExempt(base, known)
	}
	return false
}
