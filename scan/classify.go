package scan

import (
	"strings"

	gofac "github.com/Ngone6325/gofac-autoscan"
)

// Convention assigns a lifetime to units without an explicit marker.
type Convention struct {
	Match    func(Unit) bool
	Lifetime gofac.LifetimeScope
}

// SuffixConvention matches units whose implementation name ends with one of
// the given suffixes, e.g. "Service" or "Repository".
func SuffixConvention(lifetime gofac.LifetimeScope, suffixes ...string) *Convention {
	suffixes = append([]string(nil), suffixes...)
	return &Convention{
		Lifetime: lifetime,
		Match: func(u Unit) bool {
			name := u.Impl.BareName()
			for _, s := range suffixes {
				if s != "" && strings.HasSuffix(name, s) {
					return true
				}
			}
			return false
		},
	}
}

// Classifier turns discovered units into registration candidates.
type Classifier struct {
	// Namespaces restricts candidates and exposed capabilities. Empty means
	// all. Prefixes match by whole path segment, see HasNamespacePrefix.
	Namespaces []string
	// Excluded capabilities are never exposed; a unit falls back to the next
	// capability or to itself. A unit whose own implementation is listed is
	// dropped entirely.
	Excluded   TypeSet
	Convention *Convention
}

// Classify returns one candidate per eligible unit, in input order.
// Units repeating an already classified implementation are dropped.
func (c *Classifier) Classify(units []Unit) []Candidate {
	out := make([]Candidate, 0, len(units))
	seen := make(TypeSet, len(units))
	for _, u := range units {
		if u.Excluded || u.Abstract || c.Excluded.Has(u.Impl) {
			continue
		}
		if !c.inScope(u.Impl.Namespace) {
			continue
		}
		lifetime, ok := c.lifetimeOf(u)
		if !ok {
			continue
		}
		if seen.Has(u.Impl) {
			continue
		}
		seen.Add(u.Impl)
		out = append(out, Candidate{
			Impl:       u.Impl,
			Capability: c.capabilityOf(u),
			Lifetime:   lifetime,
			Unit:       u,
		})
	}
	return out
}

func (c *Classifier) inScope(ns string) bool {
	return len(c.Namespaces) == 0 || matchesAnyNamespace(ns, c.Namespaces)
}

// marker beats convention
func (c *Classifier) lifetimeOf(u Unit) (gofac.LifetimeScope, bool) {
	if u.HasLifetime {
		return u.Lifetime, true
	}
	if c.Convention != nil && c.Convention.Match != nil && c.Convention.Match(u) {
		return c.Convention.Lifetime, true
	}
	return gofac.Transient, false
}

func (c *Classifier) capabilityOf(u Unit) TypeID {
	for _, capability := range u.Capabilities {
		if c.Excluded.Has(capability) || !c.inScope(capability.Namespace) {
			continue
		}
		return capability
	}
	return u.Impl
}
