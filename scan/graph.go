package scan

// Graph links providers to their dependents. Edges point from provider to
// dependent, so a provider must be activated first.
type Graph struct {
	nodes      []TypeID
	dependents map[TypeID][]TypeID
	providers  map[TypeID][]TypeID
	inDegree   map[TypeID]int
	edges      int
}

func newGraph(size int) *Graph {
	return &Graph{
		nodes:      make([]TypeID, 0, size),
		dependents: make(map[TypeID][]TypeID, size),
		providers:  make(map[TypeID][]TypeID, size),
		inDegree:   make(map[TypeID]int, size),
	}
}

// BuildGraph resolves every requirement of every candidate, in declared
// order, to an in-batch provider. Requirements without a provider must be
// exempt; the first one that is not aborts the build.
func BuildGraph(candidates []Candidate, known KnownSet, policy *Policy) (*Graph, error) {
	g := newGraph(len(candidates))
	byCapability := make(map[TypeID]TypeID, len(candidates))
	byImpl := make(map[TypeID]TypeID, len(candidates))
	for _, c := range candidates {
		if _, dup := g.inDegree[c.Impl]; !dup {
			g.nodes = append(g.nodes, c.Impl)
			g.inDegree[c.Impl] = 0
		}
		if _, ok := byCapability[c.Capability]; !ok {
			byCapability[c.Capability] = c.Impl
		}
		if _, ok := byImpl[c.Impl]; !ok {
			byImpl[c.Impl] = c.Impl
		}
	}

	for _, c := range candidates {
		for _, req := range c.Unit.Requires {
			provider, ok := byCapability[req]
			if !ok {
				provider, ok = byImpl[req]
			}
			if ok {
				g.addEdge(provider, c.Impl)
				continue
			}
			if policy.IsExempt(req, known) {
				continue
			}
			return nil, &UnresolvedDependencyError{Requirement: req, Dependent: c.Impl}
		}
	}
	return g, nil
}

func (g *Graph) addEdge(provider, dependent TypeID) {
	g.dependents[provider] = append(g.dependents[provider], dependent)
	g.providers[dependent] = append(g.providers[dependent], provider)
	g.inDegree[dependent]++
	g.edges++
}

// Nodes returns the implementation ids in candidate order.
func (g *Graph) Nodes() []TypeID { return append([]TypeID(nil), g.nodes...) }

// Dependents returns the nodes that require id, one entry per requirement.
func (g *Graph) Dependents(id TypeID) []TypeID {
	return append([]TypeID(nil), g.dependents[id]...)
}

// Providers returns the nodes id requires, in declared order.
func (g *Graph) Providers(id TypeID) []TypeID {
	return append([]TypeID(nil), g.providers[id]...)
}

// InDegree returns the number of in-batch providers id waits for.
func (g *Graph) InDegree(id TypeID) int { return g.inDegree[id] }

// EdgeCount returns the number of provider to dependent edges.
func (g *Graph) EdgeCount() int { return g.edges }

// HasEdge reports whether dependent requires provider.
func (g *Graph) HasEdge(provider, dependent TypeID) bool {
	for _, d := range g.dependents[provider] {
		if d == dependent {
			return true
		}
	}
	return false
}

// Edges calls fn for every edge, providers in node order.
func (g *Graph) Edges(fn func(provider, dependent TypeID)) {
	for _, p := range g.nodes {
		for _, d := range g.dependents[p] {
			fn(p, d)
		}
	}
}

func (g *Graph) inDegrees() map[TypeID]int {
	out := make(map[TypeID]int, len(g.inDegree))
	for id, n := range g.inDegree {
		out[id] = n
	}
	return out
}
