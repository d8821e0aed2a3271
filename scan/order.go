package scan

// Order returns the candidates with every provider before its dependents,
// using Kahn's algorithm. Ties keep candidate order. When some candidates
// can never be reached the result is a *CycleError naming them.
func Order(candidates []Candidate, g *Graph) ([]Candidate, error) {
	byImpl := make(map[TypeID]Candidate, len(candidates))
	for _, c := range candidates {
		if _, ok := byImpl[c.Impl]; !ok {
			byImpl[c.Impl] = c
		}
	}

	inDegree := g.inDegrees()
	queue := make([]TypeID, 0, len(g.nodes))
	for _, id := range g.nodes {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	ordered := make([]Candidate, 0, len(g.nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		ordered = append(ordered, byImpl[id])
		for _, d := range g.dependents[id] {
			inDegree[d]--
			if inDegree[d] == 0 {
				queue = append(queue, d)
			}
		}
	}

	if len(ordered) == len(g.nodes) {
		return ordered, nil
	}

	residual := make([]TypeID, 0, len(g.nodes)-len(ordered))
	for _, id := range g.nodes {
		if inDegree[id] > 0 {
			residual = append(residual, id)
		}
	}
	return nil, &CycleError{
		Path:     findCycle(g, residual),
		Residual: residual,
	}
}

// findCycle walks from dependents to their providers over the residual
// nodes and returns the first closed path, or nil.
func findCycle(g *Graph, residual []TypeID) []TypeID {
	inResidual := NewTypeSet(residual...)
	visited := make(TypeSet, len(residual))
	onPath := make(map[TypeID]int, len(residual))
	var path []TypeID

	var visit func(id TypeID) []TypeID
	visit = func(id TypeID) []TypeID {
		visited.Add(id)
		onPath[id] = len(path)
		path = append(path, id)
		for _, p := range g.providers[id] {
			if !inResidual.Has(p) {
				continue
			}
			if start, ok := onPath[p]; ok {
				cycle := append([]TypeID(nil), path[start:]...)
				return append(cycle, p)
			}
			if visited.Has(p) {
				continue
			}
			if cycle := visit(p); cycle != nil {
				return cycle
			}
		}
		delete(onPath, id)
		path = path[:len(path)-1]
		return nil
	}

	for _, id := range residual {
		if visited.Has(id) {
			continue
		}
		if cycle := visit(id); cycle != nil {
			return cycle
		}
	}
	return nil
}
