package scan

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func order(t *testing.T, candidates ...Candidate) ([]Candidate, error) {
	t.Helper()
	g, err := BuildGraph(candidates, nil, nil)
	require.NoError(t, err)
	return Order(candidates, g)
}

func requireProvidersFirst(t *testing.T, g *Graph, ordered []Candidate) {
	t.Helper()
	index := make(map[TypeID]int, len(ordered))
	for i, c := range ordered {
		index[c.Impl] = i
	}
	g.Edges(func(provider, dependent TypeID) {
		assert.Less(t, index[provider], index[dependent], "%s before %s", provider, dependent)
	})
}

func TestOrderChain(t *testing.T) {
	// scenario A, deliberately listed out of order
	candidates := []Candidate{
		cand("D", "A", "C"),
		cand("C", "B"),
		cand("B", "A"),
		cand("A"),
	}
	g, err := BuildGraph(candidates, nil, nil)
	require.NoError(t, err)

	ordered, err := Order(candidates, g)
	require.NoError(t, err)
	assert.Equal(t, tids("A", "B", "C", "D"), implsOf(ordered))
	requireProvidersFirst(t, g, ordered)

	// in-degrees are copied, not consumed
	assert.Equal(t, 2, g.InDegree(tid("D")))
}

func TestOrderTiesKeepCandidateOrder(t *testing.T) {
	ordered, err := order(t, cand("Z"), cand("Y"), cand("X", "Z"), cand("W"))
	require.NoError(t, err)
	assert.Equal(t, tids("Z", "Y", "W", "X"), implsOf(ordered))
}

func TestOrderWide(t *testing.T) {
	const n = 50
	candidates := make([]Candidate, 0, n)
	// providers come late in candidate order
	for i := n - 1; i >= 0; i-- {
		var requires []string
		if i > 0 {
			requires = append(requires, fmt.Sprintf("N%d", i/2))
		}
		if i > 2 {
			requires = append(requires, fmt.Sprintf("N%d", i-3))
		}
		candidates = append(candidates, cand(fmt.Sprintf("N%d", i), requires...))
	}
	g, err := BuildGraph(candidates, nil, nil)
	require.NoError(t, err)
	ordered, err := Order(candidates, g)
	require.NoError(t, err)
	assert.Len(t, ordered, n)
	requireProvidersFirst(t, g, ordered)
}

func TestOrderTwoNodeCycle(t *testing.T) {
	// scenario B
	_, err := order(t, cand("A", "B"), cand("B", "A"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircularDependency)

	var cycle *CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, tids("A", "B", "A"), cycle.Path)
	assert.ElementsMatch(t, tids("A", "B"), cycle.Residual)
	assert.Contains(t, err.Error(), "*example.com/app.A -> *example.com/app.B -> *example.com/app.A")
}

func TestOrderCycleWithIndependentPair(t *testing.T) {
	// scenario E
	_, err := order(t,
		cand("A", "B"),
		cand("B", "C"),
		cand("C", "A"),
		cand("D"),
		cand("E", "D"),
	)
	var cycle *CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, tids("A", "B", "C"), cycle.Residual)
	assert.Equal(t, tids("A", "B", "C", "A"), cycle.Path)
}

func TestOrderResidualIncludesDownstream(t *testing.T) {
	_, err := order(t,
		cand("Late", "B"),
		cand("A", "B"),
		cand("B", "A"),
		cand("Free"),
	)
	var cycle *CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, tids("Late", "A", "B"), cycle.Residual)
	assert.Equal(t, tids("B", "A", "B"), cycle.Path)
}

func TestOrderSelfLoop(t *testing.T) {
	_, err := order(t, cand("A", "A"), cand("B"))
	var cycle *CycleError
	require.True(t, errors.As(err, &cycle))
	assert.Equal(t, tids("A", "A"), cycle.Path)
	assert.Equal(t, tids("A"), cycle.Residual)
}

func TestCycleErrorWithoutPath(t *testing.T) {
	err := &CycleError{Residual: tids("A", "B")}
	assert.Equal(t, "circular dependency detected among: *example.com/app.A, *example.com/app.B", err.Error())
	assert.ErrorIs(t, err, ErrCircularDependency)
	assert.NotErrorIs(t, err, ErrUnresolvedDependency)
}
