// Package scan orders convention-discovered services before they are
// registered in a gofac container.
//
// A pass runs in one direction:
//
//	units -> Classify -> candidates -> BuildGraph -> Order -> Registry
//
// Classification keeps only units that opt in through a lifetime marker or a
// Convention and picks the capability each one is registered under.
// BuildGraph links every requirement to the in-batch candidate providing it;
// requirements without a provider must be exempt (see Policy) or the pass
// fails with an *UnresolvedDependencyError. Order applies Kahn's algorithm
// and reports a *CycleError with the offending path when no order exists.
//
// Scanner wires the steps together, snapshots what a Registry already holds
// and commits the result in order, all or nothing.
package scan
