package scan

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoSource             = errors.New("no discovery source configured")
	ErrDiscovery            = errors.New("discovery failed")
	ErrInvalidTypeID        = errors.New("invalid type identity")
	ErrUnresolvedDependency = errors.New("unresolved dependency")
	ErrCircularDependency   = errors.New("circular dependency detected")
	ErrRegistrationConflict = errors.New("capability already registered")
	ErrNoConstructor        = errors.New("candidate has no constructor or type information")
	ErrRegistration         = errors.New("registration failed")
)

// UnresolvedDependencyError names the first requirement that no candidate,
// exemption or existing registration satisfies.
type UnresolvedDependencyError struct {
	Requirement TypeID
	Dependent   TypeID
}

func (e *UnresolvedDependencyError) Error() string {
	return fmt.Sprintf("%v: %s required by %s", ErrUnresolvedDependency, e.Requirement, e.Dependent)
}

func (e *UnresolvedDependencyError) Is(target error) bool {
	return target == ErrUnresolvedDependency
}

// CycleError reports candidates that could not be ordered.
// Path, when found, starts and ends with the same node.
type CycleError struct {
	Path     []TypeID
	Residual []TypeID
}

func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("%v among: %s", ErrCircularDependency, joinIDs(e.Residual, ", "))
	}
	return fmt.Sprintf("%v: %s", ErrCircularDependency, joinIDs(e.Path, " -> "))
}

func (e *CycleError) Is(target error) bool {
	return target == ErrCircularDependency
}

func joinIDs(ids []TypeID, sep string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.Qualified()
	}
	return strings.Join(parts, sep)
}

// FailureKind classifies a pass failure.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureConfiguration
	FailureUnresolved
	FailureCycle
	FailureRegistration
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureConfiguration:
		return "configuration"
	case FailureUnresolved:
		return "unresolved"
	case FailureCycle:
		return "cycle"
	case FailureRegistration:
		return "registration"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// KindOf maps an error returned by a pass to its failure kind.
// Errors the scanner does not recognise count as configuration failures.
func KindOf(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrCircularDependency):
		return FailureCycle
	case errors.Is(err, ErrUnresolvedDependency):
		return FailureUnresolved
	case errors.Is(err, ErrRegistrationConflict),
		errors.Is(err, ErrNoConstructor),
		errors.Is(err, ErrRegistration):
		return FailureRegistration
	default:
		return FailureConfiguration
	}
}
