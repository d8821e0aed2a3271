package scan

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	gofac "github.com/Ngone6325/gofac-autoscan"
)

// Source yields the units of one discovery scope. Name is for display and
// need not be unique.
type Source interface {
	Name() string
	Units() ([]Unit, error)
}

// Locator is implemented by sources backed by a stable location, such as a
// file path. Caches key such sources by Location instead of by identity.
type Locator interface {
	Location() string
}

// Discoverer enumerates the units of a source under optional namespace filters.
type Discoverer interface {
	Discover(src Source, namespaces []string) ([]Unit, error)
}

// DiscovererFunc adapts a function to Discoverer.
type DiscovererFunc func(src Source, namespaces []string) ([]Unit, error)

// Discover calls f.
func (f DiscovererFunc) Discover(src Source, namespaces []string) ([]Unit, error) {
	return f(src, namespaces)
}

// DirectDiscoverer reads the source on every call.
var DirectDiscoverer Discoverer = DiscovererFunc(func(src Source, namespaces []string) ([]Unit, error) {
	units, err := src.Units()
	if err != nil {
		return nil, err
	}
	return FilterUnits(units, namespaces), nil
})

// FilterUnits keeps units whose namespace lies under one of the prefixes.
// No prefixes keeps everything.
func FilterUnits(units []Unit, namespaces []string) []Unit {
	if len(namespaces) == 0 {
		return units
	}
	out := make([]Unit, 0, len(units))
	for _, u := range units {
		if matchesAnyNamespace(u.Namespace(), namespaces) {
			out = append(out, u)
		}
	}
	return out
}

// ExistingPolicy decides what happens to candidates whose capability is
// already registered when the pass starts.
type ExistingPolicy int

const (
	// SkipExisting leaves them out of the order and reports them in Plan.Skipped.
	SkipExisting ExistingPolicy = iota
	// IncludeExisting keeps them and lets the registry reject duplicates.
	IncludeExisting
)

func (p ExistingPolicy) String() string {
	switch p {
	case SkipExisting:
		return "skip"
	case IncludeExisting:
		return "include"
	default:
		return fmt.Sprintf("ExistingPolicy(%d)", int(p))
	}
}

// ParseExistingPolicy parses "skip" or "include". Empty means skip.
func ParseExistingPolicy(s string) (ExistingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return SkipExisting, nil
	case "include":
		return IncludeExisting, nil
	}
	return SkipExisting, fmt.Errorf("unknown existing policy %q, want skip or include", s)
}

// UnmarshalText lets the policy be decoded from YAML and flags.
func (p *ExistingPolicy) UnmarshalText(text []byte) error {
	parsed, err := ParseExistingPolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Plan is the outcome of a successful pass.
type Plan struct {
	PassID  string
	Order   []Candidate
	Skipped []Candidate
	Graph   *Graph
}

// Scanner runs discovery, classification, graph construction and ordering.
type Scanner struct {
	discoverer Discoverer
	classifier Classifier
	exemptions Exemptions
	policy     *Policy
	existing   ExistingPolicy
	onFailure  func(error)
	logger     *slog.Logger
	metrics    *Metrics
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithDiscoverer replaces DirectDiscoverer, e.g. with a caching one.
func WithDiscoverer(d Discoverer) Option {
	return func(s *Scanner) { s.discoverer = d }
}

// WithNamespaces restricts discovery and classification to namespace prefixes.
// A prefix matches by whole path segment: "github.com/acme/sh" does not
// select "github.com/acme/shop". Pass the full package path instead.
func WithNamespaces(prefixes ...string) Option {
	return func(s *Scanner) {
		s.classifier.Namespaces = append(s.classifier.Namespaces, prefixes...)
	}
}

// WithExcluded excludes capabilities from being exposed. Listing a unit's own
// implementation drops that unit from the pass.
func WithExcluded(ids ...TypeID) Option {
	return func(s *Scanner) {
		if s.classifier.Excluded == nil {
			s.classifier.Excluded = NewTypeSet()
		}
		for _, id := range ids {
			s.classifier.Excluded.Add(id)
		}
	}
}

// WithExemptions adds to the built-in exemption rules.
func WithExemptions(ex Exemptions) Option {
	return func(s *Scanner) {
		s.exemptions.Types = append(s.exemptions.Types, ex.Types...)
		s.exemptions.Namespaces = append(s.exemptions.Namespaces, ex.Namespaces...)
		s.exemptions.Predicates = append(s.exemptions.Predicates, ex.Predicates...)
	}
}

// WithConvention sets the lifetime convention for unmarked units.
func WithConvention(c *Convention) Option {
	return func(s *Scanner) { s.classifier.Convention = c }
}

// WithExistingPolicy chooses how already registered capabilities are treated.
func WithExistingPolicy(p ExistingPolicy) Option {
	return func(s *Scanner) { s.existing = p }
}

// WithFailureHook observes every failure before it is returned.
func WithFailureHook(fn func(error)) Option {
	return func(s *Scanner) { s.onFailure = fn }
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// WithMetrics records pass and commit outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(s *Scanner) { s.metrics = m }
}

// New creates a Scanner with DirectDiscoverer and no filters.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		discoverer: DirectDiscoverer,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("subsystem", "scan")
	s.policy = NewPolicy(s.exemptions)
	return s
}

// Plan computes the activation order for the units of sources. registry
// may be nil, in which case nothing counts as already registered.
func (s *Scanner) Plan(registry Registry, sources ...Source) (*Plan, error) {
	passID := uuid.NewString()
	log := s.logger.With("pass", passID)
	start := time.Now()

	plan, err := s.plan(log, passID, registry, sources)
	s.metrics.observePlan(plan, err, time.Since(start))
	if err != nil {
		return nil, s.fail(log, err)
	}
	log.Info("activation order computed",
		"candidates", len(plan.Order),
		"skipped", len(plan.Skipped),
		"edges", plan.Graph.EdgeCount(),
		"duration", time.Since(start))
	return plan, nil
}

func (s *Scanner) plan(log *slog.Logger, passID string, registry Registry, sources []Source) (*Plan, error) {
	usable := make([]Source, 0, len(sources))
	for _, src := range sources {
		if src != nil {
			usable = append(usable, src)
		}
	}
	if len(usable) == 0 {
		return nil, ErrNoSource
	}

	var units []Unit
	for _, src := range usable {
		found, err := s.discoverer.Discover(src, s.classifier.Namespaces)
		if err != nil {
			return nil, fmt.Errorf("%w: source %q: %w", ErrDiscovery, src.Name(), err)
		}
		log.Debug("source discovered", "source", src.Name(), "units", len(found))
		units = append(units, found...)
	}

	known := NewKnownSet()
	if registry != nil {
		known = NewKnownSet(registry.Capabilities()...)
	}

	candidates := s.classifier.Classify(units)
	log.Debug("units classified", "units", len(units), "candidates", len(candidates))

	var skipped []Candidate
	if s.existing == SkipExisting && len(known) > 0 {
		kept := candidates[:0:0]
		for _, c := range candidates {
			if known.Has(c.Capability) {
				log.Debug("capability already registered, skipping", "capability", c.Capability.Qualified(), "impl", c.Impl.Qualified())
				skipped = append(skipped, c)
				continue
			}
			kept = append(kept, c)
		}
		candidates = kept
	}

	g, err := BuildGraph(candidates, known, s.policy)
	if err != nil {
		return nil, err
	}
	ordered, err := Order(candidates, g)
	if err != nil {
		return nil, err
	}
	return &Plan{PassID: passID, Order: ordered, Skipped: skipped, Graph: g}, nil
}

// Commit registers the plan's candidates in order. Every candidate is
// checked first; a conflict aborts the commit before any registration.
func (s *Scanner) Commit(plan *Plan, registry Registry) error {
	if plan == nil || registry == nil {
		return s.fail(s.logger, fmt.Errorf("%w: nil plan or registry", ErrRegistration))
	}
	log := s.logger.With("pass", plan.PassID)

	n, err := commit(plan, registry)
	s.metrics.observeCommit(n, err)
	if err != nil {
		return s.fail(log, err)
	}
	log.Info("candidates registered", "count", n)
	return nil
}

func commit(plan *Plan, registry Registry) (int, error) {
	taken := NewKnownSet(registry.Capabilities()...)
	validator, _ := registry.(Validator)
	for _, c := range plan.Order {
		if taken.Has(c.Capability) {
			return 0, fmt.Errorf("%w: %s (impl %s)", ErrRegistrationConflict, c.Capability, c.Impl)
		}
		if validator != nil {
			if err := validator.CanRegister(c); err != nil {
				return 0, err
			}
		}
		taken.Add(c.Capability)
	}

	for i, c := range plan.Order {
		if err := registry.Register(c); err != nil {
			return i, err
		}
	}
	return len(plan.Order), nil
}

// Scan plans and commits in one call.
func (s *Scanner) Scan(registry Registry, sources ...Source) (*Plan, error) {
	plan, err := s.Plan(registry, sources...)
	if err != nil {
		return nil, err
	}
	if err := s.Commit(plan, registry); err != nil {
		return nil, err
	}
	return plan, nil
}

// ScanInto scans sources into a gofac container.
func (s *Scanner) ScanInto(c *gofac.Container, sources ...Source) (*Plan, error) {
	return s.Scan(NewContainerRegistry(c), sources...)
}

func (s *Scanner) fail(log *slog.Logger, err error) error {
	log.Error("scan failed", "kind", KindOf(err).String(), "error", err)
	if s.onFailure != nil {
		s.onFailure(err)
	}
	return err
}
