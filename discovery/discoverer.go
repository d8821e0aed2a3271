package discovery

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/Ngone6325/gofac-autoscan/scan"
)

// Discoverer caches the units of each source per namespace filter. It is
// safe for concurrent passes: concurrent misses on one key share a single
// read of the source, and failed reads are not cached.
//
// A source is identified by its scan.Locator location when it has one, by
// pointer identity otherwise. Two sources sharing a display name never share
// an entry.
type Discoverer struct {
	mu      sync.Mutex
	store   map[cacheKey][]scan.Unit
	sf      singleflight.Group
	metrics *Metrics
	logger  *slog.Logger
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithMetrics records cache hits, misses and shared reads on m.
func WithMetrics(m *Metrics) Option {
	return func(d *Discoverer) { d.metrics = m }
}

// WithLogger sets the logger for cache fills. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(d *Discoverer) { d.logger = l }
}

// NewDiscoverer returns an empty cache.
func NewDiscoverer(opts ...Option) *Discoverer {
	d := &Discoverer{store: make(map[cacheKey][]scan.Unit)}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	d.logger = d.logger.With("subsystem", "discovery")
	return d
}

var _ scan.Discoverer = (*Discoverer)(nil)

// Discover returns the units of src under the namespace filters, reading
// src at most once per filter set.
func (d *Discoverer) Discover(src scan.Source, namespaces []string) ([]scan.Unit, error) {
	key := keyOf(src, namespaces)

	if units, ok := d.get(key); ok {
		d.metrics.hit(src.Name())
		return units, nil
	}
	d.metrics.miss(src.Name())

	v, err, shared := d.sf.Do(key.String(), func() (any, error) {
		// another caller may have filled the entry meanwhile
		if units, ok := d.get(key); ok {
			return units, nil
		}
		units, err := src.Units()
		if err != nil {
			return nil, err
		}
		units = scan.FilterUnits(units, namespaces)
		d.mu.Lock()
		d.store[key] = units
		d.mu.Unlock()
		d.logger.Debug("source cached", "source", src.Name(), "units", len(units))
		return units, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		d.metrics.share(src.Name())
	}
	return append([]scan.Unit(nil), v.([]scan.Unit)...), nil
}

func (d *Discoverer) get(key cacheKey) ([]scan.Unit, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	units, ok := d.store[key]
	if !ok {
		return nil, false
	}
	return append([]scan.Unit(nil), units...), true
}

// Len returns the number of cached entries.
func (d *Discoverer) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.store)
}

// Reset drops every cached entry.
func (d *Discoverer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.store = make(map[cacheKey][]scan.Unit)
}

// cacheKey pairs a source identity with a namespace filter signature. The
// source is a location string, a pointer source itself, or a type-qualified
// name for value sources that are not comparable.
type cacheKey struct {
	source  any
	filters string
}

func (k cacheKey) String() string {
	if s, ok := k.source.(string); ok {
		return s + "\x00" + k.filters
	}
	return fmt.Sprintf("%T@%p\x00%s", k.source, k.source, k.filters)
}

// keyOf is independent of filter order.
func keyOf(src scan.Source, namespaces []string) cacheKey {
	sorted := append([]string(nil), namespaces...)
	sort.Strings(sorted)
	return cacheKey{source: sourceIdentity(src), filters: strings.Join(sorted, "\x00")}
}

func sourceIdentity(src scan.Source) any {
	if l, ok := src.(scan.Locator); ok {
		if loc := l.Location(); loc != "" {
			return "location:" + loc
		}
	}
	if reflect.TypeOf(src).Kind() == reflect.Ptr {
		return src
	}
	return fmt.Sprintf("name:%T:%s", src, src.Name())
}
