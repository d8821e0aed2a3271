package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	gofac "github.com/Ngone6325/gofac-autoscan"
	"github.com/Ngone6325/gofac-autoscan/scan"
)

// ErrInvalidManifest wraps every decoding and validation failure.
var ErrInvalidManifest = errors.New("invalid manifest")

// Document is the YAML form of a manifest.
//
//	name: shop
//	units:
//	  - type: "*example.com/shop/repo.UserRepo"
//	    provides: ["example.com/shop/repo.UserStore"]
//	    requires: ["*database/sql.DB"]
//	    lifetime: singleton
type Document struct {
	Name  string     `yaml:"name"`
	Units []UnitSpec `yaml:"units"`
}

// UnitSpec is one unit of a Document. Types use the TypeID.Qualified form.
type UnitSpec struct {
	Type     string   `yaml:"type"`
	Provides []string `yaml:"provides,omitempty"`
	Requires []string `yaml:"requires,omitempty"`
	Lifetime string   `yaml:"lifetime,omitempty"`
	Excluded bool     `yaml:"excluded,omitempty"`
	Abstract bool     `yaml:"abstract,omitempty"`
}

// Manifest is a scan.Source read from a Document. Its units carry no
// constructors, so it can be planned but only committed to registries that
// do not build instances.
type Manifest struct {
	name     string
	location string
	units    []scan.Unit
}

// Name is the document name, or the file name when the document has none.
func (m *Manifest) Name() string { return m.name }

// Location returns the absolute path the manifest was loaded from, or ""
// for a manifest parsed from memory.
func (m *Manifest) Location() string { return m.location }

// Units returns a copy of the parsed units.
func (m *Manifest) Units() ([]scan.Unit, error) {
	return append([]scan.Unit(nil), m.units...), nil
}

// LoadManifest reads a manifest file. The file name stands in for a missing
// name field.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	fallback := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	m, err := ParseManifest(data, fallback)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if m.location, err = filepath.Abs(path); err != nil {
		m.location = filepath.Clean(path)
	}
	return m, nil
}

// ParseManifest decodes YAML. fallbackName is used when the document has no name.
func ParseManifest(data []byte, fallbackName string) (*Manifest, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if doc.Name == "" {
		doc.Name = fallbackName
	}
	return doc.Manifest()
}

// Manifest validates the document and converts it.
func (d *Document) Manifest() (*Manifest, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidManifest)
	}
	m := &Manifest{name: d.Name, units: make([]scan.Unit, 0, len(d.Units))}
	for i, spec := range d.Units {
		u, err := spec.unit()
		if err != nil {
			return nil, fmt.Errorf("%w: units[%d]: %w", ErrInvalidManifest, i, err)
		}
		m.units = append(m.units, u)
	}
	return m, nil
}

func (s UnitSpec) unit() (scan.Unit, error) {
	impl, err := scan.ParseTypeID(s.Type)
	if err != nil {
		return scan.Unit{}, fmt.Errorf("type: %w", err)
	}
	u := scan.Unit{Impl: impl, Excluded: s.Excluded, Abstract: s.Abstract}
	if u.Capabilities, err = parseTypeIDs(s.Provides); err != nil {
		return scan.Unit{}, fmt.Errorf("provides: %w", err)
	}
	if u.Requires, err = parseTypeIDs(s.Requires); err != nil {
		return scan.Unit{}, fmt.Errorf("requires: %w", err)
	}
	if s.Lifetime != "" {
		if u.Lifetime, err = gofac.ParseLifetimeScope(s.Lifetime); err != nil {
			return scan.Unit{}, err
		}
		u.HasLifetime = true
	}
	return u, nil
}

func parseTypeIDs(in []string) ([]scan.TypeID, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]scan.TypeID, 0, len(in))
	for _, s := range in {
		id, err := scan.ParseTypeID(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// DocumentOf renders units back into manifest form.
func DocumentOf(name string, units []scan.Unit) *Document {
	doc := &Document{Name: name, Units: make([]UnitSpec, 0, len(units))}
	for _, u := range units {
		spec := UnitSpec{
			Type:     u.Impl.Qualified(),
			Provides: qualified(u.Capabilities),
			Requires: qualified(u.Requires),
			Excluded: u.Excluded,
			Abstract: u.Abstract,
		}
		if u.HasLifetime {
			spec.Lifetime = u.Lifetime.String()
		}
		doc.Units = append(doc.Units, spec)
	}
	return doc
}

func qualified(ids []scan.TypeID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Qualified()
	}
	return out
}
