// Package config reads scan settings from YAML.
//
//	namespaces: [github.com/acme/shop]
//	exclude: ["github.com/acme/shop.io.Closer"]
//	exempt:
//	  types: ["*github.com/acme/shop/clock.Clock"]
//	  namespaces: [github.com/acme/vendor]
//	convention:
//	  suffixes: [Service, Repository]
//	  lifetime: scoped
//	existing: skip
//	external: ["*database/sql.DB"]
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	gofac "github.com/Ngone6325/gofac-autoscan"
	"github.com/Ngone6325/gofac-autoscan/scan"
)

// Config is the YAML form of the scanner options.
type Config struct {
	// Namespaces restricts scanning. Prefixes match by whole path segment.
	Namespaces []string    `yaml:"namespaces,omitempty"`
	Exclude    []string    `yaml:"exclude,omitempty"`
	Exempt     Exempt      `yaml:"exempt,omitempty"`
	Convention *Convention `yaml:"convention,omitempty"`
	Existing   string      `yaml:"existing,omitempty"`
	// External lists capabilities assumed to be registered already.
	External []string `yaml:"external,omitempty"`
}

// Exempt adds exemption rules on top of the built-in ones.
type Exempt struct {
	Types      []string `yaml:"types,omitempty"`
	Namespaces []string `yaml:"namespaces,omitempty"`
}

// Convention names a suffix rule for units without a lifetime marker.
type Convention struct {
	Suffixes []string `yaml:"suffixes"`
	Lifetime string   `yaml:"lifetime"`
}

// Default skips existing registrations and sets nothing else.
func Default() *Config {
	return &Config{Existing: scan.SkipExisting.String()}
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("error loading config from %s: %w", path, err)
	}
	slog.Debug("configuration loaded", "subsystem", "config", "path", path)
	return cfg, nil
}

// Parse decodes YAML strictly: unknown fields are errors. Empty input
// yields the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs ValidationErrors
	for i, ns := range c.Namespaces {
		if ns == "" {
			errs.Add(fmt.Sprintf("namespaces[%d]", i), "must not be empty")
		}
	}
	for i, ns := range c.Exempt.Namespaces {
		if ns == "" {
			errs.Add(fmt.Sprintf("exempt.namespaces[%d]", i), "must not be empty")
		}
	}
	checkTypes(&errs, "exclude", c.Exclude)
	checkTypes(&errs, "exempt.types", c.Exempt.Types)
	checkTypes(&errs, "external", c.External)
	if c.Convention != nil {
		if len(c.Convention.Suffixes) == 0 {
			errs.Add("convention.suffixes", "at least one suffix is required")
		}
		if _, err := gofac.ParseLifetimeScope(c.Convention.Lifetime); err != nil {
			errs.Add("convention.lifetime", err.Error(), c.Convention.Lifetime)
		}
	}
	if _, err := scan.ParseExistingPolicy(c.Existing); err != nil {
		errs.Add("existing", err.Error(), c.Existing)
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}

func checkTypes(errs *ValidationErrors, field string, in []string) {
	for i, s := range in {
		if _, err := scan.ParseTypeID(s); err != nil {
			errs.Add(fmt.Sprintf("%s[%d]", field, i), err.Error(), s)
		}
	}
}

// Options converts the configuration into scanner options.
func (c *Config) Options() ([]scan.Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var opts []scan.Option
	if len(c.Namespaces) > 0 {
		opts = append(opts, scan.WithNamespaces(c.Namespaces...))
	}
	if len(c.Exclude) > 0 {
		opts = append(opts, scan.WithExcluded(mustParse(c.Exclude)...))
	}
	if len(c.Exempt.Types) > 0 || len(c.Exempt.Namespaces) > 0 {
		opts = append(opts, scan.WithExemptions(scan.Exemptions{
			Types:      mustParse(c.Exempt.Types),
			Namespaces: c.Exempt.Namespaces,
		}))
	}
	if c.Convention != nil {
		lifetime, _ := gofac.ParseLifetimeScope(c.Convention.Lifetime)
		opts = append(opts, scan.WithConvention(scan.SuffixConvention(lifetime, c.Convention.Suffixes...)))
	}
	existing, _ := scan.ParseExistingPolicy(c.Existing)
	opts = append(opts, scan.WithExistingPolicy(existing))
	return opts, nil
}

// Known returns the external capabilities.
func (c *Config) Known() ([]scan.TypeID, error) {
	out := make([]scan.TypeID, 0, len(c.External))
	for i, s := range c.External {
		id, err := scan.ParseTypeID(s)
		if err != nil {
			return nil, ValidationError{Field: fmt.Sprintf("external[%d]", i), Value: s, Message: err.Error()}
		}
		out = append(out, id)
	}
	return out, nil
}

// only called after Validate
func mustParse(in []string) []scan.TypeID {
	out := make([]scan.TypeID, len(in))
	for i, s := range in {
		out[i] = scan.MustParseTypeID(s)
	}
	return out
}
