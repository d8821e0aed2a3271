package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/Ngone6325/gofac-autoscan/scan"
)

type formatter func(w io.Writer, plan *scan.Plan) error

func formatterFor(name string) (formatter, error) {
	switch strings.ToLower(name) {
	case "table", "":
		return writeTable, nil
	case "plain":
		return writePlain, nil
	case "yaml":
		return writeYAML, nil
	}
	return nil, fmt.Errorf("unknown output format %q, want table, plain or yaml", name)
}

func writeTable(w io.Writer, plan *scan.Plan) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "IMPLEMENTATION", "CAPABILITY", "LIFETIME", "PROVIDERS"})
	for i, c := range plan.Order {
		t.AppendRow(table.Row{i + 1, c.Impl.Qualified(), capabilityOf(c), c.Lifetime, len(plan.Graph.Providers(c.Impl))})
	}
	t.AppendFooter(table.Row{"", "pass " + plan.PassID, "", "", fmt.Sprintf("%d edges", plan.Graph.EdgeCount())})
	t.Render()

	if len(plan.Skipped) == 0 {
		return nil
	}
	skipped := table.NewWriter()
	skipped.SetOutputMirror(w)
	skipped.SetStyle(table.StyleRounded)
	skipped.SetTitle("Already registered")
	skipped.AppendHeader(table.Row{"IMPLEMENTATION", "CAPABILITY"})
	for _, c := range plan.Skipped {
		skipped.AppendRow(table.Row{c.Impl.Qualified(), c.Capability.Qualified()})
	}
	skipped.Render()
	return nil
}

func writePlain(w io.Writer, plan *scan.Plan) error {
	for i, c := range plan.Order {
		if _, err := fmt.Fprintf(w, "%d. %s as %s (%s)\n", i+1, c.Impl, capabilityOf(c), c.Lifetime); err != nil {
			return err
		}
	}
	for _, c := range plan.Skipped {
		if _, err := fmt.Fprintf(w, "skipped %s: %s already registered\n", c.Impl, c.Capability); err != nil {
			return err
		}
	}
	return nil
}

type planDocument struct {
	Pass    string         `yaml:"pass"`
	Order   []planEntry    `yaml:"order"`
	Skipped []skippedEntry `yaml:"skipped,omitempty"`
}

type planEntry struct {
	Impl       string   `yaml:"impl"`
	Capability string   `yaml:"capability"`
	Lifetime   string   `yaml:"lifetime"`
	Providers  []string `yaml:"providers,omitempty"`
}

type skippedEntry struct {
	Impl       string `yaml:"impl"`
	Capability string `yaml:"capability"`
}

func writeYAML(w io.Writer, plan *scan.Plan) error {
	doc := planDocument{Pass: plan.PassID, Order: make([]planEntry, 0, len(plan.Order))}
	for _, c := range plan.Order {
		entry := planEntry{
			Impl:       c.Impl.Qualified(),
			Capability: c.Capability.Qualified(),
			Lifetime:   c.Lifetime.String(),
		}
		for _, p := range plan.Graph.Providers(c.Impl) {
			entry.Providers = append(entry.Providers, p.Qualified())
		}
		doc.Order = append(doc.Order, entry)
	}
	for _, c := range plan.Skipped {
		doc.Skipped = append(doc.Skipped, skippedEntry{Impl: c.Impl.Qualified(), Capability: c.Capability.Qualified()})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func capabilityOf(c scan.Candidate) string {
	if c.SelfRegistered() {
		return "(self)"
	}
	return c.Capability.Qualified()
}
