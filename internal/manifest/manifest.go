// Package manifest reads the bootstrap manifest: the modules to load and the
// recovery sources to consult, declared in HCL.
//
//	module "Clock" {
//	  url = "https://cdn.example.com/clock.lua"
//	}
//
//	source "session" {
//	  priority = 10
//	}
package manifest

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Recovery source kinds.
const (
	KindSession = "session"
	KindToken   = "token"
	KindProfile = "profile"
)

// defaultPriorities ranks the live session above token introspection, and
// both above the cached profile.
var defaultPriorities = map[string]int{
	KindSession: 10,
	KindToken:   20,
	KindProfile: 30,
}

// ErrInvalidManifest is wrapped by every validation failure.
var ErrInvalidManifest = errors.New("invalid manifest")

// Manifest is a decoded and validated bootstrap manifest.
type Manifest struct {
	Modules []Module
	Sources []SourceSpec
}

// Module declares one module script.
type Module struct {
	Symbol string
	URL    string
}

// SourceSpec configures one recovery source.
type SourceSpec struct {
	Kind     string
	Priority int
	Enabled  bool
}

// hclManifest represents the top-level structure of a manifest file for decoding.
type hclManifest struct {
	Modules []*hclModule `hcl:"module,block"`
	Sources []*hclSource `hcl:"source,block"`
}

type hclModule struct {
	Symbol string `hcl:"symbol,label"`
	URL    string `hcl:"url"`
}

type hclSource struct {
	Kind     string `hcl:"kind,label"`
	Priority *int   `hcl:"priority,optional"`
	Enabled  *bool  `hcl:"enabled,optional"`
}

// Load parses and validates the manifest file at path.
func Load(path string) (*Manifest, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, diags)
	}
	return decode(path, file.Body)
}

// Parse parses and validates manifest source. filename is used in diagnostics.
func Parse(src []byte, filename string) (*Manifest, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", filename, diags)
	}
	return decode(filename, file.Body)
}

func decode(name string, body hcl.Body) (*Manifest, error) {
	var parsed hclManifest
	if diags := gohcl.DecodeBody(body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", name, diags)
	}

	m := &Manifest{
		Modules: make([]Module, 0, len(parsed.Modules)),
	}
	for _, mod := range parsed.Modules {
		m.Modules = append(m.Modules, Module{Symbol: mod.Symbol, URL: mod.URL})
	}

	if len(parsed.Sources) == 0 {
		m.Sources = DefaultSources()
	}
	for _, src := range parsed.Sources {
		spec := SourceSpec{Kind: src.Kind, Priority: defaultPriorities[src.Kind], Enabled: true}
		if src.Priority != nil {
			spec.Priority = *src.Priority
		}
		if src.Enabled != nil {
			spec.Enabled = *src.Enabled
		}
		m.Sources = append(m.Sources, spec)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", name, err)
	}
	return m, nil
}

// DefaultSources enables every known source at its default priority.
func DefaultSources() []SourceSpec {
	return []SourceSpec{
		{Kind: KindSession, Priority: defaultPriorities[KindSession], Enabled: true},
		{Kind: KindToken, Priority: defaultPriorities[KindToken], Enabled: true},
		{Kind: KindProfile, Priority: defaultPriorities[KindProfile], Enabled: true},
	}
}

// Validate checks symbols, URLs and source kinds. Every problem is reported.
func (m *Manifest) Validate() error {
	var errs []error

	symbols := make(map[string]bool, len(m.Modules))
	for _, mod := range m.Modules {
		if mod.Symbol == "" {
			errs = append(errs, fmt.Errorf("%w: module with empty symbol", ErrInvalidManifest))
			continue
		}
		if symbols[mod.Symbol] {
			errs = append(errs, fmt.Errorf("%w: module %q declared twice", ErrInvalidManifest, mod.Symbol))
		}
		symbols[mod.Symbol] = true

		if err := validateURL(mod.URL); err != nil {
			errs = append(errs, fmt.Errorf("%w: module %q: %v", ErrInvalidManifest, mod.Symbol, err))
		}
	}

	kinds := make(map[string]bool, len(m.Sources))
	for _, src := range m.Sources {
		if _, ok := defaultPriorities[src.Kind]; !ok {
			errs = append(errs, fmt.Errorf("%w: unknown source kind %q", ErrInvalidManifest, src.Kind))
			continue
		}
		if kinds[src.Kind] {
			errs = append(errs, fmt.Errorf("%w: source %q declared twice", ErrInvalidManifest, src.Kind))
		}
		kinds[src.Kind] = true
	}

	return errors.Join(errs...)
}

// EnabledSources returns the enabled sources in declaration order.
func (m *Manifest) EnabledSources() []SourceSpec {
	out := make([]SourceSpec, 0, len(m.Sources))
	for _, src := range m.Sources {
		if src.Enabled {
			out = append(out, src)
		}
	}
	return out
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("malformed url: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %q must be absolute http(s)", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}
