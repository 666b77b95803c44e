// Package template supplies the required-section layout of each appraisal
// template type. Built-in layouts can be overridden by a YAML file which is
// optionally watched for changes.
package template

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/alexanderramin/appraise/internal/domain"
	"gopkg.in/yaml.v3"
)

// ErrUnknownTemplate is returned for a template type with no layout.
var ErrUnknownTemplate = errors.New("unknown template type")

// Registry resolves template types to their required sections. Safe for
// concurrent use; Reload swaps the whole table atomically.
type Registry struct {
	mu     sync.RWMutex
	byType map[domain.TemplateType]TemplateConfig
	path   string
}

// NewRegistry creates a registry holding only the built-in layouts.
func NewRegistry() *Registry {
	r := &Registry{}
	r.byType = indexConfigs(Defaults())
	return r
}

// LoadFile creates a registry from the built-in layouts overlaid with the
// templates declared in the YAML file at path. A missing file is not an
// error; the defaults are used.
func LoadFile(path string) (*Registry, error) {
	r := NewRegistry()
	r.path = path
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Path returns the override file path, or "" for a defaults-only registry.
func (r *Registry) Path() string {
	return r.path
}

// Reload re-reads the override file. On error the current table is kept.
func (r *Registry) Reload() error {
	if r.path == "" {
		return nil
	}
	schema, err := loadSchema(r.path)
	if err != nil {
		return err
	}
	merged := indexConfigs(Defaults())
	if schema != nil {
		for _, tc := range schema.Templates {
			merged[tc.Type] = tc.clone()
		}
	}

	r.mu.Lock()
	r.byType = merged
	r.mu.Unlock()
	return nil
}

// RequiredSections returns the ordered required-section list for t. The
// returned slice is a copy.
func (r *Registry) RequiredSections(t domain.TemplateType) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tc, ok := r.byType[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, t)
	}
	return append([]string(nil), tc.RequiredSections...), nil
}

// Templates lists every known layout in template-type order.
func (r *Registry) Templates() []TemplateConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]TemplateConfig, 0, len(r.byType))
	for _, t := range domain.TemplateTypes() {
		if tc, ok := r.byType[t]; ok {
			out = append(out, tc.clone())
		}
	}
	return out
}

func loadSchema(path string) (*FileSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading template file: %w", err)
	}
	var schema FileSchema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parsing template file: %w", err)
	}
	if errs := ValidateSchema(&schema); len(errs) > 0 {
		return nil, fmt.Errorf("invalid template file %s: %w", path, errors.Join(errs...))
	}
	return &schema, nil
}

func indexConfigs(configs []TemplateConfig) map[domain.TemplateType]TemplateConfig {
	out := make(map[domain.TemplateType]TemplateConfig, len(configs))
	for _, tc := range configs {
		out[tc.Type] = tc.clone()
	}
	return out
}
