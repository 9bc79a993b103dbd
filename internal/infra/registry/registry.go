// Package registry holds the set of tools enabled for this process.
// It is populated once at startup from the built-in catalog, filtered
// by the enabled-domain set, and is read-only afterwards, so it is
// safely shared across concurrent requests without locking.
package registry

import (
	"fmt"

	"go.uber.org/zap"

	"adomcp/internal/domain"
)

type Registry struct {
	byName  map[string]*domain.ToolDescriptor
	ordered []*domain.ToolDescriptor
}

// New filters the full catalog down to descriptors whose domain is
// enabled, preserving catalog declaration order. Duplicate names and
// defaults on required parameters are startup-time errors.
func New(catalog []domain.ToolDescriptor, enabled map[domain.Domain]bool, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Registry{
		byName: make(map[string]*domain.ToolDescriptor),
	}

	for i := range catalog {
		desc := &catalog[i]
		if err := validateDescriptor(desc); err != nil {
			return nil, err
		}
		if !enabled[desc.Domain] {
			continue
		}
		if _, exists := r.byName[desc.Name]; exists {
			return nil, fmt.Errorf("%w: %q", domain.ErrDuplicateTool, desc.Name)
		}
		r.byName[desc.Name] = desc
		r.ordered = append(r.ordered, desc)
	}

	logger.Info("tool registry built",
		zap.Int("tools", len(r.ordered)),
		zap.Int("catalog", len(catalog)),
		zap.Int("domains", len(enabled)),
	)
	return r, nil
}

func validateDescriptor(desc *domain.ToolDescriptor) error {
	if desc.Name == "" {
		return fmt.Errorf("tool descriptor with empty name in domain %q", desc.Domain)
	}
	if desc.Handler == nil {
		return fmt.Errorf("tool %q has no handler", desc.Name)
	}
	for _, p := range desc.Params {
		if p.Required && p.Default != nil {
			return fmt.Errorf("tool %q: required parameter %q must not declare a default", desc.Name, p.Name)
		}
	}
	return nil
}

// Lookup returns the descriptor for name, or false when the tool is
// unknown or not enabled. Disabled tools are never present, so callers
// cannot distinguish disabled from nonexistent; that is intentional.
func (r *Registry) Lookup(name string) (*domain.ToolDescriptor, bool) {
	desc, ok := r.byName[name]
	return desc, ok
}

// List returns the enabled descriptors in catalog declaration order.
func (r *Registry) List() []*domain.ToolDescriptor {
	return r.ordered
}

// Len reports the number of enabled tools.
func (r *Registry) Len() int {
	return len(r.ordered)
}
