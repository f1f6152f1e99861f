package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/docentsh/docent/core/providers"
)

// Registry is a named set of tools exposed as one addressable unit.
// Registration order is preserved in the model-facing declarations.
type Registry struct {
	names []string
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Names are unique within a registry.
func (r *Registry) Register(t Tool) error {
	if _, exists := r.tools[t.Name]; exists {
		return fmt.Errorf("tool %q already registered", t.Name)
	}
	r.names = append(r.names, t.Name)
	r.tools[t.Name] = t
	return nil
}

// Decls returns the model-facing tool declarations in registration order.
func (r *Registry) Decls() []providers.ToolDecl {
	decls := make([]providers.ToolDecl, 0, len(r.names))
	for _, name := range r.names {
		t := r.tools[name]
		decls = append(decls, providers.ToolDecl{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	return decls
}

// Call dispatches by exact name. It never panics and never returns an error
// value: every failure mode is folded into an error-flagged Result so the
// agent loop can treat tool outcomes uniformly as data.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (result *Result) {
	defer func() {
		if rec := recover(); rec != nil {
			result = Errorf("tool %s panicked: %v", name, rec)
		}
	}()

	t, ok := r.tools[name]
	if !ok {
		return Errorf("unknown tool: %s", name)
	}

	res, err := t.Handler(ctx, args)
	if err != nil {
		return Errorf("tool %s failed: %v", name, err)
	}
	if res == nil {
		return Errorf("tool %s returned no result", name)
	}
	if res.IsError && len(res.Segments) == 0 {
		return Errorf("tool %s failed", name)
	}
	return res
}

// Separator joins a registry key and a tool name in namespaced declarations.
const Separator = "__"

// NamespacedRegistry combines multiple registries under prefix keys so tool
// names cannot collide across registries. Dispatch splits the prefixed name
// once and routes to the owning registry; no reflection, no runtime
// type-sniffing.
type NamespacedRegistry struct {
	keys       []string
	registries map[string]*Registry
}

// NewNamespacedRegistry creates an empty combined registry.
func NewNamespacedRegistry() *NamespacedRegistry {
	return &NamespacedRegistry{registries: make(map[string]*Registry)}
}

// Add mounts a registry under key. Keys are unique.
func (n *NamespacedRegistry) Add(key string, r *Registry) error {
	if strings.Contains(key, Separator) {
		return fmt.Errorf("registry key %q must not contain %q", key, Separator)
	}
	if _, exists := n.registries[key]; exists {
		return fmt.Errorf("registry %q already added", key)
	}
	n.keys = append(n.keys, key)
	n.registries[key] = r
	return nil
}

// Decls returns every mounted registry's declarations with prefixed names.
func (n *NamespacedRegistry) Decls() []providers.ToolDecl {
	var decls []providers.ToolDecl
	for _, key := range n.keys {
		for _, d := range n.registries[key].Decls() {
			d.Name = key + Separator + d.Name
			decls = append(decls, d)
		}
	}
	return decls
}

// Call reverses the name prefixing and dispatches to the owning registry.
// A name without a known prefix yields an error-flagged result, same as an
// unknown tool.
func (n *NamespacedRegistry) Call(ctx context.Context, name string, args map[string]any) *Result {
	prefix, rest, found := strings.Cut(name, Separator)
	if !found {
		return Errorf("unknown tool: %s", name)
	}

	r, ok := n.registries[prefix]
	if !ok {
		return Errorf("unknown tool: %s", name)
	}

	return r.Call(ctx, rest, args)
}
