// Package registry holds the caller-owned table of supported models, their
// capabilities and the structured-output allow-list.
//
// A Registry is never global: each plugin instance owns one, so independent
// configurations can coexist in one process.
package registry

import (
	"sort"
	"sync"

	"mercator-hq/patientseek/pkg/protocol"
	"mercator-hq/patientseek/pkg/providers"
)

// ModelReference describes a supported model.
type ModelReference struct {
	// Name is the registry key (e.g. "whyhow-ai/PatientSeek")
	Name string

	// Version, when set, is sent as the wire model id instead of Name
	Version string

	// Info advertises the model's capabilities
	Info protocol.ModelInfo

	// ConfigSchema is the JSON Schema generation configs are validated
	// against. Nil disables validation.
	ConfigSchema map[string]any
}

// Registry is a concurrency-safe lookup table of model references.
type Registry struct {
	mu         sync.RWMutex
	models     map[string]ModelReference
	structured map[string]struct{}
	validator  *SchemaValidator
}

// New creates a registry holding refs. It panics on an invalid reference,
// which only happens with programmer-supplied literals; use Register for
// user input.
func New(refs ...ModelReference) *Registry {
	r := &Registry{
		models:     make(map[string]ModelReference),
		structured: make(map[string]struct{}),
		validator:  NewSchemaValidator(),
	}
	for _, ref := range refs {
		if err := r.Register(ref); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds or replaces a model. Name and Info.Label are required.
func (r *Registry) Register(ref ModelReference) error {
	if ref.Name == "" {
		return &providers.ConfigError{
			Provider: "registry",
			Field:    "name",
			Message:  "model is missing required name",
		}
	}
	if ref.Info.Label == "" {
		return &providers.ConfigError{
			Provider: "registry",
			Field:    "info",
			Message:  "model " + ref.Name + " is missing required info",
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[ref.Name] = ref
	return nil
}

// Lookup returns the model registered under name.
func (r *Registry) Lookup(name string) (ModelReference, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ref, ok := r.models[name]
	return ref, ok
}

// Resolve is like Lookup but returns an UnsupportedModelError for unknown
// names.
func (r *Registry) Resolve(name string) (ModelReference, error) {
	ref, ok := r.Lookup(name)
	if !ok {
		return ModelReference{}, &providers.UnsupportedModelError{Model: name}
	}
	return ref, nil
}

// Names returns the registered model names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Models returns the registered references sorted by name.
func (r *Registry) Models() []ModelReference {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	refs := make([]ModelReference, 0, len(names))
	for _, name := range names {
		refs = append(refs, r.models[name])
	}
	return refs
}

// AllowStructuredOutput adds wire model ids to the structured-output
// allow-list. Only allow-listed ids get a response_format directive.
func (r *Registry) AllowStructuredOutput(wireModels ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range wireModels {
		r.structured[m] = struct{}{}
	}
}

// AllowsStructuredOutput reports whether wireModel is on the allow-list.
func (r *Registry) AllowsStructuredOutput(wireModel string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.structured[wireModel]
	return ok
}

// ValidateConfig checks cfg against the named model's config schema. A
// model without a schema, or a nil config, always passes.
func (r *Registry) ValidateConfig(name string, cfg *protocol.GenerationConfig) error {
	ref, err := r.Resolve(name)
	if err != nil {
		return err
	}
	if ref.ConfigSchema == nil || cfg == nil {
		return nil
	}
	return r.validator.Validate(ref.ConfigSchema, cfg)
}
