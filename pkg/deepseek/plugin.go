package deepseek

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"mercator-hq/patientseek/pkg/providers"
	"mercator-hq/patientseek/pkg/providers/openai"
	"mercator-hq/patientseek/pkg/registry"
	"mercator-hq/patientseek/pkg/telemetry/metrics"
)

// PluginName prefixes every model id the plugin defines.
const PluginName = "deepseek"

// DefaultBaseURL is the hosted PatientSeek inference endpoint.
const DefaultBaseURL = "https://sjp8h5vzufpc6woi.us-east-1.aws.endpoints.huggingface.cloud/v1/"

// Environment variables consulted when the matching option is empty.
const (
	EnvAPIURL = "PATIENT_SEEK_API_URL"
	EnvAPIKey = "PATIENT_SEEK_API_KEY"
)

// ModelDefinition declares a model beyond the built-in ones.
type ModelDefinition = registry.ModelReference

// Options configures a Plugin.
type Options struct {
	// APIKey is the backend bearer token (default: PATIENT_SEEK_API_KEY)
	APIKey string

	// BaseURL is the backend endpoint (default: PATIENT_SEEK_API_URL, then
	// DefaultBaseURL)
	BaseURL string

	// Models are registered on top of the registry's models
	Models []ModelDefinition

	// StructuredOutput lists extra wire model ids allowed to receive a
	// response_format
	StructuredOutput []string

	// Transport tunes the HTTP transport. Its BaseURL and APIKey are
	// replaced by the resolved values above.
	Transport providers.TransportConfig

	// Client replaces the HTTP client entirely, mainly for tests
	Client openai.ChatClient

	// Registry is the model table (default: registry.Default())
	Registry *registry.Registry

	// Logger is the structured logger (default: slog.Default())
	Logger *slog.Logger

	// Metrics records per-call metrics; nil disables them
	Metrics *metrics.Collector
}

// Plugin exposes the registry's models as generate-capable models backed by
// one OpenAI-compatible client.
type Plugin struct {
	client    openai.ChatClient
	transport *providers.HTTPTransport
	registry  *registry.Registry
	logger    *slog.Logger
	metrics   *metrics.Collector

	mu     sync.RWMutex
	models map[string]*Model
}

// New creates a plugin and defines a model for every registry entry and
// every custom definition. A definition missing its name or info fails
// with a *providers.ConfigError.
func New(opts Options) (*Plugin, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reg := opts.Registry
	if reg == nil {
		reg = registry.Default()
	}
	reg.AllowStructuredOutput(opts.StructuredOutput...)

	p := &Plugin{
		registry: reg,
		logger:   logger.With("plugin", PluginName),
		metrics:  opts.Metrics,
		models:   make(map[string]*Model),
	}

	p.client = opts.Client
	if p.client == nil {
		tc := opts.Transport
		tc.BaseURL = resolveBaseURL(opts.BaseURL)
		tc.APIKey = resolveAPIKey(opts.APIKey)
		if tc.Name == "" {
			tc.Name = PluginName
		}
		p.transport = providers.NewHTTPTransport(tc, p.logger)
		p.client = openai.NewClient(p.transport, p.logger)
	}

	for _, ref := range reg.Models() {
		p.define(ref.Name)
	}
	for _, def := range opts.Models {
		if _, err := p.DefineModel(def); err != nil {
			return nil, err
		}
	}

	p.logger.Debug("plugin initialized", "models", len(p.models))
	return p, nil
}

func resolveBaseURL(option string) string {
	if option != "" {
		return option
	}
	if env := os.Getenv(EnvAPIURL); env != "" {
		return env
	}
	return DefaultBaseURL
}

func resolveAPIKey(option string) string {
	if option != "" {
		return option
	}
	return os.Getenv(EnvAPIKey)
}

// DefineModel registers def and returns its model. Redefining a name
// replaces the previous definition.
func (p *Plugin) DefineModel(def ModelDefinition) (*Model, error) {
	if def.Name == "" || def.Info.Label == "" {
		return nil, &providers.ConfigError{
			Provider: PluginName,
			Field:    "models",
			Message:  fmt.Sprintf("model %s is missing required fields", def.Name),
		}
	}
	if err := p.registry.Register(def); err != nil {
		return nil, err
	}
	return p.define(def.Name), nil
}

func (p *Plugin) define(name string) *Model {
	m := &Model{name: name, plugin: p}

	p.mu.Lock()
	p.models[name] = m
	p.mu.Unlock()
	return m
}

// Model returns the model named name. The "deepseek/" prefix is optional.
func (p *Plugin) Model(name string) (*Model, error) {
	name = strings.TrimPrefix(name, PluginName+"/")

	p.mu.RLock()
	m, ok := p.models[name]
	p.mu.RUnlock()
	if !ok {
		return nil, &providers.UnsupportedModelError{Model: name}
	}
	return m, nil
}

// Models returns every defined model ordered by name.
func (p *Plugin) Models() []*Model {
	names := p.registry.Names()

	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Model, 0, len(names))
	for _, name := range names {
		if m, ok := p.models[name]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Registry returns the plugin's model table.
func (p *Plugin) Registry() *registry.Registry {
	return p.registry
}

// Close releases idle transport connections.
func (p *Plugin) Close() error {
	if p.transport == nil {
		return nil
	}
	return p.transport.Close()
}
