package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/patientseek/pkg/protocol"
	"mercator-hq/patientseek/pkg/providers"
)

func testModel(name string) ModelReference {
	return ModelReference{
		Name: name,
		Info: protocol.ModelInfo{
			Label:    "Test " + name,
			Supports: protocol.ModelSupports{Output: []protocol.OutputFormat{protocol.OutputText}},
		},
	}
}

func TestDefault(t *testing.T) {
	r := Default()

	ref, ok := r.Lookup(PatientSeek)
	require.True(t, ok)
	assert.Equal(t, "Whyhow - PatientSeek", ref.Info.Label)
	assert.True(t, ref.Info.SupportsOutput(protocol.OutputJSON))
	assert.True(t, ref.Info.SupportsOutput(protocol.OutputText))
	assert.True(t, ref.Info.Supports.Multiturn)
	assert.True(t, ref.Info.Supports.SystemRole)
	assert.False(t, ref.Info.Supports.Tools)
	assert.False(t, ref.Info.Supports.Media)

	assert.True(t, r.AllowsStructuredOutput(PatientSeek))
	assert.False(t, r.AllowsStructuredOutput("deepseek-chat"))
	assert.Equal(t, []string{PatientSeek}, r.Names())
}

func TestRegistriesAreIndependent(t *testing.T) {
	a := Default()
	b := Default()

	require.NoError(t, a.Register(testModel("extra")))
	a.AllowStructuredOutput("extra")

	_, ok := b.Lookup("extra")
	assert.False(t, ok)
	assert.False(t, b.AllowsStructuredOutput("extra"))
}

func TestRegister_RequiredFields(t *testing.T) {
	r := New()

	var cfgErr *providers.ConfigError

	err := r.Register(ModelReference{Info: protocol.ModelInfo{Label: "x"}})
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "name", cfgErr.Field)

	err = r.Register(ModelReference{Name: "nolabel"})
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "info", cfgErr.Field)

	assert.Empty(t, r.Names())
}

func TestNew_PanicsOnInvalidReference(t *testing.T) {
	assert.Panics(t, func() { New(ModelReference{}) })
}

func TestResolve(t *testing.T) {
	r := New(testModel("b"), testModel("a"))

	_, err := r.Resolve("missing")
	var modelErr *providers.UnsupportedModelError
	require.True(t, errors.As(err, &modelErr))
	assert.Equal(t, "missing", modelErr.Model)

	ref, err := r.Resolve("a")
	require.NoError(t, err)
	assert.Equal(t, "a", ref.Name)

	assert.Equal(t, []string{"a", "b"}, r.Names())
	models := r.Models()
	require.Len(t, models, 2)
	assert.Equal(t, "a", models[0].Name)
}

func TestValidateConfig(t *testing.T) {
	r := Default()

	tests := []struct {
		name    string
		cfg     *protocol.GenerationConfig
		wantErr bool
	}{
		{"nil config", nil, false},
		{"empty config", &protocol.GenerationConfig{}, false},
		{"valid", &protocol.GenerationConfig{
			Temperature:      protocol.Ptr(0.7),
			FrequencyPenalty: protocol.Ptr(1.5),
			TopLogProbs:      protocol.Ptr(5),
			LogitBias:        map[string]float64{"50256": -100},
		}, false},
		{"frequency penalty too high", &protocol.GenerationConfig{FrequencyPenalty: protocol.Ptr(2.5)}, true},
		{"presence penalty too low", &protocol.GenerationConfig{PresencePenalty: protocol.Ptr(-3.0)}, true},
		{"top logprobs out of range", &protocol.GenerationConfig{TopLogProbs: protocol.Ptr(21)}, true},
		{"logit bias out of range", &protocol.GenerationConfig{LogitBias: map[string]float64{"1": 150}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.ValidateConfig(PatientSeek, tt.cfg)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var validationErr *providers.ValidationError
			assert.True(t, errors.As(err, &validationErr), "expected ValidationError, got %v", err)
		})
	}
}

func TestValidateConfig_NoSchema(t *testing.T) {
	r := New(testModel("free"))
	err := r.ValidateConfig("free", &protocol.GenerationConfig{FrequencyPenalty: protocol.Ptr(99.0)})
	assert.NoError(t, err)
}

func TestValidateConfig_BadSchema(t *testing.T) {
	ref := testModel("broken")
	ref.ConfigSchema = map[string]any{"type": 12}
	r := New(ref)

	err := r.ValidateConfig("broken", &protocol.GenerationConfig{})
	var cfgErr *providers.ConfigError
	assert.True(t, errors.As(err, &cfgErr), "expected ConfigError, got %v", err)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := Default()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = r.Register(testModel("m"))
		}()
		go func() {
			defer wg.Done()
			_, _ = r.Lookup(PatientSeek)
			_ = r.AllowsStructuredOutput(PatientSeek)
		}()
	}
	wg.Wait()
	assert.Len(t, r.Names(), 2)
}
