// Package llm provides the generation-service configuration and client abstraction.
package llm

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for short, cheap calls such as connectivity checks
	TierLite ModelTier = "lite"
	// TierStandard is used for blog generation
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long-form rewrites that need a stronger model
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
)

// Sampling defaults for blog generation.
const (
	DefaultTemperature     float32 = 0.7
	DefaultTopK            int32   = 40
	DefaultTopP            float32 = 0.95
	DefaultMaxOutputTokens int32   = 30000
)

// Sampling controls how the model samples its output.
type Sampling struct {
	Temperature     float32
	TopK            int32
	TopP            float32
	MaxOutputTokens int32
}

// Config holds the model configuration for the application
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
	Sampling Sampling
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Sampling: DefaultSampling(),
	}
}

// DefaultSampling returns the sampling parameters used for blog generation.
func DefaultSampling() Sampling {
	return Sampling{
		Temperature:     DefaultTemperature,
		TopK:            DefaultTopK,
		TopP:            DefaultTopP,
		MaxOutputTokens: DefaultMaxOutputTokens,
	}
}

// withDefaults fills zero sampling values.
func (s Sampling) withDefaults() Sampling {
	d := DefaultSampling()
	if s.Temperature <= 0 {
		s.Temperature = d.Temperature
	}
	if s.TopK <= 0 {
		s.TopK = d.TopK
	}
	if s.TopP <= 0 {
		s.TopP = d.TopP
	}
	if s.MaxOutputTokens <= 0 {
		s.MaxOutputTokens = d.MaxOutputTokens
	}
	return s
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := &Config{
		Provider: c.Provider,
		Models:   make(map[ModelTier]string, len(c.Models)+1),
		Sampling: c.Sampling,
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return newConfig
}
