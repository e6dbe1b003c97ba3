package transcription

import (
	"fmt"
	"time"
)

// Backend names.
const (
	BackendWhisper = "whisper"
	BackendOpenAI  = "openai"
)

// Config selects and configures the transcription backend.
type Config struct {
	// Provider is "whisper" (HTTP sidecar) or "openai".
	Provider string `yaml:"provider" mapstructure:"provider"`
	// URL is the sidecar address, or an OpenAI-compatible base URL.
	URL string `yaml:"url" mapstructure:"url"`
	// Model is the model name passed to the backend.
	Model string `yaml:"model" mapstructure:"model"`
	// APIKey authenticates against the OpenAI API.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// Timeout bounds one transcription call.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// DefaultLanguage is used when a request carries none.
	DefaultLanguage string `yaml:"default_language" mapstructure:"default_language"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = BackendWhisper
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Minute
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = "en"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Provider {
	case BackendWhisper:
	case BackendOpenAI:
		if c.APIKey == "" {
			return fmt.Errorf("transcription.api_key is required for the openai provider")
		}
	default:
		return fmt.Errorf("transcription.provider must be one of [whisper, openai] (got: %s)", c.Provider)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("transcription.timeout must not be negative")
	}
	return nil
}
