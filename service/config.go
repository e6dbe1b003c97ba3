package service

import (
	"time"

	"github.com/kbukum/whisper-srt/validation"
)

// Config controls upload handling and request defaults.
type Config struct {
	// UploadDir receives uploaded audio until it has been transcribed.
	UploadDir string `mapstructure:"dir"`
	// DefaultLanguage is used when a request names none.
	DefaultLanguage string `mapstructure:"default_language"`
	// SyncTimeout bounds a synchronous transcription. 0 disables it.
	SyncTimeout time.Duration `mapstructure:"sync_timeout"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.UploadDir == "" {
		c.UploadDir = "uploads"
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = "en"
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.New().
		Required("uploads.dir", c.UploadDir).
		Language("uploads.default_language", c.DefaultLanguage).
		Custom(c.SyncTimeout >= 0, "uploads.sync_timeout", "must not be negative").
		Validate()
}
