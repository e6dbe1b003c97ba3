package storage

import (
	"errors"
	"fmt"
)

const (
	ProviderLocal = "local"
	ProviderS3    = "s3"

	DefaultPath   = "results"
	DefaultRegion = "us-east-1"
)

// Config is the storage section. Only the block of the selected provider
// is read.
//
//	storage:
//	  provider: s3
//	  s3:
//	    bucket: subtitles
//	    endpoint: http://minio:9000
type Config struct {
	Provider string      `mapstructure:"provider"`
	Local    LocalConfig `mapstructure:"local"`
	S3       S3Config    `mapstructure:"s3"`
}

// LocalConfig roots the local backend at Path.
type LocalConfig struct {
	Path string `mapstructure:"path"`
}

// S3Config addresses a bucket on S3 or an S3-compatible server. Without
// keys the default AWS credential chain is used.
type S3Config struct {
	Bucket         string `mapstructure:"bucket"`
	Prefix         string `mapstructure:"prefix"`
	Region         string `mapstructure:"region"`
	Endpoint       string `mapstructure:"endpoint"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	ForcePathStyle bool   `mapstructure:"force_path_style"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderLocal
	}
	if c.Local.Path == "" {
		c.Local.Path = DefaultPath
	}
	c.S3.ApplyDefaults()
}

func (c *S3Config) ApplyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

// Validate checks the selected provider's block.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLocal:
		if c.Local.Path == "" {
			return errors.New("storage: local.path is required")
		}
		return nil
	case ProviderS3:
		if err := c.S3.Validate(); err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("storage: unsupported provider %q", c.Provider)
	}
}

// Validate reports every problem at once.
func (c *S3Config) Validate() error {
	var errs []error
	if c.Bucket == "" {
		errs = append(errs, errors.New("s3.bucket is required"))
	}
	if c.Region == "" {
		errs = append(errs, errors.New("s3.region is required"))
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		errs = append(errs, errors.New("s3.access_key and s3.secret_key must be set together"))
	}
	return errors.Join(errs...)
}

// Location names where results end up, for logs and the startup summary.
func (c *Config) Location() string {
	if c.Provider == ProviderS3 {
		loc := "s3://" + c.S3.Bucket
		if c.S3.Prefix != "" {
			loc += "/" + c.S3.Prefix
		}
		return loc
	}
	return c.Local.Path
}
