package s3

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kbukum/whisper-srt/storage"
)

func TestConfig_Validate(t *testing.T) {
	cfg := storage.Config{Provider: storage.ProviderS3, S3: storage.S3Config{Bucket: "subs"}}
	cfg.ApplyDefaults()
	if cfg.S3.Region != storage.DefaultRegion {
		t.Errorf("expected default region, got %q", cfg.S3.Region)
	}
	if got := cfg.Location(); got != "s3://subs" {
		t.Errorf("unexpected location %q", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
	if err := (&storage.S3Config{}).Validate(); err == nil {
		t.Error("expected missing bucket to fail validation")
	}
}

func TestNewStorage_KeyPrefix(t *testing.T) {
	s, err := NewStorage(context.Background(), &storage.S3Config{
		Bucket:    "subs",
		Prefix:    "whisper",
		Region:    "eu-west-1",
		Endpoint:  "http://127.0.0.1:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
	})
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	if got := aws.ToString(s.key("abc.srt")); got != "whisper/abc.srt" {
		t.Errorf("expected prefixed key, got %q", got)
	}
	if !s.client.Options().UsePathStyle {
		t.Error("expected path-style addressing for custom endpoint")
	}
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("get: %w", &types.NoSuchKey{})) {
		t.Error("expected NoSuchKey to be not-found")
	}
	if !errors.Is(wrap("head", "x.srt", &types.NotFound{}), storage.ErrNotFound) {
		t.Error("expected missing objects to map to ErrNotFound")
	}
	if wrap("put", "x.srt", nil) != nil {
		t.Error("expected nil to pass through")
	}
	if !isNotFound(&types.NotFound{}) {
		t.Error("expected NotFound to be not-found")
	}
	if isNotFound(errors.New("access denied")) {
		t.Error("unexpected not-found for generic error")
	}
}

func TestContentType(t *testing.T) {
	if contentType("a.vtt") != "text/vtt; charset=utf-8" || contentType("a.srt") != "text/plain; charset=utf-8" {
		t.Error("unexpected content types")
	}
}
