package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/kbukum/whisper-srt/transcription"
)

// ProviderName is the name reported for the OpenAI backend.
const ProviderName = "openai"

// Provider implements transcription.Provider with the OpenAI audio API.
type Provider struct {
	client   *goopenai.Client
	model    string
	language string
}

// NewProvider creates an OpenAI-backed provider. cfg.URL overrides the API
// base URL, which lets OpenAI-compatible servers stand in.
func NewProvider(cfg transcription.Config) *Provider {
	oc := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.URL != "" {
		oc.BaseURL = cfg.URL
	}
	if cfg.Timeout > 0 {
		oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	model := cfg.Model
	if model == "" {
		model = goopenai.Whisper1
	}
	return &Provider{
		client:   goopenai.NewClientWithConfig(oc),
		model:    model,
		language: cfg.DefaultLanguage,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks that the API answers with the configured credentials.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	return err == nil
}

// Transcribe uploads the audio file and returns verbose_json segments.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}
	lang := p.language
	if req.Language != "" {
		lang = req.Language
	}

	areq := goopenai.AudioRequest{
		Model:    model,
		FilePath: req.AudioPath,
		Language: lang,
		Format:   goopenai.AudioResponseFormatVerboseJSON,
	}
	resp, err := p.client.CreateTranscription(ctx, areq)
	if err != nil {
		return nil, mapError(err)
	}

	segments := make([]transcription.Segment, len(resp.Segments))
	for i, seg := range resp.Segments {
		segments[i] = transcription.Segment{Start: seg.Start, End: seg.End, Text: seg.Text}
	}
	return &transcription.Response{
		Text:     resp.Text,
		Segments: segments,
		Duration: resp.Duration,
		Language: resp.Language,
	}, nil
}

func mapError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return &transcription.ProviderError{
			Provider:   ProviderName,
			StatusCode: apiErr.HTTPStatusCode,
			Body:       apiErr.Message,
		}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return &transcription.ProviderError{
			Provider:   ProviderName,
			StatusCode: reqErr.HTTPStatusCode,
			Body:       reqErr.Error(),
		}
	}
	return fmt.Errorf("openai transcription: %w", err)
}
