package whisper

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kbukum/whisper-srt/transcription"
)

// ProviderName identifies the sidecar backend in config and errors.
const ProviderName = "whisper"

const (
	defaultURL     = "http://localhost:8387"
	defaultModel   = "base"
	defaultTimeout = 10 * time.Minute
	// errorBodyLimit caps how much of a failed reply is kept in the error.
	errorBodyLimit = 4 << 10
)

// Config points the provider at a whisper sidecar.
type Config struct {
	URL      string        `json:"url" yaml:"url"`
	Model    string        `json:"model" yaml:"model"`
	Language string        `json:"language,omitempty" yaml:"language"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
}

// Provider posts audio to the sidecar's /transcribe as multipart form data
// and reads back its JSON segments.
type Provider struct {
	cfg    Config
	client *http.Client
}

func NewProvider(cfg Config) *Provider {
	cfg.URL = strings.TrimRight(cmp.Or(cfg.URL, defaultURL), "/")
	cfg.Model = cmp.Or(cfg.Model, defaultModel)
	cfg.Timeout = cmp.Or(cfg.Timeout, defaultTimeout)
	return &Provider{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

// FromConfig maps the shared transcription section onto Config.
func FromConfig(cfg transcription.Config) *Provider {
	return NewProvider(Config{
		URL:      cfg.URL,
		Model:    cfg.Model,
		Language: cfg.DefaultLanguage,
		Timeout:  cfg.Timeout,
	})
}

func (p *Provider) Name() string { return ProviderName }

// IsAvailable is true when GET /health answers 200.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL+"/health", http.NoBody)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Transcribe streams the file through a pipe so large uploads are never
// held in memory. A non-200 reply becomes a *transcription.ProviderError.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Response, error) {
	audio, err := os.Open(req.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: %w", err)
	}
	defer audio.Close()

	f := form{
		filename: cmp.Or(req.Filename, filepath.Base(req.AudioPath)),
		model:    cmp.Or(req.Model, p.cfg.Model),
		language: cmp.Or(req.Language, p.cfg.Language),
	}
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() { pw.CloseWithError(f.write(mw, audio)) }()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.URL+"/transcribe", pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("whisper: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("whisper: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return nil, &transcription.ProviderError{Provider: ProviderName, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out reply
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("whisper: decode reply: %w", err)
	}
	return out.response(), nil
}

type form struct {
	filename, model, language string
}

// write emits the "audio" file part, then "model" and an optional "language".
func (f form) write(mw *multipart.Writer, audio io.Reader) error {
	part, err := mw.CreateFormFile("audio", f.filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, audio); err != nil {
		return fmt.Errorf("copy audio: %w", err)
	}
	if err := mw.WriteField("model", f.model); err != nil {
		return err
	}
	if f.language != "" {
		if err := mw.WriteField("language", f.language); err != nil {
			return err
		}
	}
	return mw.Close()
}

// reply is the sidecar's JSON. Times are null for segments the model
// could not align, which decode as zero.
type reply struct {
	Text     string   `json:"text"`
	Language string   `json:"language"`
	Duration *float64 `json:"duration"`
	Segments []struct {
		Text  string   `json:"text"`
		Start *float64 `json:"start"`
		End   *float64 `json:"end"`
	} `json:"segments"`
}

func (r *reply) response() *transcription.Response {
	out := &transcription.Response{
		Text:     r.Text,
		Language: r.Language,
		Duration: deref(r.Duration),
		Segments: make([]transcription.Segment, len(r.Segments)),
	}
	for i, s := range r.Segments {
		out.Segments[i] = transcription.Segment{Start: deref(s.Start), End: deref(s.End), Text: s.Text}
	}
	if out.Duration == 0 && len(out.Segments) > 0 {
		out.Duration = out.Segments[len(out.Segments)-1].End
	}
	return out
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
