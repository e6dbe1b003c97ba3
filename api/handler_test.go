package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/whisper-srt/errors"
	"github.com/kbukum/whisper-srt/logger"
	"github.com/kbukum/whisper-srt/server/middleware"
	"github.com/kbukum/whisper-srt/service"
	"github.com/kbukum/whisper-srt/subtitle"
	"github.com/kbukum/whisper-srt/task"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.SetGlobalLogger(logger.NewNop())
	os.Exit(m.Run())
}

type fakeTranscriber struct {
	gotUpload service.Upload
	gotAudio  string
	text      string
	format    subtitle.Format
	taskID    string
	result    *service.Result
	err       error
}

func (f *fakeTranscriber) capture(up service.Upload) {
	f.gotUpload = up
	b, _ := io.ReadAll(up.Body)
	f.gotAudio = string(b)
}

func (f *fakeTranscriber) Transcribe(_ context.Context, up service.Upload) (string, subtitle.Format, error) {
	f.capture(up)
	return f.text, f.format, f.err
}

func (f *fakeTranscriber) Submit(_ context.Context, up service.Upload) (string, error) {
	f.capture(up)
	return f.taskID, f.err
}

func (f *fakeTranscriber) Lookup(_ context.Context, _ string) (*service.Result, error) {
	return f.result, f.err
}

func newRouter(svc Transcriber) *gin.Engine {
	r := gin.New()
	NewHandler(svc).Register(r)
	return r
}

// multipartBody builds a form. A nil audio omits the part; filename ""
// sends the part with an empty filename like a browser with no selection.
func multipartBody(t *testing.T, filename string, audio []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("WriteField failed: %v", err)
		}
	}
	if audio != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="audio"; filename="`+filename+`"`)
		h.Set("Content-Type", "application/octet-stream")
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart failed: %v", err)
		}
		part.Write(audio)
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func do(r http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func errorOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body apperrors.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rr.Body.String(), err)
	}
	return body.Error
}

func TestTranscribe_ReturnsSubtitleText(t *testing.T) {
	srt := "1\n00:00:00,000 --> 00:00:01,500\nHello\n\n"
	svc := &fakeTranscriber{text: srt, format: subtitle.FormatSRT}
	body, ct := multipartBody(t, "clip.wav", []byte("RIFF"), map[string]string{"language": "de"})

	rr := do(newRouter(svc), http.MethodPost, "/transcribe", body, ct)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Body.String() != srt {
		t.Errorf("unexpected body %q", rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Errorf("unexpected content type %q", ct)
	}
	if svc.gotUpload.Filename != "clip.wav" || svc.gotUpload.Language != "de" || svc.gotAudio != "RIFF" {
		t.Errorf("upload not forwarded: %+v audio=%q", svc.gotUpload, svc.gotAudio)
	}
}

func TestTranscribe_AcceptsLanguageNamesAndCase(t *testing.T) {
	for _, lang := range []string{"en", "EN", "english", "English"} {
		t.Run(lang, func(t *testing.T) {
			svc := &fakeTranscriber{text: "", format: subtitle.FormatSRT}
			body, ct := multipartBody(t, "clip.wav", []byte("RIFF"), map[string]string{"language": lang})

			rr := do(newRouter(svc), http.MethodPost, "/transcribe", body, ct)

			if rr.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
			}
			if svc.gotUpload.Language != lang {
				t.Errorf("expected language %q forwarded, got %q", lang, svc.gotUpload.Language)
			}
		})
	}
}

func TestTranscribe_VTTContentType(t *testing.T) {
	svc := &fakeTranscriber{text: "WEBVTT\n\n", format: subtitle.FormatVTT}
	body, ct := multipartBody(t, "a.mp3", []byte("ID3"), map[string]string{"format": "vtt"})

	rr := do(newRouter(svc), http.MethodPost, "/transcribe", body, ct)

	if got := rr.Header().Get("Content-Type"); got != "text/vtt; charset=utf-8" {
		t.Errorf("unexpected content type %q", got)
	}
	if svc.gotUpload.Format != "vtt" {
		t.Errorf("expected format to be forwarded, got %q", svc.gotUpload.Format)
	}
}

func TestTranscribe_EmptyTranscriptIsOK(t *testing.T) {
	svc := &fakeTranscriber{text: "", format: subtitle.FormatSRT}
	body, ct := multipartBody(t, "silence.wav", []byte("RIFF"), nil)

	rr := do(newRouter(svc), http.MethodPost, "/transcribe", body, ct)

	if rr.Code != http.StatusOK || rr.Body.Len() != 0 {
		t.Errorf("expected empty 200, got %d %q", rr.Code, rr.Body.String())
	}
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name   string
		build  func(t *testing.T) (io.Reader, string)
		status int
		msg    string
	}{
		{
			name: "no audio part",
			build: func(t *testing.T) (io.Reader, string) {
				return multipartBody(t, "", nil, map[string]string{"language": "en"})
			},
			status: http.StatusBadRequest,
			msg:    MsgNoAudio,
		},
		{
			name: "empty filename",
			build: func(t *testing.T) (io.Reader, string) {
				return multipartBody(t, "", []byte("RIFF"), nil)
			},
			status: http.StatusBadRequest,
			msg:    MsgNoFilename,
		},
		{
			name: "not multipart",
			build: func(t *testing.T) (io.Reader, string) {
				return strings.NewReader(`{"audio":"x"}`), "application/json"
			},
			status: http.StatusBadRequest,
			msg:    MsgNoAudio,
		},
		{
			name: "bad format",
			build: func(t *testing.T) (io.Reader, string) {
				return multipartBody(t, "a.wav", []byte("RIFF"), map[string]string{"format": "ass"})
			},
			status: http.StatusBadRequest,
			msg:    "format: must be srt or vtt",
		},
		{
			name: "bad language",
			build: func(t *testing.T) (io.Reader, string) {
				return multipartBody(t, "a.wav", []byte("RIFF"), map[string]string{"language": "en_US"})
			},
			status: http.StatusBadRequest,
			msg:    "language: must be a language code or name such as en, pt-BR or english",
		},
	}
	for _, path := range []string{"/transcribe", "/tasks"} {
		for _, tt := range tests {
			t.Run(path+" "+tt.name, func(t *testing.T) {
				svc := &fakeTranscriber{}
				body, ct := tt.build(t)
				rr := do(newRouter(svc), http.MethodPost, path, body, ct)

				if rr.Code != tt.status {
					t.Fatalf("expected %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
				}
				if got := errorOf(t, rr); got != tt.msg {
					t.Errorf("expected %q, got %q", tt.msg, got)
				}
				if svc.gotUpload.Filename != "" {
					t.Error("service must not be called for a rejected upload")
				}
			})
		}
	}
}

func TestUpload_TooLarge(t *testing.T) {
	r := gin.New()
	NewHandler(&fakeTranscriber{}).Register(r)
	limited := middleware.BodySizeLimit("1KB")(r)

	body, ct := multipartBody(t, "big.wav", bytes.Repeat([]byte("a"), 4096), nil)
	req := httptest.NewRequest(http.MethodPost, "/tasks", body)
	req.Header.Set("Content-Type", ct)
	req.ContentLength = -1
	rr := httptest.NewRecorder()
	limited.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := errorOf(t, rr); got != "Request body exceeds 1KB" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestTranscribe_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"collaborator failure", apperrors.TranscriptionFailed(errors.New("boom")), http.StatusInternalServerError, "Failed to transcribe audio"},
		{"busy", apperrors.ServiceUnavailable("transcriber"), http.StatusServiceUnavailable, ""},
		{"unexpected", errors.New("disk full"), http.StatusInternalServerError, "An unexpected error occurred."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeTranscriber{err: tt.err}
			body, ct := multipartBody(t, "a.wav", []byte("RIFF"), nil)
			rr := do(newRouter(svc), http.MethodPost, "/transcribe", body, ct)

			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rr.Code)
			}
			if msg := errorOf(t, rr); tt.msg != "" && msg != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, msg)
			}
		})
	}
}

func TestSubmitTask(t *testing.T) {
	svc := &fakeTranscriber{taskID: "5f0c6a2e-0000-4000-8000-000000000001"}
	body, ct := multipartBody(t, "talk.m4a", []byte("ftyp"), nil)

	rr := do(newRouter(svc), http.MethodPost, "/tasks", body, ct)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp map[string]string
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp["task_id"] != svc.taskID {
		t.Errorf("expected task id %s, got %v", svc.taskID, resp)
	}
}

func TestSubmitTask_QueueFull(t *testing.T) {
	svc := &fakeTranscriber{err: apperrors.ServiceUnavailable("worker pool")}
	body, ct := multipartBody(t, "talk.m4a", []byte("ftyp"), nil)

	rr := do(newRouter(svc), http.MethodPost, "/tasks", body, ct)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "task_id") {
		t.Error("rejected submission must not return a task id")
	}
}

func TestGetTask_States(t *testing.T) {
	tests := []struct {
		name   string
		result *service.Result
		err    error
		status int
		body   map[string]any
	}{
		{
			name:   "unknown",
			err:    apperrors.NotFound("task", "nope"),
			status: http.StatusNotFound,
			body:   map[string]any{"error": "Task not found"},
		},
		{
			name:   "processing",
			result: &service.Result{Record: &task.Record{ID: "a", Status: task.StatusProcessing}},
			status: http.StatusOK,
			body:   map[string]any{"status": "processing"},
		},
		{
			name: "failed",
			result: &service.Result{Record: &task.Record{
				ID: "b", Status: task.StatusFailed, ErrorMessage: service.MsgTranscriptionFailed,
			}},
			status: http.StatusInternalServerError,
			body:   map[string]any{"status": "failed", "message": "Transcription failed."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeTranscriber{result: tt.result, err: tt.err}
			rr := do(newRouter(svc), http.MethodGet, "/tasks/x", nil, "")

			if rr.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rr.Code)
			}
			var got map[string]any
			if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			for k, v := range tt.body {
				if got[k] != v {
					t.Errorf("expected %s=%v, got %v", k, v, got[k])
				}
			}
		})
	}
}

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error { b.closed = true; return nil }

func TestGetTask_CompletedDownloadsFile(t *testing.T) {
	srt := "1\n00:00:00,000 --> 00:00:02,000\nDone\n\n"
	body := &trackingBody{Reader: strings.NewReader(srt)}
	svc := &fakeTranscriber{result: &service.Result{
		Record:   &task.Record{ID: "abc", Status: task.StatusCompleted, Format: "srt", ResultPath: "abc.srt"},
		Body:     body,
		Filename: "abc.srt",
	}}

	rr := do(newRouter(svc), http.MethodGet, "/tasks/abc", nil, "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != srt {
		t.Errorf("unexpected body %q", rr.Body.String())
	}
	if got := rr.Header().Get("Content-Disposition"); got != "attachment; filename=abc.srt" {
		t.Errorf("unexpected Content-Disposition %q", got)
	}
	if got := rr.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/plain") {
		t.Errorf("unexpected Content-Type %q", got)
	}
	if !body.closed {
		t.Error("result body must be closed")
	}
}
