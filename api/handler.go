// Package api serves the transcription endpoints:
//
//	POST /transcribe   multipart audio -> subtitle text
//	POST /tasks        multipart audio -> {"task_id": "..."}
//	GET  /tasks/:id    task status or the finished subtitle file
package api

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/whisper-srt/errors"
	"github.com/kbukum/whisper-srt/server"
	"github.com/kbukum/whisper-srt/service"
	"github.com/kbukum/whisper-srt/subtitle"
	"github.com/kbukum/whisper-srt/task"
	"github.com/kbukum/whisper-srt/util"
	"github.com/kbukum/whisper-srt/validation"
)

// Client-facing messages.
const (
	MsgNoAudio    = "No audio file provided"
	MsgNoFilename = "No selected file"
)

const fieldAudio = "audio"

// Transcriber is the service behind the handlers; *service.Transcriber
// implements it.
type Transcriber interface {
	Transcribe(ctx context.Context, up service.Upload) (string, subtitle.Format, error)
	Submit(ctx context.Context, up service.Upload) (string, error)
	Lookup(ctx context.Context, id string) (*service.Result, error)
}

// Handler holds the HTTP handlers.
type Handler struct {
	svc Transcriber
}

// NewHandler creates a Handler.
func NewHandler(svc Transcriber) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/transcribe", h.Transcribe)
	r.POST("/tasks", h.SubmitTask)
	r.GET("/tasks/:id", h.GetTask)
}

// uploadForm holds the optional text fields sent next to the audio.
type uploadForm struct {
	Language string `form:"language" validate:"omitempty,language"`
	Format   string `form:"format" validate:"omitempty,subformat"`
}

// readUpload extracts the audio part and form fields. The returned file
// must be closed by the caller.
func readUpload(c *gin.Context) (service.Upload, multipart.File, error) {
	fh, err := c.FormFile(fieldAudio)
	if err != nil {
		return service.Upload{}, nil, uploadError(c, err)
	}
	if fh.Filename == "" {
		return service.Upload{}, nil, apperrors.MissingField(fieldAudio, MsgNoFilename)
	}

	form := uploadForm{Language: c.PostForm("language"), Format: c.PostForm("format")}
	if err := validation.Validate(form); err != nil {
		return service.Upload{}, nil, err
	}

	file, err := fh.Open()
	if err != nil {
		return service.Upload{}, nil, apperrors.StorageError(err)
	}
	return service.Upload{
		Filename: fh.Filename,
		Body:     file,
		Language: form.Language,
		Format:   form.Format,
	}, file, nil
}

// uploadError maps multipart parsing failures. A part named "audio" with an
// empty filename is parsed as a plain value, so its presence there means
// the client selected no file.
func uploadError(c *gin.Context, err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return apperrors.EntityTooLarge(util.FormatSize(tooLarge.Limit))
	case errors.Is(err, http.ErrMissingFile):
		if form := c.Request.MultipartForm; form != nil {
			if _, ok := form.Value[fieldAudio]; ok {
				return apperrors.MissingField(fieldAudio, MsgNoFilename)
			}
		}
		return apperrors.MissingField(fieldAudio, MsgNoAudio)
	default:
		// ErrNotMultipart and malformed bodies alike carry no usable audio.
		return apperrors.MissingField(fieldAudio, MsgNoAudio).WithCause(err)
	}
}

// Transcribe handles POST /transcribe.
func (h *Handler) Transcribe(c *gin.Context) {
	up, file, err := readUpload(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	defer file.Close()

	text, format, err := h.svc.Transcribe(c.Request.Context(), up)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	c.Data(http.StatusOK, format.ContentType(), []byte(text))
}

// SubmitTask handles POST /tasks.
func (h *Handler) SubmitTask(c *gin.Context) {
	up, file, err := readUpload(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	defer file.Close()

	id, err := h.svc.Submit(c.Request.Context(), up)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, gin.H{"task_id": id})
}

// GetTask handles GET /tasks/:id.
func (h *Handler) GetTask(c *gin.Context) {
	res, err := h.svc.Lookup(c.Request.Context(), c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	switch res.Record.Status {
	case task.StatusCompleted:
		defer res.Body.Close()
		format, _ := subtitle.ParseFormat(res.Record.Format)
		c.DataFromReader(http.StatusOK, -1, format.ContentType(), res.Body, map[string]string{
			"Content-Disposition": "attachment; filename=" + res.Filename,
		})
	case task.StatusFailed:
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  task.StatusFailed,
			"message": res.Record.ErrorMessage,
		})
	default:
		server.RespondOK(c, gin.H{"status": task.StatusProcessing})
	}
}
