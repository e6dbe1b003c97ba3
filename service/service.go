package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/kbukum/whisper-srt/errors"
	"github.com/kbukum/whisper-srt/events"
	"github.com/kbukum/whisper-srt/logger"
	"github.com/kbukum/whisper-srt/observability"
	"github.com/kbukum/whisper-srt/resilience"
	"github.com/kbukum/whisper-srt/storage"
	"github.com/kbukum/whisper-srt/subtitle"
	"github.com/kbukum/whisper-srt/task"
	"github.com/kbukum/whisper-srt/transcription"
	"github.com/kbukum/whisper-srt/worker"
)

// Messages stored on failed records and returned by GET /tasks/{id}.
const (
	MsgTranscriptionFailed = "Transcription failed."
	MsgQueueFull           = "Task was not queued: server is busy."
	MsgUploadFailed        = "Task was not queued: upload could not be stored."
)

// Submitter accepts background jobs; worker.Pool implements it.
type Submitter interface {
	Submit(job worker.Job) error
}

// Recorder receives task and transcription metrics; observability.Metrics
// implements it.
type Recorder interface {
	TaskFinished(ctx context.Context, status string)
	Transcription(ctx context.Context, mode, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) TaskFinished(context.Context, string)          {}
func (nopRecorder) Transcription(context.Context, string, string) {}

// Deps are the collaborators of a Transcriber.
type Deps struct {
	Provider transcription.Provider
	Tasks    task.Store
	Results  storage.Storage
	Pool     Submitter
	// Bulkhead bounds concurrent synchronous transcriptions. Optional.
	Bulkhead *resilience.Bulkhead
	// Events receives task lifecycle events. Optional.
	Events events.Publisher
	// Metrics receives counters. Optional.
	Metrics Recorder
}

// Transcriber implements the three request flows: synchronous
// transcription, task submission and task lookup.
type Transcriber struct {
	cfg      Config
	provider transcription.Provider
	tasks    task.Store
	results  storage.Storage
	pool     Submitter
	bulkhead *resilience.Bulkhead
	events   events.Publisher
	metrics  Recorder
	log      *logger.Logger
}

// New creates a Transcriber.
func New(cfg Config, deps Deps, log *logger.Logger) (*Transcriber, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Provider == nil || deps.Tasks == nil || deps.Results == nil || deps.Pool == nil {
		return nil, fmt.Errorf("service: provider, tasks, results and pool are required")
	}
	if deps.Events == nil {
		deps.Events = events.Nop{}
	}
	if deps.Metrics == nil {
		deps.Metrics = nopRecorder{}
	}
	return &Transcriber{
		cfg:      cfg,
		provider: deps.Provider,
		tasks:    deps.Tasks,
		results:  deps.Results,
		pool:     deps.Pool,
		bulkhead: deps.Bulkhead,
		events:   deps.Events,
		metrics:  deps.Metrics,
		log:      log.WithComponent("transcriber"),
	}, nil
}

// language resolves the request language against the default.
func (t *Transcriber) language(lang string) string {
	if lang = strings.TrimSpace(lang); lang != "" {
		return lang
	}
	return t.cfg.DefaultLanguage
}

// Transcribe runs the collaborator inline and returns the rendered
// subtitle text.
func (t *Transcriber) Transcribe(ctx context.Context, up Upload) (string, subtitle.Format, error) {
	format, err := subtitle.ParseFormat(up.Format)
	if err != nil {
		return "", "", apperrors.InvalidInput("format", err.Error())
	}
	lang := t.language(up.Language)

	path, err := saveUpload(t.cfg.UploadDir, uuid.NewString(), up.Filename, up.Body)
	if err != nil {
		return "", "", apperrors.StorageError(err)
	}
	defer t.removeUpload(path)

	if t.cfg.SyncTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.SyncTimeout)
		defer cancel()
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanTranscribe, trace.WithAttributes(
		attribute.String(observability.AttrLanguage, lang),
		attribute.String(observability.AttrFormat, string(format)),
		attribute.String(observability.AttrProvider, t.provider.Name()),
	))

	var resp *transcription.Response
	call := func() error {
		var err error
		resp, err = t.provider.Transcribe(ctx, transcription.Request{
			AudioPath: path,
			Filename:  up.Filename,
			Language:  lang,
		})
		return err
	}
	if t.bulkhead != nil {
		err = t.bulkhead.Execute(ctx, call)
	} else {
		err = call()
	}
	observability.EndSpan(span, err)

	if err != nil {
		t.metrics.Transcription(ctx, "sync", outcome(err))
		t.log.WithContext(ctx).Error("synchronous transcription failed", logger.Fields(
			logger.FieldError, err.Error(),
			"filename", up.Filename,
			logger.FieldLanguage, lang,
		))
		return "", "", syncError(err)
	}
	t.metrics.Transcription(ctx, "sync", "ok")
	return subtitle.Render(format, resp.Segments), format, nil
}

// syncError maps a collaborator failure onto the response the client sees.
func syncError(err error) error {
	switch {
	case resilience.IsRejection(err):
		return apperrors.ServiceUnavailable("transcription service").WithCause(err)
	case stderrors.Is(err, resilience.ErrCircuitOpen):
		return apperrors.ServiceUnavailable("transcription backend").WithCause(err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("transcribe").WithCause(err)
	default:
		return apperrors.TranscriptionFailed(err)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case resilience.IsRejection(err), stderrors.Is(err, resilience.ErrCircuitOpen):
		return "rejected"
	case stderrors.Is(err, transcription.ErrRejectedAudio):
		return "bad_audio"
	default:
		return "error"
	}
}

// Submit registers a task, queues its job and returns the task id.
func (t *Transcriber) Submit(ctx context.Context, up Upload) (string, error) {
	format, err := subtitle.ParseFormat(up.Format)
	if err != nil {
		return "", apperrors.InvalidInput("format", err.Error())
	}
	lang := t.language(up.Language)

	rec, err := t.tasks.Create(ctx, task.CreateOptions{Language: lang, Format: string(format)})
	if err != nil {
		return "", apperrors.Internal(fmt.Errorf("creating task: %w", err))
	}
	id := rec.ID
	log := t.log.WithFields(logger.Fields(logger.FieldTaskID, id))

	path, err := saveUpload(t.cfg.UploadDir, id, up.Filename, up.Body)
	if err != nil {
		log.Error("saving upload failed", logger.Fields(logger.FieldError, err.Error()))
		t.resolveFailed(ctx, id, MsgUploadFailed)
		return "", apperrors.StorageError(err)
	}

	job := worker.Job{
		ID: id,
		Run: func(ctx context.Context) error {
			return t.process(ctx, id, path, up.Filename, lang, format)
		},
		Fail: func(err error) {
			log.Error("transcription job crashed", logger.Fields(logger.FieldError, err.Error()))
			t.finishFailed(context.Background(), id, lang, format, err, 0)
		},
	}
	switch err := t.pool.Submit(job); {
	case err == nil:
	case stderrors.Is(err, worker.ErrQueueFull), stderrors.Is(err, worker.ErrPoolStopped):
		t.removeUpload(path)
		t.resolveFailed(ctx, id, MsgQueueFull)
		t.metrics.TaskFinished(ctx, "rejected")
		t.events.Publish(ctx, events.TaskEvent{
			Type: events.TaskRejected, TaskID: id, Language: lang, Format: string(format), Error: err.Error(),
		})
		log.Warn("task rejected", logger.Fields(logger.FieldError, err.Error()))
		return "", apperrors.ServiceUnavailable("worker pool").WithCause(err)
	default:
		t.removeUpload(path)
		t.resolveFailed(ctx, id, MsgTranscriptionFailed)
		log.Error("queueing task failed", logger.Fields(logger.FieldError, err.Error()))
		return "", apperrors.Internal(fmt.Errorf("queueing task: %w", err))
	}

	t.events.Publish(ctx, events.TaskEvent{
		Type: events.TaskSubmitted, TaskID: id, Language: lang, Format: string(format),
	})
	log.Info("task submitted", logger.Fields(logger.FieldLanguage, lang, logger.FieldFormat, string(format)))
	return id, nil
}

// process is the body of a background job. It always resolves the task and
// removes the upload.
func (t *Transcriber) process(ctx context.Context, id, path, filename, lang string, format subtitle.Format) (err error) {
	defer t.removeUpload(path)
	start := time.Now()

	ctx = logger.ContextWithTaskID(ctx, id)
	ctx, span := observability.StartSpan(ctx, observability.SpanTaskRun, trace.WithAttributes(
		attribute.String(observability.AttrTaskID, id),
		attribute.String(observability.AttrLanguage, lang),
		attribute.String(observability.AttrFormat, string(format)),
	))
	defer func() { observability.EndSpan(span, err) }()

	// Resolution must land even when the job context has been cancelled.
	resolveCtx := context.WithoutCancel(ctx)

	resp, err := t.provider.Transcribe(ctx, transcription.Request{
		AudioPath: path,
		Filename:  filename,
		Language:  lang,
	})
	t.metrics.Transcription(ctx, "async", outcome(err))
	if err != nil {
		t.finishFailed(resolveCtx, id, lang, format, err, time.Since(start))
		return err
	}
	span.SetAttributes(attribute.Int(observability.AttrSegments, len(resp.Segments)))

	key := id + format.Extension()
	body := subtitle.Render(format, resp.Segments)
	if err = t.results.Upload(resolveCtx, key, strings.NewReader(body)); err != nil {
		err = fmt.Errorf("storing result: %w", err)
		t.finishFailed(resolveCtx, id, lang, format, err, time.Since(start))
		return err
	}

	if err = t.tasks.SetResult(resolveCtx, id, key); err != nil {
		t.log.WithContext(ctx).Error("resolving task failed", logger.Fields(logger.FieldError, err.Error()))
		return err
	}

	took := time.Since(start)
	t.metrics.TaskFinished(resolveCtx, string(task.StatusCompleted))
	t.events.Publish(resolveCtx, events.TaskEvent{
		Type: events.TaskCompleted, TaskID: id, Language: lang, Format: string(format),
		ResultPath: key, Duration: took,
	})
	t.log.WithContext(ctx).Info("task completed", logger.Fields(
		"segments", len(resp.Segments),
		logger.FieldDuration, took.Milliseconds(),
	))
	return nil
}

// finishFailed records a collaborator or storage failure on the task.
func (t *Transcriber) finishFailed(ctx context.Context, id, lang string, format subtitle.Format, cause error, took time.Duration) {
	t.log.WithContext(ctx).Error("task failed", logger.Fields(
		logger.FieldTaskID, id,
		logger.FieldError, cause.Error(),
	))
	if !t.resolveFailed(ctx, id, MsgTranscriptionFailed) {
		return
	}
	t.metrics.TaskFinished(ctx, string(task.StatusFailed))
	t.events.Publish(ctx, events.TaskEvent{
		Type: events.TaskFailed, TaskID: id, Language: lang, Format: string(format),
		Error: cause.Error(), Duration: took,
	})
}

// resolveFailed marks the task failed and reports whether this call did it.
func (t *Transcriber) resolveFailed(ctx context.Context, id, message string) bool {
	err := t.tasks.SetFailed(ctx, id, message)
	if err == nil {
		return true
	}
	if !stderrors.Is(err, task.ErrAlreadyResolved) {
		t.log.Error("marking task failed", logger.Fields(
			logger.FieldTaskID, id,
			logger.FieldError, err.Error(),
		))
	}
	return false
}

func (t *Transcriber) removeUpload(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		t.log.Warn("removing upload failed", logger.Fields("path", path, logger.FieldError, err.Error()))
	}
}

// Result is the state of a task as seen by a client.
type Result struct {
	Record *task.Record
	// Body streams the subtitle file when the task is completed. The
	// caller must close it.
	Body io.ReadCloser
	// Filename is the download name, e.g. "<id>.srt".
	Filename string
}

// Lookup returns the task and, when it is completed, its subtitle file.
func (t *Transcriber) Lookup(ctx context.Context, id string) (*Result, error) {
	rec, err := t.tasks.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, task.ErrNotFound) {
			return nil, apperrors.NotFound("task", id)
		}
		return nil, apperrors.Internal(fmt.Errorf("loading task: %w", err))
	}

	res := &Result{Record: rec}
	if rec.Status != task.StatusCompleted {
		return res, nil
	}

	body, err := t.results.Download(ctx, rec.ResultPath)
	if err != nil {
		return nil, apperrors.StorageError(fmt.Errorf("loading result of task %s: %w", id, err))
	}
	format, _ := subtitle.ParseFormat(rec.Format)
	res.Body = body
	res.Filename = id + format.Extension()
	return res, nil
}
