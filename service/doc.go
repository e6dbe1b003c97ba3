// Package service implements the transcription flows behind the HTTP API.
//
// Transcribe blocks on the collaborator, bounded by a bulkhead. Submit
// registers a task and hands a job to the worker pool; when the pool
// refuses the job the task is resolved failed at once and the caller gets
// a 503. Every job resolves its task exactly once, stores the rendered
// subtitle under "<id><ext>" in result storage and removes the uploaded
// audio whatever the outcome.
package service
