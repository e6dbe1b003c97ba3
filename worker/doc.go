// Package worker runs background jobs on a fixed number of goroutines fed
// from a bounded backlog.
//
// Submit never blocks: when the backlog is full the job is refused with
// ErrQueueFull and the caller decides what to do with it. A job that
// outlives JobTimeout has its context cancelled; a job that panics is
// recovered and reported through its Fail callback.
package worker
