// Package task is the registry of asynchronous transcription tasks.
//
// A Record starts out processing and is resolved exactly once, either
// completed with the location of its subtitle file or failed with a message.
// Store implementations serialize every check-then-set so two resolvers can
// never both succeed: MemoryStore under a mutex, RedisStore inside a WATCH
// transaction.
package task
