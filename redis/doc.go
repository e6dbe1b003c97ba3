// Package redis wraps go-redis with service logging, lifecycle management
// and a JSON TypedStore.
//
// TypedStore.Update runs a read-modify-write under WATCH so concurrent
// writers cannot lose updates:
//
//	store := redis.NewTypedStore[task.Record](client, "whisper-srt:task")
//	rec, err := store.Update(ctx, id, func(r *task.Record) error {
//	    return r.Complete(path, time.Now())
//	})
package redis
