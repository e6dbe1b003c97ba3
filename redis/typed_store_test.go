package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/whisper-srt/logger"
)

type record struct {
	Status string   `json:"status"`
	Hits   int      `json:"hits"`
	Labels []string `json:"labels,omitempty"`
}

func startRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mini := miniredis.RunT(t)
	client, err := New(Config{Addr: mini.Addr()}, logger.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, mini
}

func newRecords(t *testing.T) (*TypedStore[record], *miniredis.Miniredis) {
	client, mini := startRedis(t)
	return NewTypedStore[record](client, "rec"), mini
}

func TestTypedStore_RoundTrip(t *testing.T) {
	store, mini := newRecords(t)
	ctx := context.Background()

	in := record{Status: "processing", Labels: []string{"en"}}
	if err := store.Save(ctx, "a1", &in, 0); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !mini.Exists("rec:a1") {
		t.Fatal("expected key rec:a1")
	}
	out, err := store.Load(ctx, "a1")
	if err != nil || out == nil {
		t.Fatalf("Load: %v %v", out, err)
	}
	if out.Status != "processing" || len(out.Labels) != 1 {
		t.Errorf("got %+v", out)
	}

	if err := store.Delete(ctx, "a1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if out, err := store.Load(ctx, "a1"); out != nil || err != nil {
		t.Errorf("deleted key should load as nil, got %+v %v", out, err)
	}
}

func TestTypedStore_BarePrefix(t *testing.T) {
	client, mini := startRedis(t)
	store := NewTypedStore[record](client, "")
	if store.Key("x") != "x" {
		t.Errorf("empty prefix must leave keys alone, got %q", store.Key("x"))
	}
	store.Save(context.Background(), "x", &record{}, 0)
	if !mini.Exists("x") {
		t.Error("expected bare key in redis")
	}
}

func TestTypedStore_CreateOnlyOnce(t *testing.T) {
	store, _ := newRecords(t)
	ctx := context.Background()

	first, err := store.Create(ctx, "id", &record{Status: "first"}, 0)
	if err != nil || !first {
		t.Fatalf("first Create: %v %v", first, err)
	}
	again, err := store.Create(ctx, "id", &record{Status: "second"}, 0)
	if err != nil || again {
		t.Fatalf("second Create must report false: %v %v", again, err)
	}
	got, _ := store.Load(ctx, "id")
	if got.Status != "first" {
		t.Errorf("existing value was overwritten: %+v", got)
	}
}

func TestTypedStore_Expiry(t *testing.T) {
	store, mini := newRecords(t)
	ctx := context.Background()

	store.Save(ctx, "short", &record{}, time.Second)
	mini.FastForward(2 * time.Second)
	if got, _ := store.Load(ctx, "short"); got != nil {
		t.Errorf("expected expired key, got %+v", got)
	}
}

func TestTypedStore_Update(t *testing.T) {
	errRefused := errors.New("refused")
	tests := []struct {
		name    string
		seed    bool
		fn      func(*record) error
		wantErr error
		want    string
	}{
		{"applies change", true, func(r *record) error { r.Status = "completed"; return nil }, nil, "completed"},
		{"missing key", false, func(*record) error { return nil }, ErrKeyNotFound, ""},
		{"callback aborts", true, func(r *record) error { r.Status = "lost"; return errRefused }, errRefused, "processing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mini := newRecords(t)
			ctx := context.Background()
			if tt.seed {
				store.Save(ctx, "k", &record{Status: "processing"}, time.Minute)
			}
			_, err := store.Update(ctx, "k", tt.fn)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !tt.seed {
				return
			}
			got, _ := store.Load(ctx, "k")
			if got.Status != tt.want {
				t.Errorf("expected status %q, got %q", tt.want, got.Status)
			}
			if mini.TTL("rec:k") <= 0 {
				t.Error("update dropped the key's TTL")
			}
		})
	}
}

func TestTypedStore_UpdateRaces(t *testing.T) {
	store, _ := newRecords(t)
	ctx := context.Background()
	store.Save(ctx, "n", &record{}, 0)

	const writers = 6
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Update(ctx, "n", func(r *record) error { r.Hits++; return nil }); err != nil {
				t.Errorf("Update: %v", err)
			}
		}()
	}
	wg.Wait()

	if got, _ := store.Load(ctx, "n"); got.Hits != writers {
		t.Errorf("lost updates: hits=%d", got.Hits)
	}
}

func TestComponent_PingsOnStart(t *testing.T) {
	mini := miniredis.RunT(t)
	c, err := NewComponent(Config{Addr: mini.Addr()}, logger.NewNop())
	if err != nil {
		t.Fatalf("NewComponent: %v", err)
	}
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if h := c.Health(ctx); !h.OK() {
		t.Errorf("expected healthy, got %s (%s)", h.Status, h.Message)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if c.Client().IsAvailable(ctx) {
		t.Error("closed client must report unavailable")
	}
}

func TestComponent_StartFailsWithoutServer(t *testing.T) {
	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	addr := mini.Addr()
	mini.Close()

	c, err := NewComponent(Config{Addr: addr, DialTimeout: 100 * time.Millisecond}, logger.NewNop())
	if err != nil {
		t.Fatalf("NewComponent: %v", err)
	}
	defer c.Stop(context.Background())
	if err := c.Start(context.Background()); err == nil {
		t.Error("expected Start to fail when redis is down")
	}
}
