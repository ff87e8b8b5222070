package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/voicescribe/voicescribe/internal/cache"
)

func TestIdentify_ContentDerived(t *testing.T) {
	dir := t.TempDir()
	a := writeAudio(t, dir, "a.ogg", "identical payload")
	b := writeAudio(t, dir, "b.ogg", "identical payload")
	c := writeAudio(t, dir, "c.ogg", "different payload")

	idA, err := Identify(a)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	idB, _ := Identify(b)
	idC, _ := Identify(c)

	if idA != idB {
		t.Errorf("identical content produced different identities: %s vs %s", idA, idB)
	}
	if idA == idC {
		t.Error("different content produced the same identity")
	}
}

func TestCoordinator_CacheHitSkipsQueue(t *testing.T) {
	dir := t.TempDir()
	store := cache.NewMemoryStore(cache.DefaultTTL)
	q := NewQueue(0)
	coord := NewCoordinator(store, q)

	path := writeAudio(t, dir, "note.ogg", "known audio")
	identity, _ := Identify(path)
	store.Put(identity, "cached transcript")

	h, gotIdentity, _, enqueued, err := coord.Request(path)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if gotIdentity != identity {
		t.Errorf("identity = %s, want %s", gotIdentity, identity)
	}
	if enqueued {
		t.Error("cache hit still enqueued a job")
	}
	if q.Len() != 0 {
		t.Errorf("queue len = %d, want 0", q.Len())
	}

	text, done, rerr := h.Poll()
	if !done || rerr != nil || text != "cached transcript" {
		t.Errorf("Poll = (%q, %v, %v), want cached transcript immediately", text, done, rerr)
	}
}

func TestCoordinator_ConcurrentDuplicatesShareOneJob(t *testing.T) {
	dir := t.TempDir()
	store := cache.NewMemoryStore(cache.DefaultTTL)
	q := NewQueue(0)
	coord := NewCoordinator(store, q)

	ft := &fakeTranscriber{block: make(chan struct{})}
	w := coord.Worker(ft, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	path := writeAudio(t, dir, "note.ogg", "popular audio")

	const requesters = 8
	handles := make([]*Handle, requesters)
	enqueues := 0
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < requesters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			h, _, _, enqueued, err := coord.Request(path)
			if err != nil {
				t.Errorf("Request %d: %v", n, err)
				return
			}
			mu.Lock()
			handles[n] = h
			if enqueued {
				enqueues++
			}
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if enqueues != 1 {
		t.Errorf("enqueued %d jobs for one voice note, want 1", enqueues)
	}

	// Let the single transcription finish and check every requester sees it.
	close(ft.block)
	first, err := waitFulfilled(t, handles[0])
	if err != nil {
		t.Fatalf("shared job failed: %v", err)
	}
	for i, h := range handles {
		text, err := waitFulfilled(t, h)
		if err != nil {
			t.Fatalf("observer %d: %v", i, err)
		}
		if text != first {
			t.Errorf("observer %d saw %q, want %q", i, text, first)
		}
	}

	if n := ft.callCount(); n != 1 {
		t.Errorf("transcriber invoked %d times, want 1", n)
	}
	if coord.InflightCount() != 0 {
		t.Errorf("in-flight table not cleared: %d", coord.InflightCount())
	}
}

func TestCoordinator_CompletedNoteServedFromCache(t *testing.T) {
	dir := t.TempDir()
	store := cache.NewMemoryStore(cache.DefaultTTL)
	q := NewQueue(0)
	coord := NewCoordinator(store, q)

	ft := &fakeTranscriber{}
	w := coord.Worker(ft, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	path := writeAudio(t, dir, "note.ogg", "some audio")
	h, _, _, _, err := coord.Request(path)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	text, err := waitFulfilled(t, h)
	if err != nil {
		t.Fatalf("first request failed: %v", err)
	}

	// Same content again, within the validity window: no new inference.
	path2 := writeAudio(t, dir, "again.ogg", "some audio")
	h2, _, _, enqueued, err := coord.Request(path2)
	if err != nil {
		t.Fatalf("second Request: %v", err)
	}
	if enqueued {
		t.Error("cached note was re-enqueued")
	}
	text2, done, rerr := h2.Poll()
	if !done || rerr != nil {
		t.Fatalf("second request not resolved immediately: %v %v", done, rerr)
	}
	if text2 != text {
		t.Errorf("cached text %q differs from original %q", text2, text)
	}
	if n := ft.callCount(); n != 1 {
		t.Errorf("transcriber invoked %d times, want 1", n)
	}
}

func TestCoordinator_SaturationClearsRegistration(t *testing.T) {
	dir := t.TempDir()
	store := cache.NewMemoryStore(cache.DefaultTTL)
	q := NewQueue(1) // no worker draining it
	coord := NewCoordinator(store, q)

	first := writeAudio(t, dir, "a.ogg", "audio one")
	second := writeAudio(t, dir, "b.ogg", "audio two")

	if _, _, _, _, err := coord.Request(first); err != nil {
		t.Fatalf("first Request: %v", err)
	}
	_, _, _, _, err := coord.Request(second)
	if !errors.Is(err, ErrSaturated) {
		t.Fatalf("err = %v, want ErrSaturated", err)
	}
	if coord.InflightCount() != 1 {
		t.Errorf("rejected request left a stale in-flight entry: %d", coord.InflightCount())
	}
}

func TestCoordinator_DegradedCacheStillTranscribes(t *testing.T) {
	dir := t.TempDir()
	store := &failingStore{Store: cache.NewMemoryStore(cache.DefaultTTL), failGet: true}
	q := NewQueue(0)
	coord := NewCoordinator(store, q)

	ft := &fakeTranscriber{}
	w := coord.Worker(ft, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	path := writeAudio(t, dir, "note.ogg", "audio")
	h, _, _, enqueued, err := coord.Request(path)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if !enqueued {
		t.Error("degraded cache should fall through to a real job")
	}
	if _, err := waitFulfilled(t, h); err != nil {
		t.Fatalf("transcription blocked by broken cache: %v", err)
	}
}

func TestCoordinator_QueuePositionReported(t *testing.T) {
	dir := t.TempDir()
	store := cache.NewMemoryStore(cache.DefaultTTL)
	q := NewQueue(0) // no worker: positions accumulate
	coord := NewCoordinator(store, q)

	for i := 1; i <= 3; i++ {
		path := writeAudio(t, dir, fmt.Sprintf("note%d.ogg", i), fmt.Sprintf("audio %d", i))
		_, _, position, _, err := coord.Request(path)
		if err != nil {
			t.Fatalf("Request %d: %v", i, err)
		}
		if position != i {
			t.Errorf("position = %d, want %d", position, i)
		}
	}
}
