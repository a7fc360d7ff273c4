package reconciler

import (
	"context"
	"testing"

	"agora/internal/api"

	"github.com/pkg/errors"
)

func TestNewerFetchSupersedesOlder(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.entered = make(chan Key, 1)
	key := PostVoteKey(1)
	fetcher.set(key, &Entry{Vote: &api.VoteState{Score: 1}})
	cache := NewCache(fetcher, 0)

	gate := fetcher.gate(key)
	older := make(chan error, 1)
	go func() {
		_, err := cache.Fetch(context.Background(), key)
		older <- err
	}()
	<-fetcher.entered

	fetcher.ungate(key)
	fetcher.set(key, &Entry{Vote: &api.VoteState{Score: 2}})
	if _, err := cache.Fetch(context.Background(), key); err != nil {
		t.Fatalf("Newer fetch failed: %v", err)
	}
	close(gate)

	if err := <-older; !errors.Is(err, ErrSuperseded) {
		t.Errorf("Expected ErrSuperseded, got %v", err)
	}
	entry, _ := cache.Get(key)
	if entry.Vote.Score != 2 {
		t.Errorf("Expected the newer result to stay, got score %d", entry.Vote.Score)
	}
}

func TestLoadUsesCacheUntilStale(t *testing.T) {
	fetcher := newFakeFetcher()
	key := HomePostsKey()
	fetcher.set(key, &Entry{Posts: []api.Post{testPost(1, 1, api.NoVote)}})
	cache := NewCache(fetcher, 0)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := cache.Load(ctx, key); err != nil {
			t.Fatal(err)
		}
	}
	if n := fetcher.callCount(key); n != 1 {
		t.Errorf("Expected one fetch, got %d", n)
	}

	var seen []*Entry
	unsubscribe := cache.Subscribe(key, func(_ Key, e *Entry) { seen = append(seen, e) })
	current, _ := cache.Get(key)
	cache.Set(key, current.stale())
	if len(seen) != 1 || !seen[0].Stale {
		t.Fatalf("Expected one stale notification, got %v", seen)
	}
	if _, err := cache.Load(ctx, key); err != nil {
		t.Fatal(err)
	}
	if n := fetcher.callCount(key); n != 2 {
		t.Errorf("Expected refetch of the stale entry, got %d fetches", n)
	}

	unsubscribe()
	current, _ = cache.Get(key)
	cache.Set(key, current.stale())
	if len(seen) != 2 {
		t.Errorf("Expected no notification after unsubscribe, got %d", len(seen))
	}
}

func TestFetchErrorKeepsEntry(t *testing.T) {
	fetcher := newFakeFetcher()
	cache := NewCache(fetcher, 0)
	key := PlacePostsKey("missing")
	old := &Entry{Posts: []api.Post{}}
	cache.Set(key, old)

	_, err := cache.Fetch(context.Background(), key)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != 404 {
		t.Fatalf("Expected 404 StatusError, got %v", err)
	}
	if got, _ := cache.Get(key); got != old {
		t.Error("Expected entry untouched after failed fetch")
	}
}

func TestCacheEvictsLeastRecentlyRead(t *testing.T) {
	cache := NewCache(newFakeFetcher(), 2)
	cache.Set(PostKey(1), &Entry{})
	cache.Set(PostKey(2), &Entry{})
	cache.Get(PostKey(1))
	cache.Set(PostKey(3), &Entry{})

	if _, ok := cache.Get(PostKey(2)); ok {
		t.Error("Expected the entry nobody read to be evicted")
	}
	if _, ok := cache.Get(PostKey(1)); !ok {
		t.Error("Expected the recently read entry to survive")
	}
	if _, ok := cache.Get(PostKey(3)); !ok {
		t.Error("Expected newest entry to be cached")
	}
}
