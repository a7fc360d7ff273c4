package reconciler

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const defaultCacheSize = 256

// ErrSuperseded is returned by Fetch when the result was dropped because the
// fetch was cancelled or a newer one started for the same key.
var ErrSuperseded = errors.New("fetch superseded")

// Fetcher loads one cache entry from the server.
type Fetcher interface {
	Fetch(ctx context.Context, key Key) (*Entry, error)
}

// Listener is called after the entry for a key changed. entry is nil when the
// key was removed.
type Listener func(key Key, entry *Entry)

type inflight struct {
	gen    uint64
	cancel context.CancelFunc
}

type change struct {
	key   Key
	entry *Entry
}

// Cache is the client query cache. Views subscribe to keys instead of reading
// each other's state.
type Cache struct {
	mu        sync.Mutex
	entries   *lru.Cache[Key, *Entry]
	fetcher   Fetcher
	inflight  map[Key]inflight
	gen       uint64
	listeners map[Key]map[int]Listener
	nextID    int
	now       func() time.Time
}

func NewCache(fetcher Fetcher, size int) *Cache {
	if size <= 0 {
		size = defaultCacheSize
	}
	entries, _ := lru.New[Key, *Entry](size)
	return &Cache{
		entries:   entries,
		fetcher:   fetcher,
		inflight:  make(map[Key]inflight),
		listeners: make(map[Key]map[int]Listener),
		now:       time.Now,
	}
}

// Get returns the cached entry for key and marks it recently used. Internal
// walks over the cache use Peek so they do not reorder the LRU.
func (c *Cache) Get(key Key) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Get(key)
}

// Set stores an entry and notifies listeners.
func (c *Cache) Set(key Key, entry *Entry) {
	c.mu.Lock()
	c.entries.Add(key, entry)
	c.mu.Unlock()
	c.notify([]change{{key, entry}})
}

// Subscribe registers fn for changes of key. The returned func removes it.
func (c *Cache) Subscribe(key Key, fn Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	if c.listeners[key] == nil {
		c.listeners[key] = make(map[int]Listener)
	}
	c.listeners[key][id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners[key], id)
		if len(c.listeners[key]) == 0 {
			delete(c.listeners, key)
		}
	}
}

// Load returns the cached entry unless it is missing or stale, in which case it
// is fetched.
func (c *Cache) Load(ctx context.Context, key Key) (*Entry, error) {
	if entry, ok := c.Get(key); ok && !entry.Stale {
		return entry, nil
	}
	return c.Fetch(ctx, key)
}

// Fetch loads key from the server and stores the result, unless the fetch was
// cancelled or superseded while it ran.
func (c *Cache) Fetch(ctx context.Context, key Key) (*Entry, error) {
	c.mu.Lock()
	c.cancelLocked(key)
	c.gen++
	gen := c.gen
	fctx, cancel := context.WithCancel(ctx)
	c.inflight[key] = inflight{gen: gen, cancel: cancel}
	c.mu.Unlock()

	entry, err := c.fetcher.Fetch(fctx, key)

	c.mu.Lock()
	current := false
	if f, ok := c.inflight[key]; ok && f.gen == gen {
		current = true
		delete(c.inflight, key)
	}
	cancel()
	if !current {
		c.mu.Unlock()
		log.Debug().Str("key", key.String()).Msg("Dropped superseded fetch")
		return nil, ErrSuperseded
	}
	if err != nil {
		c.mu.Unlock()
		return nil, errors.Wrapf(err, "fetch %s", key)
	}
	entry.Stale = false
	entry.FetchedAt = c.now()
	c.entries.Add(key, entry)
	c.mu.Unlock()

	c.notify([]change{{key, entry}})
	return entry, nil
}

// Refetch fetches all keys concurrently. Superseded fetches are not errors.
func (c *Cache) Refetch(ctx context.Context, keys []Key) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, key := range keys {
		key := key
		g.Go(func() error {
			if _, err := c.Fetch(gctx, key); err != nil && !errors.Is(err, ErrSuperseded) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// invalidateLocked marks the entries stale so the next Load refetches them.
func (c *Cache) invalidateLocked(keys []Key) []change {
	changes := make([]change, 0, len(keys))
	for _, key := range keys {
		entry, ok := c.entries.Peek(key)
		if !ok || entry.Stale {
			continue
		}
		stale := entry.stale()
		c.entries.Add(key, stale)
		changes = append(changes, change{key, stale})
	}
	return changes
}

// cancelLocked drops the in-flight fetch of key. Its result will not be written.
func (c *Cache) cancelLocked(key Key) {
	if f, ok := c.inflight[key]; ok {
		f.cancel()
		delete(c.inflight, key)
	}
}

// putLocked stores entry, or removes the key when entry is nil.
func (c *Cache) putLocked(key Key, entry *Entry) change {
	if entry == nil {
		c.entries.Remove(key)
	} else {
		c.entries.Add(key, entry)
	}
	return change{key, entry}
}

// keysWithPostLocked lists every cached key holding a copy of postID. The
// detail and vote keys are always included, cached or not.
func (c *Cache) keysWithPostLocked(postID uint) []Key {
	keys := []Key{PostKey(postID), PostVoteKey(postID)}
	for _, key := range c.entries.Keys() {
		if !key.isList() {
			continue
		}
		if entry, ok := c.entries.Peek(key); ok {
			if _, found := entry.findPost(postID); found {
				keys = append(keys, key)
			}
		}
	}
	return keys
}

func (c *Cache) notify(changes []change) {
	if len(changes) == 0 {
		return
	}
	type call struct {
		fn Listener
		change
	}
	var calls []call
	c.mu.Lock()
	for _, ch := range changes {
		for _, fn := range c.listeners[ch.key] {
			calls = append(calls, call{fn, ch})
		}
	}
	c.mu.Unlock()

	for _, cl := range calls {
		cl.fn(cl.key, cl.entry)
	}
}
