package reconciler

import (
	"context"
	"sync"

	"agora/internal/api"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	// ErrSignedOut means the vote was not attempted. Nothing was changed.
	ErrSignedOut = errors.New("sign in to vote")
	ErrDirection = errors.New("vote direction must be up or down")
)

// Transport is the vote ledger as seen from the client.
type Transport interface {
	SignedIn() bool
	CastVote(ctx context.Context, postID uint, direction api.Direction) (api.CastVoteResponse, error)
}

// Reconciler applies votes to the cache before the server answers, then either
// refetches the touched entries or restores them.
type Reconciler struct {
	cache     *Cache
	transport Transport

	mu      sync.Mutex
	pending map[uint]*postActions
}

type postActions struct {
	count int
	// set when a settled success left its refetch to a later action
	refetch bool
	// set once two actions on the post were pending at the same time; their
	// snapshots then hold each other's optimistic writes
	overlapped bool
}

func New(cache *Cache, transport Transport) *Reconciler {
	return &Reconciler{
		cache:     cache,
		transport: transport,
		pending:   make(map[uint]*postActions),
	}
}

// snapshot holds the entries as they were before an optimistic write. A nil
// entry means the key was not cached.
type snapshot map[Key]*Entry

// Vote casts a vote with an optimistic cache update. fallback is the copy of the
// post the caller is showing; it is only consulted when the cache knows nothing
// about the viewer's vote. It may be nil.
//
// On success the server response is returned and the touched entries are
// refetched. On failure they are restored and the error is returned.
func (r *Reconciler) Vote(ctx context.Context, postID uint, direction api.Direction, fallback *api.Post) (api.CastVoteResponse, error) {
	if !r.transport.SignedIn() {
		return api.CastVoteResponse{}, ErrSignedOut
	}
	requested, ok := direction.Value()
	if !ok {
		return api.CastVoteResponse{}, ErrDirection
	}

	snap, optimistic := r.apply(postID, requested, fallback)
	log.Debug().
		Uint("post_id", postID).
		Int("optimistic_vote", int(optimistic)).
		Int("entries", len(snap)).
		Msg("Applied optimistic vote")

	resp, err := r.transport.CastVote(ctx, postID, direction)
	if err != nil {
		r.rollback(ctx, postID, snap)
		return api.CastVoteResponse{}, err
	}
	r.settle(ctx, postID)
	return resp, nil
}

// apply writes the optimistic vote to every cached copy of the post under the
// cache lock and returns the snapshot needed to undo it.
//
// r.mu is always taken before the cache lock and held across each phase, so the
// pending count and the cache change together.
func (r *Reconciler) apply(postID uint, requested api.VoteValue, fallback *api.Post) (snapshot, api.VoteValue) {
	r.mu.Lock()
	c := r.cache
	c.mu.Lock()

	keys := c.keysWithPostLocked(postID)
	for _, key := range keys {
		c.cancelLocked(key)
	}

	current, score := r.currentLocked(postID, keys, fallback)
	next, delta := api.Resolve(current, requested)

	snap := make(snapshot, len(keys))
	changes := make([]change, 0, len(keys))
	for _, key := range keys {
		entry, ok := c.entries.Peek(key)
		switch {
		case ok:
			snap[key] = entry
			changes = append(changes, c.putLocked(key, entry.withVote(postID, next)))
		case key.Kind == KindPostVote:
			// 投票状态未知时写入乐观值，连续点击可以读到
			snap[key] = nil
			cell := &Entry{Vote: &api.VoteState{UserVote: next, Score: score + delta}, Stale: true}
			changes = append(changes, c.putLocked(key, cell))
		}
	}
	c.mu.Unlock()

	actions := r.pending[postID]
	if actions == nil {
		actions = &postActions{}
		r.pending[postID] = actions
	}
	actions.count++
	if actions.count > 1 {
		actions.overlapped = true
	}
	r.mu.Unlock()

	c.notify(changes)
	return snap, next
}

// currentLocked reads the viewer's vote, preferring the vote cell, then the
// detail entry, then any list, then the caller's copy.
func (r *Reconciler) currentLocked(postID uint, keys []Key, fallback *api.Post) (api.VoteValue, int) {
	c := r.cache
	if entry, ok := c.entries.Peek(PostVoteKey(postID)); ok && entry.Vote != nil {
		return entry.Vote.UserVote, entry.Vote.Score
	}
	for _, key := range keys {
		if key.Kind == KindPostVote {
			continue
		}
		if entry, ok := c.entries.Peek(key); ok {
			if p, found := entry.findPost(postID); found {
				return p.UserVote, p.Score
			}
		}
	}
	if fallback != nil {
		return fallback.UserVote, fallback.Score
	}
	return api.NoVote, 0
}

// finishLocked records a settled action and reports whether it was the last one
// pending on the post, and whether the cache must be refetched because a success
// deferred its refetch or overlapping actions made the snapshots unreliable.
func (r *Reconciler) finishLocked(postID uint, succeeded bool) (last, refetch bool) {
	actions := r.pending[postID]
	actions.count--
	if succeeded {
		actions.refetch = true
	}
	if actions.count > 0 {
		return false, false
	}
	delete(r.pending, postID)
	return true, actions.refetch || actions.overlapped
}

func (r *Reconciler) settle(ctx context.Context, postID uint) {
	r.mu.Lock()
	last, _ := r.finishLocked(postID, true)
	c := r.cache
	c.mu.Lock()
	keys := c.keysWithPostLocked(postID)
	changes := c.invalidateLocked(keys)
	c.mu.Unlock()
	r.mu.Unlock()
	c.notify(changes)

	if last {
		r.refetch(ctx, keys)
	}
}

func (r *Reconciler) rollback(ctx context.Context, postID uint, snap snapshot) {
	r.mu.Lock()
	last, refetch := r.finishLocked(postID, false)
	c := r.cache
	c.mu.Lock()
	changes := make([]change, 0, len(snap))
	for key, entry := range snap {
		changes = append(changes, c.putLocked(key, entry))
	}
	var keys []Key
	if last && refetch {
		keys = c.keysWithPostLocked(postID)
		changes = append(changes, c.invalidateLocked(keys)...)
	}
	c.mu.Unlock()
	r.mu.Unlock()
	c.notify(changes)

	log.Debug().Uint("post_id", postID).Int("entries", len(snap)).Msg("Rolled back optimistic vote")
	if len(keys) > 0 {
		r.refetch(ctx, keys)
	}
}

// refetch reloads the cached keys among keys. Failures leave the entries stale.
func (r *Reconciler) refetch(ctx context.Context, keys []Key) {
	present := keys[:0:0]
	for _, key := range keys {
		if _, ok := r.cache.Get(key); ok {
			present = append(present, key)
		}
	}
	if err := r.cache.Refetch(ctx, present); err != nil {
		log.Warn().Err(err).Msg("Refetch after vote failed")
	}
}
