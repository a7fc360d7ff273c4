package reconciler

import (
	"context"
	"sync"
	"sync/atomic"

	"agora/internal/api"
)

// fakeTransport answers votes from gate/err, or per call from gates/errs when
// those are long enough.
type fakeTransport struct {
	signedIn bool
	gate     chan struct{}
	gates    []chan struct{}
	entered  chan api.Direction
	err      error
	errs     []error
	calls    atomic.Int32
}

func (f *fakeTransport) SignedIn() bool { return f.signedIn }

func (f *fakeTransport) CastVote(ctx context.Context, postID uint, direction api.Direction) (api.CastVoteResponse, error) {
	n := int(f.calls.Add(1)) - 1
	gate, err := f.gate, f.err
	if n < len(f.gates) {
		gate = f.gates[n]
	}
	if n < len(f.errs) {
		err = f.errs[n]
	}
	if f.entered != nil {
		f.entered <- direction
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return api.CastVoteResponse{}, ctx.Err()
		}
	}
	if err != nil {
		return api.CastVoteResponse{}, err
	}
	v, _ := direction.Value()
	return api.CastVoteResponse{UserVote: v, ScoreDelta: int(v)}, nil
}

type fakeFetcher struct {
	mu      sync.Mutex
	data    map[Key]*Entry
	gates   map[Key]chan struct{}
	entered chan Key
	calls   map[Key]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		data:  make(map[Key]*Entry),
		gates: make(map[Key]chan struct{}),
		calls: make(map[Key]int),
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, key Key) (*Entry, error) {
	f.mu.Lock()
	f.calls[key]++
	gate := f.gates[key]
	f.mu.Unlock()

	if gate != nil {
		if f.entered != nil {
			f.entered <- key
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.data[key]
	if !ok {
		return nil, &StatusError{Code: 404}
	}
	out := *entry
	return &out, nil
}

func (f *fakeFetcher) set(key Key, entry *Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = entry
}

func (f *fakeFetcher) gate(key Key) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[key] = ch
	return ch
}

func (f *fakeFetcher) ungate(key Key) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.gates, key)
}

func (f *fakeFetcher) callCount(key Key) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}
