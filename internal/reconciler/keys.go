package reconciler

import (
	"strconv"
	"time"

	"agora/internal/api"
)

// Kind names a family of cached queries.
type Kind string

const (
	KindPosts       Kind = "posts"       // Param: "" or "top"
	KindPlacePosts  Kind = "placePosts"  // Param: place slug
	KindDomainPosts Kind = "domainPosts" // Param: domain
	KindHomePosts   Kind = "homePosts"
	KindPost        Kind = "post"     // Param: post id
	KindPostVote    Kind = "postVote" // Param: post id
)

// Key identifies one cache entry.
type Key struct {
	Kind  Kind
	Param string
}

func (k Key) String() string {
	if k.Param == "" {
		return string(k.Kind)
	}
	return string(k.Kind) + ":" + k.Param
}

func (k Key) isList() bool {
	switch k.Kind {
	case KindPosts, KindPlacePosts, KindDomainPosts, KindHomePosts:
		return true
	}
	return false
}

func PostsKey(top bool) Key {
	if top {
		return Key{Kind: KindPosts, Param: "top"}
	}
	return Key{Kind: KindPosts}
}

func PlacePostsKey(slug string) Key    { return Key{Kind: KindPlacePosts, Param: slug} }
func DomainPostsKey(domain string) Key { return Key{Kind: KindDomainPosts, Param: domain} }
func HomePostsKey() Key                { return Key{Kind: KindHomePosts} }

func PostKey(id uint) Key {
	return Key{Kind: KindPost, Param: strconv.FormatUint(uint64(id), 10)}
}

func PostVoteKey(id uint) Key {
	return Key{Kind: KindPostVote, Param: strconv.FormatUint(uint64(id), 10)}
}

// Entry is an immutable snapshot of one cached query. Exactly one of Posts, Post
// and Vote is set, depending on the key kind. Writers replace entries, they never
// modify one in place, so a held pointer is a faithful snapshot.
//
// A missing postVote entry means the viewer's vote is unknown; a present one with
// UserVote == NoVote means the viewer is known not to have voted.
type Entry struct {
	Posts     []api.Post
	Post      *api.Post
	Vote      *api.VoteState
	Stale     bool
	FetchedAt time.Time
}

// findPost returns the copy of postID held by the entry, if any.
func (e *Entry) findPost(postID uint) (api.Post, bool) {
	if e.Post != nil && e.Post.ID == postID {
		return *e.Post, true
	}
	for _, p := range e.Posts {
		if p.ID == postID {
			return p, true
		}
	}
	return api.Post{}, false
}

// withVote returns a copy where every copy of postID shows vote next. Each copy
// moves its score by the difference from its own previous vote.
func (e *Entry) withVote(postID uint, next api.VoteValue) *Entry {
	out := *e
	if e.Post != nil {
		p := *e.Post
		p.Score += int(next - p.UserVote)
		p.UserVote = next
		out.Post = &p
	}
	if e.Posts != nil {
		out.Posts = make([]api.Post, len(e.Posts))
		for i, p := range e.Posts {
			if p.ID == postID {
				p.Score += int(next - p.UserVote)
				p.UserVote = next
			}
			out.Posts[i] = p
		}
	}
	if e.Vote != nil {
		v := *e.Vote
		v.Score += int(next - v.UserVote)
		v.UserVote = next
		out.Vote = &v
	}
	return &out
}

func (e *Entry) stale() *Entry {
	out := *e
	out.Stale = true
	return &out
}
