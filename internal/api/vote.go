package api

import (
	"strconv"

	"github.com/pkg/errors"
)

// Direction is the button a voter pressed.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Value maps the direction onto the stored vote value.
func (d Direction) Value() (VoteValue, bool) {
	switch d {
	case Up:
		return Upvote, true
	case Down:
		return Downvote, true
	}
	return NoVote, false
}

// VoteValue is a voter's stance on a post. NoVote encodes as JSON null.
type VoteValue int

const (
	NoVote   VoteValue = 0
	Upvote   VoteValue = 1
	Downvote VoteValue = -1
)

func (v VoteValue) MarshalJSON() ([]byte, error) {
	if v == NoVote {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, int64(v), 10), nil
}

func (v *VoteValue) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = NoVote
		return nil
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return errors.Wrap(err, "vote value")
	}
	switch VoteValue(n) {
	case Upvote, Downvote, NoVote:
		*v = VoteValue(n)
		return nil
	}
	return errors.Errorf("vote value out of range: %d", n)
}

// Resolve applies a requested vote to the current one. Repeating the current
// direction removes the vote, the opposite direction switches it, and no vote
// sets it. delta is the change to apply to the post score.
func Resolve(current, requested VoteValue) (next VoteValue, delta int) {
	if current == requested {
		next = NoVote
	} else {
		next = requested
	}
	return next, int(next) - int(current)
}
