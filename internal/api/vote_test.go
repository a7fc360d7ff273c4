package api

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		name      string
		current   VoteValue
		requested VoteValue
		next      VoteValue
		delta     int
	}{
		{"create up", NoVote, Upvote, Upvote, 1},
		{"create down", NoVote, Downvote, Downvote, -1},
		{"toggle up off", Upvote, Upvote, NoVote, -1},
		{"toggle down off", Downvote, Downvote, NoVote, 1},
		{"switch up to down", Upvote, Downvote, Downvote, -2},
		{"switch down to up", Downvote, Upvote, Upvote, 2},
	}
	for _, tc := range cases {
		next, delta := Resolve(tc.current, tc.requested)
		if next != tc.next || delta != tc.delta {
			t.Errorf("%s: expected (%d, %d), got (%d, %d)", tc.name, tc.next, tc.delta, next, delta)
		}
	}
}

func TestResolveChainCollapses(t *testing.T) {
	clicks := []VoteValue{Upvote, Downvote, Upvote, Upvote, Downvote}
	current, score := NoVote, 0
	for _, c := range clicks {
		var delta int
		current, delta = Resolve(current, c)
		score += delta
	}
	if current != Downvote || score != int(Downvote) {
		t.Errorf("Expected a single down vote, got vote %d score %d", current, score)
	}
}

func TestDirectionValue(t *testing.T) {
	if v, ok := Up.Value(); !ok || v != Upvote {
		t.Errorf("up: got %d %v", v, ok)
	}
	if v, ok := Down.Value(); !ok || v != Downvote {
		t.Errorf("down: got %d %v", v, ok)
	}
	if _, ok := Direction("sideways").Value(); ok {
		t.Error("Expected sideways to be rejected")
	}
}

func TestVoteValueJSON(t *testing.T) {
	b, err := json.Marshal(VoteState{UserVote: NoVote, Score: 3})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"userVote":null,"score":3}` {
		t.Errorf("Unexpected encoding: %s", b)
	}

	var s VoteState
	if err := json.Unmarshal([]byte(`{"userVote":-1,"score":2}`), &s); err != nil {
		t.Fatal(err)
	}
	if s.UserVote != Downvote {
		t.Errorf("Expected downvote, got %d", s.UserVote)
	}
	if err := json.Unmarshal([]byte(`{"userVote":null}`), &s); err != nil || s.UserVote != NoVote {
		t.Errorf("Expected null to decode as no vote, got %d (%v)", s.UserVote, err)
	}
	if err := json.Unmarshal([]byte(`{"userVote":5}`), &s); err == nil {
		t.Error("Expected out of range value to fail")
	}
}

func TestVoteValueUnmarshalErrors(t *testing.T) {
	var v VoteValue
	err := v.UnmarshalJSON([]byte(`"up"`))
	if err == nil || !strings.HasPrefix(err.Error(), "vote value: ") {
		t.Errorf("Expected wrapped parse error, got %v", err)
	}
	err = v.UnmarshalJSON([]byte(`2`))
	if err == nil || err.Error() != "vote value out of range: 2" {
		t.Errorf("Expected range error, got %v", err)
	}
}
