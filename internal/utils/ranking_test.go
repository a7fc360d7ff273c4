package utils

import (
	"testing"
	"time"
)

func TestHotRankDecays(t *testing.T) {
	now := time.Now()
	fresh := HotRank(10, now.Add(-1*time.Hour), now)
	old := HotRank(10, now.Add(-48*time.Hour), now)
	if fresh <= old {
		t.Errorf("Expected fresh post to outrank old one: %f <= %f", fresh, old)
	}
}

func TestHotRankSign(t *testing.T) {
	now := time.Now()
	if HotRank(0, now, now) != 0 {
		t.Error("Expected zero score to rank zero")
	}
	if HotRank(-3, now, now) >= 0 {
		t.Error("Expected negative score to rank below zero")
	}
	// clock skew must not blow up the rank
	if r := HotRank(5, now.Add(time.Hour), now); r <= 0 {
		t.Errorf("Expected positive rank for future timestamp, got %f", r)
	}
}
