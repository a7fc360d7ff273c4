package utils

import (
	"math"
	"time"
)

type RankConfig struct {
	Gravity float64 // 时间重力
	Offset  float64 // hours added to the age so fresh posts do not divide by ~0
}

var DefaultRankConfig = RankConfig{
	Gravity: 1.8,
	Offset:  2,
}

// HotRank is the Hacker News ranking: score / (T + offset)^G with T the age in hours.
// Negative scores keep their sign, so buried posts sink below fresh ones.
func HotRank(score int, createdAt, now time.Time) float64 {
	hours := now.Sub(createdAt).Hours()
	if hours < 0 {
		hours = 0
	}
	return float64(score) / math.Pow(hours+DefaultRankConfig.Offset, DefaultRankConfig.Gravity)
}
