package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestIsMarketHours(t *testing.T) {
	kst := time.FixedZone("KST", 9*3600)
	cases := []struct {
		at   time.Time
		want bool
	}{
		// Wednesday mid-session
		{time.Date(2025, 6, 4, 10, 0, 0, 0, kst), true},
		// Session boundaries
		{time.Date(2025, 6, 4, 9, 0, 0, 0, kst), true},
		{time.Date(2025, 6, 4, 15, 30, 0, 0, kst), true},
		{time.Date(2025, 6, 4, 8, 59, 0, 0, kst), false},
		{time.Date(2025, 6, 4, 15, 31, 0, 0, kst), false},
		// Saturday
		{time.Date(2025, 6, 7, 10, 0, 0, 0, kst), false},
	}
	for _, c := range cases {
		if got := IsMarketHours(c.at); got != c.want {
			t.Fatalf("IsMarketHours(%v) = %v, want %v", c.at, got, c.want)
		}
	}
}

func TestMarketAwareTTL(t *testing.T) {
	kst := time.FixedZone("KST", 9*3600)
	open := time.Date(2025, 6, 4, 10, 0, 0, 0, kst)
	closed := time.Date(2025, 6, 4, 20, 0, 0, 0, kst)

	if got := MarketAwareTTL(time.Minute, open); got != time.Minute {
		t.Fatalf("session TTL must stay at base, got %v", got)
	}
	if got := MarketAwareTTL(time.Minute, closed); got != 10*time.Minute {
		t.Fatalf("after-hours TTL must stretch, got %v", got)
	}
}