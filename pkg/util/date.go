package util

import (
	"strconv"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

var seoul = mustLoadSeoul()

func mustLoadSeoul() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.FixedZone("KST", 9*3600)
	}
	return loc
}

// IsMarketHours reports whether t falls inside the KRX regular session,
// 09:00-15:30 KST on weekdays. Exchange holidays are not modeled.
func IsMarketHours(t time.Time) bool {
	kst := t.In(seoul)
	switch kst.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	mins := kst.Hour()*60 + kst.Minute()
	return mins >= 9*60 && mins <= 15*60+30
}

// MarketAwareTTL shortens a cache TTL during the trading session and
// stretches it after hours, when quotes stop moving.
func MarketAwareTTL(base time.Duration, now time.Time) time.Duration {
	if IsMarketHours(now) {
		return base
	}
	return base * 10
}
