package models

import (
	"math"
	"testing"
)

func TestBreadthAllAdvancing(t *testing.T) {
	s := MarketSummary{TotalStocks: 2, Advancing: 2}
	if r := s.AdvanceDeclineRatio(); !math.IsInf(r, 1) {
		t.Fatalf("expected +Inf ratio, got %v", r)
	}
	if b := s.Breadth(); b != "VERY_POSITIVE" {
		t.Fatalf("all-advancing market must read VERY_POSITIVE, got %s", b)
	}
}

func TestBreadthBuckets(t *testing.T) {
	cases := []struct {
		advancing int
		declining int
		want      string
	}{
		{5, 2, "VERY_POSITIVE"},
		{4, 2, "POSITIVE"},
		{3, 2, "SLIGHTLY_POSITIVE"},
		{2, 3, "SLIGHTLY_NEGATIVE"},
		{1, 3, "NEGATIVE"},
	}
	for _, c := range cases {
		s := MarketSummary{Advancing: c.advancing, Declining: c.declining}
		if got := s.Breadth(); got != c.want {
			t.Fatalf("Breadth(%d/%d) = %s, want %s", c.advancing, c.declining, got, c.want)
		}
	}
}

func TestStrengthBuckets(t *testing.T) {
	cases := []struct {
		ratio float64
		want  string
	}{
		{3.5, "VERY_STRONG"},
		{3.0, "VERY_STRONG"},
		{2.0, "STRONG"},
		{1.5, "MODERATE"},
		{1.0, "WEAK"},
		{0.5, "VERY_WEAK"},
		{0, "VERY_WEAK"},
	}
	for _, c := range cases {
		if got := StrengthBucket(c.ratio); got != c.want {
			t.Fatalf("StrengthBucket(%v) = %s, want %s", c.ratio, got, c.want)
		}
	}
}
