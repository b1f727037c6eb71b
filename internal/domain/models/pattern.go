package models

import "time"

// PatternKind identifies a structural price event.
type PatternKind string

const (
	PatternBreakout     PatternKind = "breakout"
	PatternBreakdown    PatternKind = "breakdown"
	PatternGapUp        PatternKind = "gap_up"
	PatternGapDown      PatternKind = "gap_down"
	PatternStreak       PatternKind = "consecutive_streak"
	PatternTriangle     PatternKind = "triangle"
	PatternDoubleTop    PatternKind = "double_top"
	PatternDoubleBottom PatternKind = "double_bottom"
	PatternVReversal    PatternKind = "v_reversal"
)

// Direction classifies the expected move of a pattern.
type Direction string

const (
	Bullish Direction = "BULLISH"
	Bearish Direction = "BEARISH"
	Neutral Direction = "NEUTRAL"
)

// Pattern is one detected structural event for an instrument in a cycle.
// Detectors are pure functions of the series; at most one Pattern per kind
// per cycle.
type Pattern struct {
	Kind       PatternKind `json:"kind"`
	Code       string      `json:"code"`
	Direction  Direction   `json:"direction"`
	Confidence float64     `json:"confidence"` // 0..100
	Level      float64     `json:"level,omitempty"`
	Target     float64     `json:"target,omitempty"`
	Stop       float64     `json:"stop,omitempty"`
	GapRate    float64     `json:"gap_rate,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}
