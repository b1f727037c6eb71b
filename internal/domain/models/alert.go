package models

import (
	"fmt"
	"time"
)

// Priority orders alerts; higher wins when the per-instrument cap applies.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityVeryHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityVeryHigh:
		return "VERY_HIGH"
	case PriorityHigh:
		return "HIGH"
	case PriorityMedium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// ParsePriority maps the wire form back to a Priority; unknown means low.
func ParsePriority(s string) Priority {
	switch s {
	case "VERY_HIGH":
		return PriorityVeryHigh
	case "HIGH":
		return PriorityHigh
	case "MEDIUM":
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// RuleKind is the closed set of alert rule kinds. Each kind has exactly one
// evaluator in the alert engine; adding a kind is an exhaustively checked change.
type RuleKind string

const (
	RuleSurge          RuleKind = "price_surge"
	RulePlunge         RuleKind = "price_plunge"
	RuleLimitUp        RuleKind = "limit_up"
	RuleLimitDown      RuleKind = "limit_down"
	RuleBreakout52W    RuleKind = "breakout_52w"
	RuleBreakdown52W   RuleKind = "breakdown_52w"
	RuleStreak         RuleKind = "consecutive_move"
	RuleGap            RuleKind = "gap"
	RuleVolatilitySpike RuleKind = "volatility_spike"
)

// AlertRule is static configuration, loaded once and read-only during a cycle.
type AlertRule struct {
	Kind      RuleKind
	Threshold float64       // meaning depends on Kind
	Window    time.Duration // cooling-down duration after a trigger
	Priority  Priority
}

// Alert is an emitted, immutable alert record.
type Alert struct {
	ID           string    `json:"alert_id"`
	Kind         RuleKind  `json:"alert_type"`
	Code         string    `json:"stock_code"`
	Name         string    `json:"stock_name"`
	Market       string    `json:"market"`
	Priority     string    `json:"priority"`
	Message      string    `json:"message"`
	TriggerPrice float64   `json:"trigger_price"`
	ChangeRate   float64   `json:"change_rate"`
	TriggeredAt  time.Time `json:"timestamp"`

	priority Priority
}

// NewAlert builds an alert with a deterministic id of (code, kind, time).
func NewAlert(kind RuleKind, inst Instrument, prio Priority, price, changeRate float64, msg string, at time.Time) Alert {
	return Alert{
		ID:           fmt.Sprintf("%s-%s-%d", inst.Code, kind, at.Unix()),
		Kind:         kind,
		Code:         inst.Code,
		Name:         inst.Name,
		Market:       inst.Market,
		Priority:     prio.String(),
		Message:      msg,
		TriggerPrice: price,
		ChangeRate:   changeRate,
		TriggeredAt:  at,
		priority:     prio,
	}
}

// PriorityLevel returns the numeric priority for ordering.
func (a Alert) PriorityLevel() Priority { return a.priority }

// AgeSeconds reports seconds elapsed since the alert fired.
func (a Alert) AgeSeconds(now time.Time) int {
	return int(now.Sub(a.TriggeredAt).Seconds())
}
