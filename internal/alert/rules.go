package alert

import (
	"fmt"
	"math"

	"RankPulse/internal/domain/models"
)

// limitBand is the KRX daily price limit, percent from the previous close.
const limitBand = 30.0

// evaluate applies one rule to one instrument state. It returns the alert
// message and whether the rule fired; evaluation never mutates state.
// The switch is exhaustive over RuleKind; an unknown kind never fires.
func evaluate(rule models.AlertRule, s models.InstrumentState) (string, bool) {
	m := s.Metrics
	switch rule.Kind {
	case models.RuleSurge:
		if m.ChangeRate >= rule.Threshold {
			return fmt.Sprintf("%s surged %.2f%% to %.0f", s.Quote.Name, m.ChangeRate, s.Quote.Price), true
		}
	case models.RulePlunge:
		if m.ChangeRate <= -rule.Threshold {
			return fmt.Sprintf("%s plunged %.2f%% to %.0f", s.Quote.Name, m.ChangeRate, s.Quote.Price), true
		}
	case models.RuleLimitUp:
		if m.ChangeRate >= nearLimit(rule.Threshold) {
			return fmt.Sprintf("%s at upper price limit (%.2f%%)", s.Quote.Name, m.ChangeRate), true
		}
	case models.RuleLimitDown:
		if m.ChangeRate <= -nearLimit(rule.Threshold) {
			return fmt.Sprintf("%s at lower price limit (%.2f%%)", s.Quote.Name, m.ChangeRate), true
		}
	case models.RuleBreakout52W:
		if m.High52W.Valid && s.Quote.Price >= m.High52W.Value {
			return fmt.Sprintf("%s broke its 52-week high %.0f", s.Quote.Name, m.High52W.Value), true
		}
	case models.RuleBreakdown52W:
		if m.Low52W.Valid && s.Quote.Price <= m.Low52W.Value {
			return fmt.Sprintf("%s broke its 52-week low %.0f", s.Quote.Name, m.Low52W.Value), true
		}
	case models.RuleStreak:
		min := int(rule.Threshold)
		if min <= 0 {
			min = 3
		}
		if m.UpStreak >= min {
			return fmt.Sprintf("%s up %d sessions in a row", s.Quote.Name, m.UpStreak), true
		}
		if m.DownStreak >= min {
			return fmt.Sprintf("%s down %d sessions in a row", s.Quote.Name, m.DownStreak), true
		}
	case models.RuleGap:
		for _, p := range s.Patterns {
			if p.Kind != models.PatternGapUp && p.Kind != models.PatternGapDown {
				continue
			}
			if rule.Threshold > 0 && math.Abs(p.GapRate) < rule.Threshold {
				continue
			}
			return fmt.Sprintf("%s gapped %.2f%% at the open", s.Quote.Name, p.GapRate), true
		}
	case models.RuleVolatilitySpike:
		v := m.IntradayVolatility
		if m.Volatility.Valid {
			v = m.Volatility.Value
		}
		if v >= rule.Threshold {
			return fmt.Sprintf("%s volatility spiked to %.2f%%", s.Quote.Name, v), true
		}
	}
	return "", false
}

// nearLimit converts the configured near-limit margin into the change-rate
// threshold that counts as at-limit; a zero margin means exactly the band.
func nearLimit(margin float64) float64 {
	if margin <= 0 || margin >= limitBand {
		return limitBand
	}
	return limitBand - margin
}
