package models

import "time"

// Instrument is the immutable identity of a listed stock.
type Instrument struct {
	Code   string // KRX short code, e.g. "005930"
	Name   string
	Market string // "KOSPI" or "KOSDAQ"
	Sector string
}

// Bar is one polling cycle's OHLCV snapshot for an instrument.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Quote is a raw per-instrument record as returned by the snapshot source.
type Quote struct {
	Code      string
	Name      string
	Market    string
	Sector    string
	Price     float64
	Open      float64
	High      float64
	Low       float64
	Volume    float64
	PrevClose float64
	Timestamp time.Time
}

// Bar converts the quote into a history bar.
func (q *Quote) Bar() Bar {
	return Bar{
		Timestamp: q.Timestamp,
		Open:      q.Open,
		High:      q.High,
		Low:       q.Low,
		Close:     q.Price,
		Volume:    q.Volume,
	}
}

// TradingValue is price multiplied by accumulated volume.
func (q *Quote) TradingValue() float64 { return q.Price * q.Volume }
