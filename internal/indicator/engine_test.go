package indicator

import (
	"math"
	"testing"
	"time"

	"RankPulse/internal/domain/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestChangeRate(t *testing.T) {
	if got := ChangeRate(5670, 4500); !almostEqual(got, 26.0) {
		t.Fatalf("expected 26.0, got %v", got)
	}
	if got := ChangeRate(100, 0); got != 0 {
		t.Fatalf("zero reference must yield 0, got %v", got)
	}
}

func TestSMAShortWindow(t *testing.T) {
	if _, ok := SMA([]float64{1, 2, 3}, 5); ok {
		t.Fatalf("short window must not produce a value")
	}
	v, ok := SMA([]float64{1, 2, 3, 4, 5}, 5)
	if !ok || !almostEqual(v, 3) {
		t.Fatalf("expected SMA 3, got %v ok=%v", v, ok)
	}
}

func TestWMAWeightsNewest(t *testing.T) {
	v, ok := WMA([]float64{1, 2, 3}, 3)
	if !ok {
		t.Fatalf("expected ok")
	}
	// (1*1 + 2*2 + 3*3) / 6
	if !almostEqual(v, 14.0/6.0) {
		t.Fatalf("unexpected WMA %v", v)
	}
}

func TestRSIBounds(t *testing.T) {
	up := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	v, ok := RSI(up, 14)
	if !ok || v != 100 {
		t.Fatalf("all-gain series must read RSI 100, got %v", v)
	}
	if _, ok := RSI(up[:10], 14); ok {
		t.Fatalf("short series must not produce RSI")
	}
}

func TestStreaksTieHolds(t *testing.T) {
	up, down := Streaks([]float64{1, 2, 3, 3, 4})
	if up != 2 || down != 0 {
		t.Fatalf("tie must hold the streak: up=%d down=%d", up, down)
	}

	up, down = Streaks([]float64{5, 4, 3, 4})
	if up != 1 || down != 0 {
		t.Fatalf("reversal must reset: up=%d down=%d", up, down)
	}
}

func TestRateOfChange(t *testing.T) {
	v, ok := RateOfChange([]float64{100, 110, 120, 130, 140, 150}, 5)
	if !ok || !almostEqual(v, 50) {
		t.Fatalf("expected ROC 50, got %v", v)
	}
}

func TestSlope(t *testing.T) {
	if got := Slope([]float64{1, 2, 3, 4}); !almostEqual(got, 1) {
		t.Fatalf("expected slope 1, got %v", got)
	}
	if got := Slope([]float64{7}); got != 0 {
		t.Fatalf("single point slope must be 0")
	}
}

func seriesOf(closes ...float64) []models.Bar {
	bars := make([]models.Bar, len(closes))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = models.Bar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      c,
			High:      c * 1.01,
			Low:       c * 0.99,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

func TestComputeShortHistoryInvalidatesWindowed(t *testing.T) {
	e := NewEngine(Config{})
	q := models.Quote{
		Code: "005930", Price: 5670, PrevClose: 4500,
		Open: 4600, High: 5700, Low: 4550, Volume: 100000,
		Timestamp: time.Now(),
	}
	m := e.Compute(q, seriesOf(4400, 4450, 4500, 5670))

	if !almostEqual(m.ChangeRate, 26.0) {
		t.Fatalf("expected change rate 26.0, got %v", m.ChangeRate)
	}
	if m.SMA20.Valid || m.RSI14.Valid || m.Volatility.Valid {
		t.Fatalf("windowed metrics must be invalid on short history")
	}
	if !m.High52W.Valid || !m.Low52W.Valid {
		t.Fatalf("rolling extremes are valid whenever history exists")
	}
	if m.UpStreak != 3 {
		t.Fatalf("expected up streak 3, got %d", m.UpStreak)
	}
}

func TestComputeIsPure(t *testing.T) {
	e := NewEngine(Config{})
	q := models.Quote{Code: "005930", Price: 105, PrevClose: 100, High: 106, Low: 99, Volume: 500, Timestamp: time.Now()}
	bars := seriesOf(90, 95, 100, 101, 102, 103, 104, 105)

	a := e.Compute(q, bars)
	b := e.Compute(q, bars)
	if a.ChangeRate != b.ChangeRate || a.UpStreak != b.UpStreak || a.SMA5 != b.SMA5 {
		t.Fatalf("compute is not deterministic: %+v vs %+v", a, b)
	}
}

func TestComputeEmptyHistory(t *testing.T) {
	e := NewEngine(Config{})
	q := models.Quote{Code: "005930", Price: 100, PrevClose: 100, Volume: 1, Timestamp: time.Now()}
	m := e.Compute(q, nil)
	if m.High52W.Valid || m.SMA5.Valid {
		t.Fatalf("no history must yield no windowed metrics")
	}
	if m.ChangeRate != 0 {
		t.Fatalf("flat quote must read 0 change rate")
	}
}
