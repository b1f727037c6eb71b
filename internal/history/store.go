package history

import (
	"sync"

	"RankPulse/internal/domain/models"
)

// series is a fixed-capacity ring of bars, oldest evicted first.
type series struct {
	bars  []models.Bar
	head  int // index of the oldest bar
	count int
}

func (s *series) append(b models.Bar) {
	if s.count < len(s.bars) {
		s.bars[(s.head+s.count)%len(s.bars)] = b
		s.count++
		return
	}
	// full: overwrite the oldest slot
	s.bars[s.head] = b
	s.head = (s.head + 1) % len(s.bars)
}

func (s *series) last(n int) []models.Bar {
	if n <= 0 || s.count == 0 {
		return nil
	}
	if n > s.count {
		n = s.count
	}
	out := make([]models.Bar, n)
	start := s.head + s.count - n
	for i := 0; i < n; i++ {
		out[i] = s.bars[(start+i)%len(s.bars)]
	}
	return out
}

// Store owns the bounded rolling bar history for every instrument.
// It is appended to by the cycle coordinator only (single writer); engines
// read short-lived snapshots through Series.
type Store struct {
	mu       sync.RWMutex
	capacity int
	data     map[string]*series
}

// NewStore creates a history store holding up to capacity bars per instrument.
// 260 daily bars cover a 52-week window.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = 260
	}
	return &Store{capacity: capacity, data: make(map[string]*series)}
}

// Append adds a bar to the instrument's series, evicting the oldest bar when
// the capacity is exceeded. Bars must arrive in timestamp order; a bar not
// newer than the latest stored one is dropped.
func (st *Store) Append(code string, b models.Bar) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.data[code]
	if !ok {
		s = &series{bars: make([]models.Bar, st.capacity)}
		st.data[code] = s
	}
	if s.count > 0 {
		latest := s.last(1)[0]
		if !b.Timestamp.After(latest.Timestamp) {
			return
		}
	}
	s.append(b)
}

// Series returns the most recent window bars for code, oldest first, or fewer
// if history is shorter. An unknown instrument yields an empty series, never
// an error; callers treat short history as a valid state.
func (st *Store) Series(code string, window int) []models.Bar {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, ok := st.data[code]
	if !ok {
		return nil
	}
	return s.last(window)
}

// Len reports how many bars are stored for code.
func (st *Store) Len(code string) int {
	st.mu.RLock()
	defer st.mu.RUnlock()

	if s, ok := st.data[code]; ok {
		return s.count
	}
	return 0
}

// Codes lists every instrument with at least one bar.
func (st *Store) Codes() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()

	out := make([]string, 0, len(st.data))
	for code := range st.data {
		out = append(out, code)
	}
	return out
}
