package pattern

// Pivot is a local price extreme inside a series.
type Pivot struct {
	Index int
	Price float64
}

// FindPivotHighs identifies local maxima with leftBars/rightBars dominance.
func FindPivotHighs(highs []float64, leftBars, rightBars int) []Pivot {
	var pivots []Pivot
	for i := leftBars; i < len(highs)-rightBars; i++ {
		cur := highs[i]
		isPivot := true
		for j := 1; j <= leftBars; j++ {
			if highs[i-j] >= cur {
				isPivot = false
				break
			}
		}
		if isPivot {
			for j := 1; j <= rightBars; j++ {
				if highs[i+j] >= cur {
					isPivot = false
					break
				}
			}
		}
		if isPivot {
			pivots = append(pivots, Pivot{Index: i, Price: cur})
		}
	}
	return pivots
}

// FindPivotLows identifies local minima with leftBars/rightBars dominance.
func FindPivotLows(lows []float64, leftBars, rightBars int) []Pivot {
	var pivots []Pivot
	for i := leftBars; i < len(lows)-rightBars; i++ {
		cur := lows[i]
		isPivot := true
		for j := 1; j <= leftBars; j++ {
			if lows[i-j] <= cur {
				isPivot = false
				break
			}
		}
		if isPivot {
			for j := 1; j <= rightBars; j++ {
				if lows[i+j] <= cur {
					isPivot = false
					break
				}
			}
		}
		if isPivot {
			pivots = append(pivots, Pivot{Index: i, Price: cur})
		}
	}
	return pivots
}
