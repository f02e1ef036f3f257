package student

import "math"

// WeightedAverage computes the partial-credit weighted average of the
// recognized entries: sum(value*weight) / sum(weight). Entries whose
// label carries no weight are skipped. ok is false when no recognized
// entry is present, in which case no average exists.
func WeightedAverage(entries []GradeEntry) (avg float64, ok bool) {
	var weightedSum, weightSum float64
	for _, e := range entries {
		w, known := e.Label.Weight()
		if !known {
			continue
		}
		weightedSum += e.Value * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0, false
	}
	return round2(weightedSum / weightSum), true
}

// Verdict maps an average to a terminal status on the 0-20 scale.
func Verdict(avg float64) Status {
	if avg >= PassingGrade {
		return StatusPassed
	}
	return StatusFailed
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
