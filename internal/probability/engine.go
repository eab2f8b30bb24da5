// Package probability converts predicted values and historical spread into
// threshold-exceedance probabilities under a normal-distribution model.
package probability

import (
	"math"

	"jupiter/internal/models"
)

const (
	// equalityBandScale sizes the band for the "=" operator as a fraction of
	// sigma; equality is a band, not a point mass.
	equalityBandScale = 0.1

	// strictEpsilon separates ">=" from ">" (and "<=" from "<") at the
	// threshold itself.
	strictEpsilon = 1e-9
)

// normalCDF evaluates the cumulative distribution of N(mean, sigma) at x.
func normalCDF(x, mean, sigma float64) float64 {
	z := (x - mean) / (sigma * math.Sqrt2)
	return 0.5 * (1 + math.Erf(z))
}

// Satisfies reports whether a concrete value passes the operator/threshold
// test. Used both for degenerate (zero-spread) probabilities and for counting
// historical exceedances.
func Satisfies(op models.Operator, value, threshold float64) bool {
	switch op {
	case models.OpGreater:
		return value > threshold
	case models.OpGreaterEqual:
		return value >= threshold
	case models.OpLess:
		return value < threshold
	case models.OpLessEqual:
		return value <= threshold
	case models.OpEqual:
		return value == threshold
	}
	return false
}

// Exceedance computes the probability that a parameter distributed
// N(mean, sigma) satisfies the comparison. With zero or undefined spread the
// distribution collapses to the mean: the result is 0 or 1, never a division
// by zero. The result is always clamped to [0,1].
func Exceedance(op models.Operator, threshold, mean, sigma float64) float64 {
	if sigma <= 0 || math.IsNaN(sigma) {
		if Satisfies(op, mean, threshold) {
			return 1
		}
		return 0
	}

	var p float64
	switch op {
	case models.OpGreater:
		p = 1 - normalCDF(threshold, mean, sigma)
	case models.OpGreaterEqual:
		p = 1 - normalCDF(threshold-strictEpsilon, mean, sigma)
	case models.OpLess:
		p = normalCDF(threshold, mean, sigma)
	case models.OpLessEqual:
		p = normalCDF(threshold+strictEpsilon, mean, sigma)
	case models.OpEqual:
		delta := equalityBandScale * sigma
		p = normalCDF(threshold+delta, mean, sigma) - normalCDF(threshold-delta, mean, sigma)
	default:
		return 0
	}

	return math.Max(0, math.Min(1, p))
}

// Aggregate combines per-day probabilities into the probability that the
// threshold is crossed at least once in the range, assuming days are
// independent: 1 - prod(1-p_i). Adjacent days are correlated in reality, so
// this is a documented simplification, not a meteorological claim. The
// result is never below the largest per-day probability.
func Aggregate(probs []float64) float64 {
	noneProb := 1.0
	for _, p := range probs {
		noneProb *= 1 - p
	}
	return math.Max(0, math.Min(1, 1-noneProb))
}

// StdDev returns the sample standard deviation of the values, or 0 when
// fewer than two values exist.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

// HistoricalStats counts how the parameter actually behaved in the historical
// window: an empirical exceedance rate independent of the normal-model
// assumption, plus summary statistics. Returns nil for an empty window.
func HistoricalStats(values []float64, op models.Operator, threshold float64) *models.HistoricalStats {
	if len(values) == 0 {
		return nil
	}

	stats := &models.HistoricalStats{
		Min:      values[0],
		Max:      values[0],
		DayCount: len(values),
	}

	var sum float64
	exceedances := 0
	for _, v := range values {
		sum += v
		stats.Min = math.Min(stats.Min, v)
		stats.Max = math.Max(stats.Max, v)
		if Satisfies(op, v, threshold) {
			exceedances++
		}
	}
	stats.Mean = sum / float64(len(values))
	stats.StdDev = StdDev(values)
	stats.ExceedanceRate = float64(exceedances) / float64(len(values))
	return stats
}

// Evaluate answers a ProbabilityQuery given a predicted mean per day and the
// historical values of the queried parameter. The historical standard
// deviation is computed only over the provided (non-missing) observations.
func Evaluate(q models.ProbabilityQuery, days []models.DayProbability, hist []float64) *models.ProbabilityResult {
	sigma := StdDev(hist)

	probs := make([]float64, 0, len(days))
	for i := range days {
		days[i].Probability = Exceedance(q.Operator, q.Threshold, days[i].Predicted, sigma)
		probs = append(probs, days[i].Probability)
	}

	return &models.ProbabilityResult{
		Query:            q,
		Days:             days,
		RangeProbability: Aggregate(probs),
		Historical:       HistoricalStats(hist, q.Operator, q.Threshold),
	}
}
