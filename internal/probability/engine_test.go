package probability

import (
	"math"
	"testing"
	"time"

	"jupiter/internal/models"
)

func TestExceedance_KnownValues(t *testing.T) {
	// Threshold two standard deviations above the mean.
	p := Exceedance(models.OpGreater, 30, 20, 5)
	if math.Abs(p-0.02275) > 1e-3 {
		t.Errorf("P(X > mean+2s) = %v, want ~0.0228", p)
	}

	p = Exceedance(models.OpLess, 30, 20, 5)
	if math.Abs(p-0.97725) > 1e-3 {
		t.Errorf("P(X < mean+2s) = %v, want ~0.9772", p)
	}

	p = Exceedance(models.OpGreater, 20, 20, 5)
	if math.Abs(p-0.5) > 1e-6 {
		t.Errorf("P(X > mean) = %v, want 0.5", p)
	}
}

func TestExceedance_EqualityIsABand(t *testing.T) {
	// "=" integrates a band of 0.1 sigma either side of the threshold.
	p := Exceedance(models.OpEqual, 20, 20, 5)
	want := math.Erf(0.1 / math.Sqrt2)
	if math.Abs(p-want) > 1e-6 {
		t.Errorf("P(X = mean) = %v, want %v", p, want)
	}

	// Far from the mean the band probability collapses toward zero.
	far := Exceedance(models.OpEqual, 50, 20, 5)
	if far > 1e-6 {
		t.Errorf("P(X = mean+6s) = %v, want ~0", far)
	}
	if far >= p {
		t.Error("band probability should shrink away from the mean")
	}

	// At the same threshold the band is always below the strict exceedance.
	if p >= Exceedance(models.OpGreater, 20, 20, 5) {
		t.Error("equality band should be below the strict > probability at the mean")
	}
}

func TestExceedance_ZeroSpreadDegenerates(t *testing.T) {
	tests := []struct {
		op        models.Operator
		threshold float64
		mean      float64
		want      float64
	}{
		{models.OpGreater, 10, 20, 1},
		{models.OpGreater, 30, 20, 0},
		{models.OpGreaterEqual, 20, 20, 1},
		{models.OpLess, 30, 20, 1},
		{models.OpEqual, 20, 20, 1},
		{models.OpEqual, 21, 20, 0},
	}
	for _, tt := range tests {
		if got := Exceedance(tt.op, tt.threshold, tt.mean, 0); got != tt.want {
			t.Errorf("Exceedance(%q, %v, %v, 0) = %v, want %v", tt.op, tt.threshold, tt.mean, got, tt.want)
		}
	}

	if got := Exceedance(models.OpGreater, 10, 20, math.NaN()); got != 1 {
		t.Errorf("NaN sigma should degenerate like zero, got %v", got)
	}
}

func TestExceedance_Bounded(t *testing.T) {
	for _, op := range []models.Operator{models.OpGreater, models.OpGreaterEqual, models.OpLess, models.OpLessEqual, models.OpEqual} {
		for _, threshold := range []float64{-100, 0, 20, 100} {
			p := Exceedance(op, threshold, 20, 5)
			if p < 0 || p > 1 {
				t.Errorf("Exceedance(%q, %v, 20, 5) = %v outside [0,1]", op, threshold, p)
			}
		}
	}
}

func TestAggregate(t *testing.T) {
	if got := Aggregate(nil); got != 0 {
		t.Errorf("Aggregate(nil) = %v, want 0", got)
	}

	got := Aggregate([]float64{0.5, 0.5})
	if math.Abs(got-0.75) > 1e-9 {
		t.Errorf("Aggregate([0.5 0.5]) = %v, want 0.75", got)
	}

	probs := []float64{0.1, 0.6, 0.3}
	agg := Aggregate(probs)
	for _, p := range probs {
		if agg < p {
			t.Errorf("aggregate %v below per-day probability %v", agg, p)
		}
	}
	if agg > 1 {
		t.Errorf("aggregate %v above 1", agg)
	}
}

func TestStdDev(t *testing.T) {
	if got := StdDev(nil); got != 0 {
		t.Errorf("StdDev(nil) = %v, want 0", got)
	}
	if got := StdDev([]float64{5}); got != 0 {
		t.Errorf("StdDev(single) = %v, want 0", got)
	}

	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	want := math.Sqrt(32.0 / 7.0) // sample variance, n-1
	if got := StdDev(values); math.Abs(got-want) > 1e-9 {
		t.Errorf("StdDev = %v, want %v", got, want)
	}
}

func TestHistoricalStats(t *testing.T) {
	if got := HistoricalStats(nil, models.OpGreater, 0); got != nil {
		t.Fatalf("HistoricalStats(nil) = %+v, want nil", got)
	}

	stats := HistoricalStats([]float64{10, 20, 30}, models.OpGreater, 15)
	if stats.Mean != 20 {
		t.Errorf("Mean = %v, want 20", stats.Mean)
	}
	if stats.Min != 10 || stats.Max != 30 {
		t.Errorf("Min/Max = %v/%v, want 10/30", stats.Min, stats.Max)
	}
	if math.Abs(stats.ExceedanceRate-2.0/3.0) > 1e-9 {
		t.Errorf("ExceedanceRate = %v, want 2/3", stats.ExceedanceRate)
	}
	if stats.DayCount != 3 {
		t.Errorf("DayCount = %d, want 3", stats.DayCount)
	}
}

func TestEvaluate(t *testing.T) {
	q := models.ProbabilityQuery{
		Latitude:  40.71,
		Longitude: -74.01,
		Parameter: models.ParamTemperature,
		Operator:  models.OpGreater,
		Threshold: 25,
		Start:     time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC),
	}
	days := []models.DayProbability{
		{Date: q.Start, Predicted: 24},
		{Date: q.Start.AddDate(0, 0, 1), Predicted: 26},
		{Date: q.Start.AddDate(0, 0, 2), Predicted: 28},
	}
	hist := []float64{22, 24, 23, 26, 25, 27, 24, 23}

	result := Evaluate(q, days, hist)

	if len(result.Days) != 3 {
		t.Fatalf("len(Days) = %d, want 3", len(result.Days))
	}
	maxDay := 0.0
	for _, d := range result.Days {
		if d.Probability < 0 || d.Probability > 1 {
			t.Errorf("day %s probability %v outside [0,1]", d.Date, d.Probability)
		}
		maxDay = math.Max(maxDay, d.Probability)
	}
	// Warmer predictions must not lower the exceedance probability.
	if result.Days[0].Probability > result.Days[2].Probability {
		t.Errorf("probability not monotone in predicted mean: %v vs %v", result.Days[0].Probability, result.Days[2].Probability)
	}

	if result.RangeProbability < maxDay || result.RangeProbability > 1 {
		t.Errorf("RangeProbability = %v, want within [max per-day %v, 1]", result.RangeProbability, maxDay)
	}

	if result.Historical == nil {
		t.Fatal("Historical missing")
	}
	if result.Historical.DayCount != len(hist) {
		t.Errorf("Historical.DayCount = %d, want %d", result.Historical.DayCount, len(hist))
	}
}
