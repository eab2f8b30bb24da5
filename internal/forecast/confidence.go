package forecast

import (
	"math"

	"jupiter/internal/models"
)

// Fixed weights for the five confidence factors.
const (
	weightTime        = 0.40
	weightLocation    = 0.20
	weightTemperature = 0.15
	weightPressure    = 0.15
	weightWind        = 0.10
)

// Category cutoffs on the overall score.
const (
	levelHighCutoff   = 0.8
	levelMediumCutoff = 0.6
	levelLowCutoff    = 0.4
)

// timeDecay starts near certainty and decays linearly with the horizon,
// floored so even long-range forecasts keep some weight.
func timeDecay(daysAhead float64) float64 {
	return math.Max(0.95-0.05*daysAhead, 0.30)
}

// locationStability assigns a fixed constant per latitude band. Equatorial
// weather is the most predictable under this model, polar the least.
func locationStability(lat float64) float64 {
	abs := math.Abs(lat)
	switch {
	case abs < 10:
		return 0.90
	case abs < 23.5:
		return 0.85
	case abs < 55:
		return 0.75
	default:
		return 0.60
	}
}

// The complexity factors each reduce confidence in two piecewise steps once
// the parameter leaves its ordinary range.
func temperatureComplexity(temp float64) float64 {
	switch {
	case temp > 35 || temp < -10:
		return 0.70
	case temp > 30 || temp < 0:
		return 0.85
	default:
		return 1.0
	}
}

func pressureComplexity(pressure float64) float64 {
	departure := math.Abs(pressure - referencePressure)
	switch {
	case departure > 2.5:
		return 0.75
	case departure > 1.5:
		return 0.90
	default:
		return 1.0
	}
}

func windComplexity(wind float64) float64 {
	switch {
	case wind > 15:
		return 0.70
	case wind > 10:
		return 0.85
	default:
		return 1.0
	}
}

// Assess combines the horizon, geography, and parameter extremity into a
// human-facing confidence score with its sub-factor breakdown.
func Assess(daysAhead, lat, temp, pressure, wind float64) models.ConfidenceAssessment {
	td := timeDecay(daysAhead)
	ls := locationStability(lat)
	tc := temperatureComplexity(temp)
	pc := pressureComplexity(pressure)
	wc := windComplexity(wind)

	overall := weightTime*td + weightLocation*ls + weightTemperature*tc + weightPressure*pc + weightWind*wc

	var level string
	switch {
	case overall >= levelHighCutoff:
		level = "High"
	case overall >= levelMediumCutoff:
		level = "Medium"
	case overall >= levelLowCutoff:
		level = "Low"
	default:
		level = "Very Low"
	}

	// Secondary parameters are derived from temperature, so they carry
	// slightly less confidence than the primary estimate.
	perParameter := map[string]float64{
		string(models.ParamTemperature): round1(overall * 100),
		string(models.ParamHumidity):    round1(overall * 0.92 * 100),
		string(models.ParamPressure):    round1(overall * 0.95 * 100),
		string(models.ParamWindSpeed):   round1(overall * 0.85 * 100),
	}

	return models.ConfidenceAssessment{
		Overall: round1(overall * 100),
		Level:   level,
		Factors: models.ConfidenceFactors{
			TimeDecay:         round1(td * 100),
			LocationStability: round1(ls * 100),
			TemperatureFactor: round1(tc * 100),
			PressureFactor:    round1(pc * 100),
			WindFactor:        round1(wc * 100),
		},
		PerParameter: perParameter,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
