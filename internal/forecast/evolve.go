package forecast

import (
	"time"

	"jupiter/internal/models"
)

// Evolution constants: the persistence weight shifts linearly toward the
// seasonal baseline as the horizon grows, and the random spread widens in
// three horizon bands.
const (
	pullPerDay = 0.15

	shortHorizonDays  = 3
	mediumHorizonDays = 7
	shortSpread       = 1.5
	mediumSpread      = 2.5
	longSpread        = 4.0
)

func horizonSpread(daysAhead float64) float64 {
	switch {
	case daysAhead <= shortHorizonDays:
		return shortSpread
	case daysAhead <= mediumHorizonDays:
		return mediumSpread
	default:
		return longSpread
	}
}

// Engine advances a current baseline forward step by step, blending
// persistence with the seasonal pull of each future step's own baseline.
type Engine struct {
	gen *Generator
}

func NewEngine(gen *Generator) *Engine {
	return &Engine{gen: gen}
}

// Evolve produces `steps` forecast points starting one step after `from`.
// The returned sequence is strictly increasing by exactly one step with no
// gaps. Secondary parameters are derived from the evolved temperature with
// the same correlations the baseline generator uses.
func (e *Engine) Evolve(lat, lon float64, seed models.Baseline, from time.Time, steps int, step time.Duration) []models.ForecastPoint {
	points := make([]models.ForecastPoint, 0, steps)

	for i := 1; i <= steps; i++ {
		ts := from.Add(time.Duration(i) * step)
		daysAhead := ts.Sub(from).Hours() / 24

		future := e.gen.At(lat, lon, ts)

		pull := clamp(pullPerDay*daysAhead, 0, 1)
		spread := horizonSpread(daysAhead)
		temp := seed.Temperature*(1-pull) + future.Temperature*pull + e.gen.uniform(-spread, spread)

		humidity := e.gen.DeriveHumidity(temp)
		pressure := e.gen.DerivePressure(temp)
		wind := e.gen.DeriveWind(pressure)

		points = append(points, models.ForecastPoint{
			Date:        ts,
			Temperature: temp,
			Humidity:    humidity,
			Pressure:    pressure,
			WindSpeed:   wind,
			FeelsLike:   FeelsLike(temp, humidity, wind),
			Condition:   Classify(temp, humidity, pressure, wind),
			Confidence:  Assess(daysAhead, lat, temp, pressure, wind),
		})
	}

	return points
}

// Feels-like thresholds: humid heat reads hotter, wind strips warmth from
// cold air, and in between a mild linear blend applies.
const (
	heatIndexTemp     = 27.0
	heatIndexHumidity = 40.0
	heatIndexSlope    = 0.1
	windChillTemp     = 10.0
	windChillWind     = 4.8
	windChillSlope    = 0.7
)

// FeelsLike computes the apparent temperature for a parameter tuple.
func FeelsLike(temp, humidity, wind float64) float64 {
	switch {
	case temp >= heatIndexTemp && humidity > heatIndexHumidity:
		return temp + (humidity-heatIndexHumidity)*heatIndexSlope
	case temp <= windChillTemp && wind > windChillWind:
		return temp - (wind-windChillWind)*windChillSlope
	default:
		return temp + (humidity-50)*0.02 - wind*0.05
	}
}
