package models

import (
	"database/sql"
	"time"
)

// Parameter identifies a weather parameter that can be predicted or queried.
type Parameter string

const (
	ParamTemperature Parameter = "temperature"
	ParamHumidity    Parameter = "humidity"
	ParamWindSpeed   Parameter = "wind_speed"
	ParamPressure    Parameter = "pressure"
)

// KnownParameters lists the parameters accepted by probability queries.
var KnownParameters = []Parameter{ParamTemperature, ParamHumidity, ParamWindSpeed, ParamPressure}

// Operator is a threshold comparison for probability queries.
type Operator string

const (
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "="
)

// Record is one historical observation for a location, keyed by timestamp.
// Optional columns stay invalid when the source did not report them; they are
// never invented downstream.
type Record struct {
	ID          int64
	Latitude    float64
	Longitude   float64
	ObservedAt  time.Time
	Temperature sql.NullFloat64
	Humidity    sql.NullFloat64
	WindSpeed   sql.NullFloat64
	Pressure    sql.NullFloat64
	Source      string
	CreatedAt   time.Time
}

// Baseline is a synthetically generated full parameter set for one location
// and time. Used as the fallback when no data is available and as the seed
// state for forecast evolution.
type Baseline struct {
	Temperature float64
	Humidity    float64
	Pressure    float64
	WindSpeed   float64
}

// ForecastPoint is one step of an evolved forecast.
type ForecastPoint struct {
	Date        time.Time            `json:"date"`
	Temperature float64              `json:"temperature"`
	Humidity    float64              `json:"humidity"`
	Pressure    float64              `json:"pressure"`
	WindSpeed   float64              `json:"wind_speed"`
	FeelsLike   float64              `json:"feels_like"`
	Condition   string               `json:"condition"`
	Confidence  ConfidenceAssessment `json:"confidence"`
}

// ModelArtifact is the persisted trained model: an opaque serialized regressor
// plus the metadata needed to validate it at prediction time. A new training
// run replaces the previous artifact wholesale.
type ModelArtifact struct {
	Blob      []byte
	Features  []string
	RMSE      float64
	Samples   int
	TrainedAt time.Time
}

// TrainingRun records one completed training run for operational visibility.
type TrainingRun struct {
	ID        int64
	Latitude  float64
	Longitude float64
	Samples   int
	RMSE      float64
	Features  string
	RanAt     time.Time
}

// ProbabilityQuery asks how likely a parameter is to cross a threshold over a
// date range at a location. Immutable once built.
type ProbabilityQuery struct {
	Latitude  float64
	Longitude float64
	Parameter Parameter
	Operator  Operator
	Threshold float64
	Start     time.Time
	End       time.Time
}

// DayProbability is the exceedance probability for a single day.
type DayProbability struct {
	Date        time.Time `json:"date"`
	Predicted   float64   `json:"predicted"`
	Probability float64   `json:"probability"`
}

// HistoricalStats summarizes how the queried parameter actually behaved in the
// historical window, independent of the normal-model assumption.
type HistoricalStats struct {
	Mean           float64 `json:"mean"`
	StdDev         float64 `json:"std_dev"`
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	ExceedanceRate float64 `json:"exceedance_rate"`
	DayCount       int     `json:"day_count"`
}

// ProbabilityResult is the full answer to a ProbabilityQuery.
type ProbabilityResult struct {
	Query            ProbabilityQuery `json:"-"`
	Days             []DayProbability `json:"days"`
	RangeProbability float64          `json:"range_probability"`
	Historical       *HistoricalStats `json:"historical,omitempty"`
}

// ConfidenceFactors exposes the sub-factor breakdown behind a confidence
// score, each as a percentage.
type ConfidenceFactors struct {
	TimeDecay         float64 `json:"time_decay"`
	LocationStability float64 `json:"location_stability"`
	TemperatureFactor float64 `json:"temperature"`
	PressureFactor    float64 `json:"pressure"`
	WindFactor        float64 `json:"wind"`
}

// ConfidenceAssessment is the human-facing confidence estimate for one
// forecast point.
type ConfidenceAssessment struct {
	Overall      float64            `json:"overall"`
	Level        string             `json:"level"`
	Factors      ConfidenceFactors  `json:"factors"`
	PerParameter map[string]float64 `json:"per_parameter"`
}

// Value returns the record's value for the given parameter, and whether the
// record carries it.
func (r Record) Value(p Parameter) (float64, bool) {
	switch p {
	case ParamTemperature:
		return r.Temperature.Float64, r.Temperature.Valid
	case ParamHumidity:
		return r.Humidity.Float64, r.Humidity.Valid
	case ParamWindSpeed:
		return r.WindSpeed.Float64, r.WindSpeed.Valid
	case ParamPressure:
		return r.Pressure.Float64, r.Pressure.Valid
	}
	return 0, false
}

// Value returns the baseline's value for the given parameter.
func (b Baseline) Value(p Parameter) float64 {
	switch p {
	case ParamTemperature:
		return b.Temperature
	case ParamHumidity:
		return b.Humidity
	case ParamWindSpeed:
		return b.WindSpeed
	case ParamPressure:
		return b.Pressure
	}
	return 0
}
