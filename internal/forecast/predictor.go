package forecast

import (
	"log"
	"math"
	"sync"
	"time"

	"jupiter/internal/models"
	"jupiter/internal/store"
)

// Mode tags how a prediction was produced. The mode is selected once per
// request instead of being discovered by catching failures mid-computation.
type Mode string

const (
	// ModeTrained means the persisted regression model produced the values.
	ModeTrained Mode = "trained"
	// ModeSeasonal means the sinusoid fallback produced the values because no
	// trained model was available.
	ModeSeasonal Mode = "seasonal"
	// ModeSynthetic means the procedural baseline generator produced the
	// values because no historical data was available either.
	ModeSynthetic Mode = "synthetic"
)

// Seasonal fallback constants. Absence of a model is an expected condition,
// not a failure; this path never errors.
const (
	seasonalBase      = 20.0
	seasonalAmplitude = 10.0
	daysPerYear       = 365.0
)

// SeasonalTemperature is the untrained-state estimate for a day of year.
func SeasonalTemperature(dayOfYear int) float64 {
	return seasonalBase + seasonalAmplitude*math.Sin(2*math.Pi*float64(dayOfYear)/daysPerYear)
}

type loadedModel struct {
	reg      *Ridge
	features []string
	loadedAt time.Time
}

// Predictor applies the persisted model to feature rows, falling back to the
// seasonal sinusoid when no artifact exists. The loaded artifact is cached and
// shared by concurrent readers; Invalidate drops the snapshot atomically after
// a retrain.
type Predictor struct {
	store *store.Store

	mu     sync.RWMutex
	model  *loadedModel
	loaded bool
}

func NewPredictor(st *store.Store) *Predictor {
	return &Predictor{store: st}
}

// Invalidate discards the cached model so the next prediction reloads the
// freshly persisted artifact.
func (p *Predictor) Invalidate() {
	p.mu.Lock()
	p.model = nil
	p.loaded = false
	p.mu.Unlock()
}

// snapshot returns an immutable view of the cached model, loading it from the
// store on first use. A load failure is treated as an untrained state.
func (p *Predictor) snapshot() *loadedModel {
	p.mu.RLock()
	if p.loaded {
		m := p.model
		p.mu.RUnlock()
		return m
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return p.model
	}
	p.loaded = true

	artifact, err := p.store.LoadModel()
	if err != nil {
		log.Printf("predictor: load model: %v (falling back to seasonal)", err)
		return nil
	}
	if artifact == nil {
		return nil
	}

	reg, err := DecodeRidge(artifact.Blob)
	if err != nil {
		log.Printf("predictor: decode model: %v (falling back to seasonal)", err)
		return nil
	}

	p.model = &loadedModel{reg: reg, features: artifact.Features, loadedAt: time.Now().UTC()}
	return p.model
}

// ModelInfo returns the cached artifact's metadata, or ok=false when the
// predictor is in the untrained state.
func (p *Predictor) ModelInfo() (features []string, loadedAt time.Time, ok bool) {
	m := p.snapshot()
	if m == nil {
		return nil, time.Time{}, false
	}
	return m.features, m.loadedAt, true
}

// Predict returns one point estimate per feature row, in input order, along
// with the mode that produced them. With a trained model the feature-name
// list must match the trained list exactly; a mismatch is fatal for the
// prediction (features are never silently dropped or reordered). Without a
// model the seasonal fallback is used and this never fails.
func (p *Predictor) Predict(features FeatureSet) ([]float64, Mode, error) {
	m := p.snapshot()
	if m == nil {
		out := make([]float64, len(features.Rows))
		for i, row := range features.Rows {
			// day_of_year is always the first feature.
			out[i] = SeasonalTemperature(int(row[0]))
		}
		return out, ModeSeasonal, nil
	}

	if !features.MatchesNames(m.features) {
		return nil, ModeTrained, models.ErrFeatureMismatch
	}

	out := make([]float64, len(features.Rows))
	for i, row := range features.Rows {
		out[i] = m.reg.Predict(row)
	}
	return out, ModeTrained, nil
}
