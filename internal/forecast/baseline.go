package forecast

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"jupiter/internal/models"
)

// Physical clamps applied to every synthetic output, however extreme the
// driving temperature.
const (
	humidityFloor = 20.0
	humidityCeil  = 95.0
	pressureFloor = 98.0 // kPa
	pressureCeil  = 105.0
	windFloor     = 0.0
	windCeil      = 25.0 // m/s
)

// Temperature model constants: a latitude gradient between a fixed equator
// and pole value, a seasonal sinusoid whose amplitude grows with distance
// from the equator, and a diurnal sinusoid peaking mid-afternoon.
const (
	equatorTemp      = 40.0
	poleTemp         = 15.0
	seasonalAmp      = 10.0
	seasonalPhaseDay = 80 // sinusoid zero near the March equinox
	seasonalFullLat  = 45.0
	diurnalAmp       = 8.0
	diurnalPeakHour  = 15
	tempJitter       = 3.0
)

// Reference values for the derived-parameter correlations.
const (
	referenceTemp     = 20.0
	referenceHumidity = 70.0
	referencePressure = 101.3
	humidityTempSlope = -0.8 // humidity drops as temperature rises
	pressureTempSlope = 0.1
	baseWind          = 5.0
	windPressureSlope = 2.0 // pressure departure stirs wind
)

// Generator procedurally fabricates plausible weather parameters from
// location and time alone. It is deterministic in structure and stochastic in
// detail; the random source is explicit so tests can fix the seed.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

func (g *Generator) uniform(lo, hi float64) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return lo + g.rng.Float64()*(hi-lo)
}

// At produces a full synthetic parameter set for a location and time.
func (g *Generator) At(lat, lon float64, t time.Time) models.Baseline {
	temp := g.temperatureAt(lat, t)
	humidity := g.DeriveHumidity(temp)
	pressure := g.DerivePressure(temp)
	wind := g.DeriveWind(pressure)

	return models.Baseline{
		Temperature: temp,
		Humidity:    humidity,
		Pressure:    pressure,
		WindSpeed:   wind,
	}
}

func (g *Generator) temperatureAt(lat float64, t time.Time) float64 {
	base := poleTemp + (equatorTemp-poleTemp)*(1-math.Abs(lat)/90)

	ampScale := math.Min(math.Abs(lat)/seasonalFullLat, 1)
	seasonal := seasonalAmp * ampScale * math.Sin(2*math.Pi*float64(t.YearDay()-seasonalPhaseDay)/daysPerYear)
	if lat < 0 {
		seasonal = -seasonal
	}

	diurnal := diurnalAmp * math.Sin(2*math.Pi*float64(t.Hour()-(diurnalPeakHour-6))/24)

	return base + seasonal + diurnal + g.uniform(-tempJitter, tempJitter)
}

// DeriveHumidity maps a temperature to a plausible relative humidity: warmer
// air reads drier, plus bounded noise, clamped to the physical range.
func (g *Generator) DeriveHumidity(temp float64) float64 {
	h := referenceHumidity + (temp-referenceTemp)*humidityTempSlope + g.uniform(-15, 15)
	return clamp(h, humidityFloor, humidityCeil)
}

// DerivePressure maps a temperature to surface pressure in kPa.
func (g *Generator) DerivePressure(temp float64) float64 {
	p := referencePressure + (temp-referenceTemp)*pressureTempSlope + g.uniform(-1.5, 1.5)
	return clamp(p, pressureFloor, pressureCeil)
}

// DeriveWind maps a pressure departure to wind speed in m/s.
func (g *Generator) DeriveWind(pressure float64) float64 {
	w := baseWind + g.uniform(-3, 8) + math.Abs(referencePressure-pressure)*windPressureSlope
	return clamp(w, windFloor, windCeil)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
