package api

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"jupiter/internal/forecast"
	"jupiter/internal/ingest"
	"jupiter/internal/metrics"
	"jupiter/internal/models"
)

const (
	defaultForecastDays = 7
	maxForecastDays     = 14
	maxForecastHours    = 48

	defaultHistoricalDays = 30
	maxHistoricalDays     = 366

	// POWER daily data trails real time; a cached observation older than this
	// is considered stale for "current" conditions.
	maxObservationAge = 10 * 24 * time.Hour

	powerLagDays = 3
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, loadedAt, ok := s.predictor.ModelInfo()
	resp := map[string]any{
		"status":       "ok",
		"model_loaded": ok,
		"time":         time.Now().UTC().Format(time.RFC3339),
	}
	if ok {
		resp["model_loaded_at"] = loadedAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, resp)
}

// conditions is a fully populated parameter set for one location and moment,
// with the source of the numbers tagged.
type conditions struct {
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Pressure    float64   `json:"pressure"`
	WindSpeed   float64   `json:"wind_speed"`
	Condition   string    `json:"condition"`
	FeelsLike   float64   `json:"feels_like"`
	ObservedAt  time.Time `json:"observed_at"`
	DataSource  string    `json:"data_source"`
}

type currentResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	conditions
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := queryLatLon(r, s.homeLat, s.homeLon)
	if err != nil {
		writeError(w, err)
		return
	}

	c := s.currentConditions(r.Context(), lat, lon)
	writeJSON(w, currentResponse{Latitude: lat, Longitude: lon, conditions: c})
}

// currentConditions resolves the best available current parameter set: the
// freshest cached observation, refreshed from POWER when stale, with missing
// covariates filled from the temperature correlations, and a fully synthetic
// baseline as the last resort.
func (s *Server) currentConditions(ctx context.Context, lat, lon float64) conditions {
	now := time.Now().UTC()

	rec, err := s.store.GetLatestRecord(lat, lon)
	if err != nil {
		log.Printf("current: latest record: %v", err)
	}

	if rec == nil || now.Sub(rec.ObservedAt) > maxObservationAge {
		end := now.AddDate(0, 0, -powerLagDays)
		start := end.AddDate(0, 0, -7)
		recs, ferr := s.power.FetchDaily(ctx, lat, lon, start, end)
		if ferr != nil {
			log.Printf("current: power fetch: %v", ferr)
		} else if len(recs) > 0 {
			ingest.Sanitize(recs)
			if uerr := s.store.UpsertRecords(recs); uerr != nil {
				log.Printf("current: upsert: %v", uerr)
			}
			rec, _ = s.store.GetLatestRecord(lat, lon)
		}
	}

	if rec == nil || !rec.Temperature.Valid {
		metrics.Fallbacks.WithLabelValues("synthetic").Inc()
		b := s.gen.At(lat, lon, now)
		return conditions{
			Temperature: b.Temperature,
			Humidity:    b.Humidity,
			Pressure:    b.Pressure,
			WindSpeed:   b.WindSpeed,
			Condition:   forecast.Classify(b.Temperature, b.Humidity, b.Pressure, b.WindSpeed),
			FeelsLike:   forecast.FeelsLike(b.Temperature, b.Humidity, b.WindSpeed),
			ObservedAt:  now,
			DataSource:  "synthetic",
		}
	}

	c := conditions{
		Temperature: rec.Temperature.Float64,
		ObservedAt:  rec.ObservedAt,
		DataSource:  rec.Source,
	}
	if rec.Humidity.Valid {
		c.Humidity = rec.Humidity.Float64
	} else {
		c.Humidity = s.gen.DeriveHumidity(c.Temperature)
	}
	if rec.Pressure.Valid {
		c.Pressure = rec.Pressure.Float64
	} else {
		c.Pressure = s.gen.DerivePressure(c.Temperature)
	}
	if rec.WindSpeed.Valid {
		c.WindSpeed = rec.WindSpeed.Float64
	} else {
		c.WindSpeed = s.gen.DeriveWind(c.Pressure)
	}
	c.Condition = forecast.Classify(c.Temperature, c.Humidity, c.Pressure, c.WindSpeed)
	c.FeelsLike = forecast.FeelsLike(c.Temperature, c.Humidity, c.WindSpeed)
	return c
}

type forecastResponse struct {
	Latitude   float64                `json:"latitude"`
	Longitude  float64                `json:"longitude"`
	Resolution string                 `json:"resolution"`
	DataSource string                 `json:"data_source"`
	Points     []models.ForecastPoint `json:"points"`
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := queryLatLon(r, s.homeLat, s.homeLon)
	if err != nil {
		writeError(w, err)
		return
	}

	days, err := queryInt(r, "days", defaultForecastDays, 1, maxForecastDays)
	if err != nil {
		writeError(w, err)
		return
	}
	hours, err := queryInt(r, "hours", 0, 1, maxForecastHours)
	if err != nil {
		writeError(w, err)
		return
	}

	now := time.Now().UTC()
	seed, source := s.seedBaseline(r.Context(), lat, lon, now)

	var (
		points     []models.ForecastPoint
		resolution string
	)
	if hours > 0 {
		from := now.Truncate(time.Hour).Add(time.Hour)
		points = s.engine.Evolve(lat, lon, seed, from, hours, time.Hour)
		resolution = "hourly"
	} else {
		// Evolve steps from the anchor, so anchoring at today's midnight
		// puts the first point on tomorrow.
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		points = s.engine.Evolve(lat, lon, seed, midnight, days, 24*time.Hour)
		resolution = "daily"
	}

	writeJSON(w, forecastResponse{
		Latitude:   lat,
		Longitude:  lon,
		Resolution: resolution,
		DataSource: source,
		Points:     points,
	})
}

// seedBaseline builds the evolution seed: the synthetic baseline for the
// location, anchored to the latest real observation when one is fresh enough.
func (s *Server) seedBaseline(ctx context.Context, lat, lon float64, now time.Time) (models.Baseline, string) {
	b := s.gen.At(lat, lon, now)

	rec, err := s.store.GetLatestRecord(lat, lon)
	if err != nil || rec == nil || !rec.Temperature.Valid || now.Sub(rec.ObservedAt) > maxObservationAge {
		return b, "synthetic"
	}

	b.Temperature = rec.Temperature.Float64
	if rec.Humidity.Valid {
		b.Humidity = rec.Humidity.Float64
	} else {
		b.Humidity = s.gen.DeriveHumidity(b.Temperature)
	}
	if rec.Pressure.Valid {
		b.Pressure = rec.Pressure.Float64
	} else {
		b.Pressure = s.gen.DerivePressure(b.Temperature)
	}
	if rec.WindSpeed.Valid {
		b.WindSpeed = rec.WindSpeed.Float64
	} else {
		b.WindSpeed = s.gen.DeriveWind(b.Pressure)
	}
	return b, rec.Source
}

// historicalDay mirrors one cached record with missing columns as nulls.
type historicalDay struct {
	Date        string   `json:"date"`
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	WindSpeed   *float64 `json:"wind_speed"`
	Pressure    *float64 `json:"pressure"`
	Source      string   `json:"source"`
}

type historicalResponse struct {
	Latitude   float64         `json:"latitude"`
	Longitude  float64         `json:"longitude"`
	Start      string          `json:"start"`
	End        string          `json:"end"`
	DataSource string          `json:"data_source"`
	Days       []historicalDay `json:"days"`
}

func (s *Server) handleHistorical(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := queryLatLon(r, s.homeLat, s.homeLon)
	if err != nil {
		writeError(w, err)
		return
	}

	now := time.Now().UTC()
	end, hasEnd, err := queryDate(r, "end")
	if err != nil {
		writeError(w, err)
		return
	}
	if !hasEnd {
		end = now.AddDate(0, 0, -powerLagDays)
	}
	start, hasStart, err := queryDate(r, "start")
	if err != nil {
		writeError(w, err)
		return
	}
	if !hasStart {
		start = end.AddDate(0, 0, -defaultHistoricalDays)
	}

	if end.Before(start) {
		writeError(w, models.InvalidQueryf("end %s before start %s", end.Format(dateLayout), start.Format(dateLayout)))
		return
	}
	if int(end.Sub(start).Hours()/24) > maxHistoricalDays {
		writeError(w, models.InvalidQueryf("range exceeds %d days", maxHistoricalDays))
		return
	}

	recs, source := s.historicalRecords(r.Context(), lat, lon, start, end)

	days := make([]historicalDay, 0, len(recs))
	for _, rec := range recs {
		days = append(days, historicalDay{
			Date:        rec.ObservedAt.Format(dateLayout),
			Temperature: nullPtr(rec.Temperature.Float64, rec.Temperature.Valid),
			Humidity:    nullPtr(rec.Humidity.Float64, rec.Humidity.Valid),
			WindSpeed:   nullPtr(rec.WindSpeed.Float64, rec.WindSpeed.Valid),
			Pressure:    nullPtr(rec.Pressure.Float64, rec.Pressure.Valid),
			Source:      rec.Source,
		})
	}

	writeJSON(w, historicalResponse{
		Latitude:   lat,
		Longitude:  lon,
		Start:      start.Format(dateLayout),
		End:        end.Format(dateLayout),
		DataSource: source,
		Days:       days,
	})
}

// historicalRecords serves the window cache-first, refreshing from POWER on a
// miss and synthesizing baselines when the adapter is down.
func (s *Server) historicalRecords(ctx context.Context, lat, lon float64, start, end time.Time) ([]models.Record, string) {
	recs, err := s.store.GetRecords(lat, lon, start, end)
	if err != nil {
		log.Printf("historical: get records: %v", err)
	}
	if len(recs) > 0 {
		return recs, "cache"
	}

	fetched, ferr := s.power.FetchDaily(ctx, lat, lon, start, end)
	if ferr == nil && len(fetched) > 0 {
		ingest.Sanitize(fetched)
		if uerr := s.store.UpsertRecords(fetched); uerr != nil {
			log.Printf("historical: upsert: %v", uerr)
		}
		return fetched, "nasa_power"
	}
	if ferr != nil {
		log.Printf("historical: power fetch: %v", ferr)
	}

	metrics.Fallbacks.WithLabelValues("synthetic").Inc()
	return s.syntheticRecords(lat, lon, start, end), "synthetic"
}

// syntheticRecords generates one noon baseline per day in [start, end].
func (s *Server) syntheticRecords(lat, lon float64, start, end time.Time) []models.Record {
	var recs []models.Record
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		noon := time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, time.UTC)
		b := s.gen.At(lat, lon, noon)
		recs = append(recs, models.Record{
			Latitude:    lat,
			Longitude:   lon,
			ObservedAt:  time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
			Temperature: validFloat(b.Temperature),
			Humidity:    validFloat(b.Humidity),
			WindSpeed:   validFloat(b.WindSpeed),
			Pressure:    validFloat(b.Pressure),
			Source:      "synthetic",
		})
	}
	return recs
}

func nullPtr(v float64, valid bool) *float64 {
	if !valid {
		return nil
	}
	return &v
}

func validFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}
