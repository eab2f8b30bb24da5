package api

import (
	"net/http"
	"time"

	"jupiter/internal/forecast"
	"jupiter/internal/metrics"
	"jupiter/internal/models"
	"jupiter/internal/probability"
)

const (
	// Historical window feeding prediction features and probability spread.
	predictHistoryDays = 90

	trainWindowDays = 365
	trainMinRecords = 30

	// Interval width multiplier for a 95% band under a normal model.
	intervalZ = 1.96

	// Spread assumed when the history is too thin to estimate one.
	defaultSigma = 2.5

	maxProbabilityDays = 31
)

type predictedDay struct {
	Date       string                      `json:"date"`
	Predicted  float64                     `json:"predicted_temperature"`
	Lower      float64                     `json:"lower"`
	Upper      float64                     `json:"upper"`
	Confidence models.ConfidenceAssessment `json:"confidence"`
}

type predictResponse struct {
	Latitude   float64        `json:"latitude"`
	Longitude  float64        `json:"longitude"`
	Mode       string         `json:"mode"`
	DataSource string         `json:"data_source"`
	Days       []predictedDay `json:"days"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
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

	now := time.Now().UTC()
	histEnd := now.AddDate(0, 0, -powerLagDays)
	histStart := histEnd.AddDate(0, 0, -predictHistoryDays)
	hist, source := s.historicalRecords(r.Context(), lat, lon, histStart, histEnd)

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	future := forecast.FutureRecords(hist, lat, lon, midnight, days)
	features := forecast.BuildFeatures(future, lat, lon)

	preds, mode, err := s.predictor.Predict(features)
	if err != nil {
		writeError(w, err)
		return
	}
	if source == "synthetic" {
		mode = forecast.ModeSynthetic
	}
	if mode != forecast.ModeTrained {
		metrics.Fallbacks.WithLabelValues(string(mode)).Inc()
	}

	sigma := probability.StdDev(temperatureValues(hist))
	if sigma <= 0 {
		sigma = defaultSigma
	}

	out := make([]predictedDay, 0, len(preds))
	for i, p := range preds {
		daysAhead := float64(i + 1)
		pressure := s.gen.DerivePressure(p)
		wind := s.gen.DeriveWind(pressure)
		out = append(out, predictedDay{
			Date:       future[i].ObservedAt.Format(dateLayout),
			Predicted:  p,
			Lower:      p - intervalZ*sigma,
			Upper:      p + intervalZ*sigma,
			Confidence: forecast.Assess(daysAhead, lat, p, pressure, wind),
		})
	}

	writeJSON(w, predictResponse{
		Latitude:   lat,
		Longitude:  lon,
		Mode:       string(mode),
		DataSource: source,
		Days:       out,
	})
}

type probabilityResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Parameter string  `json:"parameter"`
	Operator  string  `json:"operator"`
	Threshold float64 `json:"threshold"`
	Start     string  `json:"start"`
	End       string  `json:"end"`
	Mode      string  `json:"mode"`
	*models.ProbabilityResult
}

func (s *Server) handleProbability(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := queryLatLon(r, s.homeLat, s.homeLon)
	if err != nil {
		writeError(w, err)
		return
	}
	param, err := queryParameter(r)
	if err != nil {
		writeError(w, err)
		return
	}
	op, err := queryOperator(r)
	if err != nil {
		writeError(w, err)
		return
	}
	threshold, err := queryFloat(r, "threshold", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	if r.URL.Query().Get("threshold") == "" {
		writeError(w, models.InvalidQueryf("threshold is required"))
		return
	}

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start, hasStart, err := queryDate(r, "start")
	if err != nil {
		writeError(w, err)
		return
	}
	if !hasStart {
		start = today.AddDate(0, 0, 1)
	}
	end, hasEnd, err := queryDate(r, "end")
	if err != nil {
		writeError(w, err)
		return
	}
	if !hasEnd {
		end = start.AddDate(0, 0, defaultForecastDays-1)
	}

	if end.Before(start) {
		writeError(w, models.InvalidQueryf("end %s before start %s", end.Format(dateLayout), start.Format(dateLayout)))
		return
	}
	span := int(end.Sub(start).Hours()/24) + 1
	if span > maxProbabilityDays {
		writeError(w, models.InvalidQueryf("range exceeds %d days", maxProbabilityDays))
		return
	}

	q := models.ProbabilityQuery{
		Latitude:  lat,
		Longitude: lon,
		Parameter: param,
		Operator:  op,
		Threshold: threshold,
		Start:     start,
		End:       end,
	}

	histEnd := now.AddDate(0, 0, -powerLagDays)
	histStart := histEnd.AddDate(0, 0, -predictHistoryDays)
	hist, _ := s.historicalRecords(r.Context(), lat, lon, histStart, histEnd)

	histVals := parameterValues(hist, param)
	days, mode, err := s.predictedMeans(q, hist)
	if err != nil {
		writeError(w, err)
		return
	}
	if mode != forecast.ModeTrained {
		metrics.Fallbacks.WithLabelValues(string(mode)).Inc()
	}

	result := probability.Evaluate(q, days, histVals)

	writeJSON(w, probabilityResponse{
		Latitude:          lat,
		Longitude:         lon,
		Parameter:         string(param),
		Operator:          string(op),
		Threshold:         threshold,
		Start:             start.Format(dateLayout),
		End:               end.Format(dateLayout),
		Mode:              string(mode),
		ProbabilityResult: result,
	})
}

// predictedMeans produces the per-day expected value of the queried
// parameter. Temperature goes through the trained model path; the other
// parameters use the historical mean when observed, and the procedural
// baseline otherwise.
func (s *Server) predictedMeans(q models.ProbabilityQuery, hist []models.Record) ([]models.DayProbability, forecast.Mode, error) {
	span := int(q.End.Sub(q.Start).Hours()/24) + 1

	if q.Parameter == models.ParamTemperature {
		future := forecast.FutureRecords(hist, q.Latitude, q.Longitude, q.Start.AddDate(0, 0, -1), span)
		features := forecast.BuildFeatures(future, q.Latitude, q.Longitude)
		preds, mode, err := s.predictor.Predict(features)
		if err != nil {
			return nil, mode, err
		}
		days := make([]models.DayProbability, span)
		for i := range days {
			days[i] = models.DayProbability{Date: future[i].ObservedAt, Predicted: preds[i]}
		}
		return days, mode, nil
	}

	vals := parameterValues(hist, q.Parameter)
	var histMean float64
	for _, v := range vals {
		histMean += v
	}
	if len(vals) > 0 {
		histMean /= float64(len(vals))
	}

	mode := forecast.ModeSynthetic
	days := make([]models.DayProbability, span)
	for i := range days {
		date := q.Start.AddDate(0, 0, i)
		predicted := histMean
		if len(vals) == 0 {
			noon := time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, time.UTC)
			predicted = s.gen.At(q.Latitude, q.Longitude, noon).Value(q.Parameter)
		} else {
			mode = forecast.ModeSeasonal
		}
		days[i] = models.DayProbability{Date: date, Predicted: predicted}
	}
	return days, mode, nil
}

type trainResponse struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	RMSE      float64   `json:"rmse"`
	FoldRMSEs []float64 `json:"fold_rmses"`
	Samples   int       `json:"samples"`
	Features  []string  `json:"features"`
	TrainedAt string    `json:"trained_at"`
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	lat, lon, err := queryLatLon(r, s.homeLat, s.homeLon)
	if err != nil {
		writeError(w, err)
		return
	}

	now := time.Now().UTC()
	end := now.AddDate(0, 0, -powerLagDays)
	start := end.AddDate(0, 0, -trainWindowDays)

	recs, err := s.store.GetRecords(lat, lon, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(recs) < trainMinRecords {
		fetched, ferr := s.power.FetchDaily(r.Context(), lat, lon, start, end)
		if ferr != nil {
			writeError(w, ferr)
			return
		}
		if uerr := s.store.UpsertRecords(fetched); uerr != nil {
			writeError(w, uerr)
			return
		}
		recs, err = s.store.GetRecords(lat, lon, start, end)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	result, err := s.trainer.Train(lat, lon, recs)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.TrainingRuns.Inc()
	metrics.TrainingRMSE.Set(result.RMSE)

	writeJSON(w, trainResponse{
		Latitude:  lat,
		Longitude: lon,
		RMSE:      result.RMSE,
		FoldRMSEs: result.FoldRMSEs,
		Samples:   result.Samples,
		Features:  result.Features,
		TrainedAt: result.TrainedAt.UTC().Format(time.RFC3339),
	})
}

func temperatureValues(recs []models.Record) []float64 {
	return parameterValues(recs, models.ParamTemperature)
}

func parameterValues(recs []models.Record, p models.Parameter) []float64 {
	var out []float64
	for _, rec := range recs {
		if v, ok := rec.Value(p); ok {
			out = append(out, v)
		}
	}
	return out
}
