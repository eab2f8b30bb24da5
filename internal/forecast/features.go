package forecast

import (
	"fmt"
	"time"

	"jupiter/internal/models"
)

// Feature names, in the order they appear in a feature row. Temporal and
// location features are always present; covariates join only when every
// source record carries them.
const (
	FeatureDayOfYear = "day_of_year"
	FeatureMonth     = "month"
	FeatureLatitude  = "lat"
	FeatureLongitude = "lon"
	FeatureWindSpeed = "wind_speed"
	FeatureHumidity  = "humidity"
	FeaturePressure  = "pressure"
)

// FeatureSet is a model-ready design matrix: an ordered feature-name list and
// one row per source record. The name list is part of the trained model's
// contract and must be reproduced exactly at inference.
type FeatureSet struct {
	Names []string
	Rows  [][]float64
}

// MatchesNames reports whether the set's feature list is exactly the given
// one, in order.
func (f FeatureSet) MatchesNames(names []string) bool {
	if len(f.Names) != len(names) {
		return false
	}
	for i := range names {
		if f.Names[i] != names[i] {
			return false
		}
	}
	return true
}

// BuildFeatures derives a FeatureSet from a record batch. Day-of-year and
// month come from each record's timestamp; latitude and longitude are taken
// from the first record and held constant for the batch (or the defaults when
// the batch is empty). A covariate column is included only when every record
// reports it -- absent data is omitted, never invented.
func BuildFeatures(recs []models.Record, defaultLat, defaultLon float64) FeatureSet {
	lat, lon := defaultLat, defaultLon
	if len(recs) > 0 {
		lat, lon = recs[0].Latitude, recs[0].Longitude
	}

	names := []string{FeatureDayOfYear, FeatureMonth, FeatureLatitude, FeatureLongitude}

	haveWind, haveHumidity, havePressure := len(recs) > 0, len(recs) > 0, len(recs) > 0
	for _, rec := range recs {
		haveWind = haveWind && rec.WindSpeed.Valid
		haveHumidity = haveHumidity && rec.Humidity.Valid
		havePressure = havePressure && rec.Pressure.Valid
	}
	if haveWind {
		names = append(names, FeatureWindSpeed)
	}
	if haveHumidity {
		names = append(names, FeatureHumidity)
	}
	if havePressure {
		names = append(names, FeaturePressure)
	}

	rows := make([][]float64, 0, len(recs))
	for _, rec := range recs {
		row := []float64{
			float64(rec.ObservedAt.YearDay()),
			float64(rec.ObservedAt.Month()),
			lat,
			lon,
		}
		if haveWind {
			row = append(row, rec.WindSpeed.Float64)
		}
		if haveHumidity {
			row = append(row, rec.Humidity.Float64)
		}
		if havePressure {
			row = append(row, rec.Pressure.Float64)
		}
		rows = append(rows, row)
	}

	return FeatureSet{Names: names, Rows: rows}
}

// TrainingData builds the design matrix and temperature target vector from a
// record batch, dropping records without an observed temperature.
func TrainingData(recs []models.Record, defaultLat, defaultLon float64) (FeatureSet, []float64, error) {
	usable := make([]models.Record, 0, len(recs))
	for _, rec := range recs {
		if rec.Temperature.Valid {
			usable = append(usable, rec)
		}
	}
	if len(usable) == 0 {
		return FeatureSet{}, nil, fmt.Errorf("no records with observed temperature")
	}

	features := BuildFeatures(usable, defaultLat, defaultLon)
	targets := make([]float64, len(usable))
	for i, rec := range usable {
		targets[i] = rec.Temperature.Float64
	}
	return features, targets, nil
}

// FutureRecords projects the tail of a historical batch onto upcoming dates,
// carrying recent covariate levels forward as a persistence assumption. The
// returned records start the day after `from` and are contiguous.
func FutureRecords(hist []models.Record, lat, lon float64, from time.Time, days int) []models.Record {
	out := make([]models.Record, 0, days)
	for i := 1; i <= days; i++ {
		date := from.AddDate(0, 0, i)
		var rec models.Record
		if len(hist) > 0 {
			// The tail of the history lines up with the future window; a
			// shorter history wraps so the most recent records are reused.
			idx := len(hist) - days + (i - 1)
			for idx < 0 {
				idx += len(hist)
			}
			rec = hist[idx%len(hist)]
			rec.ID = 0
		}
		rec.Latitude = lat
		rec.Longitude = lon
		rec.ObservedAt = date
		out = append(out, rec)
	}
	return out
}
