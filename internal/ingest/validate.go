package ingest

import (
	"fmt"
	"time"

	"jupiter/internal/models"
)

const (
	FlagTempOutOfRange     = "temp_out_of_range"
	FlagHumidityInvalid    = "humidity_invalid"
	FlagWindSpeedUnlikely  = "wind_speed_unlikely"
	FlagPressureOutOfRange = "pressure_out_of_range"
)

// ValidateRecord returns quality flags for physically implausible values.
// Pressure bounds are in kPa, matching the POWER PS parameter.
func ValidateRecord(rec *models.Record) []string {
	var flags []string

	if rec.Temperature.Valid {
		if rec.Temperature.Float64 < -90 || rec.Temperature.Float64 > 60 {
			flags = append(flags, FlagTempOutOfRange)
		}
	}

	if rec.Humidity.Valid {
		if rec.Humidity.Float64 < 0 || rec.Humidity.Float64 > 100 {
			flags = append(flags, FlagHumidityInvalid)
		}
	}

	if rec.WindSpeed.Valid {
		if rec.WindSpeed.Float64 < 0 || rec.WindSpeed.Float64 > 120 {
			flags = append(flags, FlagWindSpeedUnlikely)
		}
	}

	if rec.Pressure.Valid {
		if rec.Pressure.Float64 < 85 || rec.Pressure.Float64 > 110 {
			flags = append(flags, FlagPressureOutOfRange)
		}
	}

	return flags
}

// Sanitize clears flagged fields in place so implausible readings never reach
// the feature builder, and returns how many fields were cleared.
func Sanitize(recs []models.Record) int {
	cleared := 0
	for i := range recs {
		for _, flag := range ValidateRecord(&recs[i]) {
			switch flag {
			case FlagTempOutOfRange:
				recs[i].Temperature.Valid = false
			case FlagHumidityInvalid:
				recs[i].Humidity.Valid = false
			case FlagWindSpeedUnlikely:
				recs[i].WindSpeed.Valid = false
			case FlagPressureOutOfRange:
				recs[i].Pressure.Valid = false
			}
			cleared++
		}
	}
	return cleared
}

// CheckOrdered verifies the batch is strictly increasing by timestamp.
// Duplicate timestamps make a batch invalid as a time series.
func CheckOrdered(recs []models.Record) error {
	for i := 1; i < len(recs); i++ {
		if !recs[i].ObservedAt.After(recs[i-1].ObservedAt) {
			return fmt.Errorf("records not strictly ordered at %s", recs[i].ObservedAt.Format(time.RFC3339))
		}
	}
	return nil
}
