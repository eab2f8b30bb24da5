package ingest

import (
	"strings"
	"testing"
	"time"
)

func TestParseArchiveCSV(t *testing.T) {
	csv := `date,temperature,humidity,wind_speed,pressure
2025-01-01,5.2,80,3.1,101.0
2025-01-02,,75,2.0,100.8
not-a-date,1,2,3,4
2025-01-03,6.0,,4.5,101.2
`
	recs, err := parseArchiveCSV(strings.NewReader(csv), 40.71, -74.01)
	if err != nil {
		t.Fatalf("parseArchiveCSV: %v", err)
	}

	// Malformed date row skipped, not fatal.
	if len(recs) != 3 {
		t.Fatalf("len(recs) = %d, want 3", len(recs))
	}

	if !recs[0].ObservedAt.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("recs[0] date = %s", recs[0].ObservedAt)
	}
	if recs[0].Temperature.Float64 != 5.2 || !recs[0].Temperature.Valid {
		t.Errorf("recs[0] temperature = %+v, want 5.2", recs[0].Temperature)
	}
	if recs[0].Latitude != 40.71 || recs[0].Longitude != -74.01 {
		t.Errorf("recs[0] location = %v/%v", recs[0].Latitude, recs[0].Longitude)
	}
	if recs[0].Source != "archive" {
		t.Errorf("recs[0] source = %q, want archive", recs[0].Source)
	}

	// Empty cells stay missing.
	if recs[1].Temperature.Valid {
		t.Error("empty temperature cell should stay missing")
	}
	if recs[2].Humidity.Valid {
		t.Error("empty humidity cell should stay missing")
	}
}

func TestParseArchiveCSV_MissingDateColumn(t *testing.T) {
	csv := "temperature,humidity\n5.2,80\n"
	if _, err := parseArchiveCSV(strings.NewReader(csv), 0, 0); err == nil {
		t.Fatal("expected error for missing date column")
	}
}

func TestParseArchiveCSV_PartialColumns(t *testing.T) {
	csv := "date,temperature\n2025-01-01,5.2\n"
	recs, err := parseArchiveCSV(strings.NewReader(csv), 0, 0)
	if err != nil {
		t.Fatalf("parseArchiveCSV: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1", len(recs))
	}
	if recs[0].Humidity.Valid || recs[0].WindSpeed.Valid || recs[0].Pressure.Valid {
		t.Error("absent columns should stay missing")
	}
}
