package ingest

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jlaffaye/ftp"

	"jupiter/internal/models"
)

// ArchiveImporter bulk-loads historical daily records from CSV drops on an
// anonymous FTP archive (NOAA-style yearly files). It exists for offline
// training: the POWER API caps request windows, while archives carry decades.
type ArchiveImporter struct {
	host string
}

func NewArchiveImporter(host string) *ArchiveImporter {
	return &ArchiveImporter{host: host}
}

// Import retrieves one CSV file and parses it into records for the given
// location. Expected columns: date (YYYY-MM-DD), temperature, humidity,
// wind_speed, pressure; empty cells stay missing.
func (a *ArchiveImporter) Import(path string, lat, lon float64) ([]models.Record, error) {
	conn, err := ftp.Dial(a.host, ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("ftp dial: %w", err)
	}
	defer conn.Quit()

	if err := conn.Login("anonymous", "anonymous"); err != nil {
		return nil, fmt.Errorf("ftp login: %w", err)
	}

	resp, err := conn.Retr(path)
	if err != nil {
		return nil, fmt.Errorf("ftp retr: %w", err)
	}
	defer resp.Close()

	recs, err := parseArchiveCSV(resp, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return recs, nil
}

func parseArchiveCSV(r io.Reader, lat, lon float64) ([]models.Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	if _, ok := col["date"]; !ok {
		return nil, fmt.Errorf("missing date column")
	}

	var recs []models.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		observedAt, err := time.Parse("2006-01-02", row[col["date"]])
		if err != nil {
			continue // skip malformed rows rather than abort a bulk import
		}

		recs = append(recs, models.Record{
			Latitude:    lat,
			Longitude:   lon,
			ObservedAt:  observedAt,
			Source:      "archive",
			Temperature: csvValue(row, col, "temperature"),
			Humidity:    csvValue(row, col, "humidity"),
			WindSpeed:   csvValue(row, col, "wind_speed"),
			Pressure:    csvValue(row, col, "pressure"),
		})
	}
	return recs, nil
}

func csvValue(row []string, col map[string]int, name string) sql.NullFloat64 {
	i, ok := col[name]
	if !ok || i >= len(row) || row[i] == "" {
		return sql.NullFloat64{}
	}
	v, err := strconv.ParseFloat(row[i], 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
