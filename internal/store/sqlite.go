package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"jupiter/internal/models"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// LocationKey collapses a coordinate pair to a cache key. POWER serves data on
// a half-degree grid, so two decimal places is more precision than the source
// resolves.
func LocationKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f,%.2f", lat, lon)
}

func (s *Store) UpsertRecord(rec models.Record) error {
	_, err := s.db.Exec(`
		INSERT INTO records (location_key, latitude, longitude, observed_at, temperature, humidity, wind_speed, pressure, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(location_key, observed_at) DO UPDATE SET
			temperature = excluded.temperature,
			humidity = excluded.humidity,
			wind_speed = excluded.wind_speed,
			pressure = excluded.pressure,
			source = excluded.source
	`, LocationKey(rec.Latitude, rec.Longitude), rec.Latitude, rec.Longitude, rec.ObservedAt,
		rec.Temperature, rec.Humidity, rec.WindSpeed, rec.Pressure, rec.Source)
	return err
}

func (s *Store) UpsertRecords(recs []models.Record) error {
	for _, rec := range recs {
		if err := s.UpsertRecord(rec); err != nil {
			return fmt.Errorf("upsert record at %s: %w", rec.ObservedAt.Format(time.RFC3339), err)
		}
	}
	return nil
}

func (s *Store) GetRecords(lat, lon float64, start, end time.Time) ([]models.Record, error) {
	rows, err := s.db.Query(`
		SELECT id, latitude, longitude, observed_at, temperature, humidity, wind_speed, pressure, source, created_at
		FROM records
		WHERE location_key = ? AND observed_at >= ? AND observed_at <= ?
		ORDER BY observed_at ASC
	`, LocationKey(lat, lon), start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []models.Record
	for rows.Next() {
		var rec models.Record
		if err := rows.Scan(&rec.ID, &rec.Latitude, &rec.Longitude, &rec.ObservedAt,
			&rec.Temperature, &rec.Humidity, &rec.WindSpeed, &rec.Pressure, &rec.Source, &rec.CreatedAt); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *Store) GetLatestRecord(lat, lon float64) (*models.Record, error) {
	row := s.db.QueryRow(`
		SELECT id, latitude, longitude, observed_at, temperature, humidity, wind_speed, pressure, source, created_at
		FROM records
		WHERE location_key = ?
		ORDER BY observed_at DESC
		LIMIT 1
	`, LocationKey(lat, lon))

	var rec models.Record
	err := row.Scan(&rec.ID, &rec.Latitude, &rec.Longitude, &rec.ObservedAt,
		&rec.Temperature, &rec.Humidity, &rec.WindSpeed, &rec.Pressure, &rec.Source, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// SaveModel replaces the persisted model artifact wholesale. There is exactly
// one artifact per deployment; versioning across runs is intentionally absent.
func (s *Store) SaveModel(artifact models.ModelArtifact) error {
	features, err := json.Marshal(artifact.Features)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO model_artifact (id, blob, features_json, rmse, samples, trained_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			blob = excluded.blob,
			features_json = excluded.features_json,
			rmse = excluded.rmse,
			samples = excluded.samples,
			trained_at = excluded.trained_at
	`, artifact.Blob, string(features), artifact.RMSE, artifact.Samples, artifact.TrainedAt)
	return err
}

// LoadModel returns the persisted artifact, or nil when none has been trained.
func (s *Store) LoadModel() (*models.ModelArtifact, error) {
	row := s.db.QueryRow(`SELECT blob, features_json, rmse, samples, trained_at FROM model_artifact WHERE id = 1`)

	var artifact models.ModelArtifact
	var featuresJSON string
	err := row.Scan(&artifact.Blob, &featuresJSON, &artifact.RMSE, &artifact.Samples, &artifact.TrainedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(featuresJSON), &artifact.Features); err != nil {
		return nil, fmt.Errorf("unmarshal features: %w", err)
	}
	return &artifact, nil
}

func (s *Store) InsertTrainingRun(run models.TrainingRun) error {
	_, err := s.db.Exec(`
		INSERT INTO training_runs (latitude, longitude, samples, rmse, features, ran_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.Latitude, run.Longitude, run.Samples, run.RMSE, run.Features, run.RanAt)
	return err
}

func (s *Store) RecentTrainingRuns(limit int) ([]models.TrainingRun, error) {
	rows, err := s.db.Query(`
		SELECT id, latitude, longitude, samples, rmse, features, ran_at
		FROM training_runs
		ORDER BY ran_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.TrainingRun
	for rows.Next() {
		var run models.TrainingRun
		if err := rows.Scan(&run.ID, &run.Latitude, &run.Longitude, &run.Samples, &run.RMSE, &run.Features, &run.RanAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
