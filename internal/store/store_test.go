package store

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"jupiter/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := New(db)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func testRecord(lat, lon float64, observedAt time.Time, temp float64) models.Record {
	return models.Record{
		Latitude:    lat,
		Longitude:   lon,
		ObservedAt:  observedAt,
		Temperature: sql.NullFloat64{Float64: temp, Valid: true},
		Source:      "test",
	}
}

func TestUpsertAndGetRecords(t *testing.T) {
	store := setupTestStore(t)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		rec := testRecord(40.71, -74.01, base.AddDate(0, 0, i), 10+float64(i))
		if err := store.UpsertRecord(rec); err != nil {
			t.Fatalf("UpsertRecord: %v", err)
		}
	}

	recs, err := store.GetRecords(40.71, -74.01, base, base.AddDate(0, 0, 10))
	if err != nil {
		t.Fatalf("GetRecords: %v", err)
	}
	if len(recs) != 5 {
		t.Fatalf("len(recs) = %d, want 5", len(recs))
	}
	for i := 1; i < len(recs); i++ {
		if !recs[i].ObservedAt.After(recs[i-1].ObservedAt) {
			t.Errorf("records not ordered at index %d", i)
		}
	}
	if recs[0].Temperature.Float64 != 10 {
		t.Errorf("first temperature = %v, want 10", recs[0].Temperature.Float64)
	}
}

func TestUpsertRecord_ReplacesSameTimestamp(t *testing.T) {
	store := setupTestStore(t)

	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if err := store.UpsertRecord(testRecord(40.71, -74.01, at, 10)); err != nil {
		t.Fatalf("UpsertRecord: %v", err)
	}
	if err := store.UpsertRecord(testRecord(40.71, -74.01, at, 12)); err != nil {
		t.Fatalf("UpsertRecord update: %v", err)
	}

	recs, err := store.GetRecords(40.71, -74.01, at.AddDate(0, 0, -1), at.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("GetRecords: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1", len(recs))
	}
	if recs[0].Temperature.Float64 != 12 {
		t.Errorf("temperature = %v, want 12", recs[0].Temperature.Float64)
	}
}

func TestGetRecords_LocationsIsolated(t *testing.T) {
	store := setupTestStore(t)

	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if err := store.UpsertRecord(testRecord(40.71, -74.01, at, 10)); err != nil {
		t.Fatalf("UpsertRecord: %v", err)
	}
	if err := store.UpsertRecord(testRecord(-36.79, 146.98, at, 25)); err != nil {
		t.Fatalf("UpsertRecord: %v", err)
	}

	recs, err := store.GetRecords(-36.79, 146.98, at.AddDate(0, 0, -1), at.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("GetRecords: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1", len(recs))
	}
	if recs[0].Temperature.Float64 != 25 {
		t.Errorf("temperature = %v, want 25", recs[0].Temperature.Float64)
	}
}

func TestGetLatestRecord(t *testing.T) {
	store := setupTestStore(t)

	rec, err := store.GetLatestRecord(40.71, -74.01)
	if err != nil {
		t.Fatalf("GetLatestRecord: %v", err)
	}
	if rec != nil {
		t.Fatal("expected nil for empty store")
	}

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := store.UpsertRecord(testRecord(40.71, -74.01, base.AddDate(0, 0, i), 10+float64(i))); err != nil {
			t.Fatalf("UpsertRecord: %v", err)
		}
	}

	rec, err = store.GetLatestRecord(40.71, -74.01)
	if err != nil {
		t.Fatalf("GetLatestRecord: %v", err)
	}
	if rec == nil {
		t.Fatal("GetLatestRecord returned nil")
	}
	if rec.Temperature.Float64 != 12 {
		t.Errorf("latest temperature = %v, want 12", rec.Temperature.Float64)
	}
}

func TestSaveAndLoadModel(t *testing.T) {
	store := setupTestStore(t)

	artifact, err := store.LoadModel()
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if artifact != nil {
		t.Fatal("expected nil artifact before training")
	}

	want := models.ModelArtifact{
		Blob:      []byte{1, 2, 3},
		Features:  []string{"day_of_year", "month", "lat", "lon"},
		RMSE:      2.5,
		Samples:   120,
		TrainedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := store.SaveModel(want); err != nil {
		t.Fatalf("SaveModel: %v", err)
	}

	got, err := store.LoadModel()
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if got == nil {
		t.Fatal("LoadModel returned nil")
	}
	if string(got.Blob) != string(want.Blob) {
		t.Errorf("Blob = %v, want %v", got.Blob, want.Blob)
	}
	if len(got.Features) != 4 || got.Features[0] != "day_of_year" {
		t.Errorf("Features = %v, want %v", got.Features, want.Features)
	}
	if got.RMSE != want.RMSE {
		t.Errorf("RMSE = %v, want %v", got.RMSE, want.RMSE)
	}
	if got.Samples != want.Samples {
		t.Errorf("Samples = %d, want %d", got.Samples, want.Samples)
	}
}

func TestSaveModel_ReplacesPrevious(t *testing.T) {
	store := setupTestStore(t)

	first := models.ModelArtifact{Blob: []byte{1}, Features: []string{"day_of_year"}, RMSE: 3.0, Samples: 50, TrainedAt: time.Now().UTC()}
	if err := store.SaveModel(first); err != nil {
		t.Fatalf("SaveModel: %v", err)
	}

	second := models.ModelArtifact{Blob: []byte{2}, Features: []string{"day_of_year", "month"}, RMSE: 2.0, Samples: 80, TrainedAt: time.Now().UTC()}
	if err := store.SaveModel(second); err != nil {
		t.Fatalf("SaveModel replace: %v", err)
	}

	got, err := store.LoadModel()
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if got.RMSE != 2.0 || got.Samples != 80 {
		t.Errorf("got RMSE=%v Samples=%d, want replacement artifact", got.RMSE, got.Samples)
	}
}

func TestTrainingRuns(t *testing.T) {
	store := setupTestStore(t)

	for i := 0; i < 3; i++ {
		run := models.TrainingRun{
			Latitude:  40.71,
			Longitude: -74.01,
			Samples:   100 + i,
			RMSE:      3.0 - float64(i),
			Features:  `["day_of_year"]`,
			RanAt:     time.Date(2026, 3, 1+i, 0, 0, 0, 0, time.UTC),
		}
		if err := store.InsertTrainingRun(run); err != nil {
			t.Fatalf("InsertTrainingRun: %v", err)
		}
	}

	runs, err := store.RecentTrainingRuns(2)
	if err != nil {
		t.Fatalf("RecentTrainingRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	if runs[0].Samples != 102 {
		t.Errorf("most recent run Samples = %d, want 102", runs[0].Samples)
	}
}

func TestLocationKey(t *testing.T) {
	if got := LocationKey(40.7128, -74.006); got != "40.71,-74.01" {
		t.Errorf("LocationKey = %q, want %q", got, "40.71,-74.01")
	}
	if LocationKey(40.711, -74.009) != LocationKey(40.712, -74.011) {
		t.Error("nearby coordinates should collapse to the same key")
	}
}
