package forecast

import (
	"database/sql"
	"errors"
	"math"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"jupiter/internal/models"
	"jupiter/internal/store"
)

func setupStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	st := store.New(db)
	if err := st.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return st
}

// trainingRecords builds a smooth deterministic year of daily temperatures.
func trainingRecords(n int) []models.Record {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	recs := make([]models.Record, 0, n)
	for i := 0; i < n; i++ {
		at := base.AddDate(0, 0, i)
		temp := 15 + 10*math.Sin(2*math.Pi*float64(at.YearDay())/365)
		recs = append(recs, models.Record{
			Latitude:    40.71,
			Longitude:   -74.01,
			ObservedAt:  at,
			Temperature: sql.NullFloat64{Float64: temp, Valid: true},
			Source:      "test",
		})
	}
	return recs
}

func TestWalkForwardFolds(t *testing.T) {
	folds, err := walkForwardFolds(120, 5)
	if err != nil {
		t.Fatalf("walkForwardFolds: %v", err)
	}
	if len(folds) != 5 {
		t.Fatalf("len(folds) = %d, want 5", len(folds))
	}

	prevEnd := 0
	for i, f := range folds {
		if f.trainEnd <= 0 {
			t.Errorf("fold %d: empty training block", i)
		}
		if f.valStart != f.trainEnd {
			t.Errorf("fold %d: validation must start where training ends: %d vs %d", i, f.valStart, f.trainEnd)
		}
		if f.valEnd <= f.valStart {
			t.Errorf("fold %d: empty validation block", i)
		}
		if f.valEnd > 120 {
			t.Errorf("fold %d: validation past the data: %d", i, f.valEnd)
		}
		if f.valStart < prevEnd {
			t.Errorf("fold %d: folds not expanding forward", i)
		}
		prevEnd = f.valEnd
	}
}

func TestWalkForwardFolds_TooFewSamples(t *testing.T) {
	if _, err := walkForwardFolds(5, 5); err == nil {
		t.Fatal("expected error for too few samples")
	}
}

func TestTrainerTrain(t *testing.T) {
	st := setupStore(t)
	predictor := NewPredictor(st)
	trainer := NewTrainer(st, predictor)

	result, err := trainer.Train(40.71, -74.01, trainingRecords(120))
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	if result.Samples != 120 {
		t.Errorf("Samples = %d, want 120", result.Samples)
	}
	if len(result.FoldRMSEs) != 5 {
		t.Errorf("len(FoldRMSEs) = %d, want 5", len(result.FoldRMSEs))
	}
	if result.RMSE < 0 || math.IsNaN(result.RMSE) || math.IsInf(result.RMSE, 0) {
		t.Errorf("RMSE = %v, want a finite non-negative value", result.RMSE)
	}
	for _, fr := range result.FoldRMSEs {
		if fr < result.RMSE {
			t.Errorf("fold RMSE %v below the reported minimum %v", fr, result.RMSE)
		}
	}

	artifact, err := st.LoadModel()
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if artifact == nil {
		t.Fatal("no artifact persisted after training")
	}
	if len(artifact.Features) == 0 || artifact.Features[0] != FeatureDayOfYear {
		t.Errorf("artifact features = %v, want day_of_year first", artifact.Features)
	}

	runs, err := st.RecentTrainingRuns(1)
	if err != nil {
		t.Fatalf("RecentTrainingRuns: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(runs))
	}
}

func TestTrainerTrain_SwitchesPredictorToTrained(t *testing.T) {
	st := setupStore(t)
	predictor := NewPredictor(st)
	trainer := NewTrainer(st, predictor)

	recs := trainingRecords(120)

	// Before training, the predictor is in the seasonal state.
	fs := BuildFeatures(recs[:5], 40.71, -74.01)
	_, mode, err := predictor.Predict(fs)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if mode != ModeSeasonal {
		t.Fatalf("mode before training = %q, want %q", mode, ModeSeasonal)
	}

	if _, err := trainer.Train(40.71, -74.01, recs); err != nil {
		t.Fatalf("Train: %v", err)
	}

	_, mode, err = predictor.Predict(fs)
	if err != nil {
		t.Fatalf("Predict after training: %v", err)
	}
	if mode != ModeTrained {
		t.Errorf("mode after training = %q, want %q", mode, ModeTrained)
	}
}

func TestTrainerTrain_DuplicateTimestamps(t *testing.T) {
	st := setupStore(t)
	trainer := NewTrainer(st, NewPredictor(st))

	recs := trainingRecords(30)
	recs[10].ObservedAt = recs[9].ObservedAt

	_, err := trainer.Train(40.71, -74.01, recs)
	if err == nil {
		t.Fatal("expected error for duplicate timestamps")
	}
	var iq *models.InvalidQueryError
	if !errors.As(err, &iq) {
		t.Errorf("error = %v, want InvalidQueryError", err)
	}
}

func TestTrainerTrain_TooFewRecords(t *testing.T) {
	st := setupStore(t)
	trainer := NewTrainer(st, NewPredictor(st))

	if _, err := trainer.Train(40.71, -74.01, trainingRecords(5)); err == nil {
		t.Fatal("expected error for too few records")
	}
}
