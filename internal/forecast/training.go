package forecast

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"jupiter/internal/models"
	"jupiter/internal/store"
)

const cvFolds = 5

// fold describes one walk-forward split: training on [0, trainEnd) and
// validating on [valStart, valEnd). Validation indices are always strictly
// later than every training index.
type fold struct {
	trainEnd int
	valStart int
	valEnd   int
}

// walkForwardFolds partitions n chronologically ordered samples into k
// expanding folds. Each validation block has size n/(k+1); fold i trains on
// everything before its block.
func walkForwardFolds(n, k int) ([]fold, error) {
	blockSize := n / (k + 1)
	if blockSize == 0 {
		return nil, fmt.Errorf("insufficient samples for %d folds: have %d, need at least %d", k, n, k+1)
	}

	folds := make([]fold, 0, k)
	for i := 0; i < k; i++ {
		valEnd := n - (k-1-i)*blockSize
		valStart := valEnd - blockSize
		folds = append(folds, fold{trainEnd: valStart, valStart: valStart, valEnd: valEnd})
	}
	return folds, nil
}

// TrainResult reports a completed training run.
type TrainResult struct {
	RMSE      float64
	FoldRMSEs []float64
	Samples   int
	Features  []string
	TrainedAt time.Time
}

// Trainer cross-validates, selects, and persists the regression model.
// Training writes the shared model artifact, so runs are serialized; the
// predictor cache is invalidated only after a successful persist.
type Trainer struct {
	store     *store.Store
	predictor *Predictor
	mu        sync.Mutex
}

func NewTrainer(st *store.Store, predictor *Predictor) *Trainer {
	return &Trainer{store: st, predictor: predictor}
}

// Train selects one regressor by walk-forward cross-validation and persists
// it, replacing any previous artifact. The single fold model with minimum
// validation RMSE wins; folds are not ensembled, so later folds see more data
// but are not guaranteed to win.
func (t *Trainer) Train(lat, lon float64, recs []models.Record) (*TrainResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sorted := make([]models.Record, len(recs))
	copy(sorted, recs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ObservedAt.Before(sorted[j].ObservedAt) })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].ObservedAt.Equal(sorted[i-1].ObservedAt) {
			return nil, models.InvalidQueryf("duplicate timestamp %s in training data", sorted[i].ObservedAt.Format(time.RFC3339))
		}
	}

	features, targets, err := TrainingData(sorted, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("build training data: %w", err)
	}

	folds, err := walkForwardFolds(len(features.Rows), cvFolds)
	if err != nil {
		return nil, err
	}

	var best *Ridge
	bestRMSE := math.Inf(1)
	foldRMSEs := make([]float64, 0, len(folds))

	for i, f := range folds {
		reg := NewRidge()
		if err := reg.Fit(features.Rows[:f.trainEnd], targets[:f.trainEnd]); err != nil {
			return nil, fmt.Errorf("fit fold %d: %w", i, err)
		}

		var sumSq float64
		for j := f.valStart; j < f.valEnd; j++ {
			diff := reg.Predict(features.Rows[j]) - targets[j]
			sumSq += diff * diff
		}
		rmse := math.Sqrt(sumSq / float64(f.valEnd-f.valStart))
		foldRMSEs = append(foldRMSEs, rmse)

		if rmse < bestRMSE {
			bestRMSE = rmse
			best = reg
		}
	}

	blob, err := best.Encode()
	if err != nil {
		return nil, err
	}

	trainedAt := time.Now().UTC()
	artifact := models.ModelArtifact{
		Blob:      blob,
		Features:  features.Names,
		RMSE:      bestRMSE,
		Samples:   len(features.Rows),
		TrainedAt: trainedAt,
	}
	if err := t.store.SaveModel(artifact); err != nil {
		return nil, fmt.Errorf("persist model: %w", err)
	}

	featuresJSON, _ := json.Marshal(features.Names)
	if err := t.store.InsertTrainingRun(models.TrainingRun{
		Latitude:  lat,
		Longitude: lon,
		Samples:   len(features.Rows),
		RMSE:      bestRMSE,
		Features:  string(featuresJSON),
		RanAt:     trainedAt,
	}); err != nil {
		log.Printf("training: record run: %v", err)
	}

	t.predictor.Invalidate()

	log.Printf("training: model saved, rmse=%.3f samples=%d features=%v", bestRMSE, len(features.Rows), features.Names)
	return &TrainResult{
		RMSE:      bestRMSE,
		FoldRMSEs: foldRMSEs,
		Samples:   len(features.Rows),
		Features:  features.Names,
		TrainedAt: trainedAt,
	}, nil
}
