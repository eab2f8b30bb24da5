package ingest

import (
	"context"
	"log"
	"time"

	"jupiter/internal/forecast"
	"jupiter/internal/metrics"
	"jupiter/internal/store"
)

const (
	defaultRefreshInterval = 6 * time.Hour
	defaultTrainInterval   = 24 * time.Hour

	// POWER data trails real time by a few days.
	powerLagDays = 3

	refreshWindowDays = 90
	trainWindowDays   = 365
)

// Scheduler keeps the home location's history cache warm and retrains the
// model on a daily cadence.
type Scheduler struct {
	store   *store.Store
	power   *PowerClient
	trainer *forecast.Trainer
	lat     float64
	lon     float64

	refreshInterval time.Duration
	trainInterval   time.Duration

	afterRefresh func(context.Context)
}

func NewScheduler(st *store.Store, power *PowerClient, trainer *forecast.Trainer, lat, lon float64) *Scheduler {
	return &Scheduler{
		store:           st,
		power:           power,
		trainer:         trainer,
		lat:             lat,
		lon:             lon,
		refreshInterval: defaultRefreshInterval,
		trainInterval:   defaultTrainInterval,
	}
}

// SetAfterRefresh registers a hook run after each successful history refresh,
// used to pre-generate condition banners.
func (s *Scheduler) SetAfterRefresh(f func(context.Context)) {
	s.afterRefresh = f
}

func (s *Scheduler) Run(ctx context.Context) {
	if err := s.RefreshOnce(ctx); err != nil {
		log.Printf("scheduler: initial refresh: %v", err)
	}
	if err := s.TrainOnce(ctx); err != nil {
		log.Printf("scheduler: initial training: %v", err)
	}

	refreshTicker := time.NewTicker(s.refreshInterval)
	trainTicker := time.NewTicker(s.trainInterval)
	defer refreshTicker.Stop()
	defer trainTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("scheduler: stopping")
			return
		case <-refreshTicker.C:
			if err := s.RefreshOnce(ctx); err != nil {
				log.Printf("scheduler: refresh: %v", err)
			}
		case <-trainTicker.C:
			if err := s.TrainOnce(ctx); err != nil {
				log.Printf("scheduler: training: %v", err)
			}
		}
	}
}

// RefreshOnce fetches the recent historical window for the home location and
// upserts it into the cache.
func (s *Scheduler) RefreshOnce(ctx context.Context) error {
	end := time.Now().UTC().AddDate(0, 0, -powerLagDays)
	start := end.AddDate(0, 0, -refreshWindowDays)

	recs, err := s.power.FetchDaily(ctx, s.lat, s.lon, start, end)
	if err != nil {
		return err
	}

	if cleared := Sanitize(recs); cleared > 0 {
		log.Printf("scheduler: cleared %d implausible values", cleared)
	}
	if err := s.store.UpsertRecords(recs); err != nil {
		return err
	}
	metrics.RecordsIngested.Add(float64(len(recs)))
	log.Printf("scheduler: refreshed %d records for %.2f,%.2f", len(recs), s.lat, s.lon)

	if s.afterRefresh != nil {
		s.afterRefresh(ctx)
	}
	return nil
}

// TrainOnce retrains the model from the cached training window. Too little
// history is expected on fresh deployments and only logged.
func (s *Scheduler) TrainOnce(ctx context.Context) error {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -trainWindowDays)

	recs, err := s.store.GetRecords(s.lat, s.lon, start, end)
	if err != nil {
		return err
	}

	result, err := s.trainer.Train(s.lat, s.lon, recs)
	if err != nil {
		return err
	}

	metrics.TrainingRuns.Inc()
	metrics.TrainingRMSE.Set(result.RMSE)
	return nil
}
