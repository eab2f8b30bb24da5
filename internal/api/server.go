package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jupiter/internal/forecast"
	"jupiter/internal/imagegen"
	"jupiter/internal/ingest"
	"jupiter/internal/models"
	"jupiter/internal/store"
)

type Server struct {
	store     *store.Store
	power     *ingest.PowerClient
	gen       *forecast.Generator
	engine    *forecast.Engine
	predictor *forecast.Predictor
	trainer   *forecast.Trainer
	port      string
	homeLat   float64
	homeLon   float64

	imageCache *imagegen.Cache
	imageGen   *imagegen.Generator
	cardCache  *imagegen.CardCache
	genMu      sync.Mutex // Prevents concurrent generation of same image
}

func NewServer(st *store.Store, power *ingest.PowerClient, gen *forecast.Generator, predictor *forecast.Predictor, trainer *forecast.Trainer, port string, homeLat, homeLon float64) *Server {
	// Initialize image generator (optional - may not have API key)
	var imageGen *imagegen.Generator
	if g, err := imagegen.NewGenerator(); err != nil {
		log.Printf("Image generation disabled: %v", err)
	} else {
		imageGen = g
	}

	return &Server{
		store:      st,
		power:      power,
		gen:        gen,
		engine:     forecast.NewEngine(gen),
		predictor:  predictor,
		trainer:    trainer,
		port:       port,
		homeLat:    homeLat,
		homeLon:    homeLon,
		imageCache: imagegen.NewCache("data/images"),
		imageGen:   imageGen,
		cardCache:  imagegen.NewCardCache(10 * time.Minute),
	}
}

// ImageGenerator returns the image generator for use by the scheduler.
func (s *Server) ImageGenerator() *imagegen.Generator {
	return s.imageGen
}

// ImageCache returns the image cache for use by the scheduler.
func (s *Server) ImageCache() *imagegen.Cache {
	return s.imageCache
}

// ImageGenMutex returns a pointer to the image generation mutex for
// coordinating between the HTTP handler and scheduler to prevent duplicate
// API calls.
func (s *Server) ImageGenMutex() *sync.Mutex {
	return &s.genMu
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/weather/current", s.handleCurrent)
	mux.HandleFunc("/api/weather/forecast", s.handleForecast)
	mux.HandleFunc("/api/weather/historical", s.handleHistorical)
	mux.HandleFunc("/api/ml/predict", s.handlePredict)
	mux.HandleFunc("/api/ml/probability", s.handleProbability)
	mux.HandleFunc("/api/ml/train", s.handleTrain)
	mux.HandleFunc("/api/share-card.png", s.handleShareCard)
	mux.HandleFunc("/weather-image", s.handleWeatherImage)
	mux.Handle("/metrics", promhttp.Handler())
	return withCORS(mux)
}

// withCORS allows the dashboard frontend to call the API from any origin.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP status codes. Invalid queries are
// the caller's fault; an unreachable adapter is a bad gateway; everything
// else is ours.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var iq *models.InvalidQueryError
	switch {
	case errors.As(err, &iq):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrAdapterUnavailable):
		status = http.StatusBadGateway
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
