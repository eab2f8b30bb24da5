package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"jupiter/internal/forecast"
	"jupiter/internal/imagegen"
)

// handleShareCard serves a social share card PNG for the current conditions.
// The rendered card is cached briefly; a cached banner for the condition is
// composited in when one exists.
func (s *Server) handleShareCard(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := queryLatLon(r, s.homeLat, s.homeLon)
	if err != nil {
		writeError(w, err)
		return
	}

	if data, ok := s.cardCache.Get(); ok {
		serveImage(w, data)
		return
	}

	c := s.currentConditions(r.Context(), lat, lon)
	card := imagegen.CardData{
		Temperature: c.Temperature,
		FeelsLike:   c.FeelsLike,
		Condition:   c.Condition,
		Location:    fmt.Sprintf("%.2f, %.2f", lat, lon),
	}

	var data []byte
	if banner, ok := s.imageCache.Get(forecast.ConditionSlug(c.Condition)); ok {
		data, err = imagegen.ComposeCard(banner, card)
		if err != nil {
			log.Printf("share-card: compose: %v", err)
		}
	}
	if data == nil {
		data, err = imagegen.GenerateCard(card)
		if err != nil {
			log.Printf("share-card: render: %v", err)
			http.Error(w, "card rendering failed", http.StatusInternalServerError)
			return
		}
	}

	s.cardCache.Set(data)
	serveImage(w, data)
}

// handleWeatherImage serves a condition-appropriate banner image.
// It checks cache first, generates on-demand if needed, and serves any cached
// banner while the right one generates in the background.
func (s *Server) handleWeatherImage(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := queryLatLon(r, s.homeLat, s.homeLon)
	if err != nil {
		writeError(w, err)
		return
	}

	condition := s.currentConditions(r.Context(), lat, lon).Condition
	hasOverride := false
	if override := r.URL.Query().Get("condition"); override != "" {
		hasOverride = true
		condition = override
	}
	slug := forecast.ConditionSlug(condition)

	if data, ok := s.imageCache.Get(slug); ok {
		serveImage(w, data)
		return
	}

	// Any cached banner beats a blank page while the right one generates
	// (but not when testing with an override).
	if !hasOverride {
		if data, ok := s.imageCache.GetAny(); ok {
			go s.generateAndCache(condition)
			serveImage(w, data)
			return
		}
	}

	if s.imageGen != nil {
		s.genMu.Lock()
		defer s.genMu.Unlock()

		// Double-check cache after acquiring lock
		if data, ok := s.imageCache.Get(slug); ok {
			serveImage(w, data)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
		defer cancel()

		data, err := s.imageGen.Generate(ctx, condition)
		if err != nil {
			log.Printf("banner generation failed: %v", err)
			http.Error(w, "image generation failed", http.StatusServiceUnavailable)
			return
		}
		if err := s.imageCache.Set(slug, data); err != nil {
			log.Printf("failed to cache banner: %v", err)
		}

		serveImage(w, data)
		return
	}

	log.Printf("weather-image: no generator and no cached images available")
	http.Error(w, "weather image service unavailable", http.StatusServiceUnavailable)
}

// generateAndCache generates a banner in the background, holding the
// generation mutex so concurrent requests do not duplicate API calls.
func (s *Server) generateAndCache(condition string) {
	if s.imageGen == nil {
		return
	}

	s.genMu.Lock()
	defer s.genMu.Unlock()

	slug := forecast.ConditionSlug(condition)
	if _, ok := s.imageCache.Get(slug); ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	data, err := s.imageGen.Generate(ctx, condition)
	if err != nil {
		log.Printf("background banner generation failed: %v", err)
		return
	}
	if err := s.imageCache.Set(slug, data); err != nil {
		log.Printf("failed to cache banner: %v", err)
	}
}

// PregenerateBanner ensures a banner exists for the current home-location
// condition. Called by the scheduler after each history refresh so the first
// page load does not wait on image generation.
func (s *Server) PregenerateBanner(ctx context.Context) {
	if s.imageGen == nil {
		return
	}
	condition := s.currentConditions(ctx, s.homeLat, s.homeLon).Condition
	s.generateAndCache(condition)
}

func serveImage(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Write(data)
}
