package api

import (
	"net/http"
	"strconv"
	"time"

	"jupiter/internal/models"
)

const dateLayout = "2006-01-02"

// queryLatLon parses lat/lon query parameters, falling back to the given
// defaults when absent.
func queryLatLon(r *http.Request, defLat, defLon float64) (float64, float64, error) {
	lat, err := queryFloat(r, "lat", defLat)
	if err != nil {
		return 0, 0, err
	}
	lon, err := queryFloat(r, "lon", defLon)
	if err != nil {
		return 0, 0, err
	}

	if lat < -90 || lat > 90 {
		return 0, 0, models.InvalidQueryf("lat %.2f out of range [-90, 90]", lat)
	}
	if lon < -180 || lon > 180 {
		return 0, 0, models.InvalidQueryf("lon %.2f out of range [-180, 180]", lon)
	}
	return lat, lon, nil
}

func queryFloat(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, models.InvalidQueryf("%s: not a number: %q", name, raw)
	}
	return v, nil
}

func queryInt(r *http.Request, name string, def, min, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, models.InvalidQueryf("%s: not an integer: %q", name, raw)
	}
	if v < min || v > max {
		return 0, models.InvalidQueryf("%s %d out of range [%d, %d]", name, v, min, max)
	}
	return v, nil
}

// queryDate parses a YYYY-MM-DD query parameter. The bool reports whether the
// parameter was present.
func queryDate(r *http.Request, name string) (time.Time, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, false, models.InvalidQueryf("%s: expected YYYY-MM-DD, got %q", name, raw)
	}
	return t.UTC(), true, nil
}

func queryParameter(r *http.Request) (models.Parameter, error) {
	raw := r.URL.Query().Get("parameter")
	if raw == "" {
		return models.ParamTemperature, nil
	}
	p := models.Parameter(raw)
	for _, known := range models.KnownParameters {
		if p == known {
			return p, nil
		}
	}
	return "", models.InvalidQueryf("unknown parameter %q", raw)
}

func queryOperator(r *http.Request) (models.Operator, error) {
	raw := r.URL.Query().Get("op")
	if raw == "" {
		return models.OpGreater, nil
	}
	switch op := models.Operator(raw); op {
	case models.OpGreater, models.OpGreaterEqual, models.OpLess, models.OpLessEqual, models.OpEqual:
		return op, nil
	}
	return "", models.InvalidQueryf("unknown operator %q", raw)
}
