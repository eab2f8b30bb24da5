package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"

	"jupiter/internal/httputil"
	"jupiter/internal/metrics"
	"jupiter/internal/models"
)

const (
	// POWER publishes daily values with a few days of latency.
	powerFillValue = -999.0
	powerDateLayout = "20060102"
)

// powerParams maps POWER parameter codes to record fields.
// T2M: 2m air temperature (C), RH2M: relative humidity (%),
// WS10M: 10m wind speed (m/s), PS: surface pressure (kPa).
const powerParams = "T2M,RH2M,WS10M,PS"

// PowerClient fetches historical daily records from the NASA POWER API. The
// fetch is the one slow external call forecasting depends on, so it is
// timeout-bounded and retried; callers treat any failure as recoverable by
// falling back to synthetic data.
type PowerClient struct {
	baseURL string
	client  *http.Client
}

func NewPowerClient(baseURL string) *PowerClient {
	return &PowerClient{
		baseURL: baseURL,
		client:  httputil.NewClient(),
	}
}

type powerResponse struct {
	Properties struct {
		Parameter map[string]map[string]float64 `json:"parameter"`
	} `json:"properties"`
}

// FetchDaily returns one record per day in [start, end], ordered by date.
// Fill values in the payload become missing fields, not zeros. Any transport
// or payload failure is reported as ErrAdapterUnavailable.
func (c *PowerClient) FetchDaily(ctx context.Context, lat, lon float64, start, end time.Time) ([]models.Record, error) {
	q := url.Values{}
	q.Set("parameters", powerParams)
	q.Set("community", "RE")
	q.Set("latitude", fmt.Sprintf("%.4f", lat))
	q.Set("longitude", fmt.Sprintf("%.4f", lon))
	q.Set("start", start.Format(powerDateLayout))
	q.Set("end", end.Format(powerDateLayout))
	q.Set("format", "JSON")
	reqURL := fmt.Sprintf("%s/daily/point?%s", c.baseURL, q.Encode())

	started := time.Now()
	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("fetch daily: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("fetch daily: status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("fetch daily: status %d: %s", resp.StatusCode, string(b)))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("read body: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		metrics.PowerAPICalls.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %v", models.ErrAdapterUnavailable, err)
	}
	metrics.PowerAPICalls.WithLabelValues("ok").Inc()
	metrics.PowerAPILatency.Observe(time.Since(started).Seconds())

	var data powerResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: unmarshal: %v", models.ErrAdapterUnavailable, err)
	}

	recs, err := recordsFromPower(data, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrAdapterUnavailable, err)
	}
	return recs, nil
}

func recordsFromPower(data powerResponse, lat, lon float64) ([]models.Record, error) {
	temps := data.Properties.Parameter["T2M"]
	if len(temps) == 0 {
		return nil, fmt.Errorf("no T2M data in payload")
	}

	dates := make([]string, 0, len(temps))
	for d := range temps {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	recs := make([]models.Record, 0, len(dates))
	for _, d := range dates {
		observedAt, err := time.Parse(powerDateLayout, d)
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", d, err)
		}

		rec := models.Record{
			Latitude:    lat,
			Longitude:   lon,
			ObservedAt:  observedAt,
			Source:      "nasa-power",
			Temperature: powerValue(data, "T2M", d),
			Humidity:    powerValue(data, "RH2M", d),
			WindSpeed:   powerValue(data, "WS10M", d),
			Pressure:    powerValue(data, "PS", d),
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func powerValue(data powerResponse, param, date string) sql.NullFloat64 {
	values, ok := data.Properties.Parameter[param]
	if !ok {
		return sql.NullFloat64{}
	}
	v, ok := values[date]
	if !ok || v == powerFillValue {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
