package forecast

import (
	"testing"
	"time"
)

func TestGeneratorClamps(t *testing.T) {
	gen := NewGenerator(1)

	times := []time.Time{
		time.Date(2026, 1, 15, 3, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 1, 15, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 21, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 31, 21, 0, 0, 0, time.UTC),
	}

	for lat := -90.0; lat <= 90.0; lat += 15 {
		for _, at := range times {
			b := gen.At(lat, 0, at)
			if b.Humidity < humidityFloor || b.Humidity > humidityCeil {
				t.Errorf("lat %.0f %s: humidity %.1f outside [%.0f, %.0f]", lat, at, b.Humidity, humidityFloor, humidityCeil)
			}
			if b.Pressure < pressureFloor || b.Pressure > pressureCeil {
				t.Errorf("lat %.0f %s: pressure %.1f outside [%.0f, %.0f]", lat, at, b.Pressure, pressureFloor, pressureCeil)
			}
			if b.WindSpeed < windFloor || b.WindSpeed > windCeil {
				t.Errorf("lat %.0f %s: wind %.1f outside [%.0f, %.0f]", lat, at, b.WindSpeed, windFloor, windCeil)
			}
		}
	}
}

func TestGeneratorDeterministic(t *testing.T) {
	a := NewGenerator(42)
	b := NewGenerator(42)

	at := time.Date(2026, 6, 21, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		ba := a.At(40.71, -74.01, at.AddDate(0, 0, i))
		bb := b.At(40.71, -74.01, at.AddDate(0, 0, i))
		if ba != bb {
			t.Fatalf("step %d: same seed diverged: %+v vs %+v", i, ba, bb)
		}
	}
}

func TestTemperatureLatitudeGradient(t *testing.T) {
	gen := NewGenerator(7)
	at := time.Date(2026, 3, 21, 12, 0, 0, 0, time.UTC)

	var equator, pole float64
	const samples = 50
	for i := 0; i < samples; i++ {
		equator += gen.temperatureAt(0, at)
		pole += gen.temperatureAt(85, at)
	}
	equator /= samples
	pole /= samples

	// Jitter is bounded, the gradient is not subtle.
	if equator <= pole+10 {
		t.Errorf("equator mean %.1f not clearly warmer than pole mean %.1f", equator, pole)
	}
}

func TestSouthernHemisphereSeasonFlipped(t *testing.T) {
	gen := NewGenerator(3)

	// Mid-northern summer, noon, well past the equinox phase day.
	july := time.Date(2026, 7, 15, 12, 0, 0, 0, time.UTC)

	var north, south float64
	const samples = 50
	for i := 0; i < samples; i++ {
		north += gen.temperatureAt(45, july)
		south += gen.temperatureAt(-45, july)
	}
	north /= samples
	south /= samples

	// Same |lat| so the latitude gradient cancels; only the seasonal term
	// differs, by twice the full amplitude.
	if north <= south+5 {
		t.Errorf("july at lat 45 mean %.1f not clearly warmer than lat -45 mean %.1f", north, south)
	}
}

func TestDeriveHumidityWarmerIsDrier(t *testing.T) {
	gen := NewGenerator(9)

	var warm, cool float64
	const samples = 50
	for i := 0; i < samples; i++ {
		warm += gen.DeriveHumidity(35)
		cool += gen.DeriveHumidity(5)
	}
	warm /= samples
	cool /= samples

	if warm >= cool {
		t.Errorf("humidity at 35C mean %.1f not below humidity at 5C mean %.1f", warm, cool)
	}
}
