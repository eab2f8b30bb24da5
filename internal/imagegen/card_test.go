package imagegen

import (
	"bytes"
	"image/png"
	"testing"
	"time"
)

func TestGenerateCard(t *testing.T) {
	data, err := GenerateCard(CardData{
		Temperature: 21.4,
		FeelsLike:   23.0,
		Condition:   "Partly Cloudy",
		Location:    "40.71, -74.01",
	})
	if err != nil {
		t.Fatalf("GenerateCard: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != CardWidth || bounds.Dy() != CardHeight {
		t.Errorf("bounds = %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), CardWidth, CardHeight)
	}
}

func TestComposeCard(t *testing.T) {
	// Use a rendered card as the source banner; any PNG will do.
	banner, err := GenerateCard(CardData{Temperature: 10})
	if err != nil {
		t.Fatalf("GenerateCard: %v", err)
	}

	data, err := ComposeCard(banner, CardData{
		Temperature: -2.0,
		Condition:   "Freezing",
		Location:    "60.17, 24.94",
	})
	if err != nil {
		t.Fatalf("ComposeCard: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if img.Bounds().Dx() != CardWidth || img.Bounds().Dy() != CardHeight {
		t.Errorf("bounds = %v, want card dimensions", img.Bounds())
	}
}

func TestComposeCard_BadInput(t *testing.T) {
	if _, err := ComposeCard([]byte("not an image"), CardData{}); err == nil {
		t.Fatal("expected error for undecodable banner")
	}
}

func TestCardCache(t *testing.T) {
	c := NewCardCache(50 * time.Millisecond)

	if _, ok := c.Get(); ok {
		t.Fatal("empty cache reported a hit")
	}

	c.Set([]byte("png"))
	data, ok := c.Get()
	if !ok || string(data) != "png" {
		t.Fatalf("Get = %q, %v, want cached bytes", data, ok)
	}

	time.Sleep(80 * time.Millisecond)
	if _, ok := c.Get(); ok {
		t.Error("stale entry served after TTL")
	}
}

func TestBuildPrompt(t *testing.T) {
	known := BuildPrompt("Rainy")
	unknown := BuildPrompt("Sharknado")
	if known == unknown {
		t.Error("known condition should get a specific scene")
	}
	if unknown == "" {
		t.Error("unknown condition should still produce a prompt")
	}
}
