package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Generator produces condition banner images using OpenAI's API.
type Generator struct {
	client openai.Client
	model  string
}

// NewGenerator creates a new image generator.
// It reads the OPENAI_API_KEY environment variable for authentication.
func NewGenerator() (*Generator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &Generator{
		client: client,
		model:  "gpt-image-1",
	}, nil
}

// scenePrompts map condition labels to scene descriptions. Conditions not
// listed fall back to a generic sky.
var scenePrompts = map[string]string{
	"Clear":          "a vast clear blue sky over rolling green hills, bright sunshine",
	"Partly Cloudy":  "scattered white cumulus clouds drifting over open countryside",
	"Overcast":       "a flat gray overcast sky pressing low over quiet fields",
	"Rainy":          "heavy rain falling on a countryside road, dark clouds, wet reflections",
	"Hot":            "heat shimmer over dry golden grassland under an intense midday sun",
	"Hot and Dry":    "a parched, cracked landscape under a blazing white sun, no clouds",
	"Hot and Humid":  "hazy tropical air over lush vegetation, towering humid cumulus",
	"Cold":           "frost-covered fields under a pale winter sky at dawn",
	"Cold and Windy": "bare trees bending in a bitter wind under fast-moving gray clouds",
	"Freezing":       "a frozen landscape with ice and snow under a crystalline sky",
	"Windy":          "tall grass and trees whipped sideways by strong gusts, dramatic clouds",
}

// BuildPrompt renders the full image prompt for a condition label.
func BuildPrompt(condition string) string {
	scene, ok := scenePrompts[condition]
	if !ok {
		scene = "a wide open sky over natural landscape"
	}
	return fmt.Sprintf(
		"A photorealistic wide landscape photograph of %s. "+
			"Natural lighting, no people, no text, no watermarks.",
		scene,
	)
}

// Generate creates a banner image for the given condition label.
// Returns the image as PNG bytes.
func (g *Generator) Generate(ctx context.Context, condition string) ([]byte, error) {
	prompt := BuildPrompt(condition)

	log.Printf("generating banner for condition: %s", condition)

	resp, err := g.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Model:        g.model,
		Prompt:       prompt,
		Size:         openai.ImageGenerateParamsSize1536x1024,
		Quality:      openai.ImageGenerateParamsQualityLow,
		OutputFormat: openai.ImageGenerateParamsOutputFormatPNG,
	})
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no image data returned")
	}

	imageData := resp.Data[0].B64JSON
	if imageData == "" {
		return nil, errors.New("empty image data returned")
	}

	imageBytes, err := base64.StdEncoding.DecodeString(imageData)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image data: %w", err)
	}

	log.Printf("generated banner for %s (%d bytes)", condition, len(imageBytes))
	return imageBytes, nil
}
