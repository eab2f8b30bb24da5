package imagegen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// CardWidth and CardHeight are the standard Open Graph image dimensions.
const (
	CardWidth  = 1200
	CardHeight = 630
)

// CardData contains the dynamic data for the share card.
type CardData struct {
	Temperature float64
	FeelsLike   float64
	Condition   string
	Location    string
}

// CardCache caches the generated share card for a short period.
type CardCache struct {
	mu        sync.RWMutex
	data      []byte
	expiresAt time.Time
	cacheTTL  time.Duration
}

func NewCardCache(ttl time.Duration) *CardCache {
	return &CardCache{cacheTTL: ttl}
}

func (c *CardCache) Get() ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.data == nil || time.Now().After(c.expiresAt) {
		return nil, false
	}
	return c.data, true
}

func (c *CardCache) Set(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = data
	c.expiresAt = time.Now().Add(c.cacheTTL)
}

// GenerateCard renders a standalone share card: gradient background with the
// current conditions overlaid.
func GenerateCard(data CardData) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, CardWidth, CardHeight))

	// Dark blue vertical gradient background.
	for y := 0; y < CardHeight; y++ {
		progress := float64(y) / float64(CardHeight)
		r := uint8(20 + progress*10)
		g := uint8(20 + progress*15)
		b := uint8(40 + progress*20)
		for x := 0; x < CardWidth; x++ {
			img.SetRGBA(x, y, color.RGBA{r, g, b, 255})
		}
	}

	drawCardText(img, data)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode card: %w", err)
	}
	return buf.Bytes(), nil
}

// ComposeCard overlays the card text on a generated weather banner, center
// cropped to card dimensions.
func ComposeCard(weatherImage []byte, data CardData) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(weatherImage))
	if err != nil {
		return nil, fmt.Errorf("decode weather image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, CardWidth, CardHeight))

	srcBounds := src.Bounds()
	srcW, srcH := srcBounds.Dx(), srcBounds.Dy()

	scaleX := float64(CardWidth) / float64(srcW)
	scaleY := float64(CardHeight) / float64(srcH)
	scale := scaleX
	if scaleY > scaleX {
		scale = scaleY
	}

	scaledW := int(float64(srcW) * scale)
	scaledH := int(float64(srcH) * scale)
	offsetX := (scaledW - CardWidth) / 2
	offsetY := (scaledH - CardHeight) / 2

	// Nearest-neighbor resize and center crop.
	for y := 0; y < CardHeight; y++ {
		for x := 0; x < CardWidth; x++ {
			srcX := int(float64(x+offsetX) / scale)
			srcY := int(float64(y+offsetY) / scale)
			if srcX >= 0 && srcX < srcW && srcY >= 0 && srcY < srcH {
				dst.Set(x, y, src.At(srcBounds.Min.X+srcX, srcBounds.Min.Y+srcY))
			}
		}
	}

	drawGradientOverlay(dst)
	drawCardText(dst, data)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode card: %w", err)
	}
	return buf.Bytes(), nil
}

// drawGradientOverlay darkens the bottom of the image for text readability.
func drawGradientOverlay(img *image.RGBA) {
	bounds := img.Bounds()
	gradientHeight := 300

	for y := bounds.Max.Y - gradientHeight; y < bounds.Max.Y; y++ {
		progress := float64(y-(bounds.Max.Y-gradientHeight)) / float64(gradientHeight)
		progress = progress * progress
		alpha := progress * 0.85

		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			orig := img.RGBAAt(x, y)
			orig.R = uint8(float64(orig.R) * (1 - alpha))
			orig.G = uint8(float64(orig.G) * (1 - alpha))
			orig.B = uint8(float64(orig.B) * (1 - alpha))
			img.SetRGBA(x, y, orig)
		}
	}
}

func drawCardText(img *image.RGBA, data CardData) {
	white := color.RGBA{255, 255, 255, 255}
	lightGray := color.RGBA{200, 200, 200, 255}

	tempStr := fmt.Sprintf("%.0f C", data.Temperature)
	drawTextScaled(img, tempStr, 60, CardHeight-260, 10, white)

	if data.Condition != "" {
		label := data.Condition
		if data.FeelsLike != 0 && data.FeelsLike != data.Temperature {
			label = fmt.Sprintf("%s - feels like %.0f", data.Condition, data.FeelsLike)
		}
		drawTextScaled(img, label, 60, CardHeight-110, 4, lightGray)
	}

	if data.Location != "" {
		drawTextScaled(img, data.Location, 60, CardHeight-50, 3, lightGray)
	}
}

// drawTextScaled renders text with the basicfont face and scales it up with
// nearest-neighbor blitting, since the face only comes in one small size.
func drawTextScaled(dst *image.RGBA, text string, x, y, scale int, col color.Color) {
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil()
	h := face.Metrics().Height.Ceil()
	if w == 0 || h == 0 {
		return
	}

	tmp := image.NewRGBA(image.Rect(0, 0, w, h))
	d := &font.Drawer{
		Dst:  tmp,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: 0, Y: face.Metrics().Ascent},
	}
	d.DrawString(text)

	for ty := 0; ty < h; ty++ {
		for tx := 0; tx < w; tx++ {
			c := tmp.RGBAAt(tx, ty)
			if c.A == 0 {
				continue
			}
			for sy := 0; sy < scale; sy++ {
				for sx := 0; sx < scale; sx++ {
					dst.SetRGBA(x+tx*scale+sx, y+ty*scale+sy, c)
				}
			}
		}
	}
}
