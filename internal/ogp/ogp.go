// Package ogp renders the 1200x630 share card of a reading.
package ogp

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"tsundoku/internal/config"
)

const (
	Width  = 1200
	Height = 630

	textLeft  = 80
	titleTop  = 150
	authorTop = 230
	statusTop = 290
	reasonTop = 350

	titleSize = 48
	infoSize  = 28

	titleMaxRunes  = 40
	authorMaxRunes = 20
	reasonMaxRunes = 80

	jpegQuality = 90
)

var (
	textColor       = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
	plainBackground = color.RGBA{R: 0xfa, G: 0xf7, B: 0xf0, A: 0xff}
)

// Card is the text printed on a share image.
type Card struct {
	Title  string
	Author string
	Status string
	Reason string
}

// Renderer draws cards. It is safe for concurrent use.
type Renderer struct {
	background *image.RGBA
	font       *opentype.Font
	fallback   []byte
	log        logrus.FieldLogger
}

// NewRenderer loads the configured background, font and fallback image. Unset
// paths fall back to a plain background, the Go regular font and the bare
// background respectively.
func NewRenderer(cfg config.OGPConfig, log logrus.FieldLogger) (*Renderer, error) {
	r := &Renderer{log: log.WithField("component", "ogp")}

	bg, err := loadBackground(cfg.BackgroundPath)
	if err != nil {
		return nil, err
	}
	r.background = bg

	fontData := goregular.TTF
	if cfg.FontPath != "" {
		if fontData, err = os.ReadFile(cfg.FontPath); err != nil {
			return nil, fmt.Errorf("read ogp font: %w", err)
		}
	}
	if r.font, err = opentype.Parse(fontData); err != nil {
		return nil, fmt.Errorf("parse ogp font: %w", err)
	}

	if cfg.FallbackPath != "" {
		if r.fallback, err = os.ReadFile(cfg.FallbackPath); err != nil {
			return nil, fmt.Errorf("read ogp fallback: %w", err)
		}
	} else {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, r.background, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("encode ogp fallback: %w", err)
		}
		r.fallback = buf.Bytes()
	}
	return r, nil
}

func loadBackground(path string) (*image.RGBA, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, Width, Height))
	if path == "" {
		xdraw.Draw(canvas, canvas.Bounds(), image.NewUniform(plainBackground), image.Point{}, xdraw.Src)
		return canvas, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ogp background: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode ogp background: %w", err)
	}
	xdraw.CatmullRom.Scale(canvas, canvas.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return canvas, nil
}

// Render writes the card as a JPEG.
func (r *Renderer) Render(w io.Writer, c Card) error {
	img := image.NewRGBA(r.background.Bounds())
	copy(img.Pix, r.background.Pix)

	titleFace, err := r.face(titleSize)
	if err != nil {
		return err
	}
	defer titleFace.Close()
	infoFace, err := r.face(infoSize)
	if err != nil {
		return err
	}
	defer infoFace.Close()

	drawText(img, titleFace, titleTop, Truncate(c.Title, titleMaxRunes))
	if c.Author != "" {
		drawText(img, infoFace, authorTop, "著: "+Truncate(c.Author, authorMaxRunes))
	}
	drawText(img, infoFace, statusTop, "ステータス: "+c.Status)
	if c.Reason != "" {
		drawText(img, infoFace, reasonTop, "理由: "+Truncate(c.Reason, reasonMaxRunes))
	}

	return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
}

// Fallback returns the static image served when a card cannot be rendered.
func (r *Renderer) Fallback() []byte {
	return r.fallback
}

func (r *Renderer) face(size float64) (font.Face, error) {
	f, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("ogp font face: %w", err)
	}
	return f, nil
}

// drawText places s with its top edge at top.
func drawText(dst *image.RGBA, face font.Face, top int, s string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(textColor),
		Face: face,
		Dot:  fixed.P(textLeft, top).Add(fixed.Point26_6{Y: face.Metrics().Ascent}),
	}
	d.DrawString(s)
}

// Truncate keeps the first n runes of s and appends "..." when s is longer.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
