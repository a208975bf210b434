package testsupport

import (
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path string, content []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// RGBPixel returns the deterministic pattern value used by WritePNG.
func RGBPixel(x, y int) color.NRGBA {
	return color.NRGBA{R: uint8(x * 16), G: uint8(y * 16), B: uint8((x + y) * 8), A: 0xff}
}

// WritePNG writes a width x height RGB PNG filled with RGBPixel.
func WritePNG(t testing.TB, path string, width, height int) {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, RGBPixel(x, y))
		}
	}
	writePNG(t, path, img)
}

// WriteGrayPNG writes a single-channel PNG whose pixel value is x+y*width.
func WriteGrayPNG(t testing.TB, path string, width, height int) {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x + y*width)})
		}
	}
	writePNG(t, path, img)
}

// GIFPalette is the three-color palette used by WriteGIF.
var GIFPalette = color.Palette{
	color.RGBA{R: 10, G: 20, B: 30, A: 0xff},
	color.RGBA{R: 200, G: 100, B: 50, A: 0xff},
	color.RGBA{R: 0, G: 255, B: 128, A: 0xff},
}

// WriteGIF writes a paletted GIF cycling through GIFPalette.
func WriteGIF(t testing.TB, path string, width, height int) {
	t.Helper()

	img := image.NewPaletted(image.Rect(0, 0, width, height), GIFPalette)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetColorIndex(x, y, uint8((x+y)%len(GIFPalette)))
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := gif.Encode(f, img, nil); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func writePNG(t testing.TB, path string, img image.Image) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}
