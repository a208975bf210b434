package imagecodec

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedChannels is returned when encoding a buffer that is neither
// single-channel nor three-channel.
var ErrUnsupportedChannels = errors.New("unsupported channel count")

const jpegQuality = 95

// Image is a decoded raster as an interleaved, row-major 8-bit buffer.
// Three-channel images are stored in R, G, B order.
type Image struct {
	Height   int
	Width    int
	Channels int
	Pix      []byte
}

// Validate checks that the buffer length matches the declared dimensions.
func (img *Image) Validate() error {
	if img == nil {
		return errors.New("image is nil")
	}
	if img.Height <= 0 || img.Width <= 0 || img.Channels <= 0 {
		return fmt.Errorf("invalid dimensions %dx%dx%d", img.Height, img.Width, img.Channels)
	}
	if want := img.Height * img.Width * img.Channels; len(img.Pix) != want {
		return fmt.Errorf("pixel buffer has %d bytes, want %d", len(img.Pix), want)
	}
	return nil
}

// Decode reads an image file. Grayscale sources decode to one channel; every
// other color model decodes to three channels with alpha discarded.
func Decode(path string) (*Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, err := DecodeReader(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// DecodeReader decodes any registered format (PNG, JPEG, GIF, BMP, TIFF, WebP).
func DecodeReader(r io.Reader) (*Image, error) {
	src, _, err := image.Decode(bufio.NewReader(r))
	if err != nil {
		return nil, err
	}
	return fromImage(src), nil
}

func fromImage(src image.Image) *Image {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	switch typed := src.(type) {
	case *image.Gray:
		out := &Image{Height: height, Width: width, Channels: 1, Pix: make([]byte, 0, width*height)}
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			start := typed.PixOffset(bounds.Min.X, y)
			out.Pix = append(out.Pix, typed.Pix[start:start+width]...)
		}
		return out
	case *image.Gray16:
		out := &Image{Height: height, Width: width, Channels: 1, Pix: make([]byte, 0, width*height)}
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				out.Pix = append(out.Pix, uint8(typed.Gray16At(x, y).Y>>8))
			}
		}
		return out
	}

	out := &Image{Height: height, Width: width, Channels: 3, Pix: make([]byte, 0, width*height*3)}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			out.Pix = append(out.Pix, c.R, c.G, c.B)
		}
	}
	return out
}

// Encode writes img to path using the format implied by the file extension.
// Extensions without an encoder (for example .webp) are written as PNG.
func Encode(path string, img *Image) error {
	if err := img.Validate(); err != nil {
		return err
	}
	dst, err := toImage(img)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(file)
	if err := encodeAs(w, dst, formatFor(path)); err != nil {
		_ = file.Close()
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := w.Flush(); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func toImage(img *Image) (image.Image, error) {
	rect := image.Rect(0, 0, img.Width, img.Height)
	switch img.Channels {
	case 1:
		gray := image.NewGray(rect)
		copy(gray.Pix, img.Pix)
		return gray, nil
	case 3:
		rgba := image.NewNRGBA(rect)
		for i, j := 0, 0; i < len(img.Pix); i, j = i+3, j+4 {
			rgba.Pix[j] = img.Pix[i]
			rgba.Pix[j+1] = img.Pix[i+1]
			rgba.Pix[j+2] = img.Pix[i+2]
			rgba.Pix[j+3] = 0xff
		}
		return rgba, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedChannels, img.Channels)
	}
}

// Format names an output encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

func formatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".jpe":
		return FormatJPEG
	case ".gif":
		return FormatGIF
	case ".bmp", ".dib":
		return FormatBMP
	case ".tif", ".tiff":
		return FormatTIFF
	default:
		return FormatPNG
	}
}

func encodeAs(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	case FormatGIF:
		paletted, ok := exactPaletted(img)
		if !ok {
			return png.Encode(w, img)
		}
		return gif.Encode(w, paletted, nil)
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return png.Encode(w, img)
	}
}

// exactPaletted converts img to a paletted image holding exactly its colors.
// It reports false when img has more colors than a GIF palette can hold, in
// which case the caller writes PNG rather than quantizing.
func exactPaletted(img image.Image) (*image.Paletted, bool) {
	bounds := img.Bounds()
	seen := make(map[[4]uint32]struct{})
	var palette color.Palette
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.At(x, y)
			r, g, b, a := c.RGBA()
			key := [4]uint32{r, g, b, a}
			if _, ok := seen[key]; ok {
				continue
			}
			if len(palette) == 256 {
				return nil, false
			}
			seen[key] = struct{}{}
			palette = append(palette, c)
		}
	}
	out := image.NewPaletted(bounds, palette)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)
	return out, true
}
