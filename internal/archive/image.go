package archive

import (
	"fmt"

	"imgvault/internal/imagecodec"
)

// MetadataAttribute is the container attribute carrying the sidecar text.
const MetadataAttribute = "metadata"

// ImageDescriptor summarizes one image stored in a container.
type ImageDescriptor struct {
	Name     string
	Height   int
	Width    int
	Channels int
	// Promoted is set when a single-channel source was expanded to three channels.
	Promoted bool
}

// Shape returns the container shape (height, width, channels).
func (d ImageDescriptor) Shape() []uint64 {
	return []uint64{uint64(d.Height), uint64(d.Width), uint64(d.Channels)}
}

// PromoteToThreeChannels normalizes an image to three interleaved channels.
// A single channel is replicated into R, G and B; two channels gain a zero
// third channel; three channels are returned unchanged. Both packing and
// unpacking go through this function.
func PromoteToThreeChannels(img *imagecodec.Image) (*imagecodec.Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	switch {
	case img.Channels == 3:
		return img, nil
	case img.Channels > 3:
		return nil, fmt.Errorf("%w: %d", imagecodec.ErrUnsupportedChannels, img.Channels)
	}
	pixels := img.Height * img.Width
	out := &imagecodec.Image{
		Height:   img.Height,
		Width:    img.Width,
		Channels: 3,
		Pix:      make([]byte, pixels*3),
	}
	for p := 0; p < pixels; p++ {
		dst := out.Pix[p*3 : p*3+3]
		if img.Channels == 1 {
			v := img.Pix[p]
			dst[0], dst[1], dst[2] = v, v, v
			continue
		}
		copy(dst, img.Pix[p*img.Channels:(p+1)*img.Channels])
	}
	return out, nil
}
