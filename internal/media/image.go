package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder

	_ "golang.org/x/image/webp" // Register WebP decoder
)

// MaxImagePixels bounds decoded dimensions so a tiny file cannot expand into
// gigabytes of pixels.
const MaxImagePixels = 50_000_000

// ErrNotImage is returned for data that does not decode as a supported image.
var ErrNotImage = errors.New("media: not a decodable image")

// Image describes an uploaded image that decoded cleanly.
type Image struct {
	Format   string // gif, jpeg, png or webp
	Width    int
	Height   int
	BlurHash string
}

// Extension is the file extension conventionally used for the format.
func (i *Image) Extension() string {
	if i.Format == "jpeg" {
		return "jpg"
	}
	return i.Format
}

// ContentType is the MIME type of the format.
func (i *Image) ContentType() string {
	return "image/" + i.Format
}

// Inspect fully decodes data and computes its blur hash. Anything that is not
// a complete gif, jpeg, png or webp yields ErrNotImage.
func Inspect(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrNotImage
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > MaxImagePixels {
		return nil, fmt.Errorf("%w: unsupported dimensions %dx%d", ErrNotImage, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	hash, err := ComputeBlurHash(img)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	return &Image{Format: format, Width: b.Dx(), Height: b.Dy(), BlurHash: hash}, nil
}
