package vision

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

// maxImageDim caps the longest side of an uploaded photo before it is sent
// to a model. Larger inputs cost tokens without improving geolocation.
const maxImageDim = 2048

// Downscale re-encodes the image as JPEG with its longest side at most
// maxDim pixels. Images already within bounds come back unchanged with
// mimeType passed through; resized ones are always image/jpeg.
func Downscale(imgData []byte, mimeType string, maxDim uint) ([]byte, string, error) {
	img, _, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	imgW := img.Bounds().Dx()
	imgH := img.Bounds().Dy()
	if imgW < 1 || imgH < 1 {
		return nil, "", fmt.Errorf("invalid image dimensions: %dx%d", imgW, imgH)
	}

	if uint(imgW) <= maxDim && uint(imgH) <= maxDim {
		return imgData, mimeType, nil
	}

	var resized image.Image
	if imgW >= imgH {
		resized = resize.Resize(
			maxDim,
			uint(float64(imgH)*(float64(maxDim)/float64(imgW))),
			img,
			resize.Lanczos3,
		)
	} else {
		resized = resize.Resize(
			uint(float64(imgW)*(float64(maxDim)/float64(imgH))),
			maxDim,
			img,
			resize.Lanczos3,
		)
	}

	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, resized, nil); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "image/jpeg", nil
}
