package embedding

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// clipImageSize is the input resolution of the CLIP vision encoder.
const clipImageSize = 224

// CLIP pixel normalization constants (per channel, RGB).
var (
	clipMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	clipStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// loadImageTensor decodes the image at path, scales and center-crops it to
// clipImageSize, and returns normalized pixel values in CHW layout as
// expected by the vision encoder.
func loadImageTensor(path string) ([]float32, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return imageToTensor(imaging.Fill(img, clipImageSize, clipImageSize, imaging.Center, imaging.Lanczos)), nil
}

// imageToTensor converts an RGBA image of clipImageSize edge length into a
// normalized float tensor, channels first.
func imageToTensor(img *image.NRGBA) []float32 {
	out := make([]float32, 3*clipImageSize*clipImageSize)
	plane := clipImageSize * clipImageSize
	for y := 0; y < clipImageSize; y++ {
		for x := 0; x < clipImageSize; x++ {
			off := img.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				v := float32(img.Pix[off+c]) / 255.0
				out[c*plane+y*clipImageSize+x] = (v - clipMean[c]) / clipStd[c]
			}
		}
	}
	return out
}
