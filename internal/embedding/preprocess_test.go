package embedding

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestImageToTensor_Normalization(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, clipImageSize, clipImageSize))
	for y := 0; y < clipImageSize; y++ {
		for x := 0; x < clipImageSize; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 0, B: 0, A: 255})
		}
	}
	out := imageToTensor(img)
	if len(out) != 3*clipImageSize*clipImageSize {
		t.Fatalf("tensor length %d", len(out))
	}
	plane := clipImageSize * clipImageSize
	wantR := (1.0 - float64(clipMean[0])) / float64(clipStd[0])
	wantG := (0.0 - float64(clipMean[1])) / float64(clipStd[1])
	if math.Abs(float64(out[0])-wantR) > 1e-5 {
		t.Errorf("red channel = %v, want %v", out[0], wantR)
	}
	if math.Abs(float64(out[plane])-wantG) > 1e-5 {
		t.Errorf("green channel = %v, want %v", out[plane], wantG)
	}
}

func TestLoadImageTensor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gray.png")
	img := image.NewNRGBA(image.Rect(0, 0, 50, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 50; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	out, err := loadImageTensor(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3*clipImageSize*clipImageSize {
		t.Fatalf("tensor length %d", len(out))
	}
}

func TestLoadImageTensor_MissingFile(t *testing.T) {
	if _, err := loadImageTensor("/nonexistent/image.jpg"); err == nil {
		t.Error("expected error for missing file")
	}
}
