// Package thumbnail shrinks uploaded images into bounded JPEG thumbnails.
package thumbnail

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// MaxDimension bounds both width and height of the output.
	MaxDimension = 400
	// MaxBytes is the size the quality ladder tries to get under.
	MaxBytes = 150 * 1024
	// StartQuality is the first JPEG quality tried.
	StartQuality = 75
	// QualityStep is subtracted while the output is above MaxBytes.
	QualityStep = 10
	// MinQuality is the lowest quality used.
	MinQuality = 20
	// MaxSourcePixels bounds width*height of an input that gets decoded.
	MaxSourcePixels = 5000 * 5000
)

// Compressor turns raw image bytes into thumbnail bytes.
type Compressor func(data []byte) []byte

// Compress decodes data, fits it into MaxDimension x MaxDimension and
// re-encodes it as JPEG, lowering quality until the result is at most MaxBytes
// or MinQuality is reached. Undecodable input and input declaring more than
// MaxSourcePixels pixels are returned unchanged, so the output is neither
// guaranteed to be smaller nor to be a JPEG.
func Compress(data []byte) []byte {
	if len(data) == 0 {
		return data
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return data
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxSourcePixels {
		return data
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}

	img = fit(img, MaxDimension)

	quality := StartQuality
	out, err := encode(img, quality)
	if err != nil {
		return data
	}
	for len(out) > MaxBytes && quality > MinQuality {
		quality -= QualityStep
		if quality < MinQuality {
			quality = MinQuality
		}
		if out, err = encode(img, quality); err != nil {
			return data
		}
	}
	return out
}

func encode(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fit scales img down so neither side exceeds maxDim, keeping the aspect
// ratio, and flattens it onto an opaque white canvas.
func fit(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	newW, newH := w, h
	if w > maxDim || h > maxDim {
		if w > h {
			newW = maxDim
			newH = int(float64(h) * float64(maxDim) / float64(w))
		} else {
			newH = maxDim
			newW = int(float64(w) * float64(maxDim) / float64(h))
		}
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
