package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// maxImageSide bounds the pixel size of re-encoded images so a phone photo
// does not inflate the document.
const maxImageSide = 2000

// preparedImage is an image in a form the PDF writer can embed.
type preparedImage struct {
	data   []byte
	kind   string // gofpdf image type: "JPG" or "PNG"
	width  int
	height int
}

// prepareImage passes JPEG through untouched and re-encodes everything else
// (PNG, GIF, WebP) as an opaque 8-bit PNG.
func prepareImage(data []byte) (*preparedImage, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil && format == "jpeg" {
		return &preparedImage{data: data, kind: "JPG", width: cfg.Width, height: cfg.Height}, nil
	}

	img, err := decodeImage(data)
	if err != nil {
		return nil, err
	}
	flat := flatten(img)

	var buf bytes.Buffer
	if err := png.Encode(&buf, flat); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	b := flat.Bounds()
	return &preparedImage{data: buf.Bytes(), kind: "PNG", width: b.Dx(), height: b.Dy()}, nil
}

func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		return img, nil
	}
	if decoded, webpErr := webp.Decode(bytes.NewReader(data)); webpErr == nil {
		return decoded, nil
	}
	return nil, fmt.Errorf("failed to decode image: %w", err)
}

// flatten draws img onto a white canvas, downscaling it when either side
// exceeds maxImageSide.
func flatten(img image.Image) *image.RGBA {
	src := img.Bounds()
	w, h := src.Dx(), src.Dy()
	if w > maxImageSide || h > maxImageSide {
		if w >= h {
			h = max(1, h*maxImageSide/w)
			w = maxImageSide
		} else {
			w = max(1, w*maxImageSide/h)
			h = maxImageSide
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == src.Dx() && h == src.Dy() {
		draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Over, nil)
	}
	return dst
}

// fitRect scales a w×h image to fit inside the box at (x, y) of size
// boxW×boxH, keeping its aspect ratio, and centers it on both axes.
func fitRect(w, h int, x, y, boxW, boxH float64) (fx, fy, fw, fh float64) {
	if w <= 0 || h <= 0 {
		return x, y, 0, 0
	}
	scale := min(boxW/float64(w), boxH/float64(h))
	fw = float64(w) * scale
	fh = float64(h) * scale
	return x + (boxW-fw)/2, y + (boxH-fh)/2, fw, fh
}
