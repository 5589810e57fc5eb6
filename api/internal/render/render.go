// Package render draws the spotlight and thumbnail crops for clients that
// cannot do it themselves (chat apps get a finished JPEG).
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"math"

	"menu-lens/api/internal/detail"
	"menu-lens/api/internal/present"
)

const maxPixels = 12_000_000

// dim is the veil drawn outside the spotlight.
var dim = color.NRGBA{A: 170}

func Decode(b []byte) (image.Image, error) {
	if len(b) >= 2 && b[0] == 0xFF && b[1] == 0xD8 {
		return jpeg.Decode(bytes.NewReader(b))
	}
	if len(b) >= 8 &&
		b[0] == 0x89 && b[1] == 0x50 && b[2] == 0x4E && b[3] == 0x47 &&
		b[4] == 0x0D && b[5] == 0x0A && b[6] == 0x1A && b[7] == 0x0A {
		return png.Decode(bytes.NewReader(b))
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	return img, err
}

func encode(img image.Image) ([]byte, error) {
	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Spotlight dims everything outside s. A nil spotlight returns the photo
// re-encoded (and downscaled if huge).
func Spotlight(photo []byte, s *detail.Spotlight) ([]byte, error) {
	src, err := Decode(photo)
	if err != nil {
		return nil, fmt.Errorf("render: decode: %w", err)
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)

	if s != nil {
		hole := percentRect(dst.Bounds(), s.Left, s.Top, s.Width, s.Height)
		veil := &image.Uniform{C: dim}
		for _, r := range outside(dst.Bounds(), hole) {
			draw.Draw(dst, r, veil, image.Point{}, draw.Over)
		}
	}
	return encode(limit(dst))
}

// Thumbnail crops a cover-fit w×h frame around the thumbnail's focal point.
func Thumbnail(photo []byte, t present.Thumbnail, w, h int) ([]byte, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("render: bad thumbnail size %dx%d", w, h)
	}
	src, err := Decode(photo)
	if err != nil {
		return nil, fmt.Errorf("render: decode: %w", err)
	}
	crop := coverCrop(src.Bounds(), t, float64(w)/float64(h))
	return encode(scaleNN(src, crop, w, h))
}

// coverCrop picks the largest region with the target aspect, shrinks it by
// the zoom and centres it on the focal point without leaving the image.
func coverCrop(b image.Rectangle, t present.Thumbnail, aspect float64) image.Rectangle {
	W, H := float64(b.Dx()), float64(b.Dy())
	cw, ch := W, W/aspect
	if ch > H {
		ch, cw = H, H*aspect
	}
	zoom := t.Zoom
	if zoom < 1 {
		zoom = 1
	}
	cw, ch = cw/zoom, ch/zoom

	cx, cy := W*t.FocalX/100, H*t.FocalY/100
	x0 := int(math.Round(clamp(cx-cw/2, 0, W-cw)))
	y0 := int(math.Round(clamp(cy-ch/2, 0, H-ch)))
	iw, ih := int(math.Round(cw)), int(math.Round(ch))
	return image.Rect(b.Min.X+x0, b.Min.Y+y0, b.Min.X+x0+iw, b.Min.Y+y0+ih).Intersect(b)
}

func percentRect(b image.Rectangle, left, top, width, height float64) image.Rectangle {
	W, H := float64(b.Dx()), float64(b.Dy())
	r := image.Rect(
		b.Min.X+int(math.Round(W*left/100)), b.Min.Y+int(math.Round(H*top/100)),
		b.Min.X+int(math.Round(W*(left+width)/100)), b.Min.Y+int(math.Round(H*(top+height)/100)),
	)
	return r.Intersect(b)
}

// outside splits b minus hole into up to four bands.
func outside(b, hole image.Rectangle) []image.Rectangle {
	if hole.Empty() {
		return []image.Rectangle{b}
	}
	rs := []image.Rectangle{
		image.Rect(b.Min.X, b.Min.Y, b.Max.X, hole.Min.Y),       // top
		image.Rect(b.Min.X, hole.Max.Y, b.Max.X, b.Max.Y),       // bottom
		image.Rect(b.Min.X, hole.Min.Y, hole.Min.X, hole.Max.Y), // left
		image.Rect(hole.Max.X, hole.Min.Y, b.Max.X, hole.Max.Y), // right
	}
	out := rs[:0]
	for _, r := range rs {
		if !r.Empty() {
			out = append(out, r)
		}
	}
	return out
}

func limit(img *image.RGBA) image.Image {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w*h <= maxPixels {
		return img
	}
	scale := math.Sqrt(float64(maxPixels) / float64(w*h))
	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))
	return scaleNN(img, img.Bounds(), nw, nh)
}

// scaleNN samples region r of src into a newW×newH image (nearest neighbour).
func scaleNN(src image.Image, r image.Rectangle, newW, newH int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	srcW, srcH := r.Dx(), r.Dy()
	if srcW == 0 || srcH == 0 {
		return dst
	}
	for y := 0; y < newH; y++ {
		sy := r.Min.Y + (y*srcH)/newH
		for x := 0; x < newW; x++ {
			sx := r.Min.X + (x*srcW)/newW
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
