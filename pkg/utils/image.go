package utils

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// DecodeImage decodes PNG or JPEG bytes into a non-premultiplied RGBA buffer
// so that colour values survive untouched next to any alpha channel.
func DecodeImage(data []byte) (*image.NRGBA, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	return ToNRGBA(img), format, nil
}

// ToNRGBA returns img as an NRGBA anchored at the origin. Colour stays intact
// under fully transparent pixels for the non-premultiplied source types.
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	if nrgba, ok := img.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return nrgba
	}

	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < b.Dy(); y++ {
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+b.Dx()*4], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
		}
	case *image.NRGBA64:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				c := src.NRGBA64At(b.Min.X+x, b.Min.Y+y)
				dst.SetNRGBA(x, y, color.NRGBA{
					R: uint8(c.R >> 8),
					G: uint8(c.G >> 8),
					B: uint8(c.B >> 8),
					A: uint8(c.A >> 8),
				})
			}
		}
	case *image.Paletted:
		palette := make([]color.NRGBA, len(src.Palette))
		for i, c := range src.Palette {
			palette[i] = color.NRGBAModel.Convert(c).(color.NRGBA)
		}
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				idx := int(src.ColorIndexAt(b.Min.X+x, b.Min.Y+y))
				if idx < len(palette) {
					dst.SetNRGBA(x, y, palette[idx])
				}
			}
		}
	case *image.RGBA, *image.RGBA64, *image.YCbCr, *image.Gray, *image.Gray16, *image.CMYK:
		// premultiplied or opaque, nothing to lose
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	default:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				dst.SetNRGBA(x, y, color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA))
			}
		}
	}

	return dst
}

// OpaqueRGB returns a copy of img with every alpha value forced to 255. This
// is the RGB view handed to the segmentation model.
func OpaqueRGB(img *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(img.Bounds())
	copy(dst.Pix, img.Pix)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
