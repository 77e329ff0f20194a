package entity

import (
	"fmt"
	"image"
)

// ComposeCutout keeps the colour channels of src and replaces its alpha with
// the binarised mask.
func ComposeCutout(src *image.NRGBA, mask *Mask) (*image.NRGBA, error) {
	b := src.Bounds()
	if mask == nil {
		return nil, fmt.Errorf("compose cutout: mask is nil")
	}
	if b.Dx() != mask.Width || b.Dy() != mask.Height {
		return nil, fmt.Errorf("compose cutout: mask is %dx%d, image is %dx%d",
			mask.Width, mask.Height, b.Dx(), b.Dy())
	}

	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		off := src.PixOffset(b.Min.X, b.Min.Y+y)
		srcRow := src.Pix[off : off+b.Dx()*4]
		dstRow := dst.Pix[y*dst.Stride : y*dst.Stride+b.Dx()*4]
		copy(dstRow, srcRow)

		for x := 0; x < b.Dx(); x++ {
			if mask.Foreground(x, y) {
				dstRow[x*4+3] = 0xff
			} else {
				dstRow[x*4+3] = 0
			}
		}
	}

	return dst, nil
}
