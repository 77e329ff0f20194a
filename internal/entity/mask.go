package entity

import "image"

// Mask is a single-channel segmentation mask in row-major order. Values are
// in [0, 1]; a pixel belongs to the foreground when its value exceeds 0.5.
type Mask struct {
	Width  int
	Height int
	Values []float32
}

func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Values: make([]float32, width*height),
	}
}

// MaskFromAlpha reads a greyscale or alpha image as a mask.
func MaskFromAlpha(img image.Image) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			r, _, _, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			m.Values[y*m.Width+x] = float32(r) / 0xffff
		}
	}
	return m
}

func (m *Mask) Set(x, y int, v float32) {
	m.Values[y*m.Width+x] = v
}

func (m *Mask) Foreground(x, y int) bool {
	return m.Values[y*m.Width+x] > 0.5
}

// Area is the number of foreground pixels.
func (m *Mask) Area() int {
	n := 0
	for _, v := range m.Values {
		if v > 0.5 {
			n++
		}
	}
	return n
}

// Extent is the smallest rectangle holding every foreground pixel, or the
// empty rectangle when there are none.
func (m *Mask) Extent() image.Rectangle {
	minX, minY := m.Width, m.Height
	maxX, maxY := -1, -1

	for y := 0; y < m.Height; y++ {
		row := y * m.Width
		for x := 0; x < m.Width; x++ {
			if m.Values[row+x] <= 0.5 {
				continue
			}
			minX = min(minX, x)
			minY = min(minY, y)
			maxX = max(maxX, x)
			maxY = max(maxY, y)
		}
	}

	if maxX < 0 {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}
