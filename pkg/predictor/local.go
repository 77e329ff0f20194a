package predictor

import (
	"context"
	"image"
	"math"

	"CutoutDemo/internal/entity"
	"CutoutDemo/pkg/utils"

	"github.com/nfnt/resize"
)

const (
	defaultMaxSide   = 1024
	defaultTolerance = 48.0
	// largest distance between two RGB colours
	maxColorDistance = 441.67295593
)

// LocalPredictor grows a region of similar colour from the prompt. It needs no
// weights and stands in for the real model during development and tests.
type LocalPredictor struct {
	maxSide   int
	tolerance float64

	working *image.NRGBA
	scale   float64
	width   int
	height  int
}

type LocalOption func(*LocalPredictor)

func WithTolerance(tolerance float64) LocalOption {
	return func(p *LocalPredictor) {
		p.tolerance = tolerance
	}
}

func WithMaxSide(maxSide int) LocalOption {
	return func(p *LocalPredictor) {
		p.maxSide = maxSide
	}
}

func NewLocalPredictor(opts ...LocalOption) *LocalPredictor {
	p := &LocalPredictor{
		maxSide:   defaultMaxSide,
		tolerance: defaultTolerance,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *LocalPredictor) SetImage(_ context.Context, img *image.NRGBA) error {
	src := utils.ToNRGBA(img)
	p.width = src.Bounds().Dx()
	p.height = src.Bounds().Dy()
	p.scale = 1

	longest := max(p.width, p.height)
	if longest > p.maxSide {
		p.scale = float64(p.maxSide) / float64(longest)
		newW := max(1, int(float64(p.width)*p.scale))
		newH := max(1, int(float64(p.height)*p.scale))
		src = utils.ToNRGBA(resize.Resize(uint(newW), uint(newH), src, resize.Bilinear))
	}

	p.working = src
	return nil
}

func (p *LocalPredictor) Predict(ctx context.Context, opts PredictOptions) (*Prediction, error) {
	if p.working == nil {
		return nil, ErrImageNotSet
	}
	if opts.Box == nil && len(opts.PointCoords) == 0 {
		return nil, ErrEmptyPrompt
	}

	bounds := p.working.Bounds()
	region := bounds
	if opts.Box != nil {
		region = p.toWorkingRect(*opts.Box).Intersect(bounds)
		if region.Empty() {
			return nil, ErrPromptOutOfBounds
		}
	}

	seeds := p.seeds(opts, region)
	if len(seeds) == 0 {
		return nil, ErrPromptOutOfBounds
	}

	tolerances := []float64{p.tolerance}
	if opts.MultimaskOutput {
		tolerances = []float64{p.tolerance / 2, p.tolerance, p.tolerance * 2}
	}

	prediction := &Prediction{}
	for _, tol := range tolerances {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		grown, score := p.grow(region, seeds, tol)
		prediction.Masks = append(prediction.Masks, p.toFullSizeMask(grown))
		prediction.Scores = append(prediction.Scores, score)
	}

	return prediction, nil
}

func (p *LocalPredictor) toWorkingPoint(pt image.Point) image.Point {
	return image.Pt(int(float64(pt.X)*p.scale), int(float64(pt.Y)*p.scale))
}

func (p *LocalPredictor) toWorkingRect(r image.Rectangle) image.Rectangle {
	r = r.Canon()
	return image.Rectangle{
		Min: p.toWorkingPoint(r.Min),
		Max: image.Pt(
			int(math.Ceil(float64(r.Max.X)*p.scale)),
			int(math.Ceil(float64(r.Max.Y)*p.scale)),
		),
	}
}

// seeds maps the positive prompt points into region. A box without points is
// seeded from its centre.
func (p *LocalPredictor) seeds(opts PredictOptions, region image.Rectangle) []image.Point {
	var seeds []image.Point
	for i, pt := range opts.PointCoords {
		if i < len(opts.PointLabels) && opts.PointLabels[i] != entity.PositiveLabel {
			continue
		}
		seeds = append(seeds, clampPoint(p.toWorkingPoint(pt), region))
	}

	if len(seeds) == 0 && opts.Box != nil {
		seeds = append(seeds, image.Pt(
			(region.Min.X+region.Max.X)/2,
			(region.Min.Y+region.Max.Y)/2,
		))
	}
	return seeds
}

// grow flood fills from seeds over 4-connected pixels whose colour stays
// within tol of the mean seed colour.
func (p *LocalPredictor) grow(region image.Rectangle, seeds []image.Point, tol float64) (*image.Gray, float64) {
	img := p.working
	mask := image.NewGray(img.Bounds())

	var ref [3]float64
	for _, s := range seeds {
		off := img.PixOffset(s.X, s.Y)
		for c := 0; c < 3; c++ {
			ref[c] += float64(img.Pix[off+c])
		}
	}
	for c := range ref {
		ref[c] /= float64(len(seeds))
	}

	queue := make([]image.Point, 0, len(seeds))
	for _, s := range seeds {
		if mask.Pix[mask.PixOffset(s.X, s.Y)] == 0 {
			mask.Pix[mask.PixOffset(s.X, s.Y)] = 0xff
			queue = append(queue, s)
		}
	}

	var filled int
	var distSum float64
	neighbours := [4]image.Point{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		filled++
		distSum += colorDistance(img, cur, ref)

		for _, d := range neighbours {
			next := cur.Add(d)
			if !next.In(region) {
				continue
			}
			moff := mask.PixOffset(next.X, next.Y)
			if mask.Pix[moff] != 0 {
				continue
			}
			if colorDistance(img, next, ref) > tol {
				continue
			}
			mask.Pix[moff] = 0xff
			queue = append(queue, next)
		}
	}

	score := 1 - (distSum/float64(filled))/maxColorDistance
	return mask, score
}

func (p *LocalPredictor) toFullSizeMask(working *image.Gray) *entity.Mask {
	if p.scale == 1 {
		return entity.MaskFromAlpha(working)
	}
	scaled := resize.Resize(uint(p.width), uint(p.height), working, resize.NearestNeighbor)
	return entity.MaskFromAlpha(scaled)
}

func colorDistance(img *image.NRGBA, pt image.Point, ref [3]float64) float64 {
	off := img.PixOffset(pt.X, pt.Y)
	dr := float64(img.Pix[off]) - ref[0]
	dg := float64(img.Pix[off+1]) - ref[1]
	db := float64(img.Pix[off+2]) - ref[2]
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

func clampPoint(pt image.Point, r image.Rectangle) image.Point {
	return image.Pt(
		min(max(pt.X, r.Min.X), r.Max.X-1),
		min(max(pt.Y, r.Min.Y), r.Max.Y-1),
	)
}
