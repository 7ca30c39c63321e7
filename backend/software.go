package backend

import (
	"image"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/milk9111/animview/anm"
	"github.com/milk9111/animview/render"
)

// Software is a render.Sink rasterizing shapes on the CPU into an RGBA
// image. It needs no display or GPU, which makes it the backend for batch
// export and for tests. Like Atlas it caches per-shape source regions keyed
// by shape id, invalidated when the atlas changes.
type Software struct {
	atlas   *image.NRGBA
	target  *image.RGBA
	regions map[int16]*image.NRGBA
}

// NewSoftware creates an empty software backend.
func NewSoftware() *Software {
	return &Software{regions: map[int16]*image.NRGBA{}}
}

// SetTexture installs the atlas image and invalidates the region cache.
func (s *Software) SetTexture(img image.Image) {
	nrgba := image.NewNRGBA(img.Bounds())
	xdraw.Draw(nrgba, nrgba.Bounds(), img, img.Bounds().Min, xdraw.Src)
	s.atlas = nrgba
	s.regions = map[int16]*image.NRGBA{}
}

// SetTarget sets the destination image for subsequent Render calls.
func (s *Software) SetTarget(dst *image.RGBA) {
	s.target = dst
}

// Render draws one shape under the composed transform.
func (s *Software) Render(shape *anm.Shape, transform render.SpriteTransform) {
	if s.atlas == nil || s.target == nil {
		return
	}
	region, ok := s.regions[shape.ID]
	if !ok {
		region = s.cut(shape)
		s.regions[shape.ID] = region
	}
	if region == nil {
		return
	}

	src := image.Image(region)
	mul, add := render.ResolveColor(transform.Color)
	if !isIdentityColor(mul, add) {
		src = tint(region, mul, add)
	}

	// Map atlas region pixels to the shape footprint, then through the
	// composed transform. The scene is y-down and the region is flipped
	// within the footprint.
	rb := region.Bounds()
	local := render.Translation(-float64(rb.Min.X), -float64(rb.Min.Y)).
		Then(render.Scaling(
			float64(shape.Width)/float64(rb.Dx()),
			-float64(shape.Height)/float64(rb.Dy()),
		)).
		Then(render.Translation(float64(shape.OffsetX), float64(shape.OffsetY)+float64(shape.Height))).
		Then(transform.Position)

	m := f64.Aff3{local.A, local.B, local.TX, local.C, local.D, local.TY}
	xdraw.BiLinear.Transform(s.target, m, src, rb, xdraw.Over, nil)
}

// cut extracts the shape's atlas region as a standalone image.
func (s *Software) cut(shape *anm.Shape) *image.NRGBA {
	bounds := s.atlas.Bounds()
	rect := regionRect(shape, bounds.Dx(), bounds.Dy()).Add(bounds.Min)
	rect = rect.Intersect(bounds)
	if rect.Empty() {
		return nil
	}
	out := image.NewNRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	xdraw.Draw(out, out.Bounds(), s.atlas, rect.Min, xdraw.Src)
	return out
}

func isIdentityColor(mul, add anm.Color) bool {
	return mul == (anm.Color{R: 1, G: 1, B: 1, A: 1}) && add == (anm.Color{})
}

// tint applies the resolved color multiplier and offset per pixel.
func tint(src *image.NRGBA, mul, add anm.Color) *image.NRGBA {
	out := image.NewNRGBA(src.Bounds())
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := src.PixOffset(x, y)
			out.Pix[i+0] = clampChannel(float32(src.Pix[i+0])*mul.R + add.R*255)
			out.Pix[i+1] = clampChannel(float32(src.Pix[i+1])*mul.G + add.G*255)
			out.Pix[i+2] = clampChannel(float32(src.Pix[i+2])*mul.B + add.B*255)
			out.Pix[i+3] = clampChannel(float32(src.Pix[i+3])*mul.A + add.A*255)
		}
	}
	return out
}

func clampChannel(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
