// Package backend provides render sinks: an ebiten atlas drawer for
// interactive display, a software rasterizer for headless use, and frame
// exporters built on top of the software path.
package backend

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/colorm"
	"github.com/milk9111/animview/anm"
	"github.com/milk9111/animview/render"
)

// Atlas is a render.Sink drawing textured shape regions onto an ebiten
// image. It owns a per-session geometry cache keyed by shape id; the cache
// is tied to the current atlas texture and dropped wholesale when the
// texture changes, since atlas layout is texture-specific.
type Atlas struct {
	texture *ebiten.Image
	target  *ebiten.Image
	sprites map[int16]*atlasSprite
}

// NewAtlas creates an empty backend. SetTexture must be called before
// rendering.
func NewAtlas() *Atlas {
	return &Atlas{sprites: map[int16]*atlasSprite{}}
}

// SetTexture installs the atlas texture and invalidates the shape cache.
func (a *Atlas) SetTexture(img image.Image) {
	a.texture = ebiten.NewImageFromImage(img)
	a.sprites = map[int16]*atlasSprite{}
}

// SetTarget sets the destination image for subsequent Render calls.
func (a *Atlas) SetTarget(dst *ebiten.Image) {
	a.target = dst
}

// Render draws one shape under the composed transform.
func (a *Atlas) Render(shape *anm.Shape, transform render.SpriteTransform) {
	if a.texture == nil || a.target == nil {
		return
	}
	sprite, ok := a.sprites[shape.ID]
	if !ok {
		sprite = newAtlasSprite(a.texture, shape)
		a.sprites[shape.ID] = sprite
	}
	if sprite == nil {
		return
	}

	op := &colorm.DrawImageOptions{Filter: ebiten.FilterLinear}
	op.GeoM = sprite.local
	op.GeoM.Concat(geoM(transform.Position))

	mul, add := render.ResolveColor(transform.Color)
	var cm colorm.ColorM
	cm.Scale(float64(mul.R), float64(mul.G), float64(mul.B), float64(mul.A))
	cm.Translate(float64(add.R), float64(add.G), float64(add.B), float64(add.A))

	colorm.DrawImage(a.target, sprite.region, cm, op)
}

// atlasSprite caches the atlas sub-image for a shape along with the
// transform placing it at the shape's on-screen footprint.
type atlasSprite struct {
	region *ebiten.Image
	local  ebiten.GeoM
}

func newAtlasSprite(texture *ebiten.Image, shape *anm.Shape) *atlasSprite {
	bounds := texture.Bounds()
	rect := regionRect(shape, bounds.Dx(), bounds.Dy())
	if rect.Empty() {
		return nil
	}
	region := texture.SubImage(rect.Add(bounds.Min)).(*ebiten.Image)

	// The scene is y-down; the atlas stores regions upside down relative to
	// it, so the region is flipped within the shape footprint.
	var local ebiten.GeoM
	local.Scale(
		float64(shape.Width)/float64(rect.Dx()),
		-float64(shape.Height)/float64(rect.Dy()),
	)
	local.Translate(float64(shape.OffsetX), float64(shape.OffsetY)+float64(shape.Height))
	return &atlasSprite{region: region, local: local}
}

// regionRect converts a shape's normalized UV rectangle to atlas pixels.
func regionRect(shape *anm.Shape, w, h int) image.Rectangle {
	return image.Rect(
		int(shape.Left*float32(w)+0.5),
		int(shape.Top*float32(h)+0.5),
		int(shape.Right*float32(w)+0.5),
		int(shape.Bottom*float32(h)+0.5),
	)
}

// geoM converts an Affine to an ebiten matrix.
func geoM(t render.Affine) ebiten.GeoM {
	var m ebiten.GeoM
	m.SetElement(0, 0, t.A)
	m.SetElement(0, 1, t.B)
	m.SetElement(0, 2, t.TX)
	m.SetElement(1, 0, t.C)
	m.SetElement(1, 1, t.D)
	m.SetElement(1, 2, t.TY)
	return m
}
