package render

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/animview/anm"
)

// Measure is a Sink that accumulates the union axis-aligned bounding box of
// every shape it receives instead of drawing. The box is in the same
// coordinate space as draw output, so it can size offscreen render targets
// exactly.
type Measure struct {
	box cp.BB
	any bool
}

// Render folds the transformed footprint of shape into the running box.
func (m *Measure) Render(shape *anm.Shape, transform SpriteTransform) {
	left := float64(shape.OffsetX)
	bottom := float64(shape.OffsetY)
	right := left + float64(shape.Width)
	top := bottom + float64(shape.Height)

	corners := [4]cp.Vector{
		{X: left, Y: bottom},
		{X: right, Y: bottom},
		{X: right, Y: top},
		{X: left, Y: top},
	}
	box := cp.BB{}
	for i, corner := range corners {
		p := transform.Position.Apply(corner)
		if i == 0 {
			box = cp.BB{L: p.X, B: p.Y, R: p.X, T: p.Y}
			continue
		}
		box = box.Expand(p)
	}
	if !m.any {
		m.box = box
		m.any = true
		return
	}
	m.box = m.box.Merge(box)
}

// Bounds returns the accumulated box. The second return is false when no
// shape was rendered.
func (m *Measure) Bounds() (cp.BB, bool) {
	return m.box, m.any
}

// MeasureSprite computes the bounding box of one frame of sprite under the
// external transform. It uses the exact traversal of Compositor.RenderSprite,
// so the box matches draw output for the same inputs.
func MeasureSprite(anim *anm.Animation, sprite *anm.Sprite, external SpriteTransform, frame int) (cp.BB, bool) {
	m := &Measure{}
	c := &Compositor{Animation: anim}
	c.RenderSprite(sprite, external, frame, m)
	return m.Bounds()
}

// MeasureShape computes the bounding box of a single shape under the
// external transform.
func MeasureShape(shape *anm.Shape, external SpriteTransform) cp.BB {
	m := &Measure{}
	m.Render(shape, external)
	box, _ := m.Bounds()
	return box
}
