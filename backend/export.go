package backend

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/milk9111/animview/anm"
	"github.com/milk9111/animview/render"
)

// Exporter renders every frame of a sprite offscreen and writes the result
// as individual PNGs or one looping GIF. The offscreen target is sized from
// measurement mode plus a fixed padding, so no frame is clipped.
type Exporter struct {
	// Padding in scene units added around the measured bounding box.
	Padding float64
	// Scale multiplies the animation's own index scale.
	Scale float64
}

// NewExporter returns an exporter with the historical defaults.
func NewExporter() *Exporter {
	return &Exporter{Padding: 96, Scale: 1}
}

// Frames renders every frame of sprite against atlas and returns them as
// RGBA images of identical size.
func (e *Exporter) Frames(anim *anm.Animation, sprite *anm.Sprite, atlas image.Image) ([]*image.RGBA, error) {
	// The scene is y-down like image space, so scaling is uniform.
	scale := anim.Scale() * e.Scale
	base := render.Scale(scale, scale)

	box, ok := render.MeasureSprite(anim, sprite, base, 0)
	if !ok {
		return nil, fmt.Errorf("backend: sprite %d renders no shapes", sprite.ID)
	}
	width := int(math.Ceil(box.R-box.L)) + int(2*e.Padding)
	height := int(math.Ceil(box.T-box.B)) + int(2*e.Padding)
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("backend: sprite %d has empty bounds", sprite.ID)
	}

	external := base.Combine(render.Translate(e.Padding-box.L, e.Padding-box.B))

	sink := NewSoftware()
	sink.SetTexture(atlas)
	compositor := &render.Compositor{Animation: anim}

	frames := make([]*image.RGBA, 0, sprite.FrameCount())
	for frame := 0; frame < sprite.FrameCount(); frame++ {
		target := image.NewRGBA(image.Rect(0, 0, width, height))
		sink.SetTarget(target)
		compositor.RenderSprite(sprite, external, frame, sink)
		frames = append(frames, target)
	}
	return frames, nil
}

// WritePNGs writes one PNG per frame into dir, named frame_<n>.png.
func (e *Exporter) WritePNGs(dir string, anim *anm.Animation, sprite *anm.Sprite, atlas image.Image) error {
	frames, err := e.Frames(anim, sprite, atlas)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("backend: create output dir: %w", err)
	}
	for i, frame := range frames {
		path := filepath.Join(dir, fmt.Sprintf("frame_%d.png", i))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("backend: %w", err)
		}
		if err := png.Encode(f, frame); err != nil {
			f.Close()
			return fmt.Errorf("backend: encode %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("backend: %w", err)
		}
	}
	return nil
}

// frameDelay is the per-frame GIF delay in hundredths of a second,
// approximately 30ms per frame.
const frameDelay = 3

// WriteGIF encodes all frames as a looping GIF.
func (e *Exporter) WriteGIF(w io.Writer, anim *anm.Animation, sprite *anm.Sprite, atlas image.Image) error {
	frames, err := e.Frames(anim, sprite, atlas)
	if err != nil {
		return err
	}
	out := &gif.GIF{LoopCount: 0}
	for _, frame := range frames {
		paletted := image.NewPaletted(frame.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(paletted, frame.Bounds(), frame, frame.Bounds().Min)
		out.Image = append(out.Image, paletted)
		out.Delay = append(out.Delay, frameDelay)
		out.Disposal = append(out.Disposal, gif.DisposalBackground)
	}
	if err := gif.EncodeAll(w, out); err != nil {
		return fmt.Errorf("backend: encode gif: %w", err)
	}
	return nil
}
