package render

import "github.com/milk9111/animview/anm"

// Tape sub-transform selector bits. A tape instruction starts with the OR of
// the present sub-transforms, each followed by one pool offset, read in bit
// order: color multiply, color add, rotation, translation.
const (
	tapeRotation      = 1
	tapeTranslation   = 2
	tapeColorMultiply = 4
	tapeColorAdd      = 8
	tapeMask          = tapeRotation | tapeTranslation | tapeColorMultiply | tapeColorAdd
)

// FrameReader decodes transform instructions from a sprite's frame tape,
// resolving pool offsets against the animation's shared transform table. It
// keeps a sequential cursor; sibling child references on the same sprite
// share one reader.
type FrameReader struct {
	data  anm.FrameData
	table *anm.TransformTable
	pos   int
}

// NewFrameReader creates a reader positioned at the start of the tape. A nil
// table behaves as an empty one.
func NewFrameReader(data anm.FrameData, table *anm.TransformTable) *FrameReader {
	if table == nil {
		table = anm.EmptyTable
	}
	return &FrameReader{data: data, table: table}
}

// Seek moves the cursor to an absolute tape position.
func (r *FrameReader) Seek(pos int) {
	r.pos = pos
}

// ReadTransform decodes the next transform instruction. The second return is
// false when the instruction cannot be decoded (cursor past the tape end, tag
// outside 0..15, or a pool offset out of range); callers treat that node as
// unrenderable rather than failing.
func (r *FrameReader) ReadTransform() (SpriteTransform, bool) {
	tag, ok := r.next()
	if !ok || tag > tapeMask {
		return SpriteTransform{}, false
	}
	parts := make([]SpriteTransform, 0, 4)
	if tag&tapeColorMultiply != 0 {
		c, ok := r.colors()
		if !ok {
			return SpriteTransform{}, false
		}
		parts = append(parts, TintMultiply(c[0], c[1], c[2], c[3]))
	}
	if tag&tapeColorAdd != 0 {
		c, ok := r.colors()
		if !ok {
			return SpriteTransform{}, false
		}
		parts = append(parts, TintAdd(c[0], c[1], c[2], c[3]))
	}
	if tag&tapeRotation != 0 {
		m, ok := r.pool(r.table.Rotations, 4)
		if !ok {
			return SpriteTransform{}, false
		}
		parts = append(parts, Rotate(float64(m[0]), float64(m[1]), float64(m[2]), float64(m[3])))
	}
	if tag&tapeTranslation != 0 {
		v, ok := r.pool(r.table.Translations, 2)
		if !ok {
			return SpriteTransform{}, false
		}
		parts = append(parts, Translate(float64(v[0]), float64(v[1])))
	}
	if len(parts) == 0 {
		return Identity(), true
	}
	t := parts[0]
	for _, p := range parts[1:] {
		t = t.Combine(p)
	}
	return t, true
}

func (r *FrameReader) next() (uint32, bool) {
	if r.data == nil || r.pos < 0 || r.pos >= r.data.Len() {
		return 0, false
	}
	v := r.data.At(r.pos)
	r.pos++
	return v, true
}

func (r *FrameReader) pool(pool []float32, n int) ([]float32, bool) {
	offset, ok := r.next()
	if !ok {
		return nil, false
	}
	start := int(offset)
	if start < 0 || start+n > len(pool) {
		return nil, false
	}
	return pool[start : start+n], true
}

func (r *FrameReader) colors() ([]float32, bool) {
	return r.pool(r.table.Colors, 4)
}
