// Package render interprets a decoded animation into per-frame draw calls.
// It walks the sprite tree, rebuilding the nested affine and color transforms
// encoded on each sprite's frame tape, and hands every terminal shape to a
// Sink together with its composed transform.
package render

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/animview/anm"
)

// Affine is a 2D affine transform. A point (x, y) maps to
// (A*x + B*y + TX, C*x + D*y + TY), matching ebiten's GeoM element layout.
type Affine struct {
	A, B, TX float64
	C, D, TY float64
}

// IdentityAffine returns the identity transform.
func IdentityAffine() Affine {
	return Affine{A: 1, D: 1}
}

// Translation returns a pure translation.
func Translation(x, y float64) Affine {
	return Affine{A: 1, D: 1, TX: x, TY: y}
}

// Scaling returns a pure scale about the origin.
func Scaling(sx, sy float64) Affine {
	return Affine{A: sx, D: sy}
}

// Linear returns a transform with the given 2x2 linear part and no
// translation. Arguments are row-major: m11 m12 / m21 m22 applied as
// x' = m11*x + m21*y, y' = m12*x + m22*y.
func Linear(m11, m12, m21, m22 float64) Affine {
	return Affine{A: m11, B: m21, C: m12, D: m22}
}

// Then composes t with o so that t applies first: Apply(Then) == o(t(p)).
// Composition is associative but not commutative; the child-local transform
// is always t and the accumulated parent is o.
func (t Affine) Then(o Affine) Affine {
	return Affine{
		A:  o.A*t.A + o.B*t.C,
		B:  o.A*t.B + o.B*t.D,
		C:  o.C*t.A + o.D*t.C,
		D:  o.C*t.B + o.D*t.D,
		TX: o.A*t.TX + o.B*t.TY + o.TX,
		TY: o.C*t.TX + o.D*t.TY + o.TY,
	}
}

// Apply transforms a point.
func (t Affine) Apply(v cp.Vector) cp.Vector {
	return cp.Vector{
		X: t.A*v.X + t.B*v.Y + t.TX,
		Y: t.C*v.X + t.D*v.Y + t.TY,
	}
}

// ColorTransform is a two-part color transform: a componentwise multiply, a
// componentwise add, or a deferred combination of the two when the kinds
// differ and cannot fold into a single 4-tuple.
type ColorTransform interface {
	// Fold applies the transform to a color, evaluating deferred
	// combinations left fold first, then right.
	Fold(c anm.Color) anm.Color
}

// ColorMultiply scales each channel.
type ColorMultiply struct {
	R, G, B, A float32
}

// ColorAdd offsets each channel.
type ColorAdd struct {
	R, G, B, A float32
}

// ColorCombine applies Left, then Right.
type ColorCombine struct {
	Left, Right ColorTransform
}

func (m ColorMultiply) Fold(c anm.Color) anm.Color {
	return anm.Color{R: c.R * m.R, G: c.G * m.G, B: c.B * m.B, A: c.A * m.A}
}

func (a ColorAdd) Fold(c anm.Color) anm.Color {
	return anm.Color{R: c.R + a.R, G: c.G + a.G, B: c.B + a.B, A: c.A + a.A}
}

func (cc ColorCombine) Fold(c anm.Color) anm.Color {
	return cc.Right.Fold(cc.Left.Fold(c))
}

// IdentityColor is the color identity.
func IdentityColor() ColorTransform {
	return ColorAdd{}
}

// CombineColor composes l then r. Same-kind pairs fold into one value;
// mixed kinds stay deferred so evaluation order is preserved.
func CombineColor(l, r ColorTransform) ColorTransform {
	switch lv := l.(type) {
	case ColorMultiply:
		if rv, ok := r.(ColorMultiply); ok {
			return ColorMultiply{R: lv.R * rv.R, G: lv.G * rv.G, B: lv.B * rv.B, A: lv.A * rv.A}
		}
	case ColorAdd:
		if rv, ok := r.(ColorAdd); ok {
			return ColorAdd{R: lv.R + rv.R, G: lv.G + rv.G, B: lv.B + rv.B, A: lv.A + rv.A}
		}
	}
	return ColorCombine{Left: l, Right: r}
}

// EvalColor evaluates a transform against opaque white, yielding the final
// tint color.
func EvalColor(t ColorTransform) anm.Color {
	return t.Fold(anm.Color{R: 1, G: 1, B: 1, A: 1})
}

// ResolveColor flattens a transform into a single multiplier and offset so
// that for any color c, t.Fold(c) == c*mul + add componentwise.
func ResolveColor(t ColorTransform) (mul, add anm.Color) {
	mul = anm.Color{R: 1, G: 1, B: 1, A: 1}
	resolve(t, &mul, &add)
	return mul, add
}

func resolve(t ColorTransform, mul, add *anm.Color) {
	switch v := t.(type) {
	case ColorMultiply:
		mul.R, mul.G, mul.B, mul.A = mul.R*v.R, mul.G*v.G, mul.B*v.B, mul.A*v.A
		add.R, add.G, add.B, add.A = add.R*v.R, add.G*v.G, add.B*v.B, add.A*v.A
	case ColorAdd:
		add.R, add.G, add.B, add.A = add.R+v.R, add.G+v.G, add.B+v.B, add.A+v.A
	case ColorCombine:
		resolve(v.Left, mul, add)
		resolve(v.Right, mul, add)
	}
}

// SpriteTransform is the node-local composed value carried down the sprite
// tree: an affine position transform paired with a color transform. Values
// are never mutated; Combine always yields a new value.
type SpriteTransform struct {
	Position Affine
	Color    ColorTransform
}

// Identity returns the identity sprite transform.
func Identity() SpriteTransform {
	return SpriteTransform{Position: IdentityAffine(), Color: IdentityColor()}
}

// Translate returns a pure translation.
func Translate(x, y float64) SpriteTransform {
	return SpriteTransform{Position: Translation(x, y), Color: IdentityColor()}
}

// Scale returns a pure scale.
func Scale(sx, sy float64) SpriteTransform {
	return SpriteTransform{Position: Scaling(sx, sy), Color: IdentityColor()}
}

// Rotate returns a transform with the given 2x2 linear part, in tape pool
// order.
func Rotate(m11, m12, m21, m22 float64) SpriteTransform {
	return SpriteTransform{Position: Linear(m11, m12, m21, m22), Color: IdentityColor()}
}

// TintMultiply returns a pure color multiply.
func TintMultiply(r, g, b, a float32) SpriteTransform {
	return SpriteTransform{Position: IdentityAffine(), Color: ColorMultiply{R: r, G: g, B: b, A: a}}
}

// TintAdd returns a pure color offset.
func TintAdd(r, g, b, a float32) SpriteTransform {
	return SpriteTransform{Position: IdentityAffine(), Color: ColorAdd{R: r, G: g, B: b, A: a}}
}

// Combine composes t with parent, t applying first.
func (t SpriteTransform) Combine(parent SpriteTransform) SpriteTransform {
	return SpriteTransform{
		Position: t.Position.Then(parent.Position),
		Color:    CombineColor(t.Color, parent.Color),
	}
}
