package render

import (
	"reflect"
	"testing"

	"github.com/milk9111/animview/anm"
)

// recordSink captures every emitted shape with its transform in order.
type recordSink struct {
	entries []recordEntry
}

type recordEntry struct {
	shape     *anm.Shape
	transform SpriteTransform
}

func (r *recordSink) Render(shape *anm.Shape, transform SpriteTransform) {
	r.entries = append(r.entries, recordEntry{shape: shape, transform: transform})
}

func strPtr(s string) *string { return &s }

// testAnimation builds a small tree by hand:
//
//	100  two-frame indexed sprite over shape 1, translated per frame
//	200  wraps 100 with an identity tape
//	300  flat list referencing shape 1 and an id that resolves to nothing
//	400  refers to itself
func testAnimation() *anm.Animation {
	return &anm.Animation{
		FrameRate: 30,
		Shapes: map[int16]*anm.Shape{
			1: {ID: 1, Bottom: 1, Right: 1, Width: 64, Height: 64},
		},
		Transform: &anm.TransformTable{
			Translations: []float32{10, 20, 5, 0},
		},
		Sprites: map[int16]*anm.Sprite{
			100: {
				ID: 100,
				Payload: anm.Indexed{
					FramePositions: []int32{0, 0, 2, 2},
					ChildIDs:       []int16{1, 1, 1, 1},
				},
				Frames: anm.FrameBytes{2, 0, 2, 2},
			},
			200: {
				ID:      200,
				Name:    anm.SpriteName{Name: strPtr("body")},
				Payload: anm.Single{ChildID: 100},
				Frames:  anm.FrameBytes{0},
			},
			300: {
				ID:      300,
				Payload: anm.SingleFrame{ChildIDs: []int16{1, 999}},
				Frames:  anm.FrameBytes{0, 0},
			},
			400: {
				ID:      400,
				Payload: anm.SingleNoAction{ChildID: 400},
				Frames:  anm.FrameBytes{0},
			},
		},
	}
}

func TestRenderSpriteIndexedFrames(t *testing.T) {
	anim := testAnimation()
	c := &Compositor{Animation: anim}

	cases := []struct {
		frame    int
		tx, ty   float64
	}{
		{0, 10, 20},
		{1, 5, 0},
		{2, 10, 20}, // wraps modulo the frame count
		{5, 5, 0},
	}
	for _, tc := range cases {
		sink := &recordSink{}
		c.RenderSprite(anim.Sprites[100], Identity(), tc.frame, sink)
		if len(sink.entries) != 1 {
			t.Fatalf("frame %d: expected 1 shape, got %d", tc.frame, len(sink.entries))
		}
		e := sink.entries[0]
		if e.shape.ID != 1 {
			t.Fatalf("frame %d: expected shape 1, got %d", tc.frame, e.shape.ID)
		}
		if e.transform.Position.TX != tc.tx || e.transform.Position.TY != tc.ty {
			t.Fatalf("frame %d: translation (%v,%v), want (%v,%v)",
				tc.frame, e.transform.Position.TX, e.transform.Position.TY, tc.tx, tc.ty)
		}
	}
}

func TestRenderSpriteNested(t *testing.T) {
	anim := testAnimation()
	c := &Compositor{Animation: anim}

	// The wrapper's frame number reaches the indexed child.
	sink := &recordSink{}
	c.RenderSprite(anim.Sprites[200], Identity(), 1, sink)
	if len(sink.entries) != 1 {
		t.Fatalf("expected 1 shape, got %d", len(sink.entries))
	}
	if tx := sink.entries[0].transform.Position.TX; tx != 5 {
		t.Fatalf("nested frame 1 translation x = %v, want 5", tx)
	}
}

func TestRenderSpriteExternalTransform(t *testing.T) {
	anim := testAnimation()
	c := &Compositor{Animation: anim}

	sink := &recordSink{}
	c.RenderSprite(anim.Sprites[100], Scale(2, 2), 0, sink)
	if len(sink.entries) != 1 {
		t.Fatalf("expected 1 shape, got %d", len(sink.entries))
	}
	// The tape translation scales with the external transform.
	pos := sink.entries[0].transform.Position
	if pos.TX != 20 || pos.TY != 40 {
		t.Fatalf("scaled translation (%v,%v), want (20,40)", pos.TX, pos.TY)
	}
}

func TestRenderSpriteSkipsUnknownIDs(t *testing.T) {
	anim := testAnimation()
	var skipped []int16
	c := &Compositor{
		Animation: anim,
		OnSkip:    func(id int16, reason string) { skipped = append(skipped, id) },
	}

	sink := &recordSink{}
	c.RenderSprite(anim.Sprites[300], Identity(), 0, sink)
	if len(sink.entries) != 1 || sink.entries[0].shape.ID != 1 {
		t.Fatalf("expected only shape 1, got %d entries", len(sink.entries))
	}
	if len(skipped) != 1 || skipped[0] != 999 {
		t.Fatalf("expected id 999 skipped, got %v", skipped)
	}
}

func TestRenderSpriteDepthCap(t *testing.T) {
	anim := testAnimation()
	capped := false
	c := &Compositor{
		Animation: anim,
		OnSkip: func(id int16, reason string) {
			if reason == "max depth exceeded" {
				capped = true
			}
		},
	}

	sink := &recordSink{}
	// Sprite 400 references itself; traversal must terminate.
	c.RenderSprite(anim.Sprites[400], Identity(), 0, sink)
	if len(sink.entries) != 0 {
		t.Fatalf("cyclic sprite emitted %d shapes", len(sink.entries))
	}
	if !capped {
		t.Fatalf("expected the depth cap to trip")
	}
}

func TestRenderSpriteDeterministic(t *testing.T) {
	anim := testAnimation()
	c := &Compositor{Animation: anim}

	a := &recordSink{}
	b := &recordSink{}
	c.RenderSprite(anim.Sprites[300], Translate(1, 2), 0, a)
	c.RenderSprite(anim.Sprites[300], Translate(1, 2), 0, b)
	if !reflect.DeepEqual(a.entries, b.entries) {
		t.Fatalf("identical traversals diverged:\n%+v\n%+v", a.entries, b.entries)
	}
}

func TestRenderSpriteBadIndexTables(t *testing.T) {
	anim := testAnimation()
	cases := []struct {
		name    string
		payload anm.Indexed
	}{
		{"empty frame positions", anm.Indexed{}},
		{"child table offset out of range", anm.Indexed{
			FramePositions: []int32{0, 9},
			ChildIDs:       []int16{1, 1},
		}},
		{"child run out of range", anm.Indexed{
			FramePositions: []int32{0, 0},
			ChildIDs:       []int16{5, 1},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			anim.Sprites[500] = &anm.Sprite{
				ID:      500,
				Payload: tc.payload,
				Frames:  anm.FrameBytes{0},
			}
			skips := 0
			c := &Compositor{
				Animation: anim,
				OnSkip:    func(id int16, reason string) { skips++ },
			}
			sink := &recordSink{}
			c.RenderSprite(anim.Sprites[500], Identity(), 0, sink)
			if len(sink.entries) != 0 {
				t.Fatalf("malformed tables emitted %d shapes", len(sink.entries))
			}
			if skips == 0 {
				t.Fatalf("expected a skip diagnostic")
			}
		})
	}
}

func TestRenderShape(t *testing.T) {
	anim := testAnimation()
	c := &Compositor{Animation: anim}
	sink := &recordSink{}
	c.RenderShape(anim.Shapes[1], Translate(7, 0), sink)
	if len(sink.entries) != 1 || sink.entries[0].transform.Position.TX != 7 {
		t.Fatalf("unexpected shape emit %+v", sink.entries)
	}
}
