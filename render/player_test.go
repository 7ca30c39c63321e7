package render

import (
	"testing"

	"github.com/milk9111/animview/anm"
)

func TestNewPlayerPicksLowestSprite(t *testing.T) {
	anim := testAnimation()
	p, err := NewPlayer(anim)
	if err != nil {
		t.Fatalf("NewPlayer failed: %v", err)
	}
	if p.SpriteID() != 100 {
		t.Fatalf("expected sprite 100, got %d", p.SpriteID())
	}
	if p.Frame() != 0 {
		t.Fatalf("expected frame 0, got %d", p.Frame())
	}
}

func TestNewPlayerEmptyAnimation(t *testing.T) {
	if _, err := NewPlayer(&anm.Animation{Sprites: map[int16]*anm.Sprite{}}); err == nil {
		t.Fatalf("expected an error for an animation with no sprites")
	}
}

func TestPlayerRenderAdvances(t *testing.T) {
	anim := testAnimation()
	p, err := NewPlayer(anim)
	if err != nil {
		t.Fatalf("NewPlayer failed: %v", err)
	}

	first := &recordSink{}
	second := &recordSink{}
	p.Render(Identity(), first)
	p.Render(Identity(), second)

	if first.entries[0].transform.Position.TX != 10 {
		t.Fatalf("frame 0 translation x = %v, want 10", first.entries[0].transform.Position.TX)
	}
	if second.entries[0].transform.Position.TX != 5 {
		t.Fatalf("frame 1 translation x = %v, want 5", second.entries[0].transform.Position.TX)
	}
	if p.Frame() != 2 {
		t.Fatalf("expected frame counter 2, got %d", p.Frame())
	}
}

func TestPlayerSpriteSelection(t *testing.T) {
	anim := testAnimation()
	p, err := NewPlayer(anim)
	if err != nil {
		t.Fatalf("NewPlayer failed: %v", err)
	}

	p.SetFrame(5)
	p.SetSprite(300)
	if p.SpriteID() != 300 || p.Frame() != 0 {
		t.Fatalf("SetSprite should select 300 at frame 0, got %d at %d", p.SpriteID(), p.Frame())
	}

	p.SetSprite(9999)
	if p.SpriteID() != 300 {
		t.Fatalf("unknown id must be ignored, got %d", p.SpriteID())
	}

	if !p.SetSpriteByName("body") {
		t.Fatalf("SetSpriteByName should find the named sprite")
	}
	if p.SpriteID() != 200 {
		t.Fatalf("expected sprite 200, got %d", p.SpriteID())
	}
	if p.SetSpriteByName("missing") {
		t.Fatalf("SetSpriteByName should fail for unknown names")
	}

	p.SetFrame(-3)
	if p.Frame() != 0 {
		t.Fatalf("negative frames clamp to 0, got %d", p.Frame())
	}
}
