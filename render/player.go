package render

import (
	"fmt"
	"sort"

	"github.com/milk9111/animview/anm"
)

// Player advances a frame counter over a shared read-only animation and
// renders the currently selected sprite through a sink. A Player owns no
// animation state beyond the sprite selection and frame number; several
// players may share one Animation.
type Player struct {
	compositor Compositor
	current    int16
	frame      int
}

// NewPlayer creates a player positioned at the animation's lowest sprite id,
// frame zero. It fails when the animation has no sprites.
func NewPlayer(anim *anm.Animation) (*Player, error) {
	if len(anim.Sprites) == 0 {
		return nil, fmt.Errorf("render: animation has no sprites")
	}
	ids := make([]int, 0, len(anim.Sprites))
	for id := range anim.Sprites {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	return &Player{
		compositor: Compositor{Animation: anim},
		current:    int16(ids[0]),
	}, nil
}

// Render draws the current frame under the external transform and advances
// the frame counter.
func (p *Player) Render(external SpriteTransform, sink Sink) {
	sprite := p.Sprite()
	if sprite == nil {
		return
	}
	p.compositor.RenderSprite(sprite, external, p.frame, sink)
	p.frame++
}

// SetSprite selects a sprite by id and rewinds to frame zero. Unknown ids
// are ignored.
func (p *Player) SetSprite(id int16) {
	if _, ok := p.compositor.Animation.Sprites[id]; !ok {
		return
	}
	p.current = id
	p.frame = 0
}

// SetSpriteByName selects the first sprite with the given display name.
func (p *Player) SetSpriteByName(name string) bool {
	sprite, ok := p.compositor.Animation.SpriteByName(name)
	if !ok {
		return false
	}
	p.SetSprite(sprite.ID)
	return true
}

// SetFrame jumps to an absolute frame number.
func (p *Player) SetFrame(frame int) {
	if frame < 0 {
		frame = 0
	}
	p.frame = frame
}

// Frame returns the next frame to be rendered.
func (p *Player) Frame() int { return p.frame }

// Sprite returns the currently selected sprite.
func (p *Player) Sprite() *anm.Sprite {
	return p.compositor.Animation.Sprites[p.current]
}

// SpriteID returns the currently selected sprite id.
func (p *Player) SpriteID() int16 { return p.current }

// Animation returns the shared animation.
func (p *Player) Animation() *anm.Animation {
	return p.compositor.Animation
}
