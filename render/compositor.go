package render

import "github.com/milk9111/animview/anm"

// Sink receives every terminal shape produced by a traversal together with
// its fully composed transform. Backends (atlas drawer, measurer, exporters)
// implement this one method.
type Sink interface {
	Render(shape *anm.Shape, transform SpriteTransform)
}

// MaxDepth caps sprite nesting. Container data can reference sprites
// cyclically; subtrees past this depth are skipped instead of looping.
const MaxDepth = 64

// Compositor resolves a sprite tree for one frame and feeds terminal shapes
// to a sink in deterministic order. It never mutates the animation, so one
// animation may back any number of concurrent compositors.
type Compositor struct {
	Animation *anm.Animation

	// OnSkip, if set, is called for nodes dropped during traversal: ids
	// that resolve to neither sprite nor shape, unreadable tape entries,
	// and subtrees past MaxDepth. Useful when debugging malformed assets.
	OnSkip func(id int16, reason string)
}

type workItem struct {
	id        int16
	transform SpriteTransform
	depth     int
}

// RenderShape emits a single terminal shape under the external transform.
func (c *Compositor) RenderShape(shape *anm.Shape, external SpriteTransform, sink Sink) {
	sink.Render(shape, external)
}

// RenderSprite walks sprite for the given frame, emitting every resolved
// terminal shape to sink. frame is taken modulo the sprite's frame count.
func (c *Compositor) RenderSprite(sprite *anm.Sprite, external SpriteTransform, frame int, sink Sink) {
	stack := make([]workItem, 0, 16)
	c.expand(sprite, external, frame, 0, &stack)
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if child, ok := c.Animation.Sprites[item.id]; ok {
			if item.depth >= MaxDepth {
				c.skip(item.id, "max depth exceeded")
				continue
			}
			c.expand(child, item.transform, frame, item.depth, &stack)
			continue
		}
		if shape, ok := c.Animation.Shapes[item.id]; ok {
			sink.Render(shape, item.transform)
			continue
		}
		// Ids resolving to neither a sprite nor a shape are skipped for
		// compatibility with the original data.
		c.skip(item.id, "unknown id")
	}
}

// expand selects the sprite's children for the frame, reads one tape
// transform per child reference, and pushes the resolved children in reverse
// so they pop in emit order. Siblings share the tape cursor but each gets
// its own combined transform.
func (c *Compositor) expand(sprite *anm.Sprite, parent SpriteTransform, frame, depth int, stack *[]workItem) {
	reader := NewFrameReader(sprite.Frames, c.Animation.Transform)

	var children []int16
	switch p := sprite.Payload.(type) {
	case anm.Single:
		children = []int16{p.ChildID}
	case anm.SingleNoAction:
		children = []int16{p.ChildID}
	case anm.SingleFrame:
		children = p.ChildIDs
	case anm.Indexed:
		stride := 2
		if len(p.ActionIDs) > 0 {
			stride = 3
		}
		frameCount := len(p.FramePositions) / stride
		if frameCount == 0 {
			c.skip(sprite.ID, "empty frame position table")
			return
		}
		index := (frame % frameCount) * stride
		if index+1 >= len(p.FramePositions) {
			c.skip(sprite.ID, "frame position out of range")
			return
		}
		offset := int(p.FramePositions[index])
		current := int(p.FramePositions[index+1])
		if current < 0 || current >= len(p.ChildIDs) {
			c.skip(sprite.ID, "child table offset out of range")
			return
		}
		count := int(p.ChildIDs[current])
		end := current + 1 + count
		if count < 0 || end > len(p.ChildIDs) {
			c.skip(sprite.ID, "child run out of range")
			return
		}
		children = p.ChildIDs[current+1 : end]
		reader.Seek(offset)
	}

	resolved := make([]workItem, 0, len(children))
	for _, id := range children {
		tr, ok := reader.ReadTransform()
		if !ok {
			c.skip(id, "unreadable tape transform")
			continue
		}
		resolved = append(resolved, workItem{
			id:        id,
			transform: tr.Combine(parent),
			depth:     depth + 1,
		})
	}
	for i := len(resolved) - 1; i >= 0; i-- {
		*stack = append(*stack, resolved[i])
	}
}

func (c *Compositor) skip(id int16, reason string) {
	if c.OnSkip != nil {
		c.OnSkip(id, reason)
	}
}
