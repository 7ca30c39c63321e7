// Package anm decodes the binary animation containers shipped inside the
// game's resource archives. An Animation is immutable once decoded and may be
// shared read-only between any number of renderers.
package anm

import "sort"

// Version is the container version byte. Individual bits gate optional
// sections of the record.
type Version uint8

func (v Version) UseAtlas() bool           { return v&0x1 != 0 }
func (v Version) UseLocalIndex() bool      { return v&0x2 != 0 }
func (v Version) UsePerfectHitTest() bool  { return v&0x4 != 0 }
func (v Version) IsOptimized() bool        { return v&0x8 != 0 }
func (v Version) UseTransformIndex() bool  { return v&0x10 != 0 }

// Animation is the root of one decoded container record.
type Animation struct {
	Version   Version
	FrameRate uint8
	Index     *Index
	Texture   *Texture
	Shapes    map[int16]*Shape
	Transform *TransformTable
	Sprites   map[int16]*Sprite
	Imports   []Import
}

// Scale returns the index scale factor, defaulting to 1 when the container
// carries no index or no scale.
func (a *Animation) Scale() float64 {
	if a == nil || a.Index == nil || a.Index.Scale == nil {
		return 1
	}
	return float64(*a.Index.Scale)
}

// SpriteByName returns the lowest-id sprite whose display name matches, so
// selection is stable when names repeat. Sprite names are optional; unnamed
// sprites never match.
func (a *Animation) SpriteByName(name string) (*Sprite, bool) {
	if a == nil {
		return nil, false
	}
	ids := make([]int, 0, len(a.Sprites))
	for id := range a.Sprites {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	for _, id := range ids {
		s := a.Sprites[int16(id)]
		if s.Name.Name != nil && *s.Name.Name == name {
			return s, true
		}
	}
	return nil, false
}

// IndexFlags gates the optional fields of an Index.
type IndexFlags uint8

func (f IndexFlags) HasScale() bool          { return f&0x1 != 0 }
func (f IndexFlags) HasExtension() bool      { return f&0x2 != 0 }
func (f IndexFlags) HasHidingPart() bool     { return f&0x4 != 0 }
func (f IndexFlags) HasRenderRadius() bool   { return f&0x8 != 0 }
func (f IndexFlags) UseFlip() bool           { return f&0x10 != 0 }
func (f IndexFlags) UsePerfectHitTest() bool { return f&0x20 != 0 }
func (f IndexFlags) CanHidePart() bool       { return f&0x40 != 0 }
func (f IndexFlags) IsExtended() bool        { return f&0x80 != 0 }

// Index is the optional per-animation metadata block.
type Index struct {
	Flags           IndexFlags
	Scale           *float32
	RenderRadius    *float32
	FileNames       []string
	Files           []File
	PartsToBeHidden []HiddenPart
	PartsHiddenBy   []HideablePart
	Extension       *Extension
}

// File references a sibling animation file by name and crc.
type File struct {
	Name      string
	CRC       int32
	FileIndex int16
}

// HiddenPart names a part this animation hides on other entities.
type HiddenPart struct {
	ItemName string
	CRCKey   int32
}

// HideablePart maps an equipment crc to the part crc it hides.
type HideablePart struct {
	CRCKey    int32
	CRCToHide int32
}

// Extension carries optional per-part heights and a highlight color.
type Extension struct {
	Heights        map[int32]int8
	HighlightColor *Color
}

// Color is a straight RGBA color with float components.
type Color struct {
	R, G, B, A float32
}

// Import is an unresolved external sprite reference.
type Import struct {
	ID   int16
	Name string
	CRC  int32
}

// Texture names the atlas image associated with the animation.
type Texture struct {
	Name string
	CRC  int32
}

// TransformTable holds the float pools shared by every sprite tape in the
// animation. Tape instructions index into these pools instead of carrying
// literals.
type TransformTable struct {
	Colors       []float32
	Rotations    []float32
	Translations []float32
	Actions      []Action
}

// EmptyTable is used in place of a missing transform table so tape readers
// never need a nil check.
var EmptyTable = &TransformTable{}

// Shape is a terminal drawable: a normalized sub-rectangle of the atlas with
// an on-screen size and local offset. Shapes never animate.
type Shape struct {
	ID           int16
	TextureIndex int16
	Top          float32
	Left         float32
	Bottom       float32
	Right        float32
	Width        int16
	Height       int16
	OffsetX      float32
	OffsetY      float32
}

// SpriteFlags is the per-sprite flag byte.
type SpriteFlags uint8

// HasName reports whether the sprite record carries a display name.
func (f SpriteFlags) HasName() bool { return f&0x40 != 0 }

// SpriteName groups the optional display name with its crc identifiers.
type SpriteName struct {
	Name        *string
	NameCRC     int32
	BaseNameCRC int32
}

// Sprite is a composite node referencing child sprites or shapes, with a raw
// frame instruction tape.
type Sprite struct {
	ID      int16
	Name    SpriteName
	Flags   SpriteFlags
	Frames  FrameData
	Payload Payload
}

// FrameCount returns the number of frames the sprite cycles through. Only
// Indexed payloads animate; everything else is a single frame.
func (s *Sprite) FrameCount() int {
	p, ok := s.Payload.(Indexed)
	if !ok {
		return 1
	}
	stride := 2
	if len(p.ActionIDs) > 0 {
		stride = 3
	}
	return len(p.FramePositions) / stride
}

// FrameData is the per-sprite instruction tape. The container picks the
// narrowest element width that fits the record.
type FrameData interface {
	// Len returns the number of tape elements.
	Len() int
	// At returns the element at i widened to uint32.
	At(i int) uint32
}

type FrameBytes []uint8
type FrameShorts []uint16
type FrameInts []uint32

func (f FrameBytes) Len() int        { return len(f) }
func (f FrameBytes) At(i int) uint32 { return uint32(f[i]) }

func (f FrameShorts) Len() int        { return len(f) }
func (f FrameShorts) At(i int) uint32 { return uint32(f[i]) }

func (f FrameInts) Len() int        { return len(f) }
func (f FrameInts) At(i int) uint32 { return f[i] }

// Payload selects how a sprite resolves its children each frame.
type Payload interface {
	isPayload()
}

// Single renders one child every frame.
type Single struct {
	ChildID   int16
	ActionIDs []int16
}

// SingleNoAction is the degenerate single-child case without action data.
type SingleNoAction struct {
	ChildID int16
}

// SingleFrame renders a fixed list of children every frame.
type SingleFrame struct {
	ChildIDs  []int16
	ActionIDs []int16
}

// Indexed is a true animation: the current frame selects a tape offset and a
// child-id run out of the shared tables.
type Indexed struct {
	FramePositions []int32
	ChildIDs       []int16
	ActionIDs      []int16
}

func (Single) isPayload()         {}
func (SingleNoAction) isPayload() {}
func (SingleFrame) isPayload()    {}
func (Indexed) isPayload()        {}

// Action is a playback directive attached to a tape position. The core only
// carries actions through; interpretation lives in the action package.
type Action interface {
	isAction()
}

// GoTo jumps playback to a named animation, optionally at a percentage.
type GoTo struct {
	Name    string
	Percent *uint8
}

// GoToStatic jumps to the static pose.
type GoToStatic struct{}

// RunScript runs a named script in the host scripting engine.
type RunScript struct {
	Script string
}

// GoToRandom branches to one of several animations. Percents is empty for
// the unweighted legacy form.
type GoToRandom struct {
	Names    []string
	Percents []uint8
}

// Hit triggers the hit reaction.
type Hit struct{}

// Delete removes the entity after the frame.
type Delete struct{}

// End stops playback.
type End struct{}

// GoToIfPrevious branches based on the previously playing animation, with an
// optional default label.
type GoToIfPrevious struct {
	Previous []string
	Next     []string
	Default  *string
}

// AddParticle spawns a particle system with optional offsets.
type AddParticle struct {
	ParticleID int32
	OffsetX    *int16
	OffsetY    *int16
	OffsetZ    *int16
}

// SetRadius changes the entity render radius.
type SetRadius struct {
	Radius int8
}

func (GoTo) isAction()           {}
func (GoToStatic) isAction()     {}
func (RunScript) isAction()      {}
func (GoToRandom) isAction()     {}
func (Hit) isAction()            {}
func (Delete) isAction()         {}
func (End) isAction()            {}
func (GoToIfPrevious) isAction() {}
func (AddParticle) isAction()    {}
func (SetRadius) isAction()      {}
