package anm

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

// Decode reads one animation record from r. Decoding is all-or-nothing: any
// truncation, unknown tag, or invalid string aborts with an error and no
// partial Animation is returned.
func Decode(r io.Reader) (*Animation, error) {
	d := &decoder{br: bufio.NewReader(r)}

	version, err := d.u8()
	if err != nil {
		return nil, fmt.Errorf("anm: version: %w", err)
	}
	anim := &Animation{Version: Version(version)}

	if _, err := d.i16(); err != nil { // reserved
		return nil, fmt.Errorf("anm: reserved: %w", err)
	}
	if anim.FrameRate, err = d.u8(); err != nil {
		return nil, fmt.Errorf("anm: frame rate: %w", err)
	}

	if anim.Version.UseLocalIndex() {
		if anim.Index, err = d.index(); err != nil {
			return nil, fmt.Errorf("anm: index: %w", err)
		}
	}

	textureCount, err := d.u16()
	if err != nil {
		return nil, fmt.Errorf("anm: texture count: %w", err)
	}
	if textureCount == 1 {
		if anim.Texture, err = d.texture(); err != nil {
			return nil, fmt.Errorf("anm: texture: %w", err)
		}
	}

	shapeCount, err := d.u16()
	if err != nil {
		return nil, fmt.Errorf("anm: shape count: %w", err)
	}
	anim.Shapes = make(map[int16]*Shape, shapeCount)
	for i := 0; i < int(shapeCount); i++ {
		shape, err := d.shape()
		if err != nil {
			return nil, fmt.Errorf("anm: shape %d: %w", i, err)
		}
		// Duplicate ids overwrite earlier entries.
		anim.Shapes[shape.ID] = shape
	}

	if anim.Version.UseTransformIndex() {
		if anim.Transform, err = d.table(); err != nil {
			return nil, fmt.Errorf("anm: transform table: %w", err)
		}
	}

	spriteCount, err := d.u16()
	if err != nil {
		return nil, fmt.Errorf("anm: sprite count: %w", err)
	}
	anim.Sprites = make(map[int16]*Sprite, spriteCount)
	for i := 0; i < int(spriteCount); i++ {
		sprite, err := d.sprite()
		if err != nil {
			return nil, fmt.Errorf("anm: sprite %d: %w", i, err)
		}
		anim.Sprites[sprite.ID] = sprite
	}

	importCount, err := d.u16()
	if err != nil {
		return nil, fmt.Errorf("anm: import count: %w", err)
	}
	anim.Imports = make([]Import, 0, importCount)
	for i := 0; i < int(importCount); i++ {
		imp, err := d.imp()
		if err != nil {
			return nil, fmt.Errorf("anm: import %d: %w", i, err)
		}
		anim.Imports = append(anim.Imports, imp)
	}

	return anim, nil
}

type decoder struct {
	br *bufio.Reader
}

func (d *decoder) u8() (uint8, error) {
	b, err := d.br.ReadByte()
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return b, err
}

func (d *decoder) i8() (int8, error) {
	b, err := d.u8()
	return int8(b), err
}

func (d *decoder) u16() (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(d.br, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

func (d *decoder) i16() (int16, error) {
	v, err := d.u16()
	return int16(v), err
}

func (d *decoder) u32() (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(d.br, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (d *decoder) i32() (int32, error) {
	v, err := d.u32()
	return int32(v), err
}

func (d *decoder) f32() (float32, error) {
	v, err := d.u32()
	return math.Float32frombits(v), err
}

// cstring reads a null-terminated UTF-8 string. Invalid UTF-8 is a hard
// decode failure.
func (d *decoder) cstring() (string, error) {
	raw, err := d.br.ReadBytes(0)
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return "", err
	}
	raw = raw[:len(raw)-1]
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("invalid utf-8 string")
	}
	return string(raw), nil
}

func (d *decoder) i16sPrefixed() ([]int16, error) {
	count, err := d.u16()
	if err != nil {
		return nil, err
	}
	out := make([]int16, count)
	for i := range out {
		if out[i], err = d.i16(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d *decoder) f32sPrefixed() ([]float32, error) {
	count, err := d.u32()
	if err != nil {
		return nil, err
	}
	out := make([]float32, count)
	for i := range out {
		if out[i], err = d.f32(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d *decoder) texture() (*Texture, error) {
	name, err := d.cstring()
	if err != nil {
		return nil, fmt.Errorf("name: %w", err)
	}
	crc, err := d.i32()
	if err != nil {
		return nil, fmt.Errorf("crc: %w", err)
	}
	return &Texture{Name: name, CRC: crc}, nil
}

func (d *decoder) shape() (*Shape, error) {
	s := &Shape{}
	var err error
	if s.ID, err = d.i16(); err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	if s.TextureIndex, err = d.i16(); err != nil {
		return nil, fmt.Errorf("texture index: %w", err)
	}
	// UV edges are stored as u16 fractions of the atlas.
	for _, field := range []*float32{&s.Top, &s.Left, &s.Bottom, &s.Right} {
		v, err := d.u16()
		if err != nil {
			return nil, fmt.Errorf("uv: %w", err)
		}
		*field = float32(v) / 65535
	}
	if s.Width, err = d.i16(); err != nil {
		return nil, fmt.Errorf("width: %w", err)
	}
	if s.Height, err = d.i16(); err != nil {
		return nil, fmt.Errorf("height: %w", err)
	}
	if s.OffsetX, err = d.f32(); err != nil {
		return nil, fmt.Errorf("offset x: %w", err)
	}
	if s.OffsetY, err = d.f32(); err != nil {
		return nil, fmt.Errorf("offset y: %w", err)
	}
	return s, nil
}

func (d *decoder) table() (*TransformTable, error) {
	t := &TransformTable{}
	var err error
	if t.Colors, err = d.f32sPrefixed(); err != nil {
		return nil, fmt.Errorf("colors: %w", err)
	}
	if t.Rotations, err = d.f32sPrefixed(); err != nil {
		return nil, fmt.Errorf("rotations: %w", err)
	}
	if t.Translations, err = d.f32sPrefixed(); err != nil {
		return nil, fmt.Errorf("translations: %w", err)
	}
	count, err := d.u32()
	if err != nil {
		return nil, fmt.Errorf("action count: %w", err)
	}
	t.Actions = make([]Action, 0, count)
	for i := 0; i < int(count); i++ {
		action, err := d.action()
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		t.Actions = append(t.Actions, action)
	}
	return t, nil
}

func (d *decoder) sprite() (*Sprite, error) {
	tag, err := d.i8()
	if err != nil {
		return nil, fmt.Errorf("tag: %w", err)
	}
	s := &Sprite{}
	if s.ID, err = d.i16(); err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	flags, err := d.u8()
	if err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	s.Flags = SpriteFlags(flags)
	if s.Flags.HasName() {
		name, err := d.cstring()
		if err != nil {
			return nil, fmt.Errorf("name: %w", err)
		}
		s.Name.Name = &name
	}
	if s.Name.NameCRC, err = d.i32(); err != nil {
		return nil, fmt.Errorf("name crc: %w", err)
	}
	if s.Name.BaseNameCRC, err = d.i32(); err != nil {
		return nil, fmt.Errorf("base name crc: %w", err)
	}
	if s.Payload, err = d.payload(tag); err != nil {
		return nil, fmt.Errorf("payload: %w", err)
	}
	if s.Frames, err = d.frameData(); err != nil {
		return nil, fmt.Errorf("frame data: %w", err)
	}
	return s, nil
}

func (d *decoder) payload(tag int8) (Payload, error) {
	switch tag {
	case 1:
		childID, err := d.i16()
		if err != nil {
			return nil, err
		}
		actionIDs, err := d.i16sPrefixed()
		if err != nil {
			return nil, err
		}
		return Single{ChildID: childID, ActionIDs: actionIDs}, nil
	case 2:
		childID, err := d.i16()
		if err != nil {
			return nil, err
		}
		return SingleNoAction{ChildID: childID}, nil
	case 3:
		childIDs, err := d.i16sPrefixed()
		if err != nil {
			return nil, err
		}
		actionIDs, err := d.i16sPrefixed()
		if err != nil {
			return nil, err
		}
		return SingleFrame{ChildIDs: childIDs, ActionIDs: actionIDs}, nil
	case 4:
		count, err := d.u16()
		if err != nil {
			return nil, err
		}
		framePositions := make([]int32, count)
		for i := range framePositions {
			if framePositions[i], err = d.i32(); err != nil {
				return nil, err
			}
		}
		childIDs, err := d.i16sPrefixed()
		if err != nil {
			return nil, err
		}
		actionIDs, err := d.i16sPrefixed()
		if err != nil {
			return nil, err
		}
		return Indexed{FramePositions: framePositions, ChildIDs: childIDs, ActionIDs: actionIDs}, nil
	default:
		return nil, fmt.Errorf("unknown payload tag %d", tag)
	}
}

func (d *decoder) frameData() (FrameData, error) {
	tag, err := d.u8()
	if err != nil {
		return nil, fmt.Errorf("tag: %w", err)
	}
	size, err := d.u32()
	if err != nil {
		return nil, fmt.Errorf("length: %w", err)
	}
	switch tag {
	case 1:
		buf := make(FrameBytes, size)
		if _, err := io.ReadFull(d.br, buf); err != nil {
			return nil, err
		}
		return buf, nil
	case 2:
		buf := make(FrameShorts, size)
		for i := range buf {
			if buf[i], err = d.u16(); err != nil {
				return nil, err
			}
		}
		return buf, nil
	case 4:
		buf := make(FrameInts, size)
		for i := range buf {
			if buf[i], err = d.u32(); err != nil {
				return nil, err
			}
		}
		return buf, nil
	default:
		return nil, fmt.Errorf("unknown frame data tag %d", tag)
	}
}

func (d *decoder) index() (*Index, error) {
	flags, err := d.u8()
	if err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	idx := &Index{Flags: IndexFlags(flags)}
	if idx.Flags.HasScale() {
		scale, err := d.f32()
		if err != nil {
			return nil, fmt.Errorf("scale: %w", err)
		}
		idx.Scale = &scale
	}
	if idx.Flags.HasRenderRadius() {
		radius, err := d.f32()
		if err != nil {
			return nil, fmt.Errorf("render radius: %w", err)
		}
		idx.RenderRadius = &radius
	}
	if idx.Flags.HasExtension() {
		count, err := d.u16()
		if err != nil {
			return nil, fmt.Errorf("file name count: %w", err)
		}
		idx.FileNames = make([]string, 0, count)
		for i := 0; i < int(count); i++ {
			name, err := d.cstring()
			if err != nil {
				return nil, fmt.Errorf("file name %d: %w", i, err)
			}
			idx.FileNames = append(idx.FileNames, name)
		}
	}
	if idx.Flags.HasHidingPart() {
		count, err := d.u8()
		if err != nil {
			return nil, fmt.Errorf("hideable part count: %w", err)
		}
		idx.PartsHiddenBy = make([]HideablePart, count)
		for i := range idx.PartsHiddenBy {
			p := &idx.PartsHiddenBy[i]
			if p.CRCKey, err = d.i32(); err != nil {
				return nil, fmt.Errorf("hideable part %d: %w", i, err)
			}
			if p.CRCToHide, err = d.i32(); err != nil {
				return nil, fmt.Errorf("hideable part %d: %w", i, err)
			}
		}
	}
	if idx.Flags.CanHidePart() {
		count, err := d.u8()
		if err != nil {
			return nil, fmt.Errorf("hidden part count: %w", err)
		}
		idx.PartsToBeHidden = make([]HiddenPart, count)
		for i := range idx.PartsToBeHidden {
			p := &idx.PartsToBeHidden[i]
			if p.ItemName, err = d.cstring(); err != nil {
				return nil, fmt.Errorf("hidden part %d: %w", i, err)
			}
			if p.CRCKey, err = d.i32(); err != nil {
				return nil, fmt.Errorf("hidden part %d: %w", i, err)
			}
		}
	}
	if idx.Flags.IsExtended() {
		if idx.Extension, err = d.extension(); err != nil {
			return nil, fmt.Errorf("extension: %w", err)
		}
	}
	count, err := d.u16()
	if err != nil {
		return nil, fmt.Errorf("file count: %w", err)
	}
	idx.Files = make([]File, count)
	for i := range idx.Files {
		f := &idx.Files[i]
		if f.Name, err = d.cstring(); err != nil {
			return nil, fmt.Errorf("file %d: %w", i, err)
		}
		if f.CRC, err = d.i32(); err != nil {
			return nil, fmt.Errorf("file %d: %w", i, err)
		}
		if f.FileIndex, err = d.i16(); err != nil {
			return nil, fmt.Errorf("file %d: %w", i, err)
		}
	}
	return idx, nil
}

func (d *decoder) extension() (*Extension, error) {
	flags, err := d.i32()
	if err != nil {
		return nil, err
	}
	ext := &Extension{}
	if flags&0x1 != 0 {
		count, err := d.u16()
		if err != nil {
			return nil, err
		}
		ext.Heights = make(map[int32]int8, count)
		for i := 0; i < int(count); i++ {
			key, err := d.i32()
			if err != nil {
				return nil, err
			}
			height, err := d.i8()
			if err != nil {
				return nil, err
			}
			ext.Heights[key] = height + 1
		}
	}
	if flags&0x2 != 0 {
		c := &Color{A: 1}
		if c.R, err = d.f32(); err != nil {
			return nil, err
		}
		if c.G, err = d.f32(); err != nil {
			return nil, err
		}
		if c.B, err = d.f32(); err != nil {
			return nil, err
		}
		ext.HighlightColor = c
	}
	return ext, nil
}

func (d *decoder) action() (Action, error) {
	id, err := d.u8()
	if err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	paramCount, err := d.u8()
	if err != nil {
		return nil, fmt.Errorf("param count: %w", err)
	}
	switch id {
	case 1:
		name, err := d.cstring()
		if err != nil {
			return nil, err
		}
		a := GoTo{Name: name}
		if paramCount == 2 {
			percent, err := d.u8()
			if err != nil {
				return nil, err
			}
			a.Percent = &percent
		}
		return a, nil
	case 2:
		return GoToStatic{}, nil
	case 3:
		script, err := d.cstring()
		if err != nil {
			return nil, err
		}
		return RunScript{Script: script}, nil
	case 4:
		first, err := d.cstring()
		if err != nil {
			return nil, err
		}
		if first == "#optimized" {
			// Weighted form: the marker is followed by (count) names and
			// (count) percents, count = (params-1)/2.
			count := int(paramCount-1) / 2
			names := []string{first}
			for i := 0; i < count; i++ {
				name, err := d.cstring()
				if err != nil {
					return nil, err
				}
				names = append(names, name)
			}
			percents := make([]uint8, count)
			for i := range percents {
				if percents[i], err = d.u8(); err != nil {
					return nil, err
				}
			}
			return GoToRandom{Names: names, Percents: percents}, nil
		}
		// Legacy unweighted form: the first string is discarded and the
		// remaining paramCount-1 strings are the branch targets.
		names := make([]string, int(paramCount)-1)
		for i := range names {
			if names[i], err = d.cstring(); err != nil {
				return nil, err
			}
		}
		return GoToRandom{Names: names}, nil
	case 5:
		return Hit{}, nil
	case 6:
		return Delete{}, nil
	case 7:
		return End{}, nil
	case 8:
		count := int(paramCount-1) / 2
		a := GoToIfPrevious{
			Previous: make([]string, 0, count),
			Next:     make([]string, 0, count),
		}
		for i := 0; i < count; i++ {
			prev, err := d.cstring()
			if err != nil {
				return nil, err
			}
			next, err := d.cstring()
			if err != nil {
				return nil, err
			}
			a.Previous = append(a.Previous, prev)
			a.Next = append(a.Next, next)
		}
		// Odd parameter counts carry a trailing default label.
		if paramCount%2 == 1 {
			def, err := d.cstring()
			if err != nil {
				return nil, err
			}
			a.Default = &def
		}
		return a, nil
	case 9:
		particleID, err := d.i32()
		if err != nil {
			return nil, err
		}
		a := AddParticle{ParticleID: particleID}
		for i, field := range []**int16{&a.OffsetX, &a.OffsetY, &a.OffsetZ} {
			if int(paramCount) <= i+1 {
				break
			}
			v, err := d.i16()
			if err != nil {
				return nil, err
			}
			*field = &v
		}
		return a, nil
	case 10:
		radius, err := d.i8()
		if err != nil {
			return nil, err
		}
		return SetRadius{Radius: radius}, nil
	default:
		return nil, fmt.Errorf("unknown action tag %d", id)
	}
}

func (d *decoder) imp() (Import, error) {
	var imp Import
	var err error
	if imp.ID, err = d.i16(); err != nil {
		return Import{}, fmt.Errorf("id: %w", err)
	}
	if imp.Name, err = d.cstring(); err != nil {
		return Import{}, fmt.Errorf("name: %w", err)
	}
	if imp.CRC, err = d.i32(); err != nil {
		return Import{}, fmt.Errorf("crc: %w", err)
	}
	return imp, nil
}
