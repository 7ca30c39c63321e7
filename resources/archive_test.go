package resources

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

type zipEntry struct {
	name string
	data []byte
}

func writeZip(t *testing.T, path string, entries []zipEntry) {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		f, err := w.Create(e.name)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", e.name, err)
		}
		if _, err := f.Write(e.data); err != nil {
			t.Fatalf("write zip entry %s: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// minimalAnm builds a one-shape, one-sprite container referencing the atlas
// texture name.
func minimalAnm(t *testing.T, texture string) []byte {
	t.Helper()
	var buf bytes.Buffer
	le := binary.LittleEndian
	write := func(v any) {
		if err := binary.Write(&buf, le, v); err != nil {
			t.Fatalf("build container: %v", err)
		}
	}

	write(uint8(0))  // version
	write(int16(0))  // reserved
	write(uint8(30)) // frame rate
	write(uint16(1)) // texture count
	buf.WriteString(texture)
	buf.WriteByte(0)
	write(int32(0))  // texture crc
	write(uint16(1)) // shape count
	write(int16(1))  // shape id
	write(int16(0))  // texture index
	write(uint16(0)) // uv top
	write(uint16(0)) // uv left
	write(uint16(65535))
	write(uint16(65535))
	write(int16(4)) // width
	write(int16(4)) // height
	write(float32(0))
	write(float32(0))
	write(uint16(1)) // sprite count
	write(int8(2))   // single, no actions
	write(int16(10)) // sprite id
	write(uint8(0))  // flags
	write(int32(0))  // name crc
	write(int32(0))  // base name crc
	write(int16(1))  // child: the shape
	write(uint8(1))  // byte tape
	write(uint32(1))
	write(uint8(0))  // identity instruction
	write(uint16(0)) // import count
	return buf.Bytes()
}

func atlasPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode atlas: %v", err)
	}
	return buf.Bytes()
}

func testArchive(t *testing.T) *Archive {
	t.Helper()
	path := filepath.Join(t.TempDir(), "anims.jar")
	writeZip(t, path, []zipEntry{
		{name: "1202.anm", data: minimalAnm(t, "1202")},
		{name: "Atlas/1202.png", data: atlasPNG(t)},
		{name: "notes.txt", data: []byte("not an animation")},
	})
	archive, err := OpenArchive(path)
	if err != nil {
		t.Fatalf("OpenArchive failed: %v", err)
	}
	t.Cleanup(func() { archive.Close() })
	return archive
}

func TestArchiveEntries(t *testing.T) {
	archive := testArchive(t)
	names := archive.Entries(".anm")
	if len(names) != 1 || names[0] != "1202.anm" {
		t.Fatalf("Entries(.anm) = %v", names)
	}
	if all := archive.Entries(""); len(all) != 3 {
		t.Fatalf("Entries() = %v", all)
	}
}

func TestArchiveLoadBytes(t *testing.T) {
	archive := testArchive(t)
	data, err := archive.LoadBytes("notes.txt")
	if err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}
	if string(data) != "not an animation" {
		t.Fatalf("unexpected entry contents %q", data)
	}

	_, err = archive.LoadBytes("missing.txt")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestArchiveLoadAnimation(t *testing.T) {
	archive := testArchive(t)
	animation, err := archive.LoadAnimation("1202")
	if err != nil {
		t.Fatalf("LoadAnimation failed: %v", err)
	}
	if animation.Texture == nil || animation.Texture.Name != "1202" {
		t.Fatalf("unexpected texture %+v", animation.Texture)
	}
	if len(animation.Shapes) != 1 || len(animation.Sprites) != 1 {
		t.Fatalf("unexpected content: %d shapes, %d sprites",
			len(animation.Shapes), len(animation.Sprites))
	}

	if _, err := archive.LoadAnimation("9999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestArchiveLoadAtlas(t *testing.T) {
	archive := testArchive(t)
	img, err := archive.LoadAtlas("1202")
	if err != nil {
		t.Fatalf("LoadAtlas failed: %v", err)
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Fatalf("unexpected atlas bounds %v", img.Bounds())
	}

	if _, err := archive.LoadAtlas("9999"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
