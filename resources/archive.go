// Package resources loads animations, atlas textures, and translations from
// the game's zip-packed resource archives, and keeps archive I/O off the
// render path with a background loader.
package resources

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io"
	"strings"

	"github.com/milk9111/animview/anm"
)

// ErrNotFound reports a missing archive entry.
var ErrNotFound = errors.New("resources: entry not found")

// Archive is a lazily-read zip resource archive. Entries are only
// decompressed on access.
type Archive struct {
	path    string
	reader  *zip.ReadCloser
	entries map[string]*zip.File
}

// OpenArchive opens the archive at path and indexes its entries.
func OpenArchive(path string) (*Archive, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("resources: open %s: %w", path, err)
	}
	entries := make(map[string]*zip.File, len(reader.File))
	for _, f := range reader.File {
		entries[f.Name] = f
	}
	return &Archive{path: path, reader: reader, entries: entries}, nil
}

// Close releases the underlying file.
func (a *Archive) Close() error {
	return a.reader.Close()
}

// Path returns the archive file path.
func (a *Archive) Path() string { return a.path }

// Entries returns the names of all entries with the given suffix, in archive
// order.
func (a *Archive) Entries(suffix string) []string {
	var names []string
	for _, f := range a.reader.File {
		if suffix == "" || strings.HasSuffix(f.Name, suffix) {
			names = append(names, f.Name)
		}
	}
	return names
}

// LoadBytes reads one entry whole. Missing entries return ErrNotFound.
func (a *Archive) LoadBytes(name string) ([]byte, error) {
	f, ok := a.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, name, a.path)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("resources: open entry %s: %w", name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("resources: read entry %s: %w", name, err)
	}
	return data, nil
}

// LoadAnimation decodes the animation entry <id>.anm.
func (a *Archive) LoadAnimation(id string) (*anm.Animation, error) {
	f, ok := a.entries[id+".anm"]
	if !ok {
		return nil, fmt.Errorf("%w: %s.anm in %s", ErrNotFound, id, a.path)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("resources: open entry %s.anm: %w", id, err)
	}
	defer rc.Close()
	animation, err := anm.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("resources: %s.anm: %w", id, err)
	}
	return animation, nil
}

// LoadAtlas decodes the atlas image entry Atlas/<name>.png.
func (a *Archive) LoadAtlas(name string) (image.Image, error) {
	data, err := a.LoadBytes("Atlas/" + name + ".png")
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("resources: atlas %s: %w", name, err)
	}
	return img, nil
}
