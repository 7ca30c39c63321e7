package resources

import (
	"archive/zip"
	"bufio"
	"fmt"
	"strings"
)

// Translation categories used by the game's localization files.
const (
	TranslationSpell                   = 3
	TranslationArea                    = 6
	TranslationMonster                 = 7
	TranslationState                   = 8
	TranslationStateDescription        = 9
	TranslationEffect                  = 10
	TranslationItemType                = 14
	TranslationItem                    = 15
	TranslationItemDescription         = 16
	TranslationPet                     = 65
	TranslationInstance                = 77
	TranslationInteractiveElementView  = 99
)

// Translations is the localization table loaded from a zipped properties
// file. Keys follow the content.<category>.<name> scheme.
type Translations struct {
	entries map[string]string
}

// LoadTranslations reads the first entry of the zip archive at path as a
// line-oriented key=value properties file.
func LoadTranslations(path string) (*Translations, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("resources: open translations %s: %w", path, err)
	}
	defer reader.Close()
	if len(reader.File) == 0 {
		return nil, fmt.Errorf("resources: translations archive %s is empty", path)
	}
	rc, err := reader.File[0].Open()
	if err != nil {
		return nil, fmt.Errorf("resources: open translations entry: %w", err)
	}
	defer rc.Close()

	entries := make(map[string]string)
	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			continue
		}
		entries[line[:idx]] = line[idx+1:]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("resources: read translations: %w", err)
	}
	return &Translations{entries: entries}, nil
}

// Get looks up the translation for a name in a category.
func (t *Translations) Get(category int, name string) (string, bool) {
	if t == nil {
		return "", false
	}
	v, ok := t.entries[fmt.Sprintf("content.%d.%s", category, name)]
	return v, ok
}
