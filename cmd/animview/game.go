package main

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"golang.design/x/clipboard"

	"github.com/milk9111/animview/anm"
	"github.com/milk9111/animview/backend"
	"github.com/milk9111/animview/render"
	"github.com/milk9111/animview/resources"
)

// ticksPerFrame converts ebiten's 60 tps into the container's ~30 fps.
const ticksPerFrame = 2

// Game is the viewer application state.
type Game struct {
	cfg          *Config
	archive      *resources.Archive
	translations *resources.Translations
	watcher      *resources.Watcher
	loader       *resources.Loader

	entries  []string
	entryIdx int

	animation *anm.Animation
	atlasImg  image.Image
	player    *render.Player
	atlas     *backend.Atlas
	spriteIDs []int16

	ui     *viewerUI
	tick   int
	paused bool
	status string
}

// NewGame creates the viewer over an open archive.
func NewGame(cfg *Config, archive *resources.Archive, translations *resources.Translations, watcher *resources.Watcher) *Game {
	g := &Game{
		cfg:          cfg,
		archive:      archive,
		translations: translations,
		watcher:      watcher,
		loader:       resources.NewLoader(archive),
		atlas:        backend.NewAtlas(),
	}
	for _, name := range archive.Entries(".anm") {
		g.entries = append(g.entries, strings.TrimSuffix(name, ".anm"))
	}
	sort.Strings(g.entries)
	g.ui = newViewerUI(g)
	if len(g.entries) > 0 {
		g.OpenEntry(g.entries[0])
	}
	return g
}

// OpenEntry requests an animation entry from the background loader.
func (g *Game) OpenEntry(id string) {
	for i, name := range g.entries {
		if name == id {
			g.entryIdx = i
			break
		}
	}
	g.status = "loading " + id
	g.loader.Request(id)
}

// Update advances playback and handles input and loader results.
func (g *Game) Update() error {
	g.ui.Update()
	g.pollLoader()
	g.pollWatcher()

	if inpututil.IsKeyJustPressed(ebiten.KeyRight) {
		g.cycleEntry(1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyLeft) {
		g.cycleEntry(-1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDown) {
		g.cycleSprite(1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyUp) {
		g.cycleSprite(-1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.copySpriteName()
	}

	if !g.paused {
		g.tick++
	}
	return nil
}

func (g *Game) pollLoader() {
	res, ok := g.loader.Poll()
	if !ok {
		return
	}
	if res.Err != nil {
		g.status = res.Err.Error()
		return
	}
	player, err := render.NewPlayer(res.Animation)
	if err != nil {
		g.status = err.Error()
		return
	}
	g.animation = res.Animation
	g.atlasImg = res.Atlas
	g.atlas.SetTexture(res.Atlas)
	g.player = player
	g.spriteIDs = g.spriteIDs[:0]
	for id := range res.Animation.Sprites {
		g.spriteIDs = append(g.spriteIDs, id)
	}
	sort.Slice(g.spriteIDs, func(i, j int) bool { return g.spriteIDs[i] < g.spriteIDs[j] })
	g.tick = 0
	g.status = g.describe(res.ID)
}

func (g *Game) pollWatcher() {
	if g.watcher == nil {
		return
	}
	select {
	case path, ok := <-g.watcher.Events:
		if !ok {
			return
		}
		if path != g.archive.Path() {
			return
		}
		log.Printf("watch: %s changed, reloading", path)
		g.reloadArchive()
	case err, ok := <-g.watcher.Errors:
		if ok {
			log.Printf("watch: %v", err)
		}
	default:
	}
}

// reloadArchive reopens the archive and re-requests the current entry.
func (g *Game) reloadArchive() {
	archive, err := resources.OpenArchive(g.archive.Path())
	if err != nil {
		g.status = err.Error()
		return
	}
	g.loader.Close()
	g.archive.Close()
	g.archive = archive
	g.loader = resources.NewLoader(archive)
	if g.entryIdx < len(g.entries) {
		g.OpenEntry(g.entries[g.entryIdx])
	}
}

func (g *Game) cycleEntry(delta int) {
	if len(g.entries) == 0 {
		return
	}
	g.entryIdx = (g.entryIdx + delta + len(g.entries)) % len(g.entries)
	g.OpenEntry(g.entries[g.entryIdx])
}

func (g *Game) cycleSprite(delta int) {
	if g.player == nil || len(g.spriteIDs) == 0 {
		return
	}
	current := g.player.SpriteID()
	idx := 0
	for i, id := range g.spriteIDs {
		if id == current {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(g.spriteIDs)) % len(g.spriteIDs)
	g.player.SetSprite(g.spriteIDs[idx])
	g.tick = 0
}

func (g *Game) copySpriteName() {
	if g.player == nil {
		return
	}
	name := g.spriteLabel(g.player.Sprite())
	clipboard.Write(clipboard.FmtText, []byte(name))
	g.status = "copied " + name
}

// exportGIF writes the current sprite as a looping GIF next to the archive.
func (g *Game) exportGIF() {
	if g.player == nil || g.atlasImg == nil {
		return
	}
	sprite := g.player.Sprite()
	path := fmt.Sprintf("%d.gif", sprite.Name.NameCRC)
	f, err := os.Create(path)
	if err != nil {
		g.status = err.Error()
		return
	}
	defer f.Close()
	exporter := backend.NewExporter()
	exporter.Scale = g.cfg.Scale
	if err := exporter.WriteGIF(f, g.animation, sprite, g.atlasImg); err != nil {
		g.status = err.Error()
		return
	}
	g.status = "wrote " + path
}

// Draw renders the current frame centered in the window.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 0x18, G: 0x18, B: 0x20, A: 0xff})

	if g.player != nil {
		sprite := g.player.Sprite()
		frame := g.tick / ticksPerFrame
		scale := g.animation.Scale() * g.cfg.Scale
		base := render.Scale(scale, scale)

		w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
		transform := base
		if box, ok := render.MeasureSprite(g.animation, sprite, base, frame); ok {
			cx := float64(w)/2 - (box.L+box.R)/2
			cy := float64(h)/2 - (box.B+box.T)/2
			transform = base.Combine(render.Translate(cx, cy))
		}

		g.atlas.SetTarget(screen)
		g.player.SetFrame(frame)
		g.player.Render(transform, g.atlas)
	}

	g.ui.Draw(screen)
	ebitenutil.DebugPrint(screen, g.status)
}

// Layout reports the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// describe builds the status line for a loaded entry, using the monster
// translation table when available.
func (g *Game) describe(id string) string {
	label := id
	if name, ok := g.translations.Get(resources.TranslationMonster, id); ok {
		label = fmt.Sprintf("%s (%s)", name, id)
	}
	if g.player != nil {
		label += " " + g.spriteLabel(g.player.Sprite())
	}
	return label
}

func (g *Game) spriteLabel(sprite *anm.Sprite) string {
	if sprite == nil {
		return ""
	}
	if sprite.Name.Name != nil {
		return *sprite.Name.Name
	}
	return fmt.Sprintf("sprite %d", sprite.ID)
}
