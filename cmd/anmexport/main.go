// Command anmexport decodes one animation entry from an archive and writes
// its frames as PNGs or a looping GIF, without opening a window.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/milk9111/animview/anm"
	"github.com/milk9111/animview/backend"
	"github.com/milk9111/animview/resources"
)

func main() {
	archivePath := flag.String("archive", "", "animation archive (zip/jar)")
	entry := flag.String("entry", "", "animation entry id")
	spriteName := flag.String("sprite", "", "sprite display name (default: first sprite)")
	outDir := flag.String("out", "out", "output directory for png frames")
	gifPath := flag.String("gif", "", "write a looping gif to this path instead of pngs")
	scale := flag.Float64("scale", 2, "render scale")
	list := flag.Bool("list", false, "list entries and sprites, then exit")
	flag.Parse()

	if *archivePath == "" {
		log.Fatal("anmexport: -archive is required")
	}
	archive, err := resources.OpenArchive(*archivePath)
	if err != nil {
		log.Fatal(err)
	}
	defer archive.Close()

	if *list && *entry == "" {
		for _, name := range archive.Entries(".anm") {
			fmt.Println(name)
		}
		return
	}
	if *entry == "" {
		log.Fatal("anmexport: -entry is required")
	}

	animation, err := archive.LoadAnimation(*entry)
	if err != nil {
		log.Fatal(err)
	}
	if *list {
		for _, sprite := range animation.Sprites {
			fmt.Println(describeSprite(sprite))
		}
		return
	}

	if animation.Texture == nil {
		log.Fatalf("anmexport: entry %s has no texture reference", *entry)
	}
	atlas, err := archive.LoadAtlas(animation.Texture.Name)
	if err != nil {
		log.Fatal(err)
	}

	sprite := pickSprite(animation, *spriteName)
	if sprite == nil {
		log.Fatalf("anmexport: no sprite %q in entry %s", *spriteName, *entry)
	}

	exporter := backend.NewExporter()
	exporter.Scale = *scale

	if *gifPath != "" {
		f, err := os.Create(*gifPath)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		if err := exporter.WriteGIF(f, animation, sprite, atlas); err != nil {
			log.Fatal(err)
		}
		log.Printf("anmexport: wrote %s (%d frames)", *gifPath, sprite.FrameCount())
		return
	}

	if err := exporter.WritePNGs(*outDir, animation, sprite, atlas); err != nil {
		log.Fatal(err)
	}
	log.Printf("anmexport: wrote %d frames to %s", sprite.FrameCount(), *outDir)
}

func pickSprite(animation *anm.Animation, name string) *anm.Sprite {
	if name != "" {
		sprite, ok := animation.SpriteByName(name)
		if !ok {
			return nil
		}
		return sprite
	}
	var picked *anm.Sprite
	for _, sprite := range animation.Sprites {
		if picked == nil || sprite.ID < picked.ID {
			picked = sprite
		}
	}
	return picked
}

func describeSprite(sprite *anm.Sprite) string {
	if sprite.Name.Name != nil {
		return fmt.Sprintf("%d\t%s\t%d frames", sprite.ID, *sprite.Name.Name, sprite.FrameCount())
	}
	return fmt.Sprintf("%d\t-\t%d frames", sprite.ID, sprite.FrameCount())
}
