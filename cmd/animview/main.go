// Command animview is an interactive viewer for the game's animation
// archives. It lists the animations inside an archive, plays the selected
// sprite, and can copy sprite names to the clipboard.
package main

import (
	"flag"
	"log"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.design/x/clipboard"

	"github.com/milk9111/animview/resources"
)

func main() {
	configPath := flag.String("config", "", "path to yaml config")
	archivePath := flag.String("archive", "", "animation archive (overrides config)")
	entry := flag.String("entry", "", "animation entry to open at startup")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *archivePath != "" {
		cfg.Archive = *archivePath
	}
	if cfg.Archive == "" {
		log.Fatal("animview: no archive given (use -archive or a config file)")
	}

	archive, err := resources.OpenArchive(cfg.Archive)
	if err != nil {
		log.Fatal(err)
	}
	defer archive.Close()

	var translations *resources.Translations
	if cfg.Translations != "" {
		translations, err = resources.LoadTranslations(cfg.Translations)
		if err != nil {
			log.Printf("animview: translations unavailable: %v", err)
		}
	}

	var watcher *resources.Watcher
	if cfg.Watch {
		watcher, err = resources.NewWatcher(filepath.Dir(cfg.Archive))
		if err != nil {
			log.Printf("animview: watch disabled: %v", err)
		} else {
			defer watcher.Close()
		}
	}

	if err := clipboard.Init(); err != nil {
		log.Printf("animview: clipboard unavailable: %v", err)
	}

	game := NewGame(cfg, archive, translations, watcher)
	if *entry != "" {
		game.OpenEntry(*entry)
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle("animview")
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
