// Package main provides the entry point for the image editor.
package main

import (
	"log"
	"os"

	fyneapp "fyne.io/fyne/v2/app"

	"imgedit/internal/app"
	"imgedit/internal/fonts"
	"imgedit/internal/version"
	"imgedit/pkg/geometry"
	"imgedit/ui/mainwindow"
	"imgedit/ui/prefs"
)

const appID = "io.github.imgedit"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s", version.String())

	bank, err := fonts.Default()
	if err != nil {
		log.Fatalf("Fonts: %v", err)
	}

	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.Settings().SetTheme(&app.EditorTheme{})

	appState := app.NewState(geometry.NewSize(800, 600), bank)
	appPrefs := prefs.Load()

	win := mainwindow.New(fyneApp, appState, appPrefs)

	// Handle command line arguments
	if len(os.Args) > 1 {
		win.LoadImage(os.Args[1])
	}

	win.ShowAndRun()
}
