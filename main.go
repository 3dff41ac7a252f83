package main

import (
	"fmt"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/joho/godotenv"

	"github.com/tdlgui/tdl-gui/internal/platform"
	"github.com/tdlgui/tdl-gui/internal/runner"
	"github.com/tdlgui/tdl-gui/internal/ui"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppID   = "com.tdlgui.tdl-gui"
	AppName = "tdl GUI"

	WindowWidth  = 820
	WindowHeight = 620
)

func main() {
	fmt.Printf("%s v%s starting...\n", AppName, version)

	// A .env next to the binary can override stored preferences
	if err := godotenv.Load(); err == nil {
		log.Printf("loaded overrides from .env")
	}

	myApp := app.NewWithID(AppID)
	myApp.Settings().SetTheme(ui.NewCompactTheme())

	windowTitle := fmt.Sprintf("%s v%s", AppName, version)
	myWindow := myApp.NewWindow(windowTitle)
	myWindow.Resize(fyne.NewSize(WindowWidth, WindowHeight))

	r := runner.NewRunner(platform.NewTDLParser())

	rootUI := ui.NewRootUI(myWindow, myApp, r)
	rootUI.CheckUpdatesOnStartup()

	myWindow.ShowAndRun()
}
