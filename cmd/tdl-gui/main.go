package main

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/tdlgui/tdl-gui/internal/platform"
	"github.com/tdlgui/tdl-gui/internal/runner"
	"github.com/tdlgui/tdl-gui/internal/ui"
)

func main() {
	myApp := app.NewWithID("com.tdlgui.tdl-gui")
	myWindow := myApp.NewWindow("tdl GUI")
	myWindow.Resize(fyne.NewSize(820, 620))

	r := runner.NewRunner(platform.NewTDLParser())
	ui.NewRootUI(myWindow, myApp, r)

	myWindow.ShowAndRun()
}
