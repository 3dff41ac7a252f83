package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/tdlgui/tdl-gui/internal/config"
	"github.com/tdlgui/tdl-gui/internal/model"
	"github.com/tdlgui/tdl-gui/internal/platform"
	"github.com/tdlgui/tdl-gui/internal/progress"
	"github.com/tdlgui/tdl-gui/internal/runner"
	"github.com/tdlgui/tdl-gui/internal/update"
)

// RootUI represents the main window
type RootUI struct {
	window   fyne.Window
	settings *config.Settings
	runner   *runner.Runner

	sourcesEntry *widget.Entry
	downloadBtn  *widget.Button
	cancelBtn    *widget.Button

	rowContainer *fyne.Container
	rows         map[string]*SourceRow

	overallBar   *widget.ProgressBar
	overallLabel *widget.Label

	logLabel  *widget.Label
	logScroll *container.Scroll
	logLines  []string

	// UI update debouncing
	lastUIUpdate  time.Time
	uiUpdateMutex sync.Mutex

	jobMu      sync.Mutex
	currentJob *runner.Job
}

// NewRootUI creates and initializes the main UI
func NewRootUI(window fyne.Window, app fyne.App, r *runner.Runner) *RootUI {
	settings := config.NewSettings(app)

	// Make sure the download directory exists up front
	if err := platform.CreateDirectoryIfNotExists(settings.GetDownloadDirectory()); err != nil {
		log.Printf("failed to create download directory: %v", err)
	}

	ui := &RootUI{
		window:   window,
		settings: settings,
		runner:   r,
		rows:     make(map[string]*SourceRow),
	}

	window.SetTitle("tdl GUI")

	ui.setupUI()
	return ui
}

// setupUI creates and arranges all UI components
func (ui *RootUI) setupUI() {
	ui.createMenu()

	ui.sourcesEntry = widget.NewMultiLineEntry()
	ui.sourcesEntry.SetPlaceHolder("Telegram message links, one per line\nhttps://t.me/channel/123")
	ui.sourcesEntry.SetMinRowsVisible(3)

	ui.downloadBtn = widget.NewButton("Download", ui.onDownloadClick)
	ui.cancelBtn = widget.NewButton(IconStop+" Cancel", ui.onCancelClick)
	ui.cancelBtn.Disable()

	settingsBtn := widget.NewButton(IconSettings, ui.onShowSettings)
	settingsBtn.Importance = widget.LowImportance

	buttons := container.NewVBox(ui.downloadBtn, ui.cancelBtn)
	topPanel := container.NewBorder(nil, nil, container.NewHBox(settingsBtn), buttons, ui.sourcesEntry)

	// Aggregate progress panel
	ui.overallBar = widget.NewProgressBar()
	ui.overallLabel = widget.NewLabel("")
	overallPanel := container.NewBorder(nil, nil, nil, ui.overallLabel, ui.overallBar)

	// Per-source rows
	ui.rowContainer = container.NewVBox()
	rowScroll := container.NewVScroll(ui.rowContainer)

	// Raw output log
	ui.logLabel = widget.NewLabel("")
	ui.logLabel.Wrapping = fyne.TextWrapBreak
	ui.logLabel.TextStyle = fyne.TextStyle{Monospace: true}
	ui.logScroll = container.NewVScroll(ui.logLabel)

	center := container.NewVSplit(rowScroll, ui.logScroll)
	center.SetOffset(0.7)

	content := container.NewBorder(
		container.NewVBox(topPanel, overallPanel), // top
		nil, nil, nil,
		center,
	)

	ui.window.SetContent(content)
}

// createMenu creates the application menu
func (ui *RootUI) createMenu() {
	settingsItem := fyne.NewMenuItem("Settings", ui.onShowSettings)
	updateItem := fyne.NewMenuItem("Check for tdl Updates", ui.onCheckUpdates)

	mainMenu := fyne.NewMainMenu(
		fyne.NewMenu("File", settingsItem, updateItem),
	)

	ui.window.SetMainMenu(mainMenu)
}

// CheckUpdatesOnStartup runs the update check in the background when the
// corresponding setting is enabled
func (ui *RootUI) CheckUpdatesOnStartup() {
	if !ui.settings.GetAutoCheckUpdates() {
		return
	}
	go ui.checkForUpdates(false)
}

// parseSources splits the entry text into one source per non-empty line
func parseSources(text string) []string {
	var sources []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		source := strings.TrimSpace(line)
		if source == "" || seen[source] {
			continue
		}
		seen[source] = true
		sources = append(sources, source)
	}
	return sources
}

// onDownloadClick builds one command per source and starts the job
func (ui *RootUI) onDownloadClick() {
	sources := parseSources(ui.sourcesEntry.Text)
	if len(sources) == 0 {
		ui.appendLog("Enter at least one message link")
		return
	}

	ui.jobMu.Lock()
	if ui.currentJob != nil {
		ui.jobMu.Unlock()
		ui.appendLog("A download is already running")
		return
	}
	ui.jobMu.Unlock()

	binaryPath, err := ui.resolveTDLPath()
	if err != nil {
		dialog.ShowError(err, ui.window)
		return
	}

	downloadDir := ui.settings.GetDownloadDirectory()
	if err := platform.CreateDirectoryIfNotExists(downloadDir); err != nil {
		dialog.ShowError(err, ui.window)
		return
	}

	globalArgs := platform.BuildGlobalArgs(ui.settings.RunOptions())
	idleTimeout := ui.settings.GetIdleTimeout()

	specs := make([]model.CommandSpec, 0, len(sources))
	for _, source := range sources {
		args := append(append([]string{}, globalArgs...),
			"dl", "-u", source, "-d", downloadDir, "--continue")
		specs = append(specs, model.CommandSpec{
			SourceID:    source,
			Path:        binaryPath,
			Args:        args,
			IdleTimeout: idleTimeout,
		})
	}

	job, err := ui.runner.Execute(specs, ui.settings.GetMaxParallelSources())
	if err != nil {
		dialog.ShowError(err, ui.window)
		return
	}

	log.Printf("started job %s with %d sources", job.ID, len(specs))

	ui.jobMu.Lock()
	ui.currentJob = job
	ui.jobMu.Unlock()

	ui.resetRows()
	ui.downloadBtn.Disable()
	ui.cancelBtn.Enable()
	ui.appendLog(fmt.Sprintf("Started %d source(s)", len(specs)))

	go ui.consumeNotifications(job)
}

// resolveTDLPath finds the tdl binary: explicit setting first, then the
// managed bin directory, then PATH
func (ui *RootUI) resolveTDLPath() (string, error) {
	if path := ui.settings.GetTDLPath(); path != "" {
		return path, nil
	}

	binDir, err := platform.DefaultBinDir()
	if err != nil {
		return "", err
	}
	path, location, err := platform.LocateBinary(binDir)
	if err != nil {
		return "", fmt.Errorf("%w; install tdl or set its path in Settings", err)
	}
	log.Printf("using tdl binary at %s (%s)", path, location)
	return path, nil
}

// consumeNotifications drains one job's notification channel and relays
// updates onto the UI thread. It exits when the channel closes, which is
// guaranteed to happen after the terminal Finished notification.
func (ui *RootUI) consumeNotifications(job *runner.Job) {
	for n := range job.Notifications() {
		switch n.Kind {
		case model.NoteProgress:
			ui.applyProgress(n)

		case model.NoteOutput:
			ui.appendLog(n.Message)

		case model.NoteWarning:
			ui.appendLog("warning [" + n.SourceID + "]: " + n.Message)

		case model.NoteError:
			ui.appendLog("error [" + n.SourceID + "]: " + n.Message)

		case model.NoteFinished:
			ui.onJobFinished(job, n)
		}
	}
}

// applyProgress updates the source row and aggregate panel, debounced so a
// chatty subprocess cannot flood the render loop. Terminal snapshots always
// render.
func (ui *RootUI) applyProgress(n model.Notification) {
	if !n.Snapshot.Status.IsTerminal() {
		ui.uiUpdateMutex.Lock()
		tooSoon := time.Since(ui.lastUIUpdate) < UIUpdateDebounce
		if !tooSoon {
			ui.lastUIUpdate = time.Now()
		}
		ui.uiUpdateMutex.Unlock()
		if tooSoon {
			return
		}
	}

	snap := n.Snapshot
	agg := n.Aggregate

	fyne.Do(func() {
		row, ok := ui.rows[snap.SourceID]
		if !ok {
			row = NewSourceRow()
			ui.rows[snap.SourceID] = row
			ui.rowContainer.Add(row)
		}
		row.UpdateSnapshot(snap)

		ui.overallBar.SetValue(agg.Percent / 100)
		ui.overallLabel.SetText(formatAggregate(agg))
	})
}

// formatAggregate builds the one-line overall summary next to the bar
func formatAggregate(agg model.AggregateSnapshot) string {
	done := progress.FormatBytes(agg.BytesDone)

	if !agg.TotalKnown {
		if agg.Speed > 0 {
			return done + MiddleDotSeparator + progress.FormatBytes(int64(agg.Speed)) + "/s"
		}
		return done
	}

	summary := fmt.Sprintf("%s / %s", done, progress.FormatBytes(agg.BytesTotal))
	if agg.Speed > 0 {
		summary += MiddleDotSeparator + progress.FormatBytes(int64(agg.Speed)) + "/s"
		summary += MiddleDotSeparator + "ETA " + agg.ETAString()
	}
	return summary
}

// onJobFinished reports the outcome and re-arms the controls
func (ui *RootUI) onJobFinished(job *runner.Job, n model.Notification) {
	ui.jobMu.Lock()
	ui.currentJob = nil
	ui.jobMu.Unlock()

	log.Printf("job %s finished: %s (%d failures)", job.ID, n.Outcome, len(n.Failures))

	message := "Finished: " + n.Outcome.String()
	for _, failure := range n.Failures {
		message += fmt.Sprintf("\n  %s: %s", failure.SourceID, failure.Diagnostic)
	}
	ui.appendLog(message)

	fyne.Do(func() {
		ui.downloadBtn.Enable()
		ui.cancelBtn.Disable()

		switch n.Outcome {
		case model.OutcomeSucceeded:
			ui.overallBar.SetValue(1)
		case model.OutcomeFailed, model.OutcomePartialFailure:
			dialog.ShowInformation("Download finished", message, ui.window)
		}
	})
}

// onCancelClick cancels the running job; already-finished sources keep
// their results
func (ui *RootUI) onCancelClick() {
	ui.jobMu.Lock()
	job := ui.currentJob
	ui.jobMu.Unlock()

	if job != nil {
		job.Cancel()
		ui.appendLog("Cancelling...")
	}
}

// resetRows clears the per-source rows before a new job
func (ui *RootUI) resetRows() {
	ui.rows = make(map[string]*SourceRow)
	ui.rowContainer.RemoveAll()
	ui.overallBar.SetValue(0)
	ui.overallLabel.SetText("")
}

// appendLog adds one line to the bounded output log. Safe from any goroutine.
func (ui *RootUI) appendLog(line string) {
	fyne.Do(func() {
		ui.logLines = append(ui.logLines, line)
		if len(ui.logLines) > MaxLogLines {
			ui.logLines = ui.logLines[len(ui.logLines)-MaxLogLines:]
		}
		ui.logLabel.SetText(strings.Join(ui.logLines, "\n"))
		ui.logScroll.ScrollToBottom()
	})
}

// onShowSettings shows the settings dialog
func (ui *RootUI) onShowSettings() {
	NewSettingsDialog(ui.settings, ui.window).Show()
}

// onCheckUpdates runs a user-initiated update check
func (ui *RootUI) onCheckUpdates() {
	go ui.checkForUpdates(true)
}

// checkForUpdates queries the latest tdl release and, after confirmation,
// downloads and installs it. When interactive is false a missing update is
// reported only to the log.
func (ui *RootUI) checkForUpdates(interactive bool) {
	binDir, err := platform.DefaultBinDir()
	if err != nil {
		ui.appendLog("update check failed: " + err.Error())
		return
	}

	binaryPath := ui.settings.GetTDLPath()
	if binaryPath == "" {
		binaryPath, _, err = platform.LocateBinary(binDir)
		if err != nil {
			// Nothing installed yet: install into the managed directory
			binaryPath = ""
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	currentVersion := ""
	if binaryPath != "" {
		if v, err := update.DetectVersion(ctx, binaryPath); err == nil {
			currentVersion = v
		}
	}

	installPath := binaryPath
	if installPath == "" {
		installPath = filepath.Join(binDir, platform.ExecutableName())
	}

	manager := update.NewManager(installPath, currentVersion)
	info, err := manager.CheckForUpdate(ctx)
	if errors.Is(err, update.ErrNoUpdate) {
		ui.appendLog("tdl is up to date (" + currentVersion + ")")
		if interactive {
			fyne.Do(func() {
				dialog.ShowInformation("tdl Update", "tdl is up to date.", ui.window)
			})
		}
		return
	}
	if err != nil {
		ui.appendLog("update check failed: " + err.Error())
		return
	}

	prompt := fmt.Sprintf("Install tdl %s?", info.Version)
	if currentVersion != "" {
		prompt = fmt.Sprintf("Update tdl %s to %s?", currentVersion, info.Version)
	}

	fyne.Do(func() {
		dialog.ShowConfirm("tdl Update", prompt, func(confirmed bool) {
			if confirmed {
				go ui.installUpdate(manager, info)
			}
		}, ui.window)
	})
}

// installUpdate performs the download and swap, relaying progress to the log
func (ui *RootUI) installUpdate(manager *update.Manager, info *update.UpdateInfo) {
	ui.appendLog("Downloading tdl " + info.Version + "...")

	job := manager.PerformUpdate(context.Background(), info)

	var lastPercent int
	for n := range job.Notifications() {
		switch n.Kind {
		case model.NoteProgress:
			percent := int(n.Snapshot.Percent)
			if percent >= lastPercent+10 {
				lastPercent = percent
				ui.appendLog(fmt.Sprintf("Update download: %d%%", percent))
			}
		case model.NoteError:
			ui.appendLog(n.Message)
		case model.NoteFinished:
			if n.Outcome == model.OutcomeSucceeded {
				ui.appendLog("tdl " + info.Version + " installed")
				fyne.Do(func() {
					dialog.ShowInformation("tdl Update",
						"tdl "+info.Version+" installed.", ui.window)
				})
			} else {
				ui.appendLog("Update " + strings.ToLower(n.Outcome.String()))
			}
		}
	}
}
