package ui

import (
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/tdlgui/tdl-gui/internal/config"
)

// SettingsDialog represents the settings configuration dialog
type SettingsDialog struct {
	settings *config.Settings
	window   fyne.Window
	dialog   *dialog.ConfirmDialog

	// UI components
	tdlPathEntry       *widget.Entry
	downloadDirEntry   *widget.Entry
	maxParallelEntry   *widget.Entry
	idleTimeoutEntry   *widget.Entry
	proxyModeSelect    *widget.Select
	proxyURLEntry      *widget.Entry
	storageDriverEntry *widget.Entry
	storagePathEntry   *widget.Entry
	namespaceEntry     *widget.Entry
	ntpEntry           *widget.Entry
	reconnectEntry     *widget.Entry
	debugCheck         *widget.Check
	autoUpdateCheck    *widget.Check
}

// NewSettingsDialog creates a new settings dialog
func NewSettingsDialog(settings *config.Settings, window fyne.Window) *SettingsDialog {
	sd := &SettingsDialog{
		settings: settings,
		window:   window,
	}

	sd.createUI()
	return sd
}

// Show displays the settings dialog
func (sd *SettingsDialog) Show() {
	sd.loadCurrentSettings()
	sd.dialog.Show()
}

// createUI creates the settings dialog UI
func (sd *SettingsDialog) createUI() {
	// tdl binary path; empty means automatic discovery
	sd.tdlPathEntry = widget.NewEntry()
	sd.tdlPathEntry.SetPlaceHolder("Leave empty for automatic discovery")
	browseTDLBtn := widget.NewButton("Browse", sd.onBrowseTDLPath)
	tdlPathRow := container.NewBorder(nil, nil, nil, browseTDLBtn, sd.tdlPathEntry)

	// Download directory selection
	sd.downloadDirEntry = widget.NewEntry()
	sd.downloadDirEntry.SetPlaceHolder("Download directory path")
	browseDirBtn := widget.NewButton("Browse", sd.onBrowseDirectory)
	downloadDirRow := container.NewBorder(nil, nil, nil, browseDirBtn, sd.downloadDirEntry)

	// Parallel sources and idle timeout
	sd.maxParallelEntry = widget.NewEntry()
	sd.maxParallelEntry.SetPlaceHolder("1-10")

	sd.idleTimeoutEntry = widget.NewEntry()
	sd.idleTimeoutEntry.SetPlaceHolder("Seconds without output, 0 disables")

	// Proxy configuration
	proxyOptions := []string{}
	for _, mode := range sd.settings.GetProxyModeOptions() {
		proxyOptions = append(proxyOptions, string(mode))
	}
	sd.proxyModeSelect = widget.NewSelect(proxyOptions, nil)

	sd.proxyURLEntry = widget.NewEntry()
	sd.proxyURLEntry.SetPlaceHolder("socks5://host:port")

	// tdl storage and account settings
	sd.storageDriverEntry = widget.NewEntry()
	sd.storageDriverEntry.SetPlaceHolder("bolt")
	sd.storagePathEntry = widget.NewEntry()
	sd.storagePathEntry.SetPlaceHolder("Leave empty for tdl default")
	sd.namespaceEntry = widget.NewEntry()
	sd.namespaceEntry.SetPlaceHolder("default")
	sd.ntpEntry = widget.NewEntry()
	sd.ntpEntry.SetPlaceHolder("pool.ntp.org (optional)")
	sd.reconnectEntry = widget.NewEntry()
	sd.reconnectEntry.SetPlaceHolder("5m")

	sd.debugCheck = widget.NewCheck("Run tdl with --debug", nil)
	sd.autoUpdateCheck = widget.NewCheck("Check for tdl updates on startup", nil)

	form := container.NewVBox(
		widget.NewLabel("Downloader"),
		widget.NewSeparator(),

		widget.NewLabel("tdl Binary:"),
		tdlPathRow,

		widget.NewLabel("Download Directory:"),
		downloadDirRow,

		widget.NewLabel("Parallel Sources:"),
		sd.maxParallelEntry,

		widget.NewLabel("Idle Timeout (seconds):"),
		sd.idleTimeoutEntry,

		widget.NewSeparator(),
		widget.NewLabel("Connection"),
		widget.NewSeparator(),

		widget.NewLabel("Proxy Mode:"),
		sd.proxyModeSelect,

		widget.NewLabel("Proxy URL (manual mode):"),
		sd.proxyURLEntry,

		widget.NewLabel("NTP Server:"),
		sd.ntpEntry,

		widget.NewLabel("Reconnect Timeout:"),
		sd.reconnectEntry,

		widget.NewSeparator(),
		widget.NewLabel("Account Storage"),
		widget.NewSeparator(),

		widget.NewLabel("Storage Driver:"),
		sd.storageDriverEntry,

		widget.NewLabel("Storage Path:"),
		sd.storagePathEntry,

		widget.NewLabel("Namespace:"),
		sd.namespaceEntry,

		widget.NewSeparator(),
		sd.debugCheck,
		sd.autoUpdateCheck,
	)

	sd.dialog = dialog.NewCustomConfirm(
		"Settings",
		"Save",
		"Cancel",
		container.NewVScroll(form),
		sd.onSave,
		sd.window,
	)

	sd.dialog.Resize(fyne.NewSize(SettingsDialogWidth, SettingsDialogHeight))
}

// loadCurrentSettings loads current settings into the UI
func (sd *SettingsDialog) loadCurrentSettings() {
	sd.tdlPathEntry.SetText(sd.settings.GetTDLPath())
	sd.downloadDirEntry.SetText(sd.settings.GetDownloadDirectory())
	sd.maxParallelEntry.SetText(strconv.Itoa(sd.settings.GetMaxParallelSources()))
	sd.idleTimeoutEntry.SetText(strconv.Itoa(int(sd.settings.GetIdleTimeout() / time.Second)))
	sd.proxyModeSelect.SetSelected(string(sd.settings.GetProxyMode()))
	sd.proxyURLEntry.SetText(sd.settings.GetProxyURL())
	sd.storageDriverEntry.SetText(sd.settings.GetStorageDriver())
	sd.storagePathEntry.SetText(sd.settings.GetStoragePath())
	sd.namespaceEntry.SetText(sd.settings.GetNamespace())
	sd.ntpEntry.SetText(sd.settings.GetNTPServer())
	sd.reconnectEntry.SetText(sd.settings.GetReconnectTimeout())
	sd.debugCheck.SetChecked(sd.settings.GetDebugLogging())
	sd.autoUpdateCheck.SetChecked(sd.settings.GetAutoCheckUpdates())
}

// onBrowseTDLPath handles browsing for the tdl executable
func (sd *SettingsDialog) onBrowseTDLPath() {
	dialog.ShowFileOpen(func(uri fyne.URIReadCloser, err error) {
		if err != nil || uri == nil {
			return
		}
		defer uri.Close()
		sd.tdlPathEntry.SetText(uri.URI().Path())
	}, sd.window)
}

// onBrowseDirectory handles directory browsing
func (sd *SettingsDialog) onBrowseDirectory() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		sd.downloadDirEntry.SetText(uri.Path())
	}, sd.window)
}

// onSave handles saving the settings
func (sd *SettingsDialog) onSave(confirmed bool) {
	if !confirmed {
		return
	}

	sd.settings.SetTDLPath(sd.tdlPathEntry.Text)

	if sd.downloadDirEntry.Text != "" {
		sd.settings.SetDownloadDirectory(sd.downloadDirEntry.Text)
	}

	if maxParallel, err := strconv.Atoi(sd.maxParallelEntry.Text); err == nil {
		sd.settings.SetMaxParallelSources(maxParallel)
	}

	if seconds, err := strconv.Atoi(sd.idleTimeoutEntry.Text); err == nil {
		sd.settings.SetIdleTimeout(time.Duration(seconds) * time.Second)
	}

	if sd.proxyModeSelect.Selected != "" {
		sd.settings.SetProxyMode(config.ProxyMode(sd.proxyModeSelect.Selected))
	}
	sd.settings.SetProxyURL(sd.proxyURLEntry.Text)

	if sd.storageDriverEntry.Text != "" {
		sd.settings.SetStorageDriver(sd.storageDriverEntry.Text)
	}
	sd.settings.SetStoragePath(sd.storagePathEntry.Text)

	if sd.namespaceEntry.Text != "" {
		sd.settings.SetNamespace(sd.namespaceEntry.Text)
	}
	sd.settings.SetNTPServer(sd.ntpEntry.Text)

	if sd.reconnectEntry.Text != "" {
		sd.settings.SetReconnectTimeout(sd.reconnectEntry.Text)
	}

	sd.settings.SetDebugLogging(sd.debugCheck.Checked)
	sd.settings.SetAutoCheckUpdates(sd.autoUpdateCheck.Checked)
}
