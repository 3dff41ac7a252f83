package ui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/tdlgui/tdl-gui/internal/model"
	"github.com/tdlgui/tdl-gui/internal/progress"
)

// SourceRow renders the latest progress snapshot of one source: status,
// progress bar, transferred bytes, speed and ETA
type SourceRow struct {
	widget.BaseWidget

	snapshot model.ProgressSnapshot

	sourceLabel *widget.Label
	statusLabel *widget.Label
	speedLabel  *widget.Label
	progressBar *widget.ProgressBar
}

// NewSourceRow creates a row for one source
func NewSourceRow() *SourceRow {
	sr := &SourceRow{}
	sr.ExtendBaseWidget(sr)

	sr.sourceLabel = widget.NewLabel("")
	sr.sourceLabel.Truncation = fyne.TextTruncateEllipsis

	sr.statusLabel = widget.NewLabel("")
	sr.speedLabel = widget.NewLabel("")
	sr.progressBar = widget.NewProgressBar()

	return sr
}

// UpdateSnapshot replaces the displayed snapshot. Callers pass value copies;
// the row never shares state with the job that produced the snapshot.
func (sr *SourceRow) UpdateSnapshot(snap model.ProgressSnapshot) {
	sr.snapshot = snap

	sr.sourceLabel.SetText(snap.SourceID)
	sr.statusLabel.SetText(snap.Status.String())
	sr.progressBar.SetValue(snap.Percent / 100)
	sr.speedLabel.SetText(sr.detailText())
	sr.Refresh()
}

// detailText builds the bytes/speed/ETA summary under the progress bar
func (sr *SourceRow) detailText() string {
	snap := sr.snapshot

	transferred := progress.FormatBytes(snap.BytesDone)
	if snap.BytesTotal != model.UnknownTotal {
		transferred += " / " + progress.FormatBytes(snap.BytesTotal)
	}

	if snap.Status.IsTerminal() {
		return transferred
	}

	speed := DashPlaceholder
	if snap.Speed > 0 {
		speed = progress.FormatBytes(int64(snap.Speed)) + "/s"
	}
	return fmt.Sprintf("%s%s%s%sETA %s",
		transferred, MiddleDotSeparator, speed, MiddleDotSeparator, snap.ETAString())
}

// CreateRenderer builds the row layout
func (sr *SourceRow) CreateRenderer() fyne.WidgetRenderer {
	top := container.NewBorder(nil, nil, nil, sr.statusLabel, sr.sourceLabel)
	bottom := container.NewBorder(nil, nil, nil, sr.speedLabel, sr.progressBar)

	content := container.NewVBox(top, bottom)
	return widget.NewSimpleRenderer(content)
}

// MinSize keeps rows readable in narrow windows
func (sr *SourceRow) MinSize() fyne.Size {
	min := sr.BaseWidget.MinSize()
	if min.Width < RowMinWidth {
		min.Width = RowMinWidth
	}
	if min.Height < RowMinHeight {
		min.Height = RowMinHeight
	}
	return min
}
