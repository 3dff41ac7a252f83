package ui

import "time"

// UI-wide constants to avoid magic numbers/strings scattered across the codebase.

// Icons (emojis/symbols)
const (
	IconSettings = "⚙"
	IconUpdate   = "⟳"
	IconFolder   = "📁"
	IconStop     = "■"
)

// Text fragments
const (
	MiddleDotSeparator = " · "
	DashPlaceholder    = "—"
)

// Layout sizing (source rows / lists)
const (
	StatusLabelWidth  float32 = 84
	SpeedLabelWidth   float32 = 110
	PercentLabelWidth float32 = 48

	RowMinWidth  float32 = 420
	RowMinHeight float32 = 56
)

// Dialog sizing
const (
	SettingsDialogWidth  float32 = 520
	SettingsDialogHeight float32 = 560
)

// Debounce durations
const (
	UIUpdateDebounce = 100 * time.Millisecond
)

// Log panel behavior
const (
	MaxLogLines = 200
)
