// Package ui implements the Fyne desktop shell: the main window with the
// source input, per-source progress rows, the aggregate progress panel and
// the settings and update dialogs.
package ui
