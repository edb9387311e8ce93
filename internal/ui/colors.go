package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/minhvu/tcbsync/internal/models"
)

var styles = NewPalette("#7D56F4", "#04B575", "#F43F5E", "#F59E0B", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	badge lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
		badge: lipgloss.NewStyle().Bold(true).Padding(0, 1),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// stateBadge renders the job state with a state-dependent background.
func (p *Palette) stateBadge(state models.SyncState) string {
	var bg string
	switch {
	case state == models.StateSuccess:
		bg = "#04B575"
	case state == models.StateError:
		bg = "#F43F5E"
	case state.WaitingOTP():
		bg = "#F59E0B"
	case state.Running():
		bg = "#7D56F4"
	default:
		bg = "#626262"
	}
	return p.badge.Background(lipgloss.Color(bg)).Render(state.Label())
}

// logLine colors an activity log line by its display class.
func (p *Palette) logLine(line string) string {
	switch models.ClassifyLogLine(line) {
	case models.LogError:
		return p.err.Render(line)
	case models.LogSuccess:
		return p.ok.Render(line)
	case models.LogWarning:
		return p.warn.Render(line)
	default:
		return line
	}
}
