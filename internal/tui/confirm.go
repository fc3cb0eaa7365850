// Package tui holds the interactive confirm-and-fill flow used by the
// fill command. The preview itself is plain printed output; only the
// commit step is interactive.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jerichosy/gapfill/internal/preview"
)

type viewState int

const (
	confirmView viewState = iota
	fillingView
	doneView
)

// FillFunc runs the submissions and returns the outcome. It is executed
// once, inside the program, after the user confirms.
type FillFunc func() preview.Summary

type fillDoneMsg struct {
	summary preview.Summary
}

type Confirm struct {
	state     viewState
	spinner   spinner.Model
	prompt    string
	fill      FillFunc
	confirmed bool
	summary   *preview.Summary
}

func NewConfirm(prompt string, fill FillFunc) *Confirm {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return &Confirm{
		state:   confirmView,
		spinner: s,
		prompt:  prompt,
		fill:    fill,
	}
}

// Confirmed reports whether the user accepted the fill.
func (c *Confirm) Confirmed() bool { return c.confirmed }

// Summary returns the fill outcome, or nil when the user declined.
func (c *Confirm) Summary() *preview.Summary { return c.summary }

func (c *Confirm) Init() tea.Cmd {
	return c.spinner.Tick
}

func (c *Confirm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return c.handleKey(msg)
	case fillDoneMsg:
		c.summary = &msg.summary
		c.state = doneView
		return c, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		c.spinner, cmd = c.spinner.Update(msg)
		return c, cmd
	}
	return c, nil
}

func (c *Confirm) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch c.state {
	case confirmView:
		switch msg.String() {
		case "y", "Y":
			c.confirmed = true
			c.state = fillingView
			return c, tea.Batch(c.spinner.Tick, c.runFill())
		case "n", "N", "q", "esc", "enter", "ctrl+c":
			return c, tea.Quit
		}
	case fillingView:
		// Submissions are already in flight and run to completion;
		// quitting here would abandon the batch mid-write. Keys are
		// ignored until fillDoneMsg arrives.
	case doneView:
		return c, tea.Quit
	}
	return c, nil
}

func (c *Confirm) runFill() tea.Cmd {
	return func() tea.Msg {
		return fillDoneMsg{summary: c.fill()}
	}
}

func (c *Confirm) View() string {
	switch c.state {
	case confirmView:
		return titleStyle.Render(c.prompt) + "\n" +
			helpStyle.Render("y: create fillers • n/esc: cancel")
	case fillingView:
		return fmt.Sprintf("%s Creating filler entries...", c.spinner.View())
	case doneView:
		return c.renderDone()
	}
	return ""
}

func (c *Confirm) renderDone() string {
	s := c.summary
	out := successStyle.Render(fmt.Sprintf("Created %d filler entries.", s.Created))
	if s.Failed > 0 {
		out += "\n" + errorStyle.Render(fmt.Sprintf("%d submissions failed (details below).", s.Failed))
	}
	if s.SkippedDays > 0 {
		out += "\n" + warningStyle.Render(fmt.Sprintf("%d days skipped (no template entry).", s.SkippedDays))
	}
	return out + "\n" + helpStyle.Render("press any key to exit")
}
