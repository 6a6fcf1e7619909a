package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Adaptive colors for light/dark terminal backgrounds
	accentColor = lipgloss.AdaptiveColor{Light: "#D6249F", Dark: "#FF79C6"}
	greenColor  = lipgloss.AdaptiveColor{Light: "#116620", Dark: "#50FA7B"}
	yellowColor = lipgloss.AdaptiveColor{Light: "#7D5A00", Dark: "#F1FA8C"}
	redColor    = lipgloss.AdaptiveColor{Light: "#B31D28", Dark: "#FF5555"}
	dimColor    = lipgloss.AdaptiveColor{Light: "#777777", Dark: "#6272A4"}
	hlBgColor   = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#333333"}
	cyanColor   = lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#8BE9FD"}

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			PaddingLeft(1)

	headerStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			PaddingLeft(1)

	cursorStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	selectedRowStyle = lipgloss.NewStyle().
				Background(hlBgColor)

	activeStyle = lipgloss.NewStyle().
			Foreground(greenColor)

	idleStyle = lipgloss.NewStyle().
			Foreground(yellowColor)

	sentinelStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			Italic(true)

	gpuStyle = lipgloss.NewStyle().
			Foreground(cyanColor)

	dimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(redColor).
			PaddingLeft(1)

	confirmLabelStyle = lipgloss.NewStyle().
				Foreground(redColor).
				Bold(true).
				PaddingLeft(1)

	confirmKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FFFFFF"}).
			Background(redColor).
			Bold(true).
			Padding(0, 1)

	confirmDimStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			PaddingLeft(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			PaddingLeft(1)

	inputLabelStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)
)

// pad right-pads s to width with spaces (based on visual width, not byte count).
func pad(s string, width int) string {
	visual := lipgloss.Width(s)
	if visual >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visual)
}

func (m Model) title() string {
	host := m.conn.Executor().HostName()
	if host == "" {
		return "jobmux " + m.sess.Name()
	}
	return "jobmux " + host + ":" + m.sess.Name()
}

func (m Model) View() string {
	if m.quitting && m.AttachTarget == "" {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title()))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}

	if len(m.windows) == 0 && m.err == nil {
		b.WriteString("  No windows.\n\n")
	} else if len(m.windows) > 0 {
		m.renderWindows(&b)
	}

	b.WriteString(inputLabelStyle.Render(" > "))
	b.WriteString(m.input.View())
	b.WriteString("\n")

	// Help bar / kill confirmation (same slot to avoid layout shift)
	switch {
	case m.confirmKill != nil:
		b.WriteString(confirmLabelStyle.Render(fmt.Sprintf("Kill window '%s'?", m.confirmKill.Name)))
		b.WriteString("  ")
		b.WriteString(confirmKeyStyle.Render("Enter"))
		b.WriteString(confirmDimStyle.Render("confirm"))
		b.WriteString("  ")
		b.WriteString(confirmKeyStyle.Render("Esc"))
		b.WriteString(confirmDimStyle.Render("cancel"))
	case strings.HasPrefix(m.input.Value(), "/new"):
		b.WriteString(helpStyle.Render("/new <name> [index]  create or find a window"))
	case strings.HasPrefix(m.input.Value(), "/run"):
		b.WriteString(helpStyle.Render("/run <command>  type a command into the selected window"))
	default:
		b.WriteString(helpStyle.Render("enter attach  /new  /run  j/k navigate  ctrl+k kill  q quit"))
	}
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(helpStyle.Render(m.status))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderWindows(b *strings.Builder) {
	maxVis := m.maxVisibleWindows()
	end := m.scrollOffset + maxVis
	if end > len(m.filtered) {
		end = len(m.filtered)
	}
	scrollable := len(m.filtered) > maxVis

	type rowData struct {
		index, name, state, activity string
	}
	rows := make([]rowData, 0, end-m.scrollOffset)
	for i := m.scrollOffset; i < end; i++ {
		w := m.filtered[i]
		name := w.Name
		if len(name) > 32 {
			name = name[:29] + "..."
		}
		rows = append(rows, rowData{
			index:    strconv.Itoa(w.Index),
			name:     m.renderName(name),
			state:    renderState(w.Active),
			activity: m.renderActivity(w.Activity),
		})
	}

	wIndex, wName, wState := len("INDEX"), len("NAME"), len("STATE")
	for _, r := range rows {
		wIndex = max(wIndex, lipgloss.Width(r.index))
		wName = max(wName, lipgloss.Width(r.name))
		wState = max(wState, lipgloss.Width(r.state))
	}

	header := "    " + pad("INDEX", wIndex) + "  " + pad("NAME", wName) + "  " + pad("STATE", wState) + "  ACTIVITY"
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	if scrollable {
		if m.scrollOffset > 0 {
			b.WriteString(helpStyle.Render(fmt.Sprintf("    ↑ %d more", m.scrollOffset)))
		}
		b.WriteString("\n")
	}

	for ri, r := range rows {
		i := m.scrollOffset + ri
		row := " " + pad(r.index, wIndex) + "  " + pad(r.name, wName) + "  " + pad(r.state, wState) + "  " + r.activity
		if i == m.cursor {
			b.WriteString(cursorStyle.Render(" >"))
			b.WriteString(selectedRowStyle.Render(row))
		} else {
			b.WriteString("  ")
			b.WriteString(row)
		}
		b.WriteString("\n")
	}

	if scrollable {
		if end < len(m.filtered) {
			b.WriteString(helpStyle.Render(fmt.Sprintf("    ↓ %d more", len(m.filtered)-end)))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func (m Model) renderName(name string) string {
	if name == m.conn.Layout().SentinelName {
		return sentinelStyle.Render(name)
	}
	if strings.HasPrefix(name, "gpu-") {
		return gpuStyle.Render(name)
	}
	return name
}

func renderState(active bool) string {
	if active {
		return activeStyle.Render("active")
	}
	return idleStyle.Render("idle")
}
