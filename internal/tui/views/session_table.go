package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/waconsole/waconsole/internal/platform"
	"github.com/waconsole/waconsole/internal/store"
	"github.com/waconsole/waconsole/internal/tui/ui"
)

// SessionTable lists the platform's sessions.
type SessionTable struct {
	*tview.Table
	theme    *ui.Theme
	sessions []store.Session
}

// NewSessionTable creates the session list table.
func NewSessionTable(theme *ui.Theme) *SessionTable {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(" Sessions ")
	table.SetTitleColor(theme.TitleColor)

	return &SessionTable{
		Table: table,
		theme: theme,
	}
}

// Update refreshes the session list with new data.
func (st *SessionTable) Update(sessions []store.Session) {
	st.sessions = sessions
	st.render()
}

func (st *SessionTable) render() {
	st.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" NAME", 1},
		{" AGENT", 1},
		{" STATUS", 0},
		{" LAST SEEN", 0},
		{" MSGS", 0},
		{" CHATS", 0},
	}
	for col, h := range headers {
		cell := tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(st.theme.TableHeaderFg).
			SetBackgroundColor(st.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp)
		st.SetCell(0, col, cell)
	}

	for i, s := range st.sessions {
		row := i + 1
		st.SetCell(row, 0, tview.NewTableCell(" "+tview.Escape(s.SessionName)).SetExpansion(1).SetTextColor(st.theme.FgColor))
		st.SetCell(row, 1, tview.NewTableCell(" "+tview.Escape(s.AgentName)).SetExpansion(1).SetTextColor(st.theme.FgColor))
		st.SetCell(row, 2, tview.NewTableCell(statusLabel(s.Status)).SetExpansion(0))
		st.SetCell(row, 3, tview.NewTableCell(formatTimestamp(s.LastConnected)).SetExpansion(0).SetTextColor(st.theme.FgColor).SetAlign(tview.AlignRight))
		st.SetCell(row, 4, tview.NewTableCell(fmt.Sprintf("%d", s.TotalMessages)).SetExpansion(0).SetTextColor(st.theme.FgColor).SetAlign(tview.AlignRight))
		st.SetCell(row, 5, tview.NewTableCell(fmt.Sprintf("%d", s.TotalChats)).SetExpansion(0).SetTextColor(st.theme.FgColor).SetAlign(tview.AlignRight))
	}

	st.SetTitle(fmt.Sprintf(" Sessions (%d) ", len(st.sessions)))
}

// SelectedSession returns the name of the currently selected session.
func (st *SessionTable) SelectedSession() string {
	row, _ := st.GetSelection()
	idx := row - 1 // account for header
	if idx < 0 || idx >= len(st.sessions) {
		return ""
	}
	return st.sessions[idx].SessionName
}

// SelectedStatus returns the connection status of the selected session.
func (st *SessionTable) SelectedStatus() string {
	row, _ := st.GetSelection()
	idx := row - 1
	if idx < 0 || idx >= len(st.sessions) {
		return ""
	}
	return st.sessions[idx].Status
}

func statusLabel(status string) string {
	switch status {
	case platform.SessionReady, platform.SessionAuthed:
		return "[green]" + status + "[-]"
	case platform.SessionAuthFailure, platform.SessionDisconnected:
		return "[red]" + status + "[-]"
	case "":
		return "[::d]unknown[-:-:-]"
	default:
		return "[orange]" + status + "[-]"
	}
}
