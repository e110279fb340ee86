package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/waconsole/waconsole/internal/store"
	"github.com/waconsole/waconsole/internal/tui/ui"
)

// ChatTable is the chat list for one session.
type ChatTable struct {
	*tview.Table
	theme  *ui.Theme
	chats  []store.Chat
	filter string
}

// NewChatTable creates the chat list table.
func NewChatTable(theme *ui.Theme) *ChatTable {
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
	table.SetTitle(" Chats ")
	table.SetTitleColor(theme.TitleColor)

	return &ChatTable{
		Table: table,
		theme: theme,
	}
}

// Update refreshes the chat list with new data.
func (ct *ChatTable) Update(chats []store.Chat) {
	ct.chats = chats
	ct.render()
}

// SetFilter sets the active filter text and re-renders.
func (ct *ChatTable) SetFilter(filter string) {
	ct.filter = filter
	ct.render()
}

// ClearFilter clears the active filter.
func (ct *ChatTable) ClearFilter() {
	ct.filter = ""
	ct.render()
}

func (ct *ChatTable) visible() []store.Chat {
	if ct.filter == "" {
		return ct.chats
	}
	out := make([]store.Chat, 0, len(ct.chats))
	for _, c := range ct.chats {
		if containsFold(c.Name, ct.filter) || containsFold(c.LastMessagePreview, ct.filter) {
			out = append(out, c)
		}
	}
	return out
}

func (ct *ChatTable) render() {
	ct.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" NAME", 1},
		{" LAST MESSAGE", 2},
		{" TIME", 0},
		{" TYPE", 0},
	}
	for col, h := range headers {
		cell := tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(ct.theme.TableHeaderFg).
			SetBackgroundColor(ct.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp)
		ct.SetCell(0, col, cell)
	}

	visible := ct.visible()
	for i, chat := range visible {
		row := i + 1
		name := chat.Name
		if chat.UnreadCount > 0 {
			name = fmt.Sprintf("(%d) %s", chat.UnreadCount, name)
		}

		chatType := "DM"
		if chat.IsGroup {
			chatType = "GROUP"
		}

		nameColor := ct.theme.FgColor
		if chat.UnreadCount > 0 {
			nameColor = ct.theme.UnreadColor
		}

		ct.SetCell(row, 0, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(name))).SetExpansion(1).SetTextColor(nameColor))
		ct.SetCell(row, 1, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(chat.LastMessagePreview))).SetExpansion(2).SetTextColor(ct.theme.FgColor))
		ct.SetCell(row, 2, tview.NewTableCell(formatTimestamp(chat.LastMessageAt)).SetExpansion(0).SetTextColor(ct.theme.FgColor).SetAlign(tview.AlignRight))
		ct.SetCell(row, 3, tview.NewTableCell(chatType).SetExpansion(0).SetTextColor(ct.theme.FgColor).SetAlign(tview.AlignRight))
	}

	if ct.filter != "" {
		ct.SetTitle(fmt.Sprintf(" Chats (%d/%d) filter: %s ", len(visible), len(ct.chats), ct.filter))
	} else {
		ct.SetTitle(fmt.Sprintf(" Chats (%d) ", len(ct.chats)))
	}
}

// SelectedChat returns the currently selected chat, nil when none.
func (ct *ChatTable) SelectedChat() *store.Chat {
	row, _ := ct.GetSelection()
	idx := row - 1 // account for header
	visible := ct.visible()
	if idx < 0 || idx >= len(visible) {
		return nil
	}
	return &visible[idx]
}
