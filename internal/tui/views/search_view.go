package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/waconsole/waconsole/internal/store"
	"github.com/waconsole/waconsole/internal/tui/ui"
)

// SearchView is a full-text search prompt over the cached message history,
// with a results table below.
type SearchView struct {
	*tview.Flex
	theme   *ui.Theme
	input   *tview.InputField
	results *tview.Table
	hits    []store.SearchResult
	onQuery func(query string)
}

// NewSearchView creates the search view.
func NewSearchView(theme *ui.Theme) *SearchView {
	input := tview.NewInputField().
		SetLabel(" Search: ").
		SetFieldWidth(0)
	input.SetBorder(true)
	input.SetBorderColor(theme.BorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	results := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	results.SetBorder(true)
	results.SetBorderColor(theme.BorderColor)
	results.SetBackgroundColor(theme.BgColor)
	results.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	results.SetTitle(" Results ")
	results.SetTitleColor(theme.TitleColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(input, 3, 0, true).
		AddItem(results, 0, 1, false)

	sv := &SearchView{
		Flex:    flex,
		theme:   theme,
		input:   input,
		results: results,
	}

	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && sv.onQuery != nil {
			sv.onQuery(input.GetText())
		}
	})

	return sv
}

// SetOnQuery sets the callback invoked when a query is submitted.
func (sv *SearchView) SetOnQuery(fn func(query string)) {
	sv.onQuery = fn
}

// Update replaces the result set.
func (sv *SearchView) Update(hits []store.SearchResult) {
	sv.hits = hits
	sv.render()
}

func (sv *SearchView) render() {
	sv.results.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" CHAT", 1},
		{" SENDER", 1},
		{" MATCH", 3},
		{" TIME", 0},
	}
	for col, h := range headers {
		cell := tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(sv.theme.TableHeaderFg).
			SetBackgroundColor(sv.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp)
		sv.results.SetCell(0, col, cell)
	}

	for i, hit := range sv.hits {
		row := i + 1
		sv.results.SetCell(row, 0, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(hit.ChatID))).SetExpansion(1).SetTextColor(sv.theme.FgColor))
		sv.results.SetCell(row, 1, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(hit.SenderName))).SetExpansion(1).SetTextColor(sv.theme.FgColor))
		sv.results.SetCell(row, 2, tview.NewTableCell(" "+tview.Escape(sanitizeForTerminal(hit.Snippet))).SetExpansion(3).SetTextColor(sv.theme.FgColor))
		sv.results.SetCell(row, 3, tview.NewTableCell(formatTimestamp(hit.Timestamp)).SetExpansion(0).SetTextColor(sv.theme.FgColor).SetAlign(tview.AlignRight))
	}

	sv.results.SetTitle(fmt.Sprintf(" Results (%d) ", len(sv.hits)))
}

// SelectedResult returns the currently selected hit, nil when none.
func (sv *SearchView) SelectedResult() *store.SearchResult {
	row, _ := sv.results.GetSelection()
	idx := row - 1 // account for header
	if idx < 0 || idx >= len(sv.hits) {
		return nil
	}
	return &sv.hits[idx]
}

// Input returns the query input field (for focus management).
func (sv *SearchView) Input() *tview.InputField {
	return sv.input
}

// Results returns the results table (for focus management).
func (sv *SearchView) Results() *tview.Table {
	return sv.results
}
