package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/waconsole/waconsole/internal/history"
	"github.com/waconsole/waconsole/internal/platform"
	"github.com/waconsole/waconsole/internal/tui/ui"
)

// Thread displays the open chat's messages with a composer below.
type Thread struct {
	*tview.Flex
	theme     *ui.Theme
	messages  *tview.TextView
	composer  *tview.InputField
	chatName  string
	lineCount int
	loading   bool
	onSend    func(text string)
}

// NewThread creates the message thread view.
func NewThread(theme *ui.Theme) *Thread {
	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	messages.SetBorder(true)
	messages.SetBorderColor(theme.BorderColor)
	messages.SetBackgroundColor(theme.BgColor)
	messages.SetTextColor(theme.FgColor)
	messages.SetTitle(" Messages ")
	messages.SetTitleColor(theme.TitleColor)

	composer := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	composer.SetBorder(true)
	composer.SetBorderColor(theme.BorderColor)
	composer.SetBackgroundColor(theme.BgColor)
	composer.SetFieldBackgroundColor(theme.BgColor)
	composer.SetFieldTextColor(theme.FgColor)
	composer.SetLabelColor(theme.MenuKeyColor)
	composer.SetTitle(" Compose (i to focus) ")
	composer.SetTitleColor(theme.TitleColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(messages, 0, 1, true).
		AddItem(composer, 3, 0, false)

	t := &Thread{
		Flex:     flex,
		theme:    theme,
		messages: messages,
		composer: composer,
	}

	composer.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && t.onSend != nil {
			text := composer.GetText()
			if text != "" {
				t.onSend(text)
				composer.SetText("")
			}
		}
	})

	return t
}

// SetChatName updates the chat name and title.
func (t *Thread) SetChatName(name string) {
	t.chatName = name
	t.renderTitle()
}

// SetLoading toggles the older-page loading indicator in the title.
func (t *Thread) SetLoading(loading bool) {
	t.loading = loading
	t.renderTitle()
}

func (t *Thread) renderTitle() {
	title := fmt.Sprintf(" %s ", t.chatName)
	if t.loading {
		title = fmt.Sprintf(" %s (loading…) ", t.chatName)
	}
	t.messages.SetTitle(title)
}

// SetOnSend sets the callback when a message is submitted.
func (t *Thread) SetOnSend(fn func(text string)) {
	t.onSend = fn
}

// Update re-renders the thread and follows the tail when the view was
// already at the bottom.
func (t *Thread) Update(msgs []platform.Message) {
	follow := t.atBottom()
	t.render(msgs)
	if follow {
		t.messages.ScrollToEnd()
	}
}

// UpdateToEnd re-renders and jumps to the newest message.
func (t *Thread) UpdateToEnd(msgs []platform.Message) {
	t.render(msgs)
	t.messages.ScrollToEnd()
}

// UpdateAnchored re-renders after older messages were prepended, keeping
// the previously visible row in place: the scroll offset moves down by
// exactly the number of lines the view grew.
func (t *Thread) UpdateAnchored(msgs []platform.Message) {
	prevRow, _ := t.messages.GetScrollOffset()
	prevLines := t.lineCount
	t.render(msgs)
	t.messages.ScrollTo(history.AnchorOffset(prevRow, prevLines, t.lineCount), 0)
}

// ScrollRow returns the current scroll offset in lines.
func (t *Thread) ScrollRow() int {
	row, _ := t.messages.GetScrollOffset()
	return row
}

func (t *Thread) atBottom() bool {
	row, _ := t.messages.GetScrollOffset()
	_, _, _, height := t.messages.GetInnerRect()
	return row+height >= t.lineCount
}

func (t *Thread) render(msgs []platform.Message) {
	var b strings.Builder
	for _, m := range msgs {
		sender := m.SenderName
		if sender == "" {
			sender = m.FromNumber
		}
		if m.FromMe {
			sender = "You"
		}

		ticks := ""
		if m.FromMe {
			ticks = " " + statusTicks(m.Status)
		}

		body := m.Body
		if body == "" && m.MediaURL != "" {
			body = fmt.Sprintf("[%s]", m.MessageType)
		}

		fmt.Fprintf(&b, "[::b]%s[-:-:-] [::d]%s[-:-:-]%s\n%s\n\n",
			tview.Escape(sanitizeForTerminal(sender)),
			formatTimestamp(int64(m.Timestamp)),
			ticks,
			tview.Escape(sanitizeForTerminal(body)))
	}

	text := b.String()
	t.lineCount = strings.Count(text, "\n")
	t.messages.Clear()
	_, _ = fmt.Fprint(t.messages, text)
}

// Messages returns the messages text view (for focus management).
func (t *Thread) Messages() *tview.TextView {
	return t.messages
}

// Composer returns the composer input field (for focus management).
func (t *Thread) Composer() *tview.InputField {
	return t.composer
}
