package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
	"github.com/waconsole/waconsole/internal/realtime"
)

// StatusBar displays persistent profile and connection status.
type StatusBar struct {
	*tview.TextView
	profile string
	state   realtime.State
	unread  int
	flash   string
}

// NewStatusBar creates a new status bar.
func NewStatusBar(profile string) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	sb := &StatusBar{TextView: tv, profile: profile, state: realtime.Disconnected}
	sb.render()
	return sb
}

// SetState updates the event-stream connection state display.
func (sb *StatusBar) SetState(state realtime.State) {
	sb.state = state
	sb.render()
}

// SetUnread updates the unread counter.
func (sb *StatusBar) SetUnread(n int) {
	sb.unread = n
	sb.render()
}

// SetFlash sets a temporary message.
func (sb *StatusBar) SetFlash(msg string) {
	sb.flash = msg
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	var link string
	switch sb.state {
	case realtime.Connected:
		link = "[green]● live[-]"
	case realtime.Connecting:
		link = "[orange]◌ connecting[-]"
	default:
		link = "[red]○ offline[-]"
	}

	unread := ""
	if sb.unread > 0 {
		unread = fmt.Sprintf(" | [fuchsia]%d unread[-]", sb.unread)
	}

	clock := time.Now().Format("15:04")

	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s%s | %s", sb.profile, link, unread, clock)
	if sb.flash != "" {
		line += fmt.Sprintf(" | [yellow]%s[-]", sb.flash)
	}

	_, _ = fmt.Fprint(sb, line)
}
