package views

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/rivo/tview"
	"github.com/waconsole/waconsole/internal/platform"
	"github.com/waconsole/waconsole/internal/tui/ui"
)

// QRView displays the pairing QR code for a session awaiting authentication.
type QRView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewQRView creates a new QR pairing view.
func NewQRView(theme *ui.Theme) *QRView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Pair Session ")
	tv.SetTitleColor(theme.TitleColor)

	return &QRView{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the latest QR code for the session. Each code replaces the
// previous one wholesale.
func (qv *QRView) Update(code platform.QRCode) {
	qv.Clear()
	qv.SetTitle(fmt.Sprintf(" Pair Session: %s ", code.SessionName))

	content := code.QRString
	if content == "" {
		content = code.QR
	}

	ascii := renderQR(content)
	_, _ = fmt.Fprintf(qv, "\n  Scan this QR code with WhatsApp:\n\n%s\n  [::d]Attempt %d. Waiting for authentication...", ascii, code.Attempts)
}

// ShowMessage displays a status message instead of a QR code.
func (qv *QRView) ShowMessage(msg string) {
	qv.Clear()
	_, _ = fmt.Fprintf(qv, "\n\n%s", msg)
}

// renderQR converts a string to a compact ASCII QR code using Unicode
// half-block characters.
func renderQR(content string) string {
	qr, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "  (QR generation failed: " + err.Error() + ")"
	}
	qr.DisableBorder = false

	bitmap := qr.Bitmap()
	rows := len(bitmap)
	cols := 0
	if rows > 0 {
		cols = len(bitmap[0])
	}

	var sb strings.Builder

	for y := 0; y < rows; y += 2 {
		sb.WriteString("  ")
		for x := 0; x < cols; x++ {
			top := bitmap[y][x]
			bot := false
			if y+1 < rows {
				bot = bitmap[y+1][x]
			}
			switch {
			case top && bot:
				sb.WriteRune('\u2588') // █
			case top && !bot:
				sb.WriteRune('\u2580') // ▀
			case !top && bot:
				sb.WriteRune('\u2584') // ▄
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}

	return sb.String()
}
