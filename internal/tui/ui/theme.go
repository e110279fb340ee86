package ui

import "github.com/gdamore/tcell/v2"

// Theme holds color constants for the console.
type Theme struct {
	BgColor          tcell.Color
	FgColor          tcell.Color
	BorderColor      tcell.Color
	BorderFocusColor tcell.Color
	TableHeaderFg    tcell.Color
	TableHeaderBg    tcell.Color
	TableCursorFg    tcell.Color
	TableCursorBg    tcell.Color
	MenuKeyColor     tcell.Color
	TitleColor       tcell.Color
	StatusOkColor    tcell.Color
	StatusWarnColor  tcell.Color
	StatusErrColor   tcell.Color
	FlashColor       tcell.Color
	UnreadColor      tcell.Color
}

// DefaultTheme returns a k9s-inspired dark theme.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:          tcell.ColorBlack,
		FgColor:          tcell.ColorCadetBlue,
		BorderColor:      tcell.ColorDodgerBlue,
		BorderFocusColor: tcell.ColorLightSkyBlue,
		TableHeaderFg:    tcell.ColorWhite,
		TableHeaderBg:    tcell.ColorBlack,
		TableCursorFg:    tcell.ColorBlack,
		TableCursorBg:    tcell.ColorAqua,
		MenuKeyColor:     tcell.ColorDodgerBlue,
		TitleColor:       tcell.ColorFuchsia,
		StatusOkColor:    tcell.ColorGreen,
		StatusWarnColor:  tcell.ColorOrange,
		StatusErrColor:   tcell.ColorOrangeRed,
		FlashColor:       tcell.ColorNavajoWhite,
		UnreadColor:      tcell.ColorOrange,
	}
}
