package gioui

import (
	"image/color"

	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

var (
	transparent       = color.NRGBA{A: 0}
	primaryColor      = color.NRGBA{R: 206, G: 147, B: 216, A: 255}
	secondaryColor    = color.NRGBA{R: 128, G: 222, B: 234, A: 255}
	backgroundColor   = color.NRGBA{R: 18, G: 18, B: 18, A: 255}
	surfaceColor      = color.NRGBA{R: 30, G: 30, B: 30, A: 255}
	textColor         = color.NRGBA{R: 255, G: 255, B: 255, A: 222}
	disabledTextColor = color.NRGBA{R: 255, G: 255, B: 255, A: 97}
	selectionColor    = color.NRGBA{R: 255, G: 255, B: 255, A: 40}
	playheadColor     = color.NRGBA{R: 255, G: 255, B: 130, A: 255}
	meterColor        = color.NRGBA{R: 67, G: 217, B: 150, A: 255}
	meterHotColor     = color.NRGBA{R: 255, G: 100, B: 100, A: 255}
	errorColor        = color.NRGBA{R: 207, G: 102, B: 121, A: 255}
)

func NewTheme() *material.Theme {
	th := material.NewTheme()
	th.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()))
	th.Palette = material.Palette{
		Bg:         backgroundColor,
		Fg:         textColor,
		ContrastBg: primaryColor,
		ContrastFg: color.NRGBA{A: 255},
	}
	th.TextSize = unit.Sp(14)
	return th
}

func IconButton(th *material.Theme, w *widget.Clickable, icon []byte, description string, enabled bool) material.IconButtonStyle {
	ret := material.IconButton(th, w, widgetForIcon(icon), description)
	ret.Background = transparent
	ret.Inset = layout.UniformInset(unit.Dp(6))
	if enabled {
		ret.Color = primaryColor
	} else {
		ret.Color = disabledTextColor
	}
	return ret
}

// ToggleIcon shows on or off depending on the value.
func ToggleIcon(th *material.Theme, w *widget.Clickable, off, on []byte, description string, value bool) material.IconButtonStyle {
	icon := off
	if value {
		icon = on
	}
	ret := IconButton(th, w, icon, description, true)
	if !value {
		ret.Color = textColor
	}
	return ret
}

func LowEmphasisButton(th *material.Theme, w *widget.Clickable, text string) material.ButtonStyle {
	ret := material.Button(th, w, text)
	ret.Color = th.Palette.Fg
	ret.Background = transparent
	ret.Inset = layout.UniformInset(unit.Dp(6))
	return ret
}

func Label(th *material.Theme, text string, c color.NRGBA) material.LabelStyle {
	ret := material.Body2(th, text)
	ret.Color = c
	ret.MaxLines = 1
	return ret
}
