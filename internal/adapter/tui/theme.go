package tui

import "github.com/charmbracelet/lipgloss"

// Theme is the color palette of the client. Colors are ANSI 256 codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	MineForeground   lipgloss.Color
	TheirsForeground lipgloss.Color
	PendingText      lipgloss.Color
	FailedText       lipgloss.Color

	BuyBadge  lipgloss.Color
	SellBadge lipgloss.Color

	NoticeInfo  lipgloss.Color
	NoticeError lipgloss.Color
}

var DefaultTheme = Theme{
	NormalText:         lipgloss.Color("252"),
	FaintText:          lipgloss.Color("243"),
	SelectedBackground: lipgloss.Color("237"),
	SelectedForeground: lipgloss.Color("255"),
	HeaderForeground:   lipgloss.Color("39"),
	BorderColor:        lipgloss.Color("240"),
	HelpText:           lipgloss.Color("245"),
	MineForeground:     lipgloss.Color("81"),
	TheirsForeground:   lipgloss.Color("252"),
	PendingText:        lipgloss.Color("243"),
	FailedText:         lipgloss.Color("203"),
	BuyBadge:           lipgloss.Color("33"),
	SellBadge:          lipgloss.Color("35"),
	NoticeInfo:         lipgloss.Color("114"),
	NoticeError:        lipgloss.Color("203"),
}
