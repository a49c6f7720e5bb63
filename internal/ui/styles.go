package ui

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Colors, adaptive to the terminal background
var (
	ColorPrimary   lipgloss.Color
	ColorSecondary lipgloss.Color
	ColorAccent    lipgloss.Color

	ColorSuccess lipgloss.Color
	ColorWarning lipgloss.Color
	ColorError   lipgloss.Color
	ColorInfo    lipgloss.Color

	ColorText      lipgloss.Color
	ColorTextMuted lipgloss.Color
	ColorTextDim   lipgloss.Color
	ColorSurface   lipgloss.Color
)

// Component styles. Built by setupStyles once the colors are known.
var (
	StyleTitle           lipgloss.Style
	StyleText            lipgloss.Style
	StyleTextDim         lipgloss.Style
	StyleSuccess         lipgloss.Style
	StyleWarning         lipgloss.Style
	StyleError           lipgloss.Style
	StyleInfo            lipgloss.Style
	StyleMetadata        lipgloss.Style
	StyleSearchIndicator lipgloss.Style
	StyleFieldLabel      lipgloss.Style
)

var stylesOnce sync.Once

// setupStyles picks the palette and builds the component styles. Safe to
// call more than once.
func setupStyles() {
	stylesOnce.Do(func() {
		initializeColors()
		buildStyles()
	})
}

// initializeColors sets up adaptive colors based on terminal background
func initializeColors() {
	switch os.Getenv("GLAMOUR_STYLE") {
	case "light":
		setLightThemeColors()
		return
	case "dark", "notty":
		setDarkThemeColors()
		return
	}

	if lipgloss.HasDarkBackground() {
		setDarkThemeColors()
	} else {
		setLightThemeColors()
	}
}

func setDarkThemeColors() {
	ColorPrimary = lipgloss.Color("205")
	ColorSecondary = lipgloss.Color("33")
	ColorAccent = lipgloss.Color("214")

	ColorSuccess = lipgloss.Color("10")
	ColorWarning = lipgloss.Color("11")
	ColorError = lipgloss.Color("9")
	ColorInfo = lipgloss.Color("12")

	ColorText = lipgloss.Color("252")
	ColorTextMuted = lipgloss.Color("244")
	ColorTextDim = lipgloss.Color("240")
	ColorSurface = lipgloss.Color("236")
}

func setLightThemeColors() {
	ColorPrimary = lipgloss.Color("125")
	ColorSecondary = lipgloss.Color("24")
	ColorAccent = lipgloss.Color("130")

	ColorSuccess = lipgloss.Color("22")
	ColorWarning = lipgloss.Color("136")
	ColorError = lipgloss.Color("160")
	ColorInfo = lipgloss.Color("24")

	ColorText = lipgloss.Color("232")
	ColorTextMuted = lipgloss.Color("240")
	ColorTextDim = lipgloss.Color("244")
	ColorSurface = lipgloss.Color("254")
}

func buildStyles() {
	StyleTitle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 1)

	StyleText = lipgloss.NewStyle().
		Foreground(ColorText)

	StyleTextDim = lipgloss.NewStyle().
		Foreground(ColorTextDim)

	StyleSuccess = statusStyle(ColorSuccess)
	StyleWarning = statusStyle(ColorWarning)
	StyleError = statusStyle(ColorError)
	StyleInfo = statusStyle(ColorInfo)

	StyleMetadata = lipgloss.NewStyle().
		Foreground(ColorTextDim).
		Padding(0, 1)

	StyleSearchIndicator = lipgloss.NewStyle().
		Foreground(ColorAccent).
		Background(ColorSurface).
		Bold(true).
		Padding(0, 1)

	StyleFieldLabel = lipgloss.NewStyle().
		Foreground(ColorSecondary).
		Bold(true)
}

func statusStyle(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(c).
		Bold(true).
		Padding(0, 1)
}

// CreateMainHeader renders a page title
func CreateMainHeader(titleText string) string {
	return StyleTitle.Render(titleText)
}

func CreateMetadata(text string) string {
	return StyleMetadata.Render(text)
}

// CreateHelp renders a help line, truncated to width when width is positive
func CreateHelp(text string, width int) string {
	if width > 4 {
		text = runewidth.Truncate(text, width-2, "...")
	}
	return StyleTextDim.Render(text)
}

func CreateStatus(text string, statusType string) string {
	switch statusType {
	case "success":
		return StyleSuccess.Render(text)
	case "warning":
		return StyleWarning.Render(text)
	case "error":
		return StyleError.Render(text)
	case "info":
		return StyleInfo.Render(text)
	default:
		return StyleText.Render(text)
	}
}

// CreateFilterIndicator shows the active tag expression and its match count
func CreateFilterIndicator(expression string, count int) string {
	text := lipgloss.JoinHorizontal(
		lipgloss.Left,
		"Tags: ",
		expression,
		lipgloss.NewStyle().Foreground(ColorTextMuted).Render(" ("),
		lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true).Render(fmt.Sprintf("%d", count)),
		lipgloss.NewStyle().Foreground(ColorTextMuted).Render(" results)"),
	)
	return StyleSearchIndicator.Render(text)
}

// CreateField renders a "label: value" metadata line; empty values render
// nothing
func CreateField(label, value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return StyleFieldLabel.Render(label+":") + " " + StyleText.Render(value)
}

// AddMainPadding indents page content
func AddMainPadding(content string) string {
	return lipgloss.NewStyle().PaddingLeft(2).Render(content)
}
