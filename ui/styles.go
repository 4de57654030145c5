package ui

import "github.com/charmbracelet/lipgloss"

// Colors.
var (
	normalDim     = lipgloss.AdaptiveColor{Light: "#A49FA5", Dark: "#777777"}
	gray          = lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}
	midGray       = lipgloss.AdaptiveColor{Light: "#B2B2B2", Dark: "#4A4A4A"}
	darkGray      = lipgloss.AdaptiveColor{Light: "#DDDADA", Dark: "#3C3C3C"}
	brightGray    = lipgloss.AdaptiveColor{Light: "#847A85", Dark: "#979797"}
	fuchsia       = lipgloss.Color("#EE6FF8")
	green         = lipgloss.Color("#04B575")
	red           = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	semiDimGreen  = lipgloss.AdaptiveColor{Light: "#35D79C", Dark: "#036B46"}
	cream         = lipgloss.AdaptiveColor{Light: "#FFFDF5", Dark: "#FFFDF5"}
	yellowGreen   = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#ECFD65"}
	dullYellowGrn = lipgloss.AdaptiveColor{Light: "#6BCB94", Dark: "#9BA92F"}
)

var (
	subtleStyle     = lipgloss.NewStyle().Foreground(gray)
	errorTitleStyle = lipgloss.NewStyle().Foreground(cream).Background(red).Padding(0, 1)
	errorBodyStyle  = lipgloss.NewStyle().Foreground(red)
	keyStyle        = lipgloss.NewStyle().Foreground(brightGray).Bold(true)
	helpDimStyle    = lipgloss.NewStyle().Foreground(normalDim)
	statusBarStyle  = lipgloss.NewStyle().Foreground(brightGray).Background(darkGray)
	logoStyle       = lipgloss.NewStyle().Foreground(cream).Background(fuchsia).Padding(0, 1)
	volumeOnStyle   = lipgloss.NewStyle().Foreground(yellowGreen)
	volumeOffStyle  = lipgloss.NewStyle().Foreground(midGray)
	noticeStyle     = lipgloss.NewStyle().Foreground(green)

	buttonStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(midGray).
			Padding(0, 1)
	selectedButtonStyle = buttonStyle.BorderForeground(fuchsia)
	pressedButtonStyle  = buttonStyle.BorderForeground(yellowGreen).Bold(true)
	playingButtonStyle  = buttonStyle.BorderForeground(semiDimGreen)
	failedButtonStyle   = buttonStyle.BorderForeground(red)
	previewButtonStyle  = buttonStyle.BorderForeground(dullYellowGrn)
)
