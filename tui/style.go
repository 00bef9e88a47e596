package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/talecraft/session"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleText = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleTitle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")).
			Bold(true)

	stylePresent = lipgloss.NewStyle().
			Bold(true)

	styleExits = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleDialogue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleChoice = lipgloss.NewStyle().
			Foreground(lipgloss.Color("213")).
			PaddingLeft(2)

	styleHint = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))
)

// renderLine applies the style for a line's kind to already wrapped text.
func renderLine(text string, kind session.Kind) string {
	switch kind {
	case session.KindTitle:
		return styleTitle.Render(text)
	case session.KindPresent:
		return styledPresent(text)
	case session.KindExits:
		return styleExits.Render(text)
	case session.KindDialogue:
		return styleDialogue.Render(text)
	case session.KindChoice:
		return styleChoice.Render(text)
	case session.KindHint:
		return styleHint.Render(text)
	case session.KindSystem:
		return styledSystemMsg(text)
	case session.KindError:
		return styleError.Render(text)
	default:
		return styleText.Render(text)
	}
}

// styledPresent renders "Here: a, b." with the names bold.
func styledPresent(line string) string {
	const prefix = "Here: "
	if !strings.HasPrefix(line, prefix) {
		return styleText.Render(line)
	}
	return styleText.Render(prefix) + stylePresent.Render(line[len(prefix):])
}

// styledPlayerInput renders the echoed player input in green with "> " prefix.
func styledPlayerInput(input string) string {
	return stylePlayerInput.Render("> " + input)
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
