package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderStatusBar produces a full-width inverted status line showing the
// location and clock on the left and the story title on the right. The
// card count is shown when it fits.
func (m Model) renderStatusBar() string {
	st := m.session.Status()

	left := fmt.Sprintf(" %s | %s", st.Location, st.Time)
	right := st.Title + " "
	if st.Cards > 0 {
		candidate := fmt.Sprintf("Cards: %d | %s ", st.Cards, st.Title)
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
