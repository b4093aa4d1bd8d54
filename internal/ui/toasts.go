package ui

import (
	"strings"

	"github.com/five82/ecoshop/internal/notify"
)

// renderToasts renders the newest notifications, one per line.
func (m Model) renderToasts() string {
	styles := m.theme.Styles()
	toasts := m.toasts
	if len(toasts) > MaxToasts {
		toasts = toasts[len(toasts)-MaxToasts:]
	}

	lines := make([]string, 0, MaxToasts)
	for _, n := range toasts {
		line := truncate(toastIcon(n.Level)+" "+n.Message, m.width-2)
		switch n.Level {
		case notify.LevelSuccess:
			line = styles.SuccessText.Render(line)
		case notify.LevelWarning:
			line = styles.WarningText.Render(line)
		case notify.LevelError:
			line = styles.DangerText.Render(line)
		default:
			line = styles.InfoText.Render(line)
		}
		lines = append(lines, " "+line)
	}
	for len(lines) < MaxToasts {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func toastIcon(level notify.Level) string {
	switch level {
	case notify.LevelSuccess:
		return "✓"
	case notify.LevelWarning:
		return "!"
	case notify.LevelError:
		return "✗"
	default:
		return "•"
	}
}
