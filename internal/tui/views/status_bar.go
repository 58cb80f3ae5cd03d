package views

import (
	"fmt"
	"time"

	"github.com/matheus3301/bcast/internal/broadcast"
	"github.com/matheus3301/bcast/internal/tui/ui"
	"github.com/rivo/tview"
)

// StatusBar shows broadcast readiness.
type StatusBar struct {
	*tview.TextView
	theme *ui.Theme
	snap  broadcast.Snapshot
	now   func() time.Time
}

// NewStatusBar creates a new status bar.
func NewStatusBar(theme *ui.Theme) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	sb := &StatusBar{TextView: tv, theme: theme, now: time.Now}
	sb.snap.State = broadcast.Idle
	sb.render()
	return sb
}

// Update renders s.
func (sb *StatusBar) Update(s broadcast.Snapshot) {
	sb.snap = s
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	color := sb.theme.IdleColor
	hint := "p:prepare"
	switch sb.snap.State {
	case broadcast.Prepared:
		color = sb.theme.PreparedColor
		hint = "s:send x:reset"
		if sb.snap.Countdown > 0 {
			hint = fmt.Sprintf("confirm in %s", sb.snap.Countdown.Round(time.Second))
		}
	case broadcast.Sending:
		color = sb.theme.SendingColor
		hint = "x:cancel"
	}

	_, _ = fmt.Fprintf(sb, " [%s::b]%s[-:-:-] | %d recipients | %d chars | %s | %s",
		ui.Tag(color), sb.snap.State, sb.snap.Recipients, sb.snap.Chars, hint, sb.now().Format("15:04"))
}
