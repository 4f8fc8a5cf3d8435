package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// DetailPanel wraps a viewport for the scrollable inspector content.
type DetailPanel struct {
	viewport   viewport.Model
	title      string
	totalLines int // lines of content before viewport clipping
	emptyHint  string
}

// NewDetailPanel creates a detail panel with the given dimensions.
func NewDetailPanel(width, height int) DetailPanel {
	vp := viewport.New(width, height)
	vp.SetContent("")
	return DetailPanel{viewport: vp}
}

// SetSize updates the viewport dimensions.
func (d *DetailPanel) SetSize(width, height int) {
	d.viewport.Width = width
	d.viewport.Height = height
}

// SetContent replaces the panel body and title, keeping the scroll position
// when keep is true so poll updates do not jump the view.
func (d *DetailPanel) SetContent(title, header, body string, keep bool) {
	d.title = title
	d.emptyHint = ""

	combined := body
	if header != "" {
		sep := styleDetailSep.Render(strings.Repeat("─", 40))
		combined = header + "\n" + sep + "\n" + body
	}

	offset := d.viewport.YOffset
	d.totalLines = strings.Count(combined, "\n") + 1
	d.viewport.SetContent(combined)
	if keep {
		d.viewport.SetYOffset(offset)
	} else {
		d.viewport.GotoTop()
	}
}

// SetEmpty shows an empty-state hint instead of content.
func (d *DetailPanel) SetEmpty(hint string) {
	d.title = ""
	d.emptyHint = hint
	d.totalLines = 0
	d.viewport.SetContent("")
	d.viewport.GotoTop()
}

// Update handles viewport scroll messages. Home/g and End/G are handled
// here because the viewport KeyMap does not bind them.
func (d *DetailPanel) Update(msg tea.Msg) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "home", "g":
			d.viewport.GotoTop()
			return
		case "end", "G":
			d.viewport.GotoBottom()
			return
		}
	}
	d.viewport, _ = d.viewport.Update(msg)
}

// View renders the panel with a rounded border and scroll indicators.
func (d DetailPanel) View() string {
	if d.emptyHint != "" {
		return styleDetailBorder.Render(styleDetailDim.Render(d.emptyHint))
	}

	var b strings.Builder
	if d.title != "" {
		b.WriteString(styleDetailTitle.Render(d.title))
		b.WriteString("\n")
	}
	if up := d.linesAbove(); up > 0 {
		b.WriteString(styleScrollIndicator.Render(fmt.Sprintf("↑ %d more", up)))
		b.WriteString("\n")
	}
	b.WriteString(d.viewport.View())
	if down := d.linesBelow(); down > 0 {
		b.WriteString("\n")
		b.WriteString(styleScrollIndicator.Render(fmt.Sprintf("↓ %d more", down)))
	}
	return styleDetailBorder.Render(b.String())
}

func (d DetailPanel) linesAbove() int {
	return d.viewport.YOffset
}

func (d DetailPanel) linesBelow() int {
	below := d.totalLines - d.viewport.YOffset - d.viewport.Height
	if below < 0 {
		return 0
	}
	return below
}
