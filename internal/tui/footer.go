package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// Footer renders context-sensitive keybinding hints.
type Footer struct {
	Width    int
	Bindings []key.Binding
}

// View renders the footer as a single line of keybinding hints.
// Narrow terminals get key hints without descriptions.
func (f Footer) View() string {
	compact := f.Width < CompactWidth

	var parts []string
	for _, b := range f.Bindings {
		if !b.Enabled() {
			continue
		}
		help := b.Help()
		part := styleFooterKey.Render(help.Key)
		if !compact {
			part += styleFooterSep.Render(":") + styleFooterDesc.Render(help.Desc)
		}
		parts = append(parts, part)
	}
	sep := styleFooterSep.Render("  ")
	if compact {
		sep = styleFooterSep.Render(" ")
	}
	return styleFooter.Width(f.Width).Render(strings.Join(parts, sep))
}

// footerBindings returns the hints that apply to the given inspector layer.
func footerBindings(km KeyMap, layer Layer, canRefresh bool) []key.Binding {
	refresh := km.Refresh
	refresh.SetEnabled(canRefresh)

	switch layer {
	case LayerTask:
		return []key.Binding{km.Back, refresh, km.Quit}
	case LayerGroup:
		return []key.Binding{km.Up, km.Down, km.Enter, km.Back, refresh, km.Quit}
	default:
		return []key.Binding{km.Up, km.Down, km.Enter, refresh, km.Quit}
	}
}
