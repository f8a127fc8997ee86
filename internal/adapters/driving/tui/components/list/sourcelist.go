// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/sages-oracle/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sages-oracle/internal/core/domain"
)

// SourceList renders the numbered sources of an answer.
type SourceList struct {
	sources []domain.Source
	styles  *styles.Styles
	width   int
}

// NewSourceList creates a new source list component.
func NewSourceList(s *styles.Styles) *SourceList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &SourceList{
		styles: s,
		width:  80,
	}
}

// View renders the source list, or nothing when there are no sources.
func (l *SourceList) View() string {
	if len(l.sources) == 0 {
		return ""
	}

	lines := make([]string, 0, len(l.sources)+1)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(l.sources))))
	for i := range l.sources {
		lines = append(lines, l.renderSource(&l.sources[i]))
	}
	return strings.Join(lines, "\n")
}

// renderSource formats one source as "[n] Name (type) score".
func (l *SourceList) renderSource(src *domain.Source) string {
	name := src.Name
	maxNameLen := l.width - 30
	if maxNameLen < 10 {
		maxNameLen = 10
	}
	if r := []rune(name); len(r) > maxNameLen {
		name = string(r[:maxNameLen-3]) + "..."
	}

	return fmt.Sprintf("  %s %s %s %s",
		l.styles.SourceRef.Render(fmt.Sprintf("[%d]", src.DocID)),
		l.styles.Normal.Render(name),
		l.styles.Muted.Render("("+src.Type+")"),
		l.styles.Score.Render(fmt.Sprintf("%.3f", src.RelevanceScore)),
	)
}

// SetSources replaces the listed sources.
func (l *SourceList) SetSources(sources []domain.Source) {
	l.sources = sources
}

// Sources returns the listed sources.
func (l *SourceList) Sources() []domain.Source {
	return l.sources
}

// SetWidth sets the available width.
func (l *SourceList) SetWidth(width int) {
	l.width = width
}
