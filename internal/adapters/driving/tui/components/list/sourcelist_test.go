package list

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
)

func TestSourceList_Empty(t *testing.T) {
	l := NewSourceList(nil)

	assert.Equal(t, "", l.View())
	assert.Empty(t, l.Sources())
}

func TestSourceList_View(t *testing.T) {
	l := NewSourceList(nil)
	l.SetSources([]domain.Source{
		{DocID: 1, Type: "spell", Name: "Fireball", RelevanceScore: 0.912},
		{DocID: 2, Type: "rule", Name: "Cover", RelevanceScore: 0.5},
	})

	view := l.View()

	assert.Contains(t, view, "Sources (2)")
	assert.Contains(t, view, "[1]")
	assert.Contains(t, view, "Fireball")
	assert.Contains(t, view, "(spell)")
	assert.Contains(t, view, "0.912")
	assert.Contains(t, view, "0.500")
	assert.Less(t, strings.Index(view, "Fireball"), strings.Index(view, "Cover"))
}

func TestSourceList_TruncatesLongNames(t *testing.T) {
	l := NewSourceList(nil)
	l.SetWidth(20)
	l.SetSources([]domain.Source{
		{DocID: 1, Type: "rule", Name: "Appendix PH-A: Conditions and their many effects"},
	})

	view := l.View()

	assert.Contains(t, view, "Appendi...")
	assert.NotContains(t, view, "effects")
}
