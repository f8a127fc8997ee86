package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategories_Order(t *testing.T) {
	assert.Equal(t, []Category{CategorySpells, CategoryMonsters, CategoryRules}, Categories())
}

func TestCategory_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		expected bool
	}{
		{"spells", CategorySpells, true},
		{"monsters", CategoryMonsters, true},
		{"rules", CategoryRules, true},
		{"equipment", Category("equipment"), false},
		{"empty", Category(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.category.IsValid())
		})
	}
}

func TestCategory_DocType(t *testing.T) {
	assert.Equal(t, DocTypeSpell, CategorySpells.DocType())
	assert.Equal(t, DocTypeMonster, CategoryMonsters.DocType())
	assert.Equal(t, DocTypeRule, CategoryRules.DocType())
	assert.Equal(t, "", Category("classes").DocType())
	assert.Equal(t, "rules", CategoryRules.String())
}
