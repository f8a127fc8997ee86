package domain

// RawRecord is one item of a raw category file, as produced by the
// acquisition step. Field presence varies; formatters must tolerate gaps.
type RawRecord map[string]any

// Category identifies a raw record collection.
type Category string

// Raw categories.
const (
	CategorySpells   Category = "spells"
	CategoryMonsters Category = "monsters"
	CategoryRules    Category = "rules"
)

// Categories returns all categories in corpus build order.
// The order is fixed so that rebuilding unchanged input is byte-identical.
func Categories() []Category {
	return []Category{CategorySpells, CategoryMonsters, CategoryRules}
}

// IsValid returns true if the category is recognised.
func (c Category) IsValid() bool {
	switch c {
	case CategorySpells, CategoryMonsters, CategoryRules:
		return true
	default:
		return false
	}
}

// DocType returns the chunk type produced from records of this category.
func (c Category) DocType() string {
	switch c {
	case CategorySpells:
		return DocTypeSpell
	case CategoryMonsters:
		return DocTypeMonster
	case CategoryRules:
		return DocTypeRule
	default:
		return ""
	}
}

// String returns the string representation.
func (c Category) String() string {
	return string(c)
}
