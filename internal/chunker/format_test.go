package chunker

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
)

func fireball() domain.RawRecord {
	return domain.RawRecord{
		"name":         "Fireball",
		"level":        json.Number("3"),
		"school":       map[string]any{"name": "Evocation"},
		"casting_time": "1 action",
		"range":        "150 feet",
		"duration":     "Instantaneous",
		"components":   []any{"V", "S", "M"},
		"desc":         []any{"A bright streak flashes from your pointing finger."},
		"higher_level": []any{"The damage increases by 1d6 for each slot level above 3rd."},
		"url":          "/api/spells/fireball",
	}
}

func goblin() domain.RawRecord {
	return domain.RawRecord{
		"name":             "Goblin",
		"size":             "Small",
		"type":             "humanoid",
		"alignment":        "neutral evil",
		"armor_class":      []any{map[string]any{"type": "armor", "value": json.Number("15")}},
		"hit_points":       json.Number("7"),
		"speed":            map[string]any{"walk": "30 ft.", "climb": "10 ft."},
		"challenge_rating": json.Number("0.25"),
		"strength":         json.Number("8"),
		"dexterity":        json.Number("14"),
		"constitution":     json.Number("10"),
		"intelligence":     json.Number("10"),
		"wisdom":           json.Number("8"),
		"charisma":         json.Number("9"),
		"special_abilities": []any{
			map[string]any{"name": "Nimble Escape", "desc": "The goblin can take the Disengage action."},
		},
		"actions": []any{
			map[string]any{"name": "Scimitar", "desc": "Melee Weapon Attack: +4 to hit."},
		},
		"url": "/api/monsters/goblin",
	}
}

func TestSpell(t *testing.T) {
	c, err := New(newWordTokenizer())
	require.NoError(t, err)

	t.Run("full record", func(t *testing.T) {
		chunk := c.Spell(fireball())

		expected := "# Fireball\n" +
			"**Level:** 3\n" +
			"**School:** Evocation\n" +
			"**Casting Time:** 1 action\n" +
			"**Range:** 150 feet\n" +
			"**Duration:** Instantaneous\n" +
			"**Components:** V, S, M\n" +
			"\n**Description:**\n" +
			"A bright streak flashes from your pointing finger.\n" +
			"\n**At Higher Levels:**\n" +
			"The damage increases by 1d6 for each slot level above 3rd."
		assert.Equal(t, expected, chunk.Text)

		assert.Equal(t, domain.DocTypeSpell, chunk.Type())
		assert.Equal(t, "Fireball", chunk.Metadata.String(domain.MetaName))
		assert.Equal(t, "3", chunk.Metadata.String(domain.MetaLevel))
		assert.Equal(t, "Evocation", chunk.Metadata.String(domain.MetaSchool))
		assert.Equal(t, "SRD 5e", chunk.Metadata.String(domain.MetaSource))
		assert.Equal(t, "https://www.dnd5eapi.co/api/spells/fireball", chunk.Metadata.String(domain.MetaURL))
		assert.Equal(t, c.CountTokens(chunk.Text), chunk.TokenCount)
		assert.Equal(t, ChunkID(chunk.Text), chunk.ID)
	})

	t.Run("missing higher_level has no section", func(t *testing.T) {
		r := fireball()
		delete(r, "higher_level")

		chunk := c.Spell(r)
		assert.NotContains(t, chunk.Text, "At Higher Levels")
		assert.Contains(t, chunk.Text, "**Description:**")
	})

	t.Run("empty higher_level has no section", func(t *testing.T) {
		r := fireball()
		r["higher_level"] = []any{}

		assert.NotContains(t, c.Spell(r).Text, "At Higher Levels")
	})

	t.Run("empty record degrades to placeholders", func(t *testing.T) {
		chunk := c.Spell(domain.RawRecord{})

		expected := "# Unknown Spell\n" +
			"**Level:** 0\n" +
			"**School:** Unknown\n" +
			"**Casting Time:** Unknown\n" +
			"**Range:** Unknown\n" +
			"**Duration:** Unknown\n" +
			"**Components:** "
		assert.Equal(t, expected, chunk.Text)
		assert.Nil(t, chunk.Metadata[domain.MetaName])
		assert.Nil(t, chunk.Metadata[domain.MetaSchool])
	})

	t.Run("yaml-shaped values", func(t *testing.T) {
		chunk := c.Spell(domain.RawRecord{
			"name":       "Shield",
			"level":      1,
			"school":     "Abjuration",
			"components": []any{"V", "S"},
			"desc":       "An invisible barrier of magical force appears.",
		})
		assert.Contains(t, chunk.Text, "**Level:** 1\n**School:** Abjuration")
		assert.Contains(t, chunk.Text, "\n**Description:**\nAn invisible barrier")
	})
}

func TestMonster(t *testing.T) {
	c, err := New(newWordTokenizer())
	require.NoError(t, err)

	t.Run("full record", func(t *testing.T) {
		chunk := c.Monster(goblin())

		expected := "# Goblin\n" +
			"*Small humanoid, neutral evil*\n" +
			"\n**Armor Class:** 15\n" +
			"**Hit Points:** 7\n" +
			"**Speed:** climb 10 ft., walk 30 ft.\n" +
			"**Challenge Rating:** 0.25\n" +
			"\n**Ability Scores:**\n" +
			"- STRENGTH: 8 (-1)\n" +
			"- DEXTERITY: 14 (+2)\n" +
			"- CONSTITUTION: 10 (+0)\n" +
			"- INTELLIGENCE: 10 (+0)\n" +
			"- WISDOM: 8 (-1)\n" +
			"- CHARISMA: 9 (-1)\n" +
			"\n**Special Abilities:**\n" +
			"- **Nimble Escape:** The goblin can take the Disengage action.\n" +
			"\n**Actions:**\n" +
			"- **Scimitar:** Melee Weapon Attack: +4 to hit."
		assert.Equal(t, expected, chunk.Text)

		assert.Equal(t, domain.DocTypeMonster, chunk.Type())
		assert.Equal(t, "0.25", chunk.Metadata.String(domain.MetaCR))
		assert.Equal(t, "humanoid", chunk.Metadata.String(domain.MetaMonsterType))
		assert.Equal(t, "Small", chunk.Metadata.String(domain.MetaSize))
	})

	t.Run("empty record degrades to placeholders", func(t *testing.T) {
		chunk := c.Monster(domain.RawRecord{})

		assert.Contains(t, chunk.Text, "# Unknown Monster\n* , *")
		assert.Contains(t, chunk.Text, "**Armor Class:** N/A")
		assert.Contains(t, chunk.Text, "**Hit Points:** N/A")
		assert.Contains(t, chunk.Text, "**Speed:** N/A")
		assert.Contains(t, chunk.Text, "**Challenge Rating:** N/A")
		assert.Contains(t, chunk.Text, "- STRENGTH: 10 (+0)")
		assert.NotContains(t, chunk.Text, "**Actions:**")
		assert.NotContains(t, chunk.Text, "**Special Abilities:**")
	})

	t.Run("numeric armor class", func(t *testing.T) {
		assert.Contains(t, c.Monster(domain.RawRecord{"armor_class": 12}).Text, "**Armor Class:** 12")
	})
}

func TestModifier(t *testing.T) {
	tests := []struct {
		score    int
		expected int
	}{
		{1, -5},
		{3, -4},
		{8, -1},
		{9, -1},
		{10, 0},
		{11, 0},
		{12, 1},
		{20, 5},
		{30, 10},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Modifier(tt.score), "score %d", tt.score)
	}
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "fb", display(nil, "fb"))
	assert.Equal(t, "0.5", display(0.5, ""))
	assert.Equal(t, "3", display(float64(3), ""))
	assert.Equal(t, "7", display(json.Number("7"), ""))
	assert.Equal(t, "true", display(true, ""))
}
