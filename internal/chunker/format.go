package chunker

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
)

// abilities in stat block order.
var abilities = []string{"strength", "dexterity", "constitution", "intelligence", "wisdom", "charisma"}

func formatSpell(r domain.RawRecord) string {
	parts := []string{
		"# " + display(r["name"], "Unknown Spell"),
		"**Level:** " + display(r["level"], "0"),
		"**School:** " + display(schoolName(r["school"]), "Unknown"),
		"**Casting Time:** " + display(r["casting_time"], "Unknown"),
		"**Range:** " + display(r["range"], "Unknown"),
		"**Duration:** " + display(r["duration"], "Unknown"),
		"**Components:** " + strings.Join(lines(r["components"]), ", "),
	}

	if desc := lines(r["desc"]); len(desc) > 0 {
		parts = append(parts, "\n**Description:**")
		parts = append(parts, desc...)
	}
	if higher := lines(r["higher_level"]); len(higher) > 0 {
		parts = append(parts, "\n**At Higher Levels:**")
		parts = append(parts, higher...)
	}

	return strings.Join(parts, "\n")
}

func formatMonster(r domain.RawRecord) string {
	parts := []string{
		"# " + display(r["name"], "Unknown Monster"),
		fmt.Sprintf("*%s %s, %s*", display(r["size"], ""), display(r["type"], ""), display(r["alignment"], "")),
		"\n**Armor Class:** " + armorClass(r["armor_class"]),
		"**Hit Points:** " + display(r["hit_points"], "N/A"),
		"**Speed:** " + speed(r["speed"]),
		"**Challenge Rating:** " + display(r["challenge_rating"], "N/A"),
		"\n**Ability Scores:**",
	}

	for _, ability := range abilities {
		score := intValue(r[ability], 10)
		parts = append(parts, fmt.Sprintf("- %s: %d (%+d)", strings.ToUpper(ability), score, Modifier(score)))
	}

	if special := namedEntries(r["special_abilities"]); len(special) > 0 {
		parts = append(parts, "\n**Special Abilities:**")
		parts = append(parts, special...)
	}
	if actions := namedEntries(r["actions"]); len(actions) > 0 {
		parts = append(parts, "\n**Actions:**")
		parts = append(parts, actions...)
	}

	return strings.Join(parts, "\n")
}

func formatRule(title string, r domain.RawRecord) string {
	return fmt.Sprintf("# %s\n\n%s", title, strings.Join(lines(r["desc"]), "\n"))
}

// Modifier returns the ability modifier for a score: floor((score - 10) / 2).
func Modifier(score int) int {
	d := score - 10
	q := d / 2
	if d%2 != 0 && d < 0 {
		q--
	}
	return q
}

// display renders a scalar record value, or fallback when it is absent.
func display(v any, fallback string) string {
	switch x := v.(type) {
	case nil:
		return fallback
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// intValue reads a whole number, or fallback when absent or not numeric.
func intValue(v any, fallback int) int {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n)
		}
		if f, err := x.Float64(); err == nil {
			return int(math.Floor(f))
		}
	case float64:
		return int(math.Floor(x))
	case int:
		return x
	case int64:
		return int(x)
	case uint64:
		return int(x)
	}
	return fallback
}

// lines reads a text block stored either as a list of paragraphs or a single string.
func lines(v any) []string {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		if x == "" {
			return nil
		}
		return []string{x}
	case []string:
		return x
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			out = append(out, display(item, ""))
		}
		return out
	default:
		return []string{display(x, "")}
	}
}

// schoolName reads a school given either as {"name": ...} or a bare string.
func schoolName(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return x["name"]
	case string:
		return x
	default:
		return nil
	}
}

// armorClass reads the first entry of an armor class list, or a bare number.
func armorClass(v any) string {
	switch x := v.(type) {
	case []any:
		if len(x) == 0 {
			return "N/A"
		}
		if entry, ok := x[0].(map[string]any); ok {
			return display(entry["value"], "N/A")
		}
		return display(x[0], "N/A")
	default:
		return display(x, "N/A")
	}
}

// speed renders movement modes as "mode value" pairs sorted by mode.
func speed(v any) string {
	switch x := v.(type) {
	case map[string]any:
		if len(x) == 0 {
			return "N/A"
		}
		modes := make([]string, 0, len(x))
		for mode := range x {
			modes = append(modes, mode)
		}
		sort.Strings(modes)

		pairs := make([]string, 0, len(modes))
		for _, mode := range modes {
			pairs = append(pairs, mode+" "+display(x[mode], ""))
		}
		return strings.Join(pairs, ", ")
	default:
		return display(x, "N/A")
	}
}

// namedEntries renders a list of {name, desc} objects as bullet lines.
func namedEntries(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		desc := strings.Join(lines(entry["desc"]), " ")
		out = append(out, fmt.Sprintf("- **%s:** %s", display(entry["name"], ""), desc))
	}
	return out
}
