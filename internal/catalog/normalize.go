package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var nonAlphaNum = regexp.MustCompile(`[^a-z0-9]+`)

// categoryAliases folds the free-text categories used by clients onto the
// keys product lists are filtered by.
var categoryAliases = map[string]string{
	"food":        "food",
	"snacks":      "food",
	"beverage":    "beverages",
	"beverages":   "beverages",
	"drinks":      "beverages",
	"cosmetics":   "cosmetics",
	"beauty":      "cosmetics",
	"supplement":  "supplements",
	"supplements": "supplements",
	"personal":    "personal-care",
	"cleaning":    "cleaning",
	"baby":        "baby",
	"pet":         "pet-food",
}

// CategoryKey normalizes a category label ("Food & Snacks", "food") to a
// stable lowercase key ("food"). Unknown labels collapse to their hyphenated form.
func CategoryKey(label string) string {
	lower := strings.ToLower(strings.TrimSpace(label))
	if lower == "" {
		return ""
	}
	tokens := strings.Fields(nonAlphaNum.ReplaceAllString(lower, " "))
	for _, token := range tokens {
		if key, ok := categoryAliases[token]; ok {
			return key
		}
	}
	return strings.Join(tokens, "-")
}

// IsBlank reports whether an answer carries no information.
func IsBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(compact(v)) == 0
	case []any:
		return len(AnswerList(v)) == 0
	}
	return false
}

// AnswerText renders an answer value as a single display string.
func AnswerText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case []string, []any:
		return strings.Join(AnswerList(v), ", ")
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// AnswerList splits an answer into its items. Strings are split on commas and
// semicolons so free-text lists and multi-select values read the same way.
func AnswerList(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return compact(strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ';' || r == '\n' }))
	case []string:
		return compact(v)
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, AnswerText(item))
		}
		return compact(items)
	default:
		if text := AnswerText(v); text != "" {
			return []string{text}
		}
		return nil
	}
}

func compact(in []string) []string {
	var out []string
	for _, item := range in {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
