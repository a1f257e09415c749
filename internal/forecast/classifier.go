// Package forecast compresses free-text forecast strings into labels that
// fit the display. A 240px round screen has room for 14 characters of
// large type, so "Slight Chance Rain Showers then Partly Cloudy" has to
// become "S Chc Rain".
package forecast

import (
	"strings"
	"unicode"
)

// MaxLabel is the widest label the renderer can show.
const MaxLabel = 14

// entry pairs a phrase with its length-compressed display form. Tables are
// priority-ordered: lower index means higher priority.
type entry struct {
	phrase string // lowercase match text
	short  string // display form
}

// modifiers qualify a condition. Selection is by earliest mention in the
// text, independent of table order; the table order only breaks position
// ties (which is how "slight chance" beats the "chance" inside it).
var modifiers = []entry{
	{"slight chance", "S Chc"},
	{"chance", "Chc"},
	{"isolated", "Isol"},
	{"scattered", "Sct"},
	{"mostly", "M"},
	{"partly", "P"},
	{"patchy", "Patchy"},
	{"areas of", "Areas"},
	{"heavy", "Hvy"},
	{"light", "Lgt"},
}

// conditions are ordered storm-severity first. Among all phrases present
// anywhere in the text, the lowest index wins, regardless of where each
// phrase appears.
var conditions = []entry{
	{"tornado", "Tornado"},
	{"hurricane", "Hurricane"},
	{"tropical storm", "Trop Storm"},
	{"hail", "Hail"},
	{"ice storm", "Ice Storm"},
	{"blizzard", "Blizzard"},
	{"thunderstorm", "Tstorms"},
	{"t-storm", "Tstorms"},
	{"tstorm", "Tstorms"},
	{"freezing rain", "Fr Rain"},
	{"freezing drizzle", "Fr Drzl"},
	{"freezing fog", "Fr Fog"},
	{"wintry mix", "Wntry Mix"},
	{"sleet", "Sleet"},
	{"snow", "Snow"},
	{"flurries", "Flurries"},
	{"rain", "Rain"},
	{"showers", "Showers"},
	{"drizzle", "Drizzle"},
	{"sunny", "Sunny"},
	{"clear", "Clear"},
	{"overcast", "Overcast"},
	{"cloudy", "Cloudy"},
	{"fog", "Fog"},
	{"smoke", "Smoke"},
	{"wind", "Windy"},
	{"haze", "Haze"},
}

// separators mark where the "current" condition ends and a later one
// begins; only the text before the first separator is classified.
var separators = []string{" then ", ";", ","}

// Label collapses a raw forecast string into a display label of at most
// MaxLabel characters. Empty input yields an empty label.
func Label(text string) string {
	seg := currentSegment(text)
	lower := strings.ToLower(seg)

	cond, okCond := findCondition(lower)
	if !okCond {
		return fallbackLabel(lower)
	}

	label := cond.short
	if mod, ok := findModifier(lower); ok {
		if combined := mod.short + " " + cond.short; len(combined) <= MaxLabel {
			label = combined
		}
	}
	return clip(label)
}

// currentSegment truncates at the first separator, case-insensitively.
func currentSegment(text string) string {
	lower := strings.ToLower(text)
	cut := len(text)
	for _, sep := range separators {
		if i := strings.Index(lower, sep); i >= 0 && i < cut {
			cut = i
		}
	}
	return strings.TrimSpace(text[:cut])
}

// findModifier returns the modifier mentioned earliest in the text.
func findModifier(lower string) (entry, bool) {
	best := -1
	var found entry
	for _, e := range modifiers {
		if i := strings.Index(lower, e.phrase); i >= 0 && (best < 0 || i < best) {
			best = i
			found = e
		}
	}
	return found, best >= 0
}

// findCondition returns the highest-priority condition present anywhere in
// the text. Severity order wins over textual position.
func findCondition(lower string) (entry, bool) {
	for _, e := range conditions {
		if strings.Contains(lower, e.phrase) {
			return e, true
		}
	}
	return entry{}, false
}

// fallbackLabel is used when nothing in the tables matches: the first
// MaxLabel characters of the lowercased text with the first letter
// capitalized.
func fallbackLabel(lower string) string {
	r := []rune(lower)
	if len(r) > MaxLabel {
		r = r[:MaxLabel]
	}
	if len(r) > 0 {
		r[0] = unicode.ToUpper(r[0])
	}
	return string(r)
}

func clip(s string) string {
	r := []rune(s)
	if len(r) > MaxLabel {
		r = r[:MaxLabel]
	}
	return string(r)
}
