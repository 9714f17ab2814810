package odata

import "strings"

// Pluralize derives a Web API entity set name from a logical entity name.
// Names ending in s, sh, ch or x always take "es". With forceSimple the
// remaining names just get "s" appended, matching entities whose set name
// was registered without English pluralization; otherwise the full rules
// apply: z doubles to "zes" (except after t), consonant+y becomes "ies",
// f/fe becomes "ves", consonant+o takes "es", and everything else gets
// "s".
func Pluralize(name string, forceSimple bool) string {
	if name == "" {
		return name
	}
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, "s") || strings.HasSuffix(lower, "sh") ||
		strings.HasSuffix(lower, "ch") || strings.HasSuffix(lower, "x") {
		return name + "es"
	}
	if forceSimple {
		return name + "s"
	}
	switch {
	case strings.HasSuffix(lower, "z") && !strings.HasSuffix(lower, "tz"):
		return name + "zes"
	case strings.HasSuffix(lower, "y") && len(lower) >= 2 && !isVowel(lower[len(lower)-2]):
		return name[:len(name)-1] + "ies"
	case strings.HasSuffix(lower, "fe"):
		return name[:len(name)-2] + "ves"
	case strings.HasSuffix(lower, "f"):
		return name[:len(name)-1] + "ves"
	case strings.HasSuffix(lower, "o") && len(lower) >= 2 && !isVowel(lower[len(lower)-2]):
		return name + "es"
	default:
		return name + "s"
	}
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	default:
		return false
	}
}
