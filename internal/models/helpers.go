package models

import "strings"

// otherChoice resolves a select value of "Otro"/"Otra" to the accompanying
// free-text value when one was typed.
func otherChoice(selected, custom string) string {
	selected = strings.TrimSpace(selected)
	custom = strings.TrimSpace(custom)
	if (selected == "Otro" || selected == "Otra") && custom != "" {
		return custom
	}
	return selected
}
