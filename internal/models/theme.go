package models

import (
	"database/sql"
	"errors"
	"slices"
)

// Themes is the fixed cycle order of the site color themes.
var Themes = []string{"blue", "green", "orange", "purple"}

// ThemeLabels are the display names shown when the theme changes.
var ThemeLabels = map[string]string{
	"blue":   "Azul Técnico",
	"green":  "Verde Tech",
	"orange": "Naranja Energético",
	"purple": "Púrpura Profesional",
}

// CurrentTheme returns the stored site theme, or the first theme when none
// is stored or the stored name is unknown.
func CurrentTheme(db *sql.DB) string {
	v, err := GetValue(db, KeyTheme)
	if err != nil || !IsTheme(v) {
		return Themes[0]
	}
	return v
}

// CycleTheme advances the stored site theme to the next one in the cycle and
// returns the new theme name.
func CycleTheme(db *sql.DB) (string, error) {
	current, err := GetValue(db, KeyTheme)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", err
	}
	next := NextTheme(current)
	if err := SetValue(db, KeyTheme, next); err != nil {
		return "", err
	}
	return next, nil
}

// IsTheme reports whether name is one of the known themes.
func IsTheme(name string) bool {
	return slices.Contains(Themes, name)
}

// NextTheme returns the theme after current in the cycle. An unknown current
// theme restarts the cycle at the first entry.
func NextTheme(current string) string {
	i := slices.Index(Themes, current)
	return Themes[(i+1)%len(Themes)]
}
