package models

import "testing"

func TestNextTheme(t *testing.T) {
	tests := []struct {
		current string
		want    string
	}{
		{"blue", "green"},
		{"green", "orange"},
		{"orange", "purple"},
		{"purple", "blue"},
		{"", "blue"},
		{"magenta", "blue"},
	}
	for _, tt := range tests {
		if got := NextTheme(tt.current); got != tt.want {
			t.Errorf("NextTheme(%q) = %q, want %q", tt.current, got, tt.want)
		}
	}
}

func TestCycleTheme(t *testing.T) {
	db := testDB(t)

	if got := CurrentTheme(db); got != "blue" {
		t.Errorf("expected default theme 'blue', got %q", got)
	}

	// No stored theme: the first cycle lands on the first theme.
	got, err := CycleTheme(db)
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if got != "blue" {
		t.Errorf("expected 'blue' on first cycle, got %q", got)
	}

	got, err = CycleTheme(db)
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if got != "green" {
		t.Errorf("expected 'green', got %q", got)
	}
	if cur := CurrentTheme(db); cur != "green" {
		t.Errorf("expected persisted 'green', got %q", cur)
	}
}

func TestThemeLabels(t *testing.T) {
	for _, theme := range Themes {
		if ThemeLabels[theme] == "" {
			t.Errorf("theme %q has no label", theme)
		}
	}
}
