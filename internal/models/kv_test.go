package models

import (
	"errors"
	"testing"
)

func TestKV_GetSetDelete(t *testing.T) {
	db := testDB(t)

	if _, err := GetValue(db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := SetValue(db, KeyTheme, "green"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := SetValue(db, KeyTheme, "orange"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := GetValue(db, KeyTheme)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "orange" {
		t.Errorf("expected 'orange', got %q", got)
	}

	if err := DeleteValue(db, KeyTheme); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := DeleteValue(db, KeyTheme); err != nil {
		t.Fatalf("delete absent key: %v", err)
	}
	if _, err := GetValue(db, KeyTheme); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestKV_SetValues(t *testing.T) {
	db := testDB(t)

	err := SetValues(db, map[string]string{
		KeyServicesCatalog: `[]`,
		KeyPricesCatalog:   `[{"id":1}]`,
	})
	if err != nil {
		t.Fatalf("set values: %v", err)
	}

	for key, want := range map[string]string{KeyServicesCatalog: `[]`, KeyPricesCatalog: `[{"id":1}]`} {
		got, err := GetValue(db, key)
		if err != nil {
			t.Fatalf("get %s: %v", key, err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}

func TestIncrementVisitCount(t *testing.T) {
	db := testDB(t)

	for want := 1; want <= 3; want++ {
		got, err := IncrementVisitCount(db)
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if got != want {
			t.Errorf("expected count %d, got %d", want, got)
		}
	}

	if err := SetValue(db, KeyVisitCount, "garbled"); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := IncrementVisitCount(db)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if got != 1 {
		t.Errorf("expected garbled counter to restart at 1, got %d", got)
	}
}
