package models

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// Durable keys in the kv_store table. Each value is overwritten wholesale.
const (
	KeyPasswordHash    = "admin.password_hash"
	KeyTheme           = "site.theme"
	KeyVisitCount      = "site.visit_count"
	KeyServicesCatalog = "catalog.services"
	KeyPricesCatalog   = "catalog.prices"
)

// GetValue returns the stored value for key, or ErrNotFound when absent.
func GetValue(db *sql.DB, key string) (string, error) {
	var value string
	err := db.QueryRow(`SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("models: get value %q: %w", key, err)
	}
	return value, nil
}

// SetValue stores value under key, replacing any previous value.
func SetValue(db *sql.DB, key, value string) error {
	_, err := db.Exec(
		`INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("models: set value %q: %w", key, err)
	}
	return nil
}

// SetValues stores several keys in one transaction so they are replaced together.
func SetValues(db *sql.DB, values map[string]string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("models: begin set values: %w", err)
	}
	defer tx.Rollback()

	for key, value := range values {
		_, err := tx.Exec(
			`INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, value,
		)
		if err != nil {
			return fmt.Errorf("models: set value %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("models: commit set values: %w", err)
	}
	return nil
}

// DeleteValue removes key. Deleting an absent key is not an error.
func DeleteValue(db *sql.DB, key string) error {
	if _, err := db.Exec(`DELETE FROM kv_store WHERE key = ?`, key); err != nil {
		return fmt.Errorf("models: delete value %q: %w", key, err)
	}
	return nil
}

// IncrementVisitCount bumps the page-view counter and returns the new total.
// A missing or garbled counter restarts from zero.
func IncrementVisitCount(db *sql.DB) (int, error) {
	current := 0
	if v, err := GetValue(db, KeyVisitCount); err == nil {
		if n, err := strconv.Atoi(v); err == nil {
			current = n
		}
	} else if !errors.Is(err, ErrNotFound) {
		return 0, err
	}

	current++
	if err := SetValue(db, KeyVisitCount, strconv.Itoa(current)); err != nil {
		return 0, err
	}
	return current, nil
}
