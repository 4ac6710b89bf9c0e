package models

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// SecretKeyEnv names the environment variable holding the key used to
// encrypt sensitive settings at rest.
const SecretKeyEnv = "SERVICIO_SECRET_KEY"

// secretKeySetting is the app_settings row holding a generated secret key.
// It is not part of SettingsRegistry and never shown.
const secretKeySetting = "_internal.secret_key"

// SettingDefinition describes a configurable application setting.
type SettingDefinition struct {
	Key         string // DB key, e.g. "whatsapp.phone"
	EnvVar      string // Override env var, e.g. "SERVICIO_WHATSAPP_PHONE"
	Default     string // Built-in default value
	Label       string // Human-readable label
	Description string // Help text
	Category    string // Grouping key
	Sensitive   bool   // If true, value is encrypted in DB and masked on display
}

// SettingValue represents a resolved setting with its source.
type SettingValue struct {
	Key      string
	Value    string
	Source   string // "env", "db", "default"
	Masked   string // Display value (masked for sensitive settings)
	ReadOnly bool   // True if set via env var
}

// CategoryOrder defines the display order for setting categories.
var CategoryOrder = []string{"General", "Publishing", "Email", "Maintenance"}

// SettingsRegistry defines all known application settings.
var SettingsRegistry = []SettingDefinition{
	// --- General ---
	{
		Key: "app.name", EnvVar: "SERVICIO_APP_NAME", Default: "Servicio Técnico",
		Label: "Business Name", Description: "Name shown in page titles and emails",
		Category: "General",
	},
	{
		Key: "whatsapp.phone", EnvVar: "SERVICIO_WHATSAPP_PHONE", Default: "542235254889",
		Label: "WhatsApp Number", Description: "International number without + used for wa.me links",
		Category: "General",
	},
	// --- Publishing ---
	{
		Key: "publish.edit_url_base", EnvVar: "SERVICIO_PUBLISH_EDIT_URL_BASE",
		Default:     "https://github.com/Baldezari00/servicio-tecnico-guillermo/edit/main/data",
		Label:       "Data Edit URL",
		Description: "Base URL where the maintainer edits services.json and prices.json (empty to omit)",
		Category:    "Publishing",
	},
	{
		Key: "telegram.token", EnvVar: "SERVICIO_TELEGRAM_TOKEN", Default: "",
		Label: "Telegram Bot Token", Description: "Bot that relays published changes to the maintainer (optional)",
		Category: "Publishing", Sensitive: true,
	},
	{
		Key: "telegram.chat_id", EnvVar: "SERVICIO_TELEGRAM_CHAT_ID", Default: "",
		Label: "Telegram Chat ID", Description: "Maintainer chat that receives relayed changes",
		Category: "Publishing",
	},
	// --- Email ---
	{
		Key: "smtp.host", EnvVar: "SERVICIO_SMTP_HOST", Default: "",
		Label: "SMTP Host", Description: "SMTP server hostname (e.g. smtp.gmail.com)",
		Category: "Email",
	},
	{
		Key: "smtp.port", EnvVar: "SERVICIO_SMTP_PORT", Default: "587",
		Label: "SMTP Port", Description: "SMTP server port (587 for STARTTLS, 465 for SSL)",
		Category: "Email",
	},
	{
		Key: "smtp.username", EnvVar: "SERVICIO_SMTP_USERNAME", Default: "",
		Label: "SMTP Username", Description: "SMTP authentication username",
		Category: "Email",
	},
	{
		Key: "smtp.password", EnvVar: "SERVICIO_SMTP_PASSWORD", Default: "",
		Label: "SMTP Password", Description: "SMTP authentication password or app-specific password",
		Category: "Email", Sensitive: true,
	},
	{
		Key: "smtp.from", EnvVar: "SERVICIO_SMTP_FROM", Default: "",
		Label: "From Address", Description: "Sender address for contact-form emails",
		Category: "Email",
	},
	{
		Key: "smtp.to", EnvVar: "SERVICIO_SMTP_TO", Default: "",
		Label: "Inbox Address", Description: "Business inbox that receives contact-form emails",
		Category: "Email",
	},
	{
		Key: "notify.urls", EnvVar: "SERVICIO_NOTIFY_URLS", Default: "",
		Label: "Broadcast URLs", Description: "Shoutrrr URLs that also receive contact requests (ntfy, Discord, etc). One per line.",
		Category: "Email",
	},
	// --- Maintenance ---
	{
		Key: "maintenance.interval_hours", EnvVar: "", Default: "1",
		Label: "Schedule Interval (hours)", Description: "How often background maintenance runs (1–168 hours)",
		Category: "Maintenance",
	},
	{
		Key: "maintenance.retention_days", EnvVar: "", Default: "180",
		Label: "Inquiry Retention (days)", Description: "Contact requests older than this are pruned (1–3650 days)",
		Category: "Maintenance",
	},
}

// GetSetting returns a configuration value using the resolution chain:
// env var → app_settings row → built-in default.
func GetSetting(db *sql.DB, key string) string {
	def := findDefinition(key)
	if def == nil {
		return ""
	}
	return resolveSettingValue(db, *def).Value
}

// LookupSetting returns the registry definition for key.
func LookupSetting(key string) (SettingDefinition, bool) {
	def := findDefinition(key)
	if def == nil {
		return SettingDefinition{}, false
	}
	return *def, true
}

// GetSettingValue returns the resolved setting with its source and mask.
// Unknown keys resolve to an empty value.
func GetSettingValue(db *sql.DB, key string) SettingValue {
	def := findDefinition(key)
	if def == nil {
		return SettingValue{Key: key}
	}
	return resolveSettingValue(db, *def)
}

// SetSetting stores a configuration value in the database.
// Sensitive values are encrypted, which requires SERVICIO_SECRET_KEY.
func SetSetting(db *sql.DB, key, value string) error {
	def := findDefinition(key)
	if def == nil {
		return fmt.Errorf("models: unknown setting key %q", key)
	}

	storeValue := value
	if def.Sensitive && value != "" {
		encrypted, err := encryptValue(value)
		if err != nil {
			return fmt.Errorf("models: encrypt setting %q: %w", key, err)
		}
		storeValue = "enc:" + encrypted
	}

	_, err := db.Exec(
		`INSERT INTO app_settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, storeValue,
	)
	if err != nil {
		return fmt.Errorf("models: set setting %q: %w", key, err)
	}
	return nil
}

// DeleteSetting removes a setting from the database (reverts to env var or default).
func DeleteSetting(db *sql.DB, key string) error {
	if findDefinition(key) == nil {
		return fmt.Errorf("models: unknown setting key %q", key)
	}
	_, err := db.Exec(`DELETE FROM app_settings WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("models: delete setting %q: %w", key, err)
	}
	return nil
}

// EnsureSecretKey makes SERVICIO_SECRET_KEY available for settings
// encryption. An explicit env var is persisted and wins; otherwise a key
// stored by an earlier run is reused; otherwise a random key is generated and
// stored. It reports where the key came from: "env", "database" or "generated".
func EnsureSecretKey(db *sql.DB) (source string, err error) {
	if key := os.Getenv(SecretKeyEnv); key != "" {
		if err := storeSecretKey(db, key); err != nil {
			return "", err
		}
		return "env", nil
	}

	var key string
	err = db.QueryRow(`SELECT value FROM app_settings WHERE key = ?`, secretKeySetting).Scan(&key)
	if err == nil && key != "" {
		os.Setenv(SecretKeyEnv, key)
		return "database", nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("models: generate secret key: %w", err)
	}
	key = base64.StdEncoding.EncodeToString(buf)
	if err := storeSecretKey(db, key); err != nil {
		return "", err
	}
	os.Setenv(SecretKeyEnv, key)
	return "generated", nil
}

func storeSecretKey(db *sql.DB, key string) error {
	_, err := db.Exec(
		`INSERT INTO app_settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, secretKeySetting, key,
	)
	if err != nil {
		return fmt.Errorf("models: store secret key: %w", err)
	}
	return nil
}

// ListSettings returns all registered settings with their resolved values.
func ListSettings(db *sql.DB) []SettingValue {
	result := make([]SettingValue, 0, len(SettingsRegistry))
	for _, def := range SettingsRegistry {
		result = append(result, resolveSettingValue(db, def))
	}
	return result
}

// ListSettingsByCategoryOrdered returns settings grouped by category in the
// order defined by CategoryOrder.
func ListSettingsByCategoryOrdered(db *sql.DB) []CategoryGroup {
	groups := make(map[string][]SettingValue)
	for _, def := range SettingsRegistry {
		groups[def.Category] = append(groups[def.Category], resolveSettingValue(db, def))
	}

	var ordered []CategoryGroup
	for _, cat := range CategoryOrder {
		if settings, ok := groups[cat]; ok {
			ordered = append(ordered, CategoryGroup{Name: cat, Settings: settings})
		}
	}
	return ordered
}

// CategoryGroup holds settings for a single category, for ordered rendering.
type CategoryGroup struct {
	Name     string
	Settings []SettingValue
}

// GetAppName returns the configured business name.
func GetAppName(db *sql.DB) string {
	if v := GetSetting(db, "app.name"); v != "" {
		return v
	}
	return "Servicio Técnico"
}

// GetWhatsAppPhone returns the number used in wa.me links, digits only.
func GetWhatsAppPhone(db *sql.DB) string {
	v := GetSetting(db, "whatsapp.phone")
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, v)
}

// GetMaintenanceIntervalHours returns the scheduler interval from app settings.
func GetMaintenanceIntervalHours(db *sql.DB) int {
	if v := GetSetting(db, "maintenance.interval_hours"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 168 {
			return n
		}
	}
	return 1
}

// GetMaintenanceRetentionDays returns the inquiry retention period from app settings.
func GetMaintenanceRetentionDays(db *sql.DB) int {
	if v := GetSetting(db, "maintenance.retention_days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 3650 {
			return n
		}
	}
	return 180
}

// --- Internal helpers ---

func findDefinition(key string) *SettingDefinition {
	for i := range SettingsRegistry {
		if SettingsRegistry[i].Key == key {
			return &SettingsRegistry[i]
		}
	}
	return nil
}

func resolveSettingValue(db *sql.DB, def SettingDefinition) SettingValue {
	sv := SettingValue{Key: def.Key}

	// Environment variable always wins.
	if def.EnvVar != "" {
		if v := os.Getenv(def.EnvVar); v != "" {
			sv.Value = v
			sv.Source = "env"
			sv.ReadOnly = true
			sv.Masked = maskValue(v, def.Sensitive)
			return sv
		}
	}

	var raw string
	err := db.QueryRow(`SELECT value FROM app_settings WHERE key = ?`, def.Key).Scan(&raw)
	if err == nil {
		sv.Source = "db"
		if def.Sensitive && strings.HasPrefix(raw, "enc:") {
			decrypted, err := decryptValue(raw[4:])
			if err == nil {
				sv.Value = decrypted
				sv.Masked = maskValue(decrypted, true)
			} else {
				sv.Masked = "(decryption failed)"
			}
		} else {
			sv.Value = raw
			sv.Masked = maskValue(raw, def.Sensitive)
		}
		return sv
	}

	sv.Value = def.Default
	sv.Source = "default"
	sv.Masked = maskValue(def.Default, def.Sensitive)
	return sv
}

func maskValue(value string, sensitive bool) string {
	if !sensitive || value == "" {
		return value
	}
	if len(value) <= 8 {
		return "••••••••"
	}
	return value[:4] + "••••" + value[len(value)-4:]
}

// --- Encryption helpers ---

// secretKey returns the 32-byte encryption key derived from SERVICIO_SECRET_KEY
// using HKDF (RFC 5869). Returns nil if the env var is not set.
func secretKey() []byte {
	key := os.Getenv(SecretKeyEnv)
	if key == "" {
		return nil
	}
	h := hkdf.New(sha256.New, []byte(key), []byte("servicio-settings-v1"), []byte("aes-256-gcm"))
	derived := make([]byte, 32)
	if _, err := io.ReadFull(h, derived); err != nil {
		return nil
	}
	return derived
}

func encryptValue(plaintext string) (string, error) {
	key := secretKey()
	if key == nil {
		return "", fmt.Errorf("%s not set, cannot encrypt sensitive settings", SecretKeyEnv)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ciphertext := aesGCM.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func decryptValue(encoded string) (string, error) {
	key := secretKey()
	if key == nil {
		return "", fmt.Errorf("%s not set, cannot decrypt", SecretKeyEnv)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonceSize := aesGCM.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
