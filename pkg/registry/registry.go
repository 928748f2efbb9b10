// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"complaint-workers/internal/common/validation"
)

// LoadRegistry reads and validates the registry at path.
func LoadRegistry(path string) (*TranslationRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse registry %s: %w", path, err)
	}
	result, err := validation.Validate(doc, Schema())
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, fmt.Errorf("registry %s does not match schema: %s", path, result.Error())
	}

	var reg TranslationRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to decode registry %s: %w", path, err)
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// New returns an empty registry.
func New(defaultLocale string) *TranslationRegistry {
	return &TranslationRegistry{
		Version:       "1.0.0",
		LastUpdated:   time.Now().UTC().Format(time.RFC3339),
		DefaultLocale: defaultLocale,
		Translations:  []Translation{},
	}
}

// Validate checks rules the schema cannot express.
func (r *TranslationRegistry) Validate() error {
	seen := make(map[Translation]bool, len(r.Translations))
	for _, t := range r.Translations {
		id := Translation{Key: t.Key, Locale: t.Locale, ResellerID: t.ResellerID}
		if seen[id] {
			return fmt.Errorf("duplicate translation: key=%s locale=%s resellerId=%d", t.Key, t.Locale, t.ResellerID)
		}
		seen[id] = true
	}
	return nil
}

// Lookup finds the text for key in locale, preferring the reseller's override.
func (r *TranslationRegistry) Lookup(key, locale string, resellerID int64) (string, bool) {
	var global string
	var haveGlobal bool
	for _, t := range r.Translations {
		if t.Key != key || t.Locale != locale {
			continue
		}
		if resellerID != 0 && t.ResellerID == resellerID {
			return t.Text, true
		}
		if t.ResellerID == 0 {
			global, haveGlobal = t.Text, true
		}
	}
	return global, haveGlobal
}

// Upsert adds t or replaces the text of the entry with the same key, locale
// and reseller. It reports whether a new entry was added.
func (r *TranslationRegistry) Upsert(t Translation) bool {
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	for i := range r.Translations {
		e := &r.Translations[i]
		if e.Key == t.Key && e.Locale == t.Locale && e.ResellerID == t.ResellerID {
			e.Text = t.Text
			return false
		}
	}
	r.Translations = append(r.Translations, t)
	return true
}

// Keys returns the distinct keys present in the registry.
func (r *TranslationRegistry) Keys() map[string]bool {
	keys := make(map[string]bool)
	for _, t := range r.Translations {
		keys[t.Key] = true
	}
	return keys
}

// SaveRegistry writes reg to path, creating parent directories.
func SaveRegistry(reg *TranslationRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}
