// pkg/registry/schema.go
package registry

import "complaint-workers/internal/common/validation"

// TranslationRegistry is the on-disk catalog of notification texts.
type TranslationRegistry struct {
	Version       string        `json:"version"`
	LastUpdated   string        `json:"lastUpdated"`
	DefaultLocale string        `json:"defaultLocale"`
	Translations  []Translation `json:"translations"`
}

// Translation is one text for a key and locale. ResellerID 0 marks the
// global text; any other value overrides it for that reseller.
type Translation struct {
	Key        string `json:"key"`
	Locale     string `json:"locale"`
	ResellerID int64  `json:"resellerId"`
	Text       string `json:"text"`
}

// Schema describes a valid registry document.
func Schema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"version", "defaultLocale", "translations"},
		Properties: map[string]validation.Property{
			"version":       {Type: "string", MinLength: validation.Int(1)},
			"lastUpdated":   {Type: "string"},
			"defaultLocale": {Type: "string", Pattern: `^[a-z]{2}(-[A-Z]{2})?$`},
			"translations": {
				Type: "array",
				Items: &validation.Property{
					Type:     "object",
					Required: []string{"key", "locale", "text"},
					Properties: map[string]validation.Property{
						"key":        {Type: "string", MinLength: validation.Int(1)},
						"locale":     {Type: "string", Pattern: `^[a-z]{2}(-[A-Z]{2})?$`},
						"resellerId": {Type: "integer", Minimum: validation.Float(0)},
						"text":       {Type: "string", MinLength: validation.Int(1)},
					},
					AdditionalProperties: validation.Bool(false),
				},
			},
		},
	}
}
