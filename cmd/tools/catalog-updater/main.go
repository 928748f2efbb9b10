// cmd/tools/catalog-updater/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"complaint-workers/internal/common/config"
	"complaint-workers/internal/common/database"
	"complaint-workers/internal/common/translation"
	"complaint-workers/pkg/registry"
)

const defaultPath = "configs/translations.json"

func main() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	syncCmd := flag.NewFlagSet("sync", flag.ExitOnError)

	addPath := addCmd.String("path", defaultPath, "Path to translation registry")
	addKey := addCmd.String("key", "", "Template key (e.g., complaintClientSmsText)")
	addLocale := addCmd.String("locale", "en", "Locale (e.g., en, de-DE)")
	addReseller := addCmd.Int64("reseller", 0, "Reseller id for an override, 0 for the global text")
	addText := addCmd.String("text", "", "Text with {{VARIABLE}} placeholders")

	updatePath := updateCmd.String("path", defaultPath, "Path to translation registry")
	updateKey := updateCmd.String("key", "", "Template key to update")
	updateLocale := updateCmd.String("locale", "en", "Locale")
	updateReseller := updateCmd.Int64("reseller", 0, "Reseller id, 0 for the global text")
	updateText := updateCmd.String("text", "", "New text")

	validatePath := validateCmd.String("path", defaultPath, "Path to translation registry")

	syncPath := syncCmd.String("path", defaultPath, "Path to translation registry")
	syncConfig := syncCmd.String("config", "configs/config.yaml", "Worker configuration with the elasticsearch section")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "add":
		addCmd.Parse(os.Args[2:])
		if *addKey == "" || *addText == "" {
			fmt.Println("Error: key and text are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		err = addTranslation(*addPath, registry.Translation{Key: *addKey, Locale: *addLocale, ResellerID: *addReseller, Text: *addText})
		if err == nil {
			fmt.Printf("Added translation: %s/%s\n", *addKey, *addLocale)
		}

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *updateKey == "" || *updateText == "" {
			fmt.Println("Error: key and text are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		err = updateTranslation(*updatePath, registry.Translation{Key: *updateKey, Locale: *updateLocale, ResellerID: *updateReseller, Text: *updateText})
		if err == nil {
			fmt.Printf("Updated translation: %s/%s\n", *updateKey, *updateLocale)
		}

	case "validate":
		validateCmd.Parse(os.Args[2:])
		err = validateCatalog(*validatePath)

	case "sync":
		syncCmd.Parse(os.Args[2:])
		err = syncCatalog(*syncPath, *syncConfig)

	default:
		help()
		return
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func loadOrCreate(path string) (*registry.TranslationRegistry, error) {
	reg, err := registry.LoadRegistry(path)
	if os.IsNotExist(err) {
		return registry.New("en"), nil
	}
	return reg, err
}

func checkKey(key string) error {
	if !translation.TemplateKey(key).Valid() {
		return fmt.Errorf("unknown template key %q", key)
	}
	return nil
}

func addTranslation(path string, t registry.Translation) error {
	if err := checkKey(t.Key); err != nil {
		return err
	}
	reg, err := loadOrCreate(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if !reg.Upsert(t) {
		return fmt.Errorf("translation %s/%s for reseller %d already exists, use update", t.Key, t.Locale, t.ResellerID)
	}
	return registry.SaveRegistry(reg, path)
}

func updateTranslation(path string, t registry.Translation) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if reg.Upsert(t) {
		return fmt.Errorf("translation %s/%s for reseller %d not found, use add", t.Key, t.Locale, t.ResellerID)
	}
	return registry.SaveRegistry(reg, path)
}

// validateCatalog checks the schema and that every template key has a
// global text in the default locale.
func validateCatalog(path string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	for _, t := range reg.Translations {
		if err := checkKey(t.Key); err != nil {
			return err
		}
	}

	var missing []string
	for _, key := range translation.Keys {
		if _, ok := reg.Lookup(string(key), reg.DefaultLocale, 0); !ok {
			missing = append(missing, string(key))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("no %s text for: %v", reg.DefaultLocale, missing)
	}

	fmt.Printf("Catalog validation passed. Found %d translations.\n", len(reg.Translations))
	return nil
}

// syncCatalog copies the registry into the Elasticsearch translations index.
func syncCatalog(path, configPath string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	es, err := database.ConnectElasticsearch(ctx, cfg.Database.Elasticsearch)
	if err != nil {
		return err
	}

	index := cfg.Notifications.Catalog.Index
	for _, t := range reg.Translations {
		id := t.Key + ":" + t.Locale + ":" + strconv.FormatInt(t.ResellerID, 10)
		if err := es.IndexDocument(ctx, index, id, t); err != nil {
			return fmt.Errorf("failed to index %s: %w", id, err)
		}
	}

	fmt.Printf("Indexed %d translations into %s.\n", len(reg.Translations), index)
	return nil
}

func help() {
	fmt.Print(`
Usage: catalog-updater <command> [flags]

Commands:
  add       Add a translation to the registry
  update    Replace the text of an existing translation
  validate  Validate the registry file
  sync      Index the registry into Elasticsearch
  help      Show this help message

Examples:
  catalog-updater add -key complaintClientSmsText -locale de -text "Reklamation {{COMPLAINT_NUMBER}}: {{DIFFERENCES}}"
  catalog-updater update -key complaintClientSmsText -locale en -reseller 42 -text "{{DIFFERENCES}}"
  catalog-updater validate -path configs/translations.json
  catalog-updater sync -config configs/config.yaml

Use 'catalog-updater <command> -h' for more information about a command.
`, "\n")
}
