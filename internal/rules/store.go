// Package rules provides loading and saving of the data-driven matching and
// categorization rules: vendor aliases, vendor-to-category mappings, and
// keyword category definitions. All rule files are YAML so the office can
// edit them without a rebuild.
package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/coastline-livery/charterbooks/internal/config"
	"github.com/coastline-livery/charterbooks/internal/models"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Use the centralized logger from config package
var log = config.Logger

// SetLogger allows setting a custom logger
func SetLogger(logger *logrus.Logger) {
	if logger != nil {
		log = logger
	}
}

// Store manages loading and saving of rule data.
type Store struct {
	CategoriesFile       string
	VendorAliasesFile    string
	VendorCategoriesFile string
}

// NewStore creates a rule store. Empty filenames fall back to the standard
// names looked up in the standard locations.
func NewStore(categoriesFile, vendorAliasesFile, vendorCategoriesFile string) *Store {
	return &Store{
		CategoriesFile:       categoriesFile,
		VendorAliasesFile:    vendorAliasesFile,
		VendorCategoriesFile: vendorCategoriesFile,
	}
}

// FindConfigFile looks for a rule file in standard locations
func (s *Store) FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,                          // Current directory
		filepath.Join("config", filename), // ./config/ directory
		filepath.Join("rules", filename),  // ./rules/ directory
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".config", "charterbooks", filename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}
	}

	return "", os.ErrNotExist
}

func (s *Store) resolveConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err != nil {
			return "", err
		}
		return filename, nil
	}

	path, err := s.FindConfigFile(filename)
	if err != nil {
		log.Debugf("Rule file not found: %s", filename)
		return "", err
	}

	return path, nil
}

// savePath resolves where a rule file should be written: the existing file
// if one is found, otherwise ./rules/<filename>.
func (s *Store) savePath(filename string) (string, error) {
	filePath, err := s.FindConfigFile(filename)
	if err != nil && err != os.ErrNotExist {
		return "", fmt.Errorf("error resolving rule file %s: %w", filename, err)
	}
	if err == os.ErrNotExist {
		if filepath.IsAbs(filename) {
			filePath = filename
		} else {
			filePath = filepath.Join("rules", filename)
		}
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating directory: %w", err)
	}
	return filePath, nil
}

// LoadCategories loads keyword category definitions from the YAML file.
// A missing file is not an error; it yields no categories.
func (s *Store) LoadCategories() ([]models.CategoryConfig, error) {
	filename := s.CategoriesFile
	if filename == "" {
		filename = "categories.yaml"
	}

	filePath, err := s.resolveConfigFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warnf("Categories file not found: %s", filename)
			return []models.CategoryConfig{}, nil
		}
		return nil, fmt.Errorf("error resolving categories file: %w", err)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading categories file: %w", err)
	}

	// Proper structure first: "categories: [...]"
	var categoriesConfig models.CategoriesConfig
	err = yaml.Unmarshal(data, &categoriesConfig)
	if err == nil && len(categoriesConfig.Categories) > 0 {
		log.Debugf("Loaded %d categories from %s", len(categoriesConfig.Categories), filePath)
		return normalizeKeywords(categoriesConfig.Categories), nil
	}

	// Fallback: a bare array without the top-level key
	var categories []models.CategoryConfig
	err = yaml.Unmarshal(data, &categories)
	if err == nil && len(categories) > 0 {
		log.Debugf("Loaded %d categories from %s using direct array", len(categories), filePath)
		return normalizeKeywords(categories), nil
	}

	if err != nil {
		return nil, fmt.Errorf("error parsing categories file: %w", err)
	}
	return []models.CategoryConfig{}, nil
}

func normalizeKeywords(categories []models.CategoryConfig) []models.CategoryConfig {
	for i := range categories {
		for j, kw := range categories[i].Keywords {
			categories[i].Keywords[j] = strings.ToLower(kw)
		}
	}
	return categories
}

// LoadVendorAliases loads the alias-to-canonical vendor map from YAML.
// A missing file is not an error; it yields an empty map.
func (s *Store) LoadVendorAliases() (map[string]string, error) {
	return s.loadMapping(s.VendorAliasesFile, "vendor_aliases.yaml")
}

// SaveVendorAliases saves the alias-to-canonical vendor map to YAML.
func (s *Store) SaveVendorAliases(mappings map[string]string) error {
	return s.saveMapping(s.VendorAliasesFile, "vendor_aliases.yaml", mappings)
}

// LoadVendorCategories loads the canonical-vendor-to-category map from YAML.
// A missing file is not an error; it yields an empty map.
func (s *Store) LoadVendorCategories() (map[string]string, error) {
	return s.loadMapping(s.VendorCategoriesFile, "vendor_categories.yaml")
}

// SaveVendorCategories saves the canonical-vendor-to-category map to YAML.
func (s *Store) SaveVendorCategories(mappings map[string]string) error {
	return s.saveMapping(s.VendorCategoriesFile, "vendor_categories.yaml", mappings)
}

func (s *Store) loadMapping(filename, fallback string) (map[string]string, error) {
	if filename == "" {
		filename = fallback
	}

	filePath, err := s.resolveConfigFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warnf("Rule file not found: %s", filename)
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("error resolving rule file %s: %w", filename, err)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading rule file %s: %w", filePath, err)
	}

	var mappings map[string]string
	if err := yaml.Unmarshal(data, &mappings); err != nil {
		return nil, fmt.Errorf("error parsing rule file %s: %w", filePath, err)
	}
	if mappings == nil {
		mappings = map[string]string{}
	}

	log.Debugf("Loaded %d mappings from %s", len(mappings), filePath)
	return mappings, nil
}

func (s *Store) saveMapping(filename, fallback string, mappings map[string]string) error {
	if filename == "" {
		filename = fallback
	}

	filePath, err := s.savePath(filename)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(mappings)
	if err != nil {
		return fmt.Errorf("error marshaling rule file %s: %w", filename, err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("error writing rule file %s: %w", filePath, err)
	}

	log.Debugf("Saved %d mappings to %s", len(mappings), filePath)
	return nil
}
