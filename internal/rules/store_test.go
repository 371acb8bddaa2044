package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCategories(t *testing.T) {
	dir := t.TempDir()
	content := `
categories:
  - name: Fuel
    keywords: [PETRO, Shell, "husky"]
  - name: Vehicle Maintenance
    keywords: [tire, "oil change"]
`
	path := filepath.Join(dir, "categories.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	store := NewStore(path, "", "")
	categories, err := store.LoadCategories()
	require.NoError(t, err)
	require.Len(t, categories, 2)

	assert.Equal(t, "Fuel", categories[0].Name)
	// Keywords are lowercased on load
	assert.Equal(t, []string{"petro", "shell", "husky"}, categories[0].Keywords)
	assert.Equal(t, []string{"tire", "oil change"}, categories[1].Keywords)
}

func TestLoadCategories_BareArray(t *testing.T) {
	dir := t.TempDir()
	content := `
- name: Tolls
  keywords: [bridge]
`
	path := filepath.Join(dir, "categories.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	store := NewStore(path, "", "")
	categories, err := store.LoadCategories()
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "Tolls", categories[0].Name)
}

func TestLoadCategories_MissingFileIsEmpty(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent.yaml"), "", "")
	categories, err := store.LoadCategories()
	require.NoError(t, err)
	assert.Empty(t, categories)
}

func TestVendorAliasRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vendor_aliases.yaml")
	store := NewStore("", path, "")

	aliases := map[string]string{
		"PETRO CANADA CALGARY": "PETRO CANADA",
		"PETRO CAN":            "PETRO CANADA",
	}
	require.NoError(t, store.SaveVendorAliases(aliases))

	loaded, err := store.LoadVendorAliases()
	require.NoError(t, err)
	assert.Equal(t, aliases, loaded)
}

func TestVendorCategoriesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vendor_categories.yaml")
	store := NewStore("", "", path)

	mappings := map[string]string{
		"PETRO CANADA": "Fuel",
		"KAL TIRE":     "Vehicle Maintenance",
	}
	require.NoError(t, store.SaveVendorCategories(mappings))

	loaded, err := store.LoadVendorCategories()
	require.NoError(t, err)
	assert.Equal(t, mappings, loaded)
}

func TestLoadVendorAliases_MissingFileIsEmpty(t *testing.T) {
	store := NewStore("", filepath.Join(t.TempDir(), "absent.yaml"), "")
	aliases, err := store.LoadVendorAliases()
	require.NoError(t, err)
	assert.NotNil(t, aliases)
	assert.Empty(t, aliases)
}

func TestSaveCreatesRulesDirectory(t *testing.T) {
	t.Chdir(t.TempDir())

	store := NewStore("", "", "")
	require.NoError(t, store.SaveVendorAliases(map[string]string{"A": "B"}))

	_, err := os.Stat(filepath.Join("rules", "vendor_aliases.yaml"))
	require.NoError(t, err)
}
