package categorize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coastline-livery/charterbooks/internal/logging"
	"github.com/coastline-livery/charterbooks/internal/models"
)

type fakeRules struct {
	categories []models.CategoryConfig
	aliases    map[string]string
	vendorCats map[string]string
	saved      map[string]string
}

func (f *fakeRules) LoadCategories() ([]models.CategoryConfig, error) {
	return f.categories, nil
}

func (f *fakeRules) LoadVendorAliases() (map[string]string, error) {
	return f.aliases, nil
}

func (f *fakeRules) LoadVendorCategories() (map[string]string, error) {
	return f.vendorCats, nil
}

func (f *fakeRules) SaveVendorCategories(mappings map[string]string) error {
	f.saved = mappings
	return nil
}

func defaultOptions() Options {
	return Options{
		ConfidenceThreshold: 0.8,
		AutoLearn:           true,
	}
}

func trainingHistory() []models.Receipt {
	return []models.Receipt{
		{VendorRaw: "Esso Fuel Stop", Category: "Fuel"},
		{VendorRaw: "Esso Commercial Fuel", Category: "Fuel"},
		{VendorRaw: "Petro Canada Fuel", Category: "Fuel"},
		{VendorRaw: "Tim Hortons Coffee", Category: "Meals"},
		{VendorRaw: "Harbourview Diner Lunch", Category: "Meals"},
		{VendorRaw: "Coffee Catering Tray", Category: "Meals"},
	}
}

func TestCategorizeByVendorMapping(t *testing.T) {
	rules := &fakeRules{vendorCats: map[string]string{
		"Harbour Fuels": "Fuel",
	}}
	c := NewCategorizer(rules, defaultOptions(), logging.NewMockLogger())

	result := c.Categorize(models.Receipt{VendorRaw: "HARBOUR FUELS #228"})

	require.True(t, result.Found)
	assert.Equal(t, "Fuel", result.Category)
	assert.Equal(t, models.CategoryVendorMap, result.Source)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestCategorizeResolvesAliasFirst(t *testing.T) {
	rules := &fakeRules{
		aliases: map[string]string{
			"Harbour Fuel Stop": "Harbour Fuels",
		},
		vendorCats: map[string]string{
			"Harbour Fuels": "Fuel",
		},
	}
	c := NewCategorizer(rules, defaultOptions(), logging.NewMockLogger())

	result := c.Categorize(models.Receipt{VendorNormalized: "HARBOUR FUEL STOP"})

	require.True(t, result.Found)
	assert.Equal(t, "Fuel", result.Category)
	assert.Equal(t, models.CategoryVendorMap, result.Source)
}

func TestCategorizeByKeyword(t *testing.T) {
	rules := &fakeRules{categories: []models.CategoryConfig{
		{Name: "Vehicle Wash", Keywords: []string{"wash", "detail"}},
		{Name: "Parking", Keywords: []string{"impark", "parking"}},
	}}
	c := NewCategorizer(rules, defaultOptions(), logging.NewMockLogger())

	result := c.Categorize(models.Receipt{VendorRaw: "Bayside Auto Detailing"})

	require.True(t, result.Found)
	assert.Equal(t, "Vehicle Wash", result.Category)
	assert.Equal(t, models.CategoryKeyword, result.Source)
}

func TestCategorizeKeywordCaseSensitive(t *testing.T) {
	rules := &fakeRules{categories: []models.CategoryConfig{
		{Name: "Vehicle Wash", Keywords: []string{"Wash"}},
	}}
	opts := defaultOptions()
	opts.CaseSensitive = true
	c := NewCategorizer(rules, opts, logging.NewMockLogger())

	assert.False(t, c.Categorize(models.Receipt{VendorRaw: "CAR WASH DEPOT"}).Found)
	assert.True(t, c.Categorize(models.Receipt{VendorRaw: "Harbour Wash"}).Found)
}

func TestClassifierCategorizesAndLearns(t *testing.T) {
	rules := &fakeRules{}
	c := NewCategorizer(rules, defaultOptions(), logging.NewMockLogger())

	require.NoError(t, c.Train(trainingHistory()))
	require.True(t, c.Trained())

	result := c.Categorize(models.Receipt{VendorRaw: "Esso Station Fuel"})

	require.True(t, result.Found)
	assert.Equal(t, "Fuel", result.Category)
	assert.Equal(t, models.CategoryClassifier, result.Source)
	assert.GreaterOrEqual(t, result.Confidence, 0.8)

	// The hit was learned, so the same vendor now resolves without the
	// classifier and survives a flush.
	again := c.Categorize(models.Receipt{VendorRaw: "Esso Station Fuel"})
	assert.Equal(t, models.CategoryVendorMap, again.Source)

	require.NoError(t, c.Flush())
	assert.Equal(t, "Fuel", rules.saved["ESSO STATION FUEL"])
}

func TestClassifierRespectsThreshold(t *testing.T) {
	rules := &fakeRules{}
	c := NewCategorizer(rules, defaultOptions(), logging.NewMockLogger())
	require.NoError(t, c.Train(trainingHistory()))

	// Tokens the classifier has never seen score both classes equally, so
	// no strict winner emerges.
	result := c.Categorize(models.Receipt{VendorRaw: "Quayside Chandlery"})

	assert.False(t, result.Found)
	assert.Empty(t, result.Category)
}

func TestTrainNeedsTwoCategories(t *testing.T) {
	rules := &fakeRules{}
	c := NewCategorizer(rules, defaultOptions(), logging.NewMockLogger())

	err := c.Train([]models.Receipt{
		{VendorRaw: "Esso Fuel", Category: "Fuel"},
		{VendorRaw: "Petro Canada", Category: "Fuel"},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "two categories")
	assert.False(t, c.Trained())
}

func TestFlushWithoutChangesWritesNothing(t *testing.T) {
	rules := &fakeRules{vendorCats: map[string]string{"Harbour Fuels": "Fuel"}}
	c := NewCategorizer(rules, defaultOptions(), logging.NewMockLogger())

	require.NoError(t, c.Flush())
	assert.Nil(t, rules.saved)
}

type categoryUpdate struct {
	receiptID int64
	category  string
	source    models.CategorySource
}

type fakeReceiptStore struct {
	history []models.Receipt
	pending []models.Receipt
	updates []categoryUpdate
}

func (f *fakeReceiptStore) ListCategorized(_ context.Context) ([]models.Receipt, error) {
	return f.history, nil
}

func (f *fakeReceiptStore) ListUncategorized(_ context.Context) ([]models.Receipt, error) {
	return f.pending, nil
}

func (f *fakeReceiptStore) UpdateCategory(_ context.Context, receiptID int64, category string, source models.CategorySource) error {
	f.updates = append(f.updates, categoryUpdate{receiptID: receiptID, category: category, source: source})
	return nil
}

func TestApplyCategorizesPendingReceipts(t *testing.T) {
	rules := &fakeRules{
		categories: []models.CategoryConfig{
			{Name: "Vehicle Wash", Keywords: []string{"detail"}},
		},
		vendorCats: map[string]string{
			"Harbour Fuels": "Fuel",
		},
	}
	store := &fakeReceiptStore{
		history: trainingHistory(),
		pending: []models.Receipt{
			{ID: 1, VendorRaw: "Harbour Fuels #228"},
			{ID: 2, VendorRaw: "Bayside Auto Detailing"},
			{ID: 3, VendorRaw: "Petro Canada Fuel Bar"},
			{ID: 4, VendorRaw: "Quayside Chandlery"},
		},
	}

	c := NewCategorizer(rules, defaultOptions(), logging.NewMockLogger())
	summary, err := c.Apply(context.Background(), store)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Processed)
	assert.Equal(t, 3, summary.Categorized)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.BySource[models.CategoryVendorMap])
	assert.Equal(t, 1, summary.BySource[models.CategoryKeyword])
	assert.Equal(t, 1, summary.BySource[models.CategoryClassifier])

	require.Len(t, store.updates, 3)
	assert.Equal(t, int64(1), store.updates[0].receiptID)
	assert.Equal(t, "Fuel", store.updates[0].category)
	assert.Equal(t, int64(2), store.updates[1].receiptID)
	assert.Equal(t, "Vehicle Wash", store.updates[1].category)
	assert.Equal(t, int64(3), store.updates[2].receiptID)
	assert.Equal(t, "Fuel", store.updates[2].category)

	// The classifier hit was learned back into the vendor map.
	assert.Equal(t, "Fuel", rules.saved["PETRO CANADA FUEL BAR"])
}

func TestApplyWithThinHistoryStillAppliesRules(t *testing.T) {
	rules := &fakeRules{vendorCats: map[string]string{"Harbour Fuels": "Fuel"}}
	store := &fakeReceiptStore{
		history: []models.Receipt{{VendorRaw: "Esso", Category: "Fuel"}},
		pending: []models.Receipt{
			{ID: 1, VendorRaw: "Harbour Fuels #228"},
			{ID: 2, VendorRaw: "Quayside Chandlery"},
		},
	}

	c := NewCategorizer(rules, defaultOptions(), logging.NewMockLogger())
	summary, err := c.Apply(context.Background(), store)
	require.NoError(t, err)

	assert.False(t, c.Trained())
	assert.Equal(t, 1, summary.Categorized)
	assert.Equal(t, 1, summary.Skipped)
}
