// Package categorize assigns expense categories to receipts using three
// methods, tried in order:
// 1. Direct vendor-to-category mapping from a YAML database
// 2. Keyword rules from categories.yaml
// 3. A naive Bayes classifier trained on already-categorized receipts
package categorize

import (
	"context"
	"strings"
	"sync"

	"github.com/jbrukh/bayesian"

	"github.com/coastline-livery/charterbooks/internal/errs"
	"github.com/coastline-livery/charterbooks/internal/logging"
	"github.com/coastline-livery/charterbooks/internal/models"
	"github.com/coastline-livery/charterbooks/internal/vendor"
)

// Rules is the slice of the rules store the categorizer reads and writes.
type Rules interface {
	LoadCategories() ([]models.CategoryConfig, error)
	LoadVendorAliases() (map[string]string, error)
	LoadVendorCategories() (map[string]string, error)
	SaveVendorCategories(mappings map[string]string) error
}

// Options tunes the categorizer. Zero values disable auto-learning and make
// the classifier useless, so callers normally fill this from configuration.
type Options struct {
	// ConfidenceThreshold gates classifier suggestions. Rule-based hits are
	// deterministic and bypass it.
	ConfidenceThreshold float64

	// AutoLearn writes classifier hits back into the vendor mapping so the
	// next run resolves the same vendor without the classifier.
	AutoLearn bool

	// CaseSensitive makes keyword matching respect case. The office data is
	// full of shouting bank descriptions, so the default is insensitive.
	CaseSensitive bool
}

// Result is the outcome of categorizing one receipt.
type Result struct {
	Category   string
	Source     models.CategorySource
	Confidence float64
	Found      bool
}

// Categorizer resolves receipt categories. Safe for concurrent use.
type Categorizer struct {
	rules  Rules
	opts   Options
	logger logging.Logger

	mu         sync.RWMutex
	categories []models.CategoryConfig
	aliases    map[string]string // normalized variant -> canonical vendor
	vendorMap  map[string]string // canonical vendor -> category
	dirty      bool
	classifier *bayesian.Classifier
	classes    []bayesian.Class
}

// NewCategorizer creates a Categorizer and loads the rule files. Missing
// files are not fatal; the corresponding strategy just never fires.
func NewCategorizer(rules Rules, opts Options, logger logging.Logger) *Categorizer {
	if logger == nil {
		logger = logging.GetLogger()
	}
	c := &Categorizer{
		rules:     rules,
		opts:      opts,
		logger:    logger,
		aliases:   make(map[string]string),
		vendorMap: make(map[string]string),
	}

	categories, err := rules.LoadCategories()
	if err != nil {
		c.logger.WithError(err).Warn("failed to load category keyword rules")
	} else {
		c.categories = categories
	}

	aliases, err := rules.LoadVendorAliases()
	if err != nil {
		c.logger.WithError(err).Warn("failed to load vendor aliases")
	} else {
		for variant, canonical := range aliases {
			c.aliases[vendor.Normalize(variant)] = vendor.Normalize(canonical)
		}
	}

	vendorMap, err := rules.LoadVendorCategories()
	if err != nil {
		c.logger.WithError(err).Warn("failed to load vendor categories")
	} else {
		for name, category := range vendorMap {
			c.vendorMap[vendor.Normalize(name)] = category
		}
	}

	return c
}

// CanonicalVendor resolves a raw vendor string through normalization and the
// alias table.
func (c *Categorizer) CanonicalVendor(raw string) string {
	name := vendor.Normalize(raw)
	c.mu.RLock()
	defer c.mu.RUnlock()
	if canonical, ok := c.aliases[name]; ok {
		return canonical
	}
	return name
}

// Categorize resolves one receipt's category. The strategies run in order of
// trust: vendor mapping, keyword rules, then the classifier.
func (c *Categorizer) Categorize(r models.Receipt) Result {
	name := r.VendorNormalized
	if name == "" {
		name = vendor.Normalize(r.VendorRaw)
	}
	canonical := c.CanonicalVendor(name)

	if result, ok := c.byVendorMapping(canonical); ok {
		return result
	}
	if result, ok := c.byKeywords(r); ok {
		return result
	}
	return c.byClassifier(r, canonical)
}

func (c *Categorizer) byVendorMapping(canonical string) (Result, bool) {
	if canonical == "" {
		return Result{}, false
	}

	c.mu.RLock()
	category, found := c.vendorMap[canonical]
	c.mu.RUnlock()
	if !found {
		return Result{}, false
	}

	c.logger.WithFields(
		logging.Field{Key: logging.FieldVendor, Value: canonical},
		logging.Field{Key: logging.FieldCategory, Value: category},
	).Debug("receipt categorized by vendor mapping")

	return Result{
		Category:   category,
		Source:     models.CategoryVendorMap,
		Confidence: 1.0,
		Found:      true,
	}, true
}

func (c *Categorizer) byKeywords(r models.Receipt) (Result, bool) {
	haystack := r.VendorRaw + " " + r.Notes
	if !c.opts.CaseSensitive {
		haystack = strings.ToUpper(haystack)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, category := range c.categories {
		for _, keyword := range category.Keywords {
			needle := keyword
			if !c.opts.CaseSensitive {
				needle = strings.ToUpper(keyword)
			}
			if needle == "" || !strings.Contains(haystack, needle) {
				continue
			}
			c.logger.WithFields(
				logging.Field{Key: logging.FieldVendor, Value: r.VendorRaw},
				logging.Field{Key: "keyword", Value: keyword},
				logging.Field{Key: logging.FieldCategory, Value: category.Name},
			).Debug("receipt categorized by keyword")
			return Result{
				Category:   category.Name,
				Source:     models.CategoryKeyword,
				Confidence: 1.0,
				Found:      true,
			}, true
		}
	}
	return Result{}, false
}

func (c *Categorizer) byClassifier(r models.Receipt, canonical string) Result {
	c.mu.RLock()
	classifier := c.classifier
	classes := c.classes
	c.mu.RUnlock()

	if classifier == nil {
		return Result{}
	}

	terms := tokenize(r.VendorRaw + " " + r.Notes)
	if len(terms) == 0 {
		return Result{}
	}

	scores, best, strict := classifier.ProbScores(terms)
	confidence := scores[best]
	if !strict || confidence < c.opts.ConfidenceThreshold {
		c.logger.WithFields(
			logging.Field{Key: logging.FieldVendor, Value: r.VendorRaw},
			logging.Field{Key: logging.FieldConfidence, Value: confidence},
		).Debug("classifier suggestion below confidence threshold")
		return Result{Confidence: confidence}
	}

	category := string(classes[best])
	c.logger.WithFields(
		logging.Field{Key: logging.FieldVendor, Value: r.VendorRaw},
		logging.Field{Key: logging.FieldCategory, Value: category},
		logging.Field{Key: logging.FieldConfidence, Value: confidence},
	).Debug("receipt categorized by classifier")

	if c.opts.AutoLearn && canonical != "" {
		c.mu.Lock()
		c.vendorMap[canonical] = category
		c.dirty = true
		c.mu.Unlock()
	}

	return Result{
		Category:   category,
		Source:     models.CategoryClassifier,
		Confidence: confidence,
		Found:      true,
	}
}

// Train builds the classifier from already-categorized receipts. At least
// two distinct categories are required; with fewer the classifier stays off
// and rule-based strategies carry on alone.
func (c *Categorizer) Train(receipts []models.Receipt) error {
	distinct := make(map[string]bool)
	for _, r := range receipts {
		if r.Category != "" {
			distinct[r.Category] = true
		}
	}
	if len(distinct) < 2 {
		return &errs.ValidationError{
			Subject: "classifier",
			Reason:  "training needs receipts from at least two categories",
		}
	}

	classes := make([]bayesian.Class, 0, len(distinct))
	for category := range distinct {
		classes = append(classes, bayesian.Class(category))
	}

	classifier := bayesian.NewClassifierTfIdf(classes...)
	samples := 0
	for _, r := range receipts {
		if r.Category == "" {
			continue
		}
		terms := tokenize(r.VendorRaw + " " + r.Notes)
		if len(terms) == 0 {
			continue
		}
		classifier.Learn(terms, bayesian.Class(r.Category))
		samples++
	}
	classifier.ConvertTermsFreqToTfIdf()

	c.mu.Lock()
	c.classifier = classifier
	c.classes = classes
	c.mu.Unlock()

	c.logger.WithFields(
		logging.Field{Key: "classes", Value: len(classes)},
		logging.Field{Key: "samples", Value: samples},
	).Info("classifier trained")
	return nil
}

// Trained reports whether the classifier is ready.
func (c *Categorizer) Trained() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.classifier != nil
}

// Learn records a manual vendor-to-category decision for future runs.
func (c *Categorizer) Learn(rawVendor, category string) {
	canonical := c.CanonicalVendor(rawVendor)
	if canonical == "" || category == "" {
		return
	}
	c.mu.Lock()
	c.vendorMap[canonical] = category
	c.dirty = true
	c.mu.Unlock()
}

// Flush saves learned vendor mappings when they changed.
func (c *Categorizer) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}
	if err := c.rules.SaveVendorCategories(c.vendorMap); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

// ReceiptStore is the slice of the receipt repository Apply needs.
type ReceiptStore interface {
	ListCategorized(ctx context.Context) ([]models.Receipt, error)
	ListUncategorized(ctx context.Context) ([]models.Receipt, error)
	UpdateCategory(ctx context.Context, receiptID int64, category string, source models.CategorySource) error
}

// ApplySummary is the outcome of one categorization pass.
type ApplySummary struct {
	Processed   int
	Categorized int
	Skipped     int
	BySource    map[models.CategorySource]int
}

// Apply trains on categorized history, categorizes every uncategorized
// receipt, and persists the results. Receipts no strategy can place stay
// uncategorized for manual review.
func (c *Categorizer) Apply(ctx context.Context, store ReceiptStore) (ApplySummary, error) {
	history, err := store.ListCategorized(ctx)
	if err != nil {
		return ApplySummary{}, err
	}
	if err := c.Train(history); err != nil {
		c.logger.WithError(err).Info("classifier disabled for this run")
	}

	pending, err := store.ListUncategorized(ctx)
	if err != nil {
		return ApplySummary{}, err
	}

	summary := ApplySummary{
		Processed: len(pending),
		BySource:  make(map[models.CategorySource]int),
	}
	for _, r := range pending {
		result := c.Categorize(r)
		if !result.Found {
			summary.Skipped++
			continue
		}
		if err := store.UpdateCategory(ctx, r.ID, result.Category, result.Source); err != nil {
			return summary, err
		}
		summary.Categorized++
		summary.BySource[result.Source]++
	}

	if err := c.Flush(); err != nil {
		c.logger.WithError(err).Warn("failed to save learned vendor mappings")
	}
	return summary, nil
}

// tokenize lowercases text and splits it into classifier terms, dropping
// noise that never helps: single characters and pure numbers.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	terms := fields[:0]
	for _, f := range fields {
		if len(f) < 2 || isDigits(f) {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
