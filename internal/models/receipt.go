package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategorySource records how a receipt got its category, so manual work is
// never silently overwritten by automation.
type CategorySource string

const (
	CategoryManual     CategorySource = "manual"
	CategoryVendorMap  CategorySource = "vendor-map"
	CategoryKeyword    CategorySource = "keyword"
	CategoryClassifier CategorySource = "classifier"
)

// Receipt represents a purchase receipt entered by the office or pulled from
// the legacy system. VendorRaw is kept exactly as entered; VendorNormalized
// is the cleaned form used for matching and categorization.
type Receipt struct {
	ID               int64           `json:"id" yaml:"id"`
	VendorRaw        string          `json:"vendor_raw" yaml:"vendor_raw"`
	VendorNormalized string          `json:"vendor_normalized" yaml:"vendor_normalized"`
	PurchasedOn      time.Time       `json:"purchased_on" yaml:"purchased_on"`
	Total            decimal.Decimal `json:"total" yaml:"total"`
	GST              decimal.Decimal `json:"gst" yaml:"gst"`
	CheckNumber      string          `json:"check_number,omitempty" yaml:"check_number,omitempty"`
	Category         string          `json:"category,omitempty" yaml:"category,omitempty"`
	CategorySource   CategorySource  `json:"category_source,omitempty" yaml:"category_source,omitempty"`
	Notes            string          `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt        time.Time       `json:"created_at" yaml:"created_at"`
}

// GLEntry represents one side of a general ledger posting.
type GLEntry struct {
	ID           int64           `json:"id" yaml:"id"`
	PostedOn     time.Time       `json:"posted_on" yaml:"posted_on"`
	Account      string          `json:"account" yaml:"account"`
	Debit        decimal.Decimal `json:"debit" yaml:"debit"`
	Credit       decimal.Decimal `json:"credit" yaml:"credit"`
	Memo         string          `json:"memo,omitempty" yaml:"memo,omitempty"`
	SourceModule string          `json:"source_module,omitempty" yaml:"source_module,omitempty"`
}
