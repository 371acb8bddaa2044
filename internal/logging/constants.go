package logging

// Standardized field names for structured logging.
// These constants keep log output consistent across commands and services,
// making logs easier to parse, filter, and analyze.
const (
	FieldFile          = "file_path"
	FieldOperation     = "operation"
	FieldReserveNumber = "reserve_number"
	FieldCharterID     = "charter_id"
	FieldClientID      = "client_id"
	FieldPaymentID     = "payment_id"
	FieldRefundID      = "refund_id"
	FieldTransactionID = "bank_transaction_id"
	FieldReceiptID     = "receipt_id"
	FieldVendor        = "vendor"
	FieldCategory      = "category"
	FieldRule          = "rule"
	FieldConfidence    = "confidence"
	FieldCount         = "count"
	FieldTable         = "table"
	FieldBatchID       = "batch_id"
	FieldWrite         = "write"
	FieldStatus        = "status"
	FieldReason        = "reason"
	FieldError         = "error"
	FieldDuration      = "duration_ms"
)
