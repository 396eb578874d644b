package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldTxID       = "tx_id"
	FieldRuleID     = "rule_id"
	FieldAmount     = "amount"
	FieldCurrency   = "currency"
	FieldCategory   = "category"
	FieldSource     = "source"
	FieldExternalID = "external_id"
	FieldBatch      = "batch"
)

// Standard component names.
const (
	ComponentApp       = "app"
	ComponentLedger    = "ledger"
	ComponentRecurring = "recurring"
	ComponentReport    = "report"
	ComponentImporter  = "importer"
	ComponentStorage   = "storage"
	ComponentWorker    = "worker"
)
