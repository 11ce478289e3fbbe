package shared

// EntryKind defines the variants of a ledger entry
type EntryKind string

const (
	EntryKindRevenue   EntryKind = "REVENUE"
	EntryKindExpense   EntryKind = "EXPENSE"
	EntryKindFloatOpen EntryKind = "FLOAT_OPEN"
	EntryKindClosing   EntryKind = "CLOSING"
)

// Valid reports whether k is one of the known entry kinds
func (k EntryKind) Valid() bool {
	switch k {
	case EntryKindRevenue, EntryKindExpense, EntryKindFloatOpen, EntryKindClosing:
		return true
	}
	return false
}

// Wallet identifies one of the shop's cash pools
type Wallet string

const (
	WalletCash Wallet = "CASH"
	WalletBank Wallet = "BANK"
	WalletSafe Wallet = "SAFE"
)

// Wallets lists every wallet in display order
var Wallets = []Wallet{WalletCash, WalletBank, WalletSafe}

// Valid reports whether w is one of the known wallets
func (w Wallet) Valid() bool {
	switch w {
	case WalletCash, WalletBank, WalletSafe:
		return true
	}
	return false
}

// Label returns the name used on receipts and exports
func (w Wallet) Label() string {
	switch w {
	case WalletCash:
		return "Caisse"
	case WalletBank:
		return "Banque"
	case WalletSafe:
		return "Coffre"
	}
	return string(w)
}

// TransferDirection marks which leg of an internal transfer an entry is
type TransferDirection string

const (
	TransferDirectionOut TransferDirection = "OUT"
	TransferDirectionIn  TransferDirection = "IN"
)

// OperationType defines the ledger intents accepted by the processor
type OperationType string

const (
	OperationTypeSale      OperationType = "SALE"
	OperationTypeExpense   OperationType = "EXPENSE"
	OperationTypeTransfer  OperationType = "TRANSFER"
	OperationTypeFloatOpen OperationType = "FLOAT_OPEN"
	OperationTypeClosing   OperationType = "CLOSING"
)

// OperationStatus defines operation processing states
type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "PENDING"
	OperationStatusCompleted OperationStatus = "COMPLETED"
	OperationStatusFailed    OperationStatus = "FAILED"
)

// FailureReason defines operation failure categories
type FailureReason string

const (
	FailureReasonValidation             FailureReason = "VALIDATION_FAILED"
	FailureReasonInsufficientStock      FailureReason = "INSUFFICIENT_STOCK"
	FailureReasonItemNotFound           FailureReason = "ITEM_NOT_FOUND"
	FailureReasonClosingAlreadyRecorded FailureReason = "CLOSING_ALREADY_RECORDED"
	FailureReasonClosingLocked          FailureReason = "CLOSING_IN_PROGRESS"
	FailureReasonPublishFailed          FailureReason = "PUBLISH_FAILED"
	FailureReasonUnknownError           FailureReason = "UNKNOWN_ERROR"
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)

// ChangeType defines the row changes published on the change feed
type ChangeType string

const (
	ChangeTypeEntriesCreated ChangeType = "ENTRIES_CREATED"
	ChangeTypeEntryUpdated   ChangeType = "ENTRY_UPDATED"
	ChangeTypeEntriesDeleted ChangeType = "ENTRIES_DELETED"
	ChangeTypeStockChanged   ChangeType = "STOCK_CHANGED"
)

// Default categories written on generated entries
const (
	DefaultExpenseCategory = "Général"
	CategoryTransfer       = "Transfert"
	CategoryFloatOpen      = "Ouverture"
	CategoryClosing        = "Caisse"
	CategorySale           = "Vente"
	CategoryRepair         = "Réparation"
)
