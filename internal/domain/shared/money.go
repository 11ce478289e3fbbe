package shared

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// CurrencyScale is the number of decimal places kept on every amount
const CurrencyScale = 2

// MaxQuantity is the largest stock quantity the INTEGER columns hold
const MaxQuantity = math.MaxInt32

// MaxAmount is the largest amount the NUMERIC(14,2) columns hold
var MaxAmount = decimal.RequireFromString("999999999999.99")

// ValidateAmount checks that amount is non-negative with at most two decimals
// and fits MaxAmount. When positive is set, zero is rejected too.
func ValidateAmount(field string, amount decimal.Decimal, positive bool) error {
	if amount.IsNegative() {
		return NewValidationError(field, "must not be negative")
	}
	if positive && amount.IsZero() {
		return NewValidationError(field, "must be greater than 0")
	}
	if !amount.Equal(amount.Round(CurrencyScale)) {
		return NewValidationError(field, "must have at most 2 decimal places")
	}
	if amount.GreaterThan(MaxAmount) {
		return NewValidationError(field, "must not exceed "+MaxAmount.StringFixed(CurrencyScale))
	}
	return nil
}

// ValidateQuantity checks a unit count, 1 up to MaxQuantity
func ValidateQuantity(field string, quantity int) error {
	if quantity <= 0 {
		return NewValidationError(field, "must be greater than 0")
	}
	if quantity > MaxQuantity {
		return NewValidationError(field, "must not exceed "+strconv.Itoa(MaxQuantity))
	}
	return nil
}

// ParseAmount parses a decimal string and validates it with ValidateAmount
func ParseAmount(field, raw string, positive bool) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, NewValidationError(field, "is not a valid decimal")
	}
	if err := ValidateAmount(field, amount, positive); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// ParseWallet validates a wallet name
func ParseWallet(field, raw string) (Wallet, error) {
	w := Wallet(raw)
	if !w.Valid() {
		return "", NewValidationError(field, "must be one of CASH, BANK, SAFE")
	}
	return w, nil
}
