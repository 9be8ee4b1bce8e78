package common

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseSign selects the sign convention a source file uses for expenses.
type ExpenseSign string

const (
	// SignAuto infers the convention from the sign distribution of the batch.
	SignAuto ExpenseSign = "auto"
	// SignNegative means the source encodes expenses as negative amounts.
	SignNegative ExpenseSign = "negative"
	// SignPositive means the source already encodes expenses as positive amounts.
	SignPositive ExpenseSign = "positive"
)

// Valid reports whether s is one of the known sign conventions.
func (s ExpenseSign) Valid() bool {
	switch s {
	case SignAuto, SignNegative, SignPositive:
		return true
	}
	return false
}

// Transaction is a single normalized bank transaction. Amount is
// expense-positive: a positive value is money leaving the account.
// Raw keeps the original row for traceability; detection never reads it.
type Transaction struct {
	Date        time.Time         `json:"date"`
	Description string            `json:"description"`
	Amount      decimal.Decimal   `json:"amount"`
	Raw         map[string]string `json:"raw,omitempty"`
}

// ColumnMap names the source columns holding the three transaction fields.
// Values are the original header text, preserving casing for row lookup.
type ColumnMap struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// File is one tabularized source: rows keyed by header text. Decoding a
// concrete format (CSV, TSV) into this shape is the sniffer's job.
type File struct {
	Name    string
	Headers []string
	Rows    []map[string]string
}
