// Package colmap guesses which export columns hold the date, description,
// and amount. Matching is an exact, case-insensitive comparison against a
// fixed synonym list per role; fuzzy matching caused too many false hits on
// balance/fee columns, so it is deliberately absent.
package colmap

import (
	"strings"

	"github.com/billwatch/billwatch/internal/domain/common"
)

var dateSynonyms = []string{
	"date", "transaction date", "posted date", "post date", "posting date",
	"trans date", "date posted",
}

var descriptionSynonyms = []string{
	"description", "desc", "payee", "merchant", "name", "memo", "details",
	"transaction description",
}

var amountSynonyms = []string{
	"amount", "amt", "transaction amount", "debit", "withdrawal", "charge",
	"value",
}

// Guess maps headers onto the three transaction roles. The returned map
// preserves the original header text for row lookup. ok is false when any
// role fails to resolve; the caller must then ask for a manual mapping.
func Guess(headers []string) (mapping common.ColumnMap, ok bool) {
	mapping.Date = match(headers, dateSynonyms)
	mapping.Description = match(headers, descriptionSynonyms)
	mapping.Amount = match(headers, amountSynonyms)

	ok = mapping.Date != "" && mapping.Description != "" && mapping.Amount != ""
	return mapping, ok
}

// match returns the first header equal to any synonym, or "".
func match(headers []string, synonyms []string) string {
	for _, h := range headers {
		cleaned := strings.ToLower(strings.TrimSpace(h))
		for _, syn := range synonyms {
			if cleaned == syn {
				return h
			}
		}
	}
	return ""
}
