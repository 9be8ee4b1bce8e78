// Package service orchestrates parsing of tabularized bank exports into a
// normalized, sign-corrected, date-ordered transaction batch.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/billwatch/billwatch/internal/domain/common"
	"github.com/billwatch/billwatch/internal/domain/ingest/normalizer"
	"github.com/billwatch/billwatch/pkg/observability"
)

// FileError reports a structural failure for one source file. It never
// blocks sibling files from parsing.
type FileError struct {
	File string `json:"file"`
	Err  error  `json:"-"`
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

// ParseResult is the outcome of one batch parse. Partial success is the
// steady state: dropped rows and failed files are reported, not raised.
type ParseResult struct {
	Transactions []common.Transaction
	RowsTotal    int
	RowsDropped  int
	FileErrors   []FileError

	// AssumedSign records which convention sign normalization assumed.
	// Under SignAuto both assumptions end in an absolute-value step, so the
	// choice is visible here and in logs but not in the amounts themselves.
	AssumedSign common.ExpenseSign
}

// ParseService converts tabular files plus a column mapping into transactions.
type ParseService struct {
	logger *slog.Logger
}

// NewParseService creates a parse service.
func NewParseService(logger *slog.Logger) *ParseService {
	return &ParseService{logger: logger}
}

type fileOutcome struct {
	txs     []common.Transaction
	total   int
	dropped int
	err     error
}

// Parse normalizes every file against mapping and returns the combined
// batch sorted by date ascending. Files parse independently and
// concurrently; ties on date keep file arrival order, then row order.
func (s *ParseService) Parse(ctx context.Context, files []common.File, mapping common.ColumnMap, sign common.ExpenseSign) (*ParseResult, error) {
	if !sign.Valid() {
		sign = common.SignAuto
	}

	outcomes := make([]fileOutcome, len(files))
	var wg sync.WaitGroup
	for i := range files {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = s.parseFile(ctx, files[i], mapping)
		}(i)
	}
	wg.Wait()

	result := &ParseResult{}
	for i, outcome := range outcomes {
		result.RowsTotal += outcome.total
		result.RowsDropped += outcome.dropped
		if outcome.err != nil {
			result.FileErrors = append(result.FileErrors, FileError{File: files[i].Name, Err: outcome.err})
			observability.FilesFailed.Inc()
			continue
		}
		result.Transactions = append(result.Transactions, outcome.txs...)
	}

	result.AssumedSign = normalizeSigns(result.Transactions, sign)

	sort.SliceStable(result.Transactions, func(a, b int) bool {
		return result.Transactions[a].Date.Before(result.Transactions[b].Date)
	})

	observability.RowsParsed.Add(float64(result.RowsTotal - result.RowsDropped))
	observability.RowsDropped.Add(float64(result.RowsDropped))
	s.logger.Info("parsed transaction batch",
		"files", len(files),
		"file_errors", len(result.FileErrors),
		"rows_total", result.RowsTotal,
		"rows_dropped", result.RowsDropped,
		"assumed_sign", string(result.AssumedSign),
	)

	return result, nil
}

// parseFile normalizes one file's rows. Row defects are silently dropped;
// only a file-level problem (missing mapped columns, cancellation) is an
// error.
func (s *ParseService) parseFile(ctx context.Context, file common.File, mapping common.ColumnMap) fileOutcome {
	if err := checkMapping(file, mapping); err != nil {
		return fileOutcome{err: err}
	}

	outcome := fileOutcome{total: len(file.Rows)}
	for _, row := range file.Rows {
		if ctx.Err() != nil {
			return fileOutcome{total: outcome.total, err: ctx.Err()}
		}

		date, err := normalizer.ParseDate(row[mapping.Date])
		if err != nil {
			outcome.dropped++
			continue
		}

		description := normalizer.CleanDescription(row[mapping.Description])
		if description == "" {
			outcome.dropped++
			continue
		}

		amount, err := normalizer.ParseAmount(row[mapping.Amount])
		if err != nil {
			outcome.dropped++
			continue
		}

		outcome.txs = append(outcome.txs, common.Transaction{
			Date:        date,
			Description: description,
			Amount:      amount,
			Raw:         row,
		})
	}
	return outcome
}

// checkMapping verifies every mapped column exists in the file's headers.
func checkMapping(file common.File, mapping common.ColumnMap) error {
	present := make(map[string]bool, len(file.Headers))
	for _, h := range file.Headers {
		present[h] = true
	}
	for _, col := range []string{mapping.Date, mapping.Description, mapping.Amount} {
		if col == "" || !present[col] {
			return fmt.Errorf("mapped column %q not present in file", col)
		}
	}
	return nil
}

// normalizeSigns applies the expense-positive convention to the whole batch
// and returns the convention that was assumed. Every branch ends by taking
// the absolute value, so amounts are always non-negative magnitudes; under
// SignAuto the counted majority only decides what gets reported as assumed,
// never the stored values. Callers that care must check AssumedSign.
func normalizeSigns(txs []common.Transaction, sign common.ExpenseSign) common.ExpenseSign {
	assumed := sign
	if sign == common.SignAuto {
		negatives, positives := 0, 0
		for _, tx := range txs {
			if tx.Amount.IsNegative() {
				negatives++
			} else {
				positives++
			}
		}
		if positives > negatives {
			assumed = common.SignPositive
		} else {
			assumed = common.SignNegative
		}
	}

	for i := range txs {
		txs[i].Amount = txs[i].Amount.Abs()
	}
	return assumed
}
