package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/billwatch/billwatch/internal/domain/common"
)

var testMapping = common.ColumnMap{Date: "Date", Description: "Description", Amount: "Amount"}

func testFile(name string, rows ...[3]string) common.File {
	file := common.File{
		Name:    name,
		Headers: []string{"Date", "Description", "Amount"},
	}
	for _, r := range rows {
		file.Rows = append(file.Rows, map[string]string{
			"Date":        r[0],
			"Description": r[1],
			"Amount":      r[2],
		})
	}
	return file
}

func newTestService() *ParseService {
	return NewParseService(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestParse_DropsDefectiveRows(t *testing.T) {
	file := testFile("jan.csv",
		[3]string{"01/02/2024", "Store A", "10.50"},
		[3]string{"Beginning balance", "Summary", "1000.00"},
		[3]string{"01/03/2024", "", "5.00"},
		[3]string{"01/04/2024", "Store B", "n/a"},
		[3]string{"01/05/2024", "Store C", "$1,234.56"},
	)

	result, err := newTestService().Parse(context.Background(), []common.File{file}, testMapping, common.SignAuto)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if result.RowsTotal != 5 {
		t.Errorf("expected 5 total rows, got %d", result.RowsTotal)
	}
	if result.RowsDropped != 3 {
		t.Errorf("expected 3 dropped rows, got %d", result.RowsDropped)
	}
	if len(result.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(result.Transactions))
	}
	if got := result.Transactions[1].Amount.String(); got != "1234.56" {
		t.Errorf("expected currency-stripped amount 1234.56, got %s", got)
	}
	if len(result.FileErrors) != 0 {
		t.Errorf("expected no file errors, got %v", result.FileErrors)
	}
}

func TestParse_SortsByDateWithStableTieBreak(t *testing.T) {
	first := testFile("a.csv",
		[3]string{"01/10/2024", "A late", "1.00"},
		[3]string{"01/05/2024", "A tie", "1.00"},
	)
	second := testFile("b.csv",
		[3]string{"01/05/2024", "B tie", "1.00"},
		[3]string{"01/01/2024", "B early", "1.00"},
	)

	result, err := newTestService().Parse(context.Background(), []common.File{first, second}, testMapping, common.SignAuto)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	var order []string
	for _, tx := range result.Transactions {
		order = append(order, tx.Description)
	}
	expected := []string{"B early", "A tie", "B tie", "A late"}
	if len(order) != len(expected) {
		t.Fatalf("expected %d transactions, got %d", len(expected), len(order))
	}
	for i := range expected {
		if order[i] != expected[i] {
			t.Fatalf("unexpected order %v, want %v", order, expected)
		}
	}
}

func TestParse_SignModesAlwaysNonNegative(t *testing.T) {
	file := testFile("mixed.csv",
		[3]string{"01/02/2024", "Expense", "-12.00"},
		[3]string{"01/03/2024", "Expense", "-8.00"},
		[3]string{"01/04/2024", "Refund", "3.00"},
	)

	for _, sign := range []common.ExpenseSign{common.SignAuto, common.SignNegative, common.SignPositive} {
		result, err := newTestService().Parse(context.Background(), []common.File{file}, testMapping, sign)
		if err != nil {
			t.Fatalf("Parse(%s) failed: %v", sign, err)
		}
		for _, tx := range result.Transactions {
			if tx.Amount.IsNegative() {
				t.Errorf("Parse(%s) produced negative amount %s for %s", sign, tx.Amount, tx.Description)
			}
		}
	}
}

func TestParse_AutoSignAssumption(t *testing.T) {
	mostlyNegative := testFile("neg.csv",
		[3]string{"01/02/2024", "A", "-12.00"},
		[3]string{"01/03/2024", "B", "-8.00"},
		[3]string{"01/04/2024", "C", "3.00"},
	)
	result, err := newTestService().Parse(context.Background(), []common.File{mostlyNegative}, testMapping, common.SignAuto)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if result.AssumedSign != common.SignNegative {
		t.Errorf("expected assumed sign negative, got %s", result.AssumedSign)
	}

	mostlyPositive := testFile("pos.csv",
		[3]string{"01/02/2024", "A", "12.00"},
		[3]string{"01/03/2024", "B", "8.00"},
		[3]string{"01/04/2024", "C", "-3.00"},
	)
	result, err = newTestService().Parse(context.Background(), []common.File{mostlyPositive}, testMapping, common.SignAuto)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if result.AssumedSign != common.SignPositive {
		t.Errorf("expected assumed sign positive, got %s", result.AssumedSign)
	}
}

func TestParse_FileFailureDoesNotBlockSiblings(t *testing.T) {
	broken := common.File{
		Name:    "broken.csv",
		Headers: []string{"Col1", "Col2"},
		Rows:    []map[string]string{{"Col1": "x", "Col2": "y"}},
	}
	good := testFile("good.csv",
		[3]string{"01/02/2024", "Store A", "10.00"},
	)

	result, err := newTestService().Parse(context.Background(), []common.File{broken, good}, testMapping, common.SignAuto)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(result.FileErrors) != 1 {
		t.Fatalf("expected 1 file error, got %d", len(result.FileErrors))
	}
	if result.FileErrors[0].File != "broken.csv" {
		t.Errorf("unexpected failed file: %s", result.FileErrors[0].File)
	}
	if len(result.Transactions) != 1 {
		t.Fatalf("expected sibling file to parse, got %d transactions", len(result.Transactions))
	}
}

func TestParse_KeepsRawRow(t *testing.T) {
	file := testFile("raw.csv", [3]string{"01/02/2024", "Store A", "10.00"})

	result, err := newTestService().Parse(context.Background(), []common.File{file}, testMapping, common.SignAuto)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(result.Transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(result.Transactions))
	}
	if result.Transactions[0].Raw["Description"] != "Store A" {
		t.Errorf("expected raw row to be retained, got %v", result.Transactions[0].Raw)
	}
}
