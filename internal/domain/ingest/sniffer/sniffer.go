// Package sniffer turns raw CSV/TSV bank exports into tabular rows.
// It detects the delimiter, skips metadata lines above the header row,
// and fingerprints headers so a bank format can be recognized again.
package sniffer

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"unicode"

	"github.com/billwatch/billwatch/internal/domain/common"
)

// Header keywords used to locate the header row inside statement preamble.
var headerKeywords = []string{
	"date", "posted", "description", "payee", "merchant", "memo",
	"amount", "debit", "credit", "withdrawal", "deposit", "balance",
}

var delimiterCandidates = []rune{',', ';', '\t', '|'}

// FileConfig holds the detected layout of a CSV/TSV export.
type FileConfig struct {
	Delimiter   rune       // field delimiter (',', ';', '\t', '|')
	SkipLines   int        // metadata lines before the header row
	Headers     []string   // trimmed header names
	Fingerprint string     // sha256 of normalized headers
	SampleRows  [][]string // first few data rows for preview
}

var (
	ErrEmptyFile        = errors.New("file is empty")
	ErrNoHeadersFound   = errors.New("could not find data headers")
	ErrInvalidDelimiter = errors.New("could not detect valid delimiter")
)

const (
	maxHeaderSearchLines = 20
	previewRows          = 5
)

// DetectConfig analyzes a raw export and returns its layout.
func DetectConfig(data []byte) (*FileConfig, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	lines := strings.Split(string(data), "\n")
	delimiter, skip, err := findHeaderRow(lines)
	if err != nil {
		return nil, err
	}

	headers, err := splitHeaderLine(lines[skip], delimiter)
	if err != nil {
		return nil, err
	}

	return &FileConfig{
		Delimiter:   delimiter,
		SkipLines:   skip,
		Headers:     headers,
		Fingerprint: fingerprint(headers),
		SampleRows:  sampleRows(data, delimiter, skip+1, previewRows),
	}, nil
}

// Tabularize decodes a raw export into header-keyed rows for the parser.
// Short rows are padded with empty cells; long rows keep only mapped cells.
func Tabularize(name string, data []byte) (*common.File, error) {
	config, err := DetectConfig(data)
	if err != nil {
		return nil, err
	}

	reader := newReader(data, config.Delimiter)
	for i := 0; i <= config.SkipLines; i++ {
		if _, err := reader.Read(); err != nil {
			if err == io.EOF {
				return &common.File{Name: name, Headers: config.Headers}, nil
			}
			return nil, err
		}
	}

	file := &common.File{Name: name, Headers: config.Headers}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A corrupt record inside an otherwise tabular file is a row
			// defect, not a structural failure. Skip it.
			continue
		}
		row := make(map[string]string, len(config.Headers))
		for i, h := range config.Headers {
			if i < len(record) {
				row[h] = record[i]
			} else {
				row[h] = ""
			}
		}
		file.Rows = append(file.Rows, row)
	}
	return file, nil
}

func newReader(data []byte, delimiter rune) *csv.Reader {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delimiter
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	return r
}

func splitHeaderLine(line string, delimiter rune) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = delimiter
	r.LazyQuotes = true

	headers, err := r.Read()
	if err != nil {
		return nil, err
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	return headers, nil
}

// findHeaderRow locates the header row and its delimiter. A line counts as
// the header when it mentions a known column keyword and splits into at
// least three fields on one of the candidate delimiters.
func findHeaderRow(lines []string) (rune, int, error) {
	sawKeywordLine := false

	for i, line := range lines {
		if i > maxHeaderSearchLines {
			break
		}
		if !mentionsHeaderKeyword(line) {
			continue
		}
		sawKeywordLine = true

		if d, ok := pickDelimiter(line); ok {
			return d, i, nil
		}
	}

	if sawKeywordLine {
		return 0, 0, ErrInvalidDelimiter
	}
	return 0, 0, ErrNoHeadersFound
}

func mentionsHeaderKeyword(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range headerKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func pickDelimiter(line string) (rune, bool) {
	for _, d := range delimiterCandidates {
		if strings.Count(line, string(d)) >= 2 {
			return d, true
		}
	}
	return 0, false
}

// fingerprint hashes normalized header names so a bank layout can be
// recognized across uploads.
func fingerprint(headers []string) string {
	normalized := make([]string, 0, len(headers))
	for _, h := range headers {
		var b strings.Builder
		for _, r := range h {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(unicode.ToLower(r))
			}
		}
		if b.Len() > 0 {
			normalized = append(normalized, b.String())
		}
	}

	sum := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(sum[:])
}

// sampleRows returns up to maxRows data rows after the header.
func sampleRows(data []byte, delimiter rune, startLine, maxRows int) [][]string {
	reader := newReader(data, delimiter)

	var rows [][]string
	for line := 0; ; {
		record, err := reader.Read()
		if err == io.EOF || len(rows) >= maxRows {
			break
		}
		if err != nil {
			continue
		}
		if line >= startLine {
			rows = append(rows, record)
		}
		line++
	}
	return rows
}
