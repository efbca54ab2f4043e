package usage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Row is one raw input row, mapping a field name to its string value.
type Row map[string]string

// Result is the outcome of parsing one batch.
type Result struct {
	// Records are the validated usage records, in input order.
	Records []Record

	// Skipped lists the rows dropped by a skip-invalid parser.
	// Empty unless Parser.SkipInvalid is set.
	Skipped []*ValidationError
}

// Parser converts raw rows into usage records.
//
// The zero value rejects the whole batch on the first malformed row.
// With SkipInvalid set, malformed rows are collected in Result.Skipped
// and parsing continues. Duplicate emails always reject the batch
// regardless of policy.
type Parser struct {
	// SkipInvalid drops rows that fail validation instead of
	// rejecting the batch.
	SkipInvalid bool
}

// ParseRows validates a batch of raw rows.
//
// Row indices in errors are 1-based positions within the batch.
func (p *Parser) ParseRows(rows []Row) (*Result, error) {
	result := &Result{
		Records: make([]Record, 0, len(rows)),
	}

	// First row where each email appeared, for duplicate reporting.
	seen := make(map[string]int, len(rows))

	for i, row := range rows {
		rowNum := i + 1

		record, verr := parseRow(rowNum, row)
		if verr != nil {
			if p.SkipInvalid {
				result.Skipped = append(result.Skipped, verr)
				continue
			}
			return nil, verr
		}

		if first, ok := seen[record.Email]; ok {
			return nil, NewDuplicateError(record.Email, first, rowNum)
		}
		seen[record.Email] = rowNum

		result.Records = append(result.Records, record)
	}

	return result, nil
}

// ParseCSV reads a CSV stream with a header row and validates it as a
// batch. Required columns: email, credits_used. Optional: name.
// Column order does not matter; unknown columns are ignored.
//
// The reader is consumed in a single pass and is not restartable.
func (p *Parser) ParseCSV(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv input is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{FieldEmail, FieldCreditsUsed} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("csv is missing required column %q", required)
		}
	}

	var rows []Row
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", len(rows)+1, err)
		}

		row := make(Row, 3)
		for _, field := range []string{FieldEmail, FieldCreditsUsed, FieldName} {
			if idx, ok := columns[field]; ok && idx < len(fields) {
				row[field] = fields[idx]
			}
		}
		rows = append(rows, row)
	}

	return p.ParseRows(rows)
}

// parseRow validates a single row.
func parseRow(rowNum int, row Row) (Record, *ValidationError) {
	email := strings.TrimSpace(row[FieldEmail])
	if err := ValidateEmail(email); err != nil {
		return Record{}, NewValidationError(rowNum, FieldEmail, err)
	}

	raw, ok := row[FieldCreditsUsed]
	if !ok || strings.TrimSpace(raw) == "" {
		return Record{}, NewValidationError(rowNum, FieldCreditsUsed,
			fmt.Errorf("credits_used is missing"))
	}
	credits, err := parseCredits(raw)
	if err != nil {
		return Record{}, NewValidationError(rowNum, FieldCreditsUsed, err)
	}

	return Record{
		Email:       email,
		Name:        strings.TrimSpace(row[FieldName]),
		CreditsUsed: credits,
	}, nil
}
