// Package parsers turns broker CSV exports into raw rows and typed arbitrage
// operations.
package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/logger"
	"github.com/jorgeemmanuelgonzalez-site/procesador-opciones/src/models"
)

// CSVResult is the raw outcome of reading one export file. Malformed lines
// are surfaced as warnings, never dropped silently.
type CSVResult struct {
	Headers  []string
	Rows     []models.RawRow
	Warnings []string
}

type CSVParser struct{}

func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

// Parse reads the header and every record, trimming values and normalizing
// header names to snake_case. Only a missing/unreadable header is fatal.
func (p *CSVParser) Parse(file io.Reader) (*CSVResult, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headerRecord, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	headers := make([]string, len(headerRecord))
	for i, h := range headerRecord {
		headers[i] = normalizeHeader(h)
	}

	result := &CSVResult{Headers: headers}
	line := 1
	for {
		line++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			warning := fmt.Sprintf("line %d: %v", line, err)
			result.Warnings = append(result.Warnings, warning)
			logger.L.Warn("Malformed CSV line", "line", line, "error", err)
			continue
		}

		if isEmptyRecord(record) {
			continue
		}

		row := make(models.RawRow, len(headers))
		for i, value := range record {
			if i >= len(headers) {
				break
			}
			row[headers[i]] = strings.TrimSpace(value)
		}
		result.Rows = append(result.Rows, row)
	}

	return result, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.ReplaceAll(h, " ", "_")
}

func isEmptyRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
