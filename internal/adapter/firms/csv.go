package firms

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/wildfire-geo-service/internal/domain"
)

// DecodeCSV parses a FIRMS area CSV body into header-keyed records.
// The first non-blank line is the header and every later line is one row, so
// a malformed quote never spills into the rows after it. Header names and
// values are trimmed, short rows are padded with "", and rows without a
// latitude or longitude are dropped. An empty body or a header-only body
// yields an empty, non-nil slice.
func DecodeCSV(body string) ([]domain.FireDetection, error) {
	records := []domain.FireDetection{}

	text := strings.TrimSpace(body)
	if text == "" {
		return records, nil
	}
	lines := strings.Split(text, "\n")

	header, err := parseLine(strings.TrimSpace(lines[0]))
	if err != nil {
		return nil, fmt.Errorf("%w: read csv header: %w", domain.ErrUnexpectedUpstream, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	for n, raw := range lines[1:] {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		row, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("%w: read csv line %d: %w", domain.ErrUnexpectedUpstream, n+2, err)
		}

		rec := make(domain.FireDetection, len(header))
		for i, name := range header {
			value := ""
			if i < len(row) {
				value = strings.TrimSpace(row[i])
			}
			rec[name] = value
		}
		if rec["latitude"] == "" || rec["longitude"] == "" {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// parseLine splits one CSV line into fields. An unterminated quote runs to
// the end of the line, and a space before an opening quote is ignored.
func parseLine(line string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	fields, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []string{}, nil
	}
	return fields, err
}
