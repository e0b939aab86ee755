// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package feedback

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultSource is used when a row has no source column value.
	DefaultSource = "csv-upload"

	// DefaultRating is used when a row has no parseable rating.
	DefaultRating = 3.0

	// MaxFileSize bounds how much of an upload is read.
	MaxFileSize = 50 * 1024 * 1024
)

// Column names understood by ToItems.
const (
	ColumnContent = "content"
	ColumnSource  = "source"
	ColumnRating  = "rating"
)

var (
	// ErrNoHeader is returned for an input without a header row.
	ErrNoHeader = errors.New("csv has no header row")

	// ErrTooLarge is returned for inputs over MaxFileSize.
	ErrTooLarge = errors.New("csv file too large")
)

// Row is one CSV record keyed by header name. Cells missing from a short
// row are absent from the map.
type Row map[string]string

// Item is one piece of feedback sent to the ingest endpoint.
type Item struct {
	Source   string            `json:"source"`
	Content  string            `json:"content"`
	Rating   float64           `json:"rating"`
	Metadata map[string]string `json:"metadata"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseCSV reads header-keyed rows. UTF-8 and UTF-16 input with a byte order
// mark is accepted and text is normalized to NFC. Blank lines are skipped,
// short rows keep only the cells they have, and extra cells are ignored.
func ParseCSV(r io.Reader) ([]Row, error) {
	limited := &io.LimitedReader{R: r, N: MaxFileSize + 1}
	decoded := transform.NewReader(limited, transform.Chain(
		unicode.BOMOverride(unicode.UTF8.NewDecoder()),
		norm.NFC,
	))

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		if limited.N <= 0 {
			return nil, ErrTooLarge
		}

		row := make(Row, len(header))
		for i, name := range header {
			if i >= len(record) {
				break
			}
			if name == "" {
				continue
			}
			row[name] = record[i]
		}
		rows = append(rows, row)
	}
	if limited.N <= 0 {
		return nil, ErrTooLarge
	}
	return rows, nil
}

// ToItems maps rows to items, dropping rows whose content is empty. The
// output preserves input order.
func ToItems(rows []Row) []Item {
	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		content := row[ColumnContent]
		if content == "" {
			continue
		}

		source := row[ColumnSource]
		if source == "" {
			source = DefaultSource
		}

		meta := make(map[string]string, len(row))
		for k, v := range row {
			meta[k] = v
		}

		items = append(items, Item{
			Source:   source,
			Content:  content,
			Rating:   parseRating(row[ColumnRating]),
			Metadata: meta,
		})
	}
	return items
}

// Parse reads and maps a CSV stream in one step.
func Parse(r io.Reader) ([]Item, error) {
	rows, err := ParseCSV(r)
	if err != nil {
		return nil, err
	}
	return ToItems(rows), nil
}

// ParseFile reads and maps a CSV file.
func ParseFile(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// parseRating accepts the longest leading decimal number ("4.5 stars" is
// 4.5, "0x1p3" is 0, "1_000" is 1) and falls back to DefaultRating. Hex
// floats, digit separators and spelled-out infinities are not numbers here.
func parseRating(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultRating
	}
	end := 0
	for end < len(s) && strings.ContainsRune("+-.0123456789eE", rune(s[end])) {
		end++
	}
	for ; end > 0; end-- {
		if v, err := strconv.ParseFloat(s[:end], 64); err == nil && !isNaNOrInf(v) {
			return v
		}
	}
	return DefaultRating
}

func isNaNOrInf(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
