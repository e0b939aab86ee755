// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package feedback

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Basic(t *testing.T) {
	input := "source,content,rating,region\n" +
		"app-store,Checkout keeps crashing,1,EU\n" +
		",Love the new dashboard,5,US\n"

	items, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, Item{
		Source:  "app-store",
		Content: "Checkout keeps crashing",
		Rating:  1,
		Metadata: map[string]string{
			"source": "app-store", "content": "Checkout keeps crashing", "rating": "1", "region": "EU",
		},
	}, items[0])
	assert.Equal(t, DefaultSource, items[1].Source)
	assert.Equal(t, "US", items[1].Metadata["region"])
}

func TestToItems_DropsRowsWithoutContent(t *testing.T) {
	rows := []Row{
		{"content": "kept"},
		{"content": ""},
		{"source": "survey"},
		{"content": "also kept", "rating": "2"},
	}

	items := ToItems(rows)
	require.Len(t, items, 2)
	assert.Equal(t, "kept", items[0].Content)
	assert.Equal(t, "also kept", items[1].Content)
	for _, it := range items {
		assert.NotEmpty(t, it.Content)
	}
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", DefaultRating},
		{"4", 4},
		{" 2.5 ", 2.5},
		{"4.5 stars", 4.5},
		{"great", DefaultRating},
		{"NaN", DefaultRating},
		{"-1", -1},
		{"1e1", 10},
		{"0x1p3", 0},
		{"1_000", 1},
		{"Infinity", DefaultRating},
		{"+inf", DefaultRating},
		{".5e", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseRating(tt.in); got != tt.want {
				t.Errorf("parseRating(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseCSV_ShortAndLongRows(t *testing.T) {
	input := "content,source,rating\nonly content\nx,y,3,extra\n\n"

	rows, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2, "blank line skipped")

	_, hasSource := rows[0]["source"]
	assert.False(t, hasSource, "missing cells are absent")
	assert.Equal(t, Row{"content": "x", "source": "y", "rating": "3"}, rows[1])
}

func TestParseCSV_QuotedFields(t *testing.T) {
	input := "content,rating\n\"Slow, and \"\"buggy\"\"\n on Android\",2\n"

	items, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Slow, and \"buggy\"\n on Android", items[0].Content)
}

func TestParseCSV_BOMAndHeaderWhitespace(t *testing.T) {
	input := "\ufeff content , rating\nhello,4\n"

	items, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "hello", items[0].Content)
	assert.Equal(t, 4.0, items[0].Rating)
}

func TestParseCSV_UTF16(t *testing.T) {
	// UTF-16LE with BOM, as exported by some spreadsheet tools.
	text := "content\nbonjour\n"
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFE})
	for _, r := range text {
		buf.Write([]byte{byte(r), 0})
	}

	items, err := Parse(&buf)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "bonjour", items[0].Content)
}

func TestParseCSV_NoContentColumn(t *testing.T) {
	items, err := Parse(strings.NewReader("text,rating\nhello,3\n"))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestParseCSV_Empty(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrNoHeader), "err = %v", err)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviews.csv")
	require.NoError(t, os.WriteFile(path, []byte("content\na\nb\n"), 0600))

	items, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
