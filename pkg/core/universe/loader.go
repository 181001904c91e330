// Package universe loads the list of tickers to screen from a universe file.
package universe

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// tickerColumn is the expected header of the ticker column.
const tickerColumn = "Ticker"

// Load reads a universe file, dispatching on extension. CSV for the standard
// index constituent exports, XLSX for spreadsheets handed over by analysts.
func Load(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".xlsx", ".xlsm":
		return LoadXLSX(path)
	}
	return nil, fmt.Errorf("universe: unsupported file type %q", filepath.Ext(path))
}

// LoadCSV reads tickers from a CSV with a Ticker column.
func LoadCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("universe: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("universe: read header: %w", err)
	}
	col := findTickerColumn(header)
	if col < 0 {
		return nil, fmt.Errorf("universe: no %q column in %s", tickerColumn, path)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logrus.WithField("file", path).Warnf("skipping malformed universe row: %v", err)
			continue
		}
		rows = append(rows, row)
	}
	return collectTickers(rows, col), nil
}

// LoadXLSX reads tickers from the first sheet of a spreadsheet with a Ticker
// header row.
func LoadXLSX(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("universe: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("universe: %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("universe: read sheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("universe: %s is empty", path)
	}
	col := findTickerColumn(rows[0])
	if col < 0 {
		return nil, fmt.Errorf("universe: no %q column in %s", tickerColumn, path)
	}
	return collectTickers(rows[1:], col), nil
}

func findTickerColumn(header []string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), tickerColumn) {
			return i
		}
	}
	return -1
}

// collectTickers normalizes to uppercase and deduplicates while preserving
// first-seen order.
func collectTickers(rows [][]string, col int) []string {
	seen := make(map[string]bool)
	var tickers []string
	for _, row := range rows {
		if col >= len(row) {
			continue
		}
		ticker := strings.ToUpper(strings.TrimSpace(row[col]))
		if ticker == "" || seen[ticker] {
			continue
		}
		seen[ticker] = true
		tickers = append(tickers, ticker)
	}
	return tickers
}
