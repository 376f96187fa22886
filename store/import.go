package store

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/giygas/lighthospital/entities"
	"github.com/giygas/lighthospital/logging"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// ImportMedicinesFile reads a pharmacy catalog export. See ImportMedicines.
func ImportMedicinesFile(path string) ([]entities.Medicine, error) {
	cleanPath := filepath.Clean(path)
	f, err := os.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog export %s: %w", cleanPath, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("Failed to close catalog export", "error", err)
		}
	}()

	return ImportMedicines(f)
}

// ImportMedicines parses a tab separated catalog export with the columns
// name, specification, unit, price, stock, min_stock, category, manufacturer.
// Exports from older pharmacy software are GB18030 encoded; anything that is
// not valid UTF-8 is decoded as such. A header row, blank lines and rows with
// missing columns or bad numbers are skipped.
func ImportMedicines(r io.Reader) ([]entities.Medicine, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog export: %w", err)
	}

	var reader io.Reader = bytes.NewReader(raw)
	if !utf8.Valid(raw) {
		reader = simplifiedchinese.GB18030.NewDecoder().Reader(reader)
	}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	medicines := make([]entities.Medicine, 0)
	lineCount := 0
	skippedMissingColumns := 0
	skippedFormatErrors := 0

	for scanner.Scan() {
		lineCount++
		line := strings.TrimRight(scanner.Text(), "\r")
		if lineCount == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 6 {
			skippedMissingColumns++
			continue
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		price, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			// the first line may be a header
			if lineCount > 1 {
				skippedFormatErrors++
			}
			continue
		}
		stock, err1 := strconv.Atoi(fields[4])
		minStock, err2 := strconv.Atoi(fields[5])
		if err1 != nil || err2 != nil || fields[0] == "" || price < 0 {
			skippedFormatErrors++
			continue
		}

		m := entities.Medicine{
			Name:          fields[0],
			Specification: fields[1],
			Unit:          fields[2],
			Price:         price,
			Stock:         stock,
			MinStock:      minStock,
		}
		if len(fields) > 6 {
			m.Category = fields[6]
		}
		if len(fields) > 7 {
			m.Manufacturer = fields[7]
		}
		medicines = append(medicines, m)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error in catalog export: %w", err)
	}

	if skippedMissingColumns > 0 || skippedFormatErrors > 0 {
		logging.Warn("Catalog export lines skipped",
			"lines", lineCount,
			"missing_columns", skippedMissingColumns,
			"format_errors", skippedFormatErrors)
	}
	return medicines, nil
}
