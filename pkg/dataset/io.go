package dataset

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/OFFIS-RIT/graphtune/pkg/ai"
)

const maxLineSize = 16 * 1024 * 1024

// ReadRows reads JSON Lines, one object per line. Blank lines are skipped.
// Lines are decoded leniently, so single quotes, unquoted keys and trailing
// commas are accepted.
func ReadRows(r io.Reader) ([]Row, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var rows []Row
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var row Row
		if err := ai.UnmarshalFlexible(line, &row); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if row == nil {
			return nil, fmt.Errorf("line %d: expected a JSON object", lineNum)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return rows, nil
}

// ReadCSVRows reads a CSV file whose first record names the columns. Short
// records leave their trailing columns unset.
func ReadCSVRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("CSV file is empty")
		}
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) > len(header) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: %d fields but only %d columns", line, len(record), len(header))
		}

		row := make(Row, len(record))
		for i, field := range record {
			row[header[i]] = field
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// WriteRows writes rows as JSON Lines. HTML escaping is off so chat template
// markers such as <|eot_id|> stay readable.
func WriteRows(w io.Writer, rows []Row) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}

// WriteTokenized writes one JSON object per example, holding that example's
// sequence from every field of batch.
func WriteTokenized(w io.Writer, batch ai.TokenizedBatch) error {
	n := -1
	for name, seqs := range batch {
		if n >= 0 && len(seqs) != n {
			return fmt.Errorf("field %s has %d examples, expected %d", name, len(seqs), n)
		}
		n = len(seqs)
	}

	enc := json.NewEncoder(w)
	for i := 0; i < n; i++ {
		example := make(map[string][]int, len(batch))
		for name, seqs := range batch {
			example[name] = seqs[i]
		}
		if err := enc.Encode(example); err != nil {
			return fmt.Errorf("example %d: %w", i, err)
		}
	}
	return nil
}
