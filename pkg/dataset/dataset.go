// Package dataset prepares tabular rows for chat-style fine-tuning: it renders
// rows through a model's chat template and tokenizes the results into
// fixed-length batches.
package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingColumn is returned when a row or batch lacks a required column.
	ErrMissingColumn = errors.New("missing column")
	// ErrInvalidMode is returned by Tokenize for modes other than ModeNextChar and ModeChat.
	ErrInvalidMode = errors.New("mode must be either 'nextchar' or 'chat'")
)

// Columns written by the formatters and read by Tokenize.
const (
	ColumnInput  = "input"
	ColumnOutput = "output"
	ColumnText   = "text"
)

// DefaultMaxLength is the sequence length used when none is given.
const DefaultMaxLength = 1024

// Row is one record of a dataset, keyed by column name. Formatters add
// their output columns to the row in place.
type Row map[string]any

// Batch is a column-oriented slice of a dataset: one value per example for
// each field.
type Batch map[string][]string

func (r Row) str(column string) (string, error) {
	v, ok := r[column]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMissingColumn, column)
	}
	return cellString(v), nil
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

// Columns gathers the named columns of rows into a Batch. Every row must
// carry every column.
func Columns(rows []Row, names ...string) (Batch, error) {
	batch := make(Batch, len(names))
	for _, name := range names {
		values := make([]string, 0, len(rows))
		for i, row := range rows {
			v, err := row.str(name)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			values = append(values, v)
		}
		batch[name] = values
	}
	return batch, nil
}
