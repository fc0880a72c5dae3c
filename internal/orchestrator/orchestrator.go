// Package orchestrator runs a table through one translation backend, cell by
// cell, and rebuilds a table of the same shape.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/csvtrans/internal/table"
	"horse.fit/csvtrans/internal/translation"
)

// ProgressEvent is emitted after each row. Completed strictly increases and
// the last event of a non-empty run is (Total, Total).
type ProgressEvent struct {
	Completed int
	Total     int
}

// CellError records a cell whose translation failed and was replaced by its
// original text.
type CellError struct {
	Row    int
	Column int
	Text   string
	Err    error
}

func (e CellError) Error() string {
	return fmt.Sprintf("cell (%d,%d): %v", e.Row, e.Column, e.Err)
}

func (e CellError) Unwrap() error { return e.Err }

// Stats counts cells by outcome. Cells == Empty + Translated + Failed.
type Stats struct {
	Rows       int
	Cells      int
	Empty      int
	Translated int
	Failed     int
}

type RunResult struct {
	Table    table.Table
	Errors   []CellError
	Stats    Stats
	Duration time.Duration
}

// Options are per-run inputs. Progress and OnCellError are called
// synchronously on the run's goroutine.
type Options struct {
	Prompt      string
	Progress    func(ProgressEvent)
	OnCellError func(CellError)
}

type Orchestrator struct {
	backend translation.Backend
	logger  zerolog.Logger
}

func New(backend translation.Backend, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		backend: backend,
		logger:  logger.With().Str("backend", backend.Name()).Logger(),
	}
}

// Preflight validates cfg before any cell is sent. A missing credential or
// required field blocks the run.
func Preflight(cfg translation.BackendConfig) error {
	if cfg == nil {
		return errors.New("no backend selected")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("preflight %s: %w", cfg.Kind(), err)
	}
	return nil
}

// TranslateTable translates every non-empty cell in row-major order. Failed
// cells keep their original text. The returned table always has the input's
// shape; cancelling ctx only makes the remaining calls fail.
func (o *Orchestrator) TranslateTable(ctx context.Context, input table.Table, opts Options) RunResult {
	started := time.Now()
	total := len(input)
	result := RunResult{
		Table: make(table.Table, 0, total),
		Stats: Stats{Rows: total},
	}

	for rowIdx, row := range input {
		out := make([]string, len(row))
		for colIdx, cell := range row {
			result.Stats.Cells++
			if cell == "" {
				result.Stats.Empty++
				continue
			}

			translated, err := o.translateCell(ctx, cell, opts.Prompt)
			if err != nil {
				cellErr := CellError{Row: rowIdx, Column: colIdx, Text: cell, Err: err}
				result.Errors = append(result.Errors, cellErr)
				result.Stats.Failed++
				o.logger.Warn().
					Err(err).
					Int("row", rowIdx).
					Int("column", colIdx).
					Msg("cell translation failed, keeping original text")
				if opts.OnCellError != nil {
					opts.OnCellError(cellErr)
				}
				out[colIdx] = cell
				continue
			}
			result.Stats.Translated++
			out[colIdx] = translated
		}
		result.Table = append(result.Table, out)

		if opts.Progress != nil {
			opts.Progress(ProgressEvent{Completed: rowIdx + 1, Total: total})
		}
	}

	result.Duration = time.Since(started)
	o.logger.Info().
		Int("rows", result.Stats.Rows).
		Int("cells", result.Stats.Cells).
		Int("translated", result.Stats.Translated).
		Int("failed", result.Stats.Failed).
		Int("empty", result.Stats.Empty).
		Dur("duration", result.Duration).
		Msg("table translated")
	return result
}

// translateCell turns a panicking backend into an ordinary failure.
func (o *Orchestrator) translateCell(ctx context.Context, text, prompt string) (out string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			out, err = "", fmt.Errorf("backend panic: %v", recovered)
		}
	}()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return o.backend.Translate(ctx, text, prompt)
}
