package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"horse.fit/csvtrans/internal/orchestrator"
	"horse.fit/csvtrans/internal/translation"
)

const (
	DefaultRunListLimit = 20
	MaxRunListLimit     = 500
)

// RunLedger is what the CLI and HTTP surfaces need from the ledger.
type RunLedger interface {
	RecordRun(ctx context.Context, run *TranslationRun) error
	ListRuns(ctx context.Context, limit int) ([]TranslationRun, error)
}

// RunDetails describes the backend selection of a run.
type RunDetails struct {
	Surface    string
	Backend    string
	Model      string
	SourceLang string
	TargetLang string
}

// DetailsFor extracts ledger fields from a backend config. API keys are
// never copied.
func DetailsFor(surface string, cfg translation.BackendConfig) RunDetails {
	details := RunDetails{Surface: surface}
	switch c := cfg.(type) {
	case translation.CloudChatConfig:
		details.Backend, details.Model = string(c.Kind()), c.Model
	case translation.LocalChatConfig:
		details.Backend, details.Model = string(c.Kind()), c.Model
	case translation.DedicatedConfig:
		details.Backend, details.SourceLang, details.TargetLang = string(c.Kind()), c.Source, c.Target
	case nil:
	default:
		details.Backend = string(cfg.Kind())
	}
	return details
}

// NewTranslationRun builds a ledger row from a finished run.
func NewTranslationRun(details RunDetails, result orchestrator.RunResult) *TranslationRun {
	return &TranslationRun{
		RunUUID:    uuid.NewString(),
		Surface:    details.Surface,
		Backend:    details.Backend,
		Model:      details.Model,
		SourceLang: details.SourceLang,
		TargetLang: details.TargetLang,
		Rows:       result.Stats.Rows,
		Cells:      result.Stats.Cells,
		Translated: result.Stats.Translated,
		Failed:     result.Stats.Failed,
		Empty:      result.Stats.Empty,
		DurationMS: result.Duration.Milliseconds(),
	}
}

func (p *Pool) RecordRun(ctx context.Context, run *TranslationRun) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}
	if run == nil {
		return fmt.Errorf("run is nil")
	}
	if run.RunUUID == "" {
		run.RunUUID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if err := p.gdb.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("insert translation run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (p *Pool) ListRuns(ctx context.Context, limit int) ([]TranslationRun, error) {
	if p == nil || p.gdb == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}
	if limit <= 0 {
		limit = DefaultRunListLimit
	}
	if limit > MaxRunListLimit {
		limit = MaxRunListLimit
	}

	var runs []TranslationRun
	err := p.gdb.WithContext(ctx).
		Order("created_at DESC").
		Order("run_id DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("list translation runs: %w", err)
	}
	return runs, nil
}
