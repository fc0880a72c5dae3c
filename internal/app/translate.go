package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"horse.fit/csvtrans/internal/cli"
	"horse.fit/csvtrans/internal/db"
	"horse.fit/csvtrans/internal/orchestrator"
	"horse.fit/csvtrans/internal/table"
	"horse.fit/csvtrans/internal/translation"
)

func runTranslate(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	fs.SetOutput(errOut)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 0, "Optional deadline for the whole run (0 means none)")
	inPath := fs.String("in", "", "Input CSV file")
	outPath := fs.String("out", table.OutputFileName, "Output CSV file")
	backendName := fs.String("backend", "", "Backend: cloud_chat|openai, local_chat|ollama, dedicated|libretranslate")
	model := fs.String("model", "", "Model identifier for chat backends")
	prompt := fs.String("prompt", "", "Instruction sent with every cell (chat backends)")
	apiKey := fs.String("api-key", "", "API key (cloud chat or dedicated service)")
	address := fs.String("address", "", "Server address host:port (local chat or dedicated service)")
	baseURL := fs.String("base-url", "", "API root for the cloud chat backend")
	source := fs.String("source", "", "Source language code or auto (dedicated)")
	target := fs.String("target", "", "Target language code (dedicated)")
	fallback := fs.String("fallback", "", "Plain HTTP fallback after a failed HTTPS attempt: never|transport|always")
	detectSource := fs.Bool("detect-source", false, "Detect the source language locally when --source is auto")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(errOut, "translate takes no positional arguments, got %q\n", fs.Args())
		return 2
	}
	if strings.TrimSpace(*inPath) == "" {
		fmt.Fprintln(errOut, "--in is required")
		return 2
	}

	cfg, logger, err := loadRuntime(envLoader, errOut)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	rawKind := strings.TrimSpace(*backendName)
	if rawKind == "" {
		rawKind = cfg.Backend
	}
	kind, err := translation.ParseKind(rawKind)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	params := cfg.BackendParams(kind).Merge(translation.Params{
		Model:        *model,
		APIKey:       *apiKey,
		BaseURL:      *baseURL,
		Address:      *address,
		Source:       *source,
		Target:       *target,
		Fallback:     *fallback,
		DetectSource: *detectSource,
	})
	backendCfg, err := translation.BuildConfig(kind, params)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if err := orchestrator.Preflight(backendCfg); err != nil {
		fmt.Fprintf(errOut, "Cannot start translation: %v\n", err)
		return 2
	}

	raw, err := os.ReadFile(*inPath)
	if err != nil {
		fmt.Fprintf(errOut, "Failed to read input: %v\n", err)
		return 1
	}
	input, err := table.Parse(raw)
	if err != nil {
		fmt.Fprintf(errOut, "Failed to parse %s: %v\n", *inPath, err)
		return 1
	}

	detector, err := cfg.SourceDetector()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	backend, err := translation.NewBackend(backendCfg, translation.Options{
		Logger:         logger,
		Timeout:        cfg.RequestTimeout,
		DetectLanguage: detector.DetectISO6391,
	})
	if err != nil {
		fmt.Fprintf(errOut, "Failed to initialize backend: %v\n", err)
		return 1
	}

	promptText := *prompt
	if strings.TrimSpace(promptText) == "" {
		promptText = cfg.Prompt
	}

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if *timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), *timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	result := orchestrator.New(backend, logger).TranslateTable(ctx, input, orchestrator.Options{
		Prompt: promptText,
		Progress: func(p orchestrator.ProgressEvent) {
			fmt.Fprintf(out, "Completed: %d/%d\n", p.Completed, p.Total)
		},
		OnCellError: func(e orchestrator.CellError) {
			fmt.Fprintf(errOut, "Translation failed for row %d column %d, kept original text: %v\n", e.Row+1, e.Column+1, e.Err)
		},
	})

	encoded, err := table.Serialize(result.Table)
	if err != nil {
		fmt.Fprintf(errOut, "Failed to encode output: %v\n", err)
		return 1
	}
	if err := os.WriteFile(*outPath, encoded, 0o644); err != nil {
		fmt.Fprintf(errOut, "Failed to write output: %v\n", err)
		return 1
	}

	pool, err := openLedger(cfg, 10*time.Second)
	if err != nil {
		logger.Warn().Err(err).Msg("run ledger unavailable, run not recorded")
	} else if pool != nil {
		defer pool.Close()
		recordCtx, recordCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer recordCancel()
		run := db.NewTranslationRun(db.DetailsFor("cli", backendCfg), result)
		if err := pool.RecordRun(recordCtx, run); err != nil {
			logger.Warn().Err(err).Msg("record translation run failed")
		}
	}

	fmt.Fprintf(
		out,
		"translate backend=%s rows=%d cells=%d translated=%d failed=%d empty=%d duration=%s out=%s\n",
		backend.Name(),
		result.Stats.Rows,
		result.Stats.Cells,
		result.Stats.Translated,
		result.Stats.Failed,
		result.Stats.Empty,
		result.Duration.Round(time.Millisecond),
		*outPath,
	)
	if err := ctx.Err(); err != nil {
		fmt.Fprintf(errOut, "Run interrupted (%v): %d cells kept their original text\n", err, result.Stats.Failed)
		return 1
	}
	return 0
}
