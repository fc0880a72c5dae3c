package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"time"

	"horse.fit/csvtrans/internal/cli"
	"horse.fit/csvtrans/internal/db"
)

func runRuns(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	fs.SetOutput(errOut)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 30*time.Second, "Command timeout")
	limit := fs.Int("limit", db.DefaultRunListLimit, "Maximum number of runs to show")
	format := fs.String("format", outputFormatTable, "Output format: table|json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *limit < 1 || *limit > db.MaxRunListLimit {
		fmt.Fprintf(errOut, "--limit must be between 1 and %d\n", db.MaxRunListLimit)
		return 2
	}
	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	cfg, _, err := loadRuntime(envLoader, errOut)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	if !cfg.LedgerEnabled() {
		fmt.Fprintln(errOut, "DATABASE_URL is not set; the run ledger is disabled")
		return 2
	}

	pool, err := openLedger(cfg, *timeout)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	runs, err := pool.ListRuns(ctx, *limit)
	if err != nil {
		fmt.Fprintf(errOut, "List runs failed: %v\n", err)
		return 1
	}

	if outputFormat == outputFormatJSON {
		if err := printJSON(out, map[string]any{"items": runs}); err != nil {
			return 1
		}
		return 0
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.RunUUID,
			formatUTCTimestamp(run.CreatedAt),
			run.Surface,
			run.Backend,
			run.Model,
			strconv.Itoa(run.Rows),
			strconv.Itoa(run.Translated),
			strconv.Itoa(run.Failed),
			strconv.FormatInt(run.DurationMS, 10),
		})
	}
	if err := writeTable(out, []string{"RUN", "CREATED", "SURFACE", "BACKEND", "MODEL", "ROWS", "TRANSLATED", "FAILED", "MS"}, rows); err != nil {
		return 1
	}
	return 0
}
