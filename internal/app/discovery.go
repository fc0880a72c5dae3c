package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"horse.fit/csvtrans/internal/cli"
	"horse.fit/csvtrans/internal/discovery"
	"horse.fit/csvtrans/internal/translation"
)

func runModels(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("models", flag.ContinueOnError)
	fs.SetOutput(errOut)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", discovery.DefaultTimeout, "Request timeout")
	address := fs.String("address", "", "Local chat server address host:port (default OLLAMA_ADDRESS)")
	format := fs.String("format", outputFormatTable, "Output format: table|json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	cfg, logger, err := loadRuntime(envLoader, errOut)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	target := strings.TrimSpace(*address)
	if target == "" {
		target = cfg.OllamaAddress
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout+time.Second)
	defer cancel()
	models, listErr := discovery.NewClient(*timeout, logger).ListModels(ctx, target)

	if code := printCatalog(out, outputFormat, target, "model", models); code != 0 {
		return code
	}
	if listErr != nil {
		fmt.Fprintf(errOut, "Could not list models: %v\n", listErr)
		return 1
	}
	return 0
}

func runLanguages(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("languages", flag.ContinueOnError)
	fs.SetOutput(errOut)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", discovery.DefaultTimeout, "Request timeout")
	address := fs.String("address", "", "Translation service address host:port (default LIBRETRANSLATE_ADDRESS)")
	fallback := fs.String("fallback", "", "Plain HTTP fallback after a failed HTTPS attempt: never|transport|always")
	format := fs.String("format", outputFormatTable, "Output format: table|json")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	outputFormat, err := parseOutputFormat(*format, outputFormatTable)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}

	cfg, logger, err := loadRuntime(envLoader, errOut)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}

	rawPolicy := *fallback
	if strings.TrimSpace(rawPolicy) == "" {
		rawPolicy = cfg.LibreTranslateFallback
	}
	policy, err := translation.ParseFallbackPolicy(rawPolicy)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	target := strings.TrimSpace(*address)
	if target == "" {
		target = cfg.LibreTranslateAddress
	}

	// Two attempts may be made, one per scheme.
	ctx, cancel := context.WithTimeout(context.Background(), 2*(*timeout)+time.Second)
	defer cancel()
	languages, listErr := discovery.NewClient(*timeout, logger).ListLanguages(ctx, target, policy)

	if code := printCatalog(out, outputFormat, target, "language", languages); code != 0 {
		return code
	}
	if listErr != nil {
		fmt.Fprintf(errOut, "Could not list languages: %v\n", listErr)
		return 1
	}
	return 0
}

func printCatalog(out io.Writer, format, address, label string, items []string) int {
	if format == outputFormatJSON {
		if err := printJSON(out, map[string]any{"address": address, "items": items}); err != nil {
			return 1
		}
		return 0
	}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item})
	}
	if err := writeTable(out, []string{strings.ToUpper(label)}, rows); err != nil {
		return 1
	}
	return 0
}

func runBackends(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("backends", flag.ContinueOnError)
	fs.SetOutput(errOut)
	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, _, err := loadRuntime(envLoader, errOut)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defaultKind, _ := translation.ParseKind(cfg.Backend)

	rows := make([][]string, 0, 3)
	for _, kind := range translation.DefaultRegistry.Kinds() {
		marker := ""
		if translation.Kind(kind) == defaultKind {
			marker = "*"
		}
		models := ""
		if translation.Kind(kind) == translation.KindCloudChat {
			models = strings.Join(discovery.CloudModels(), ", ")
		}
		rows = append(rows, []string{kind, marker, models})
	}
	if err := writeTable(out, []string{"BACKEND", "DEFAULT", "MODELS"}, rows); err != nil {
		return 1
	}
	return 0
}
