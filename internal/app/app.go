package app

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	return run(args, os.Stdout, os.Stderr)
}

func run(args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage(errOut)
		return 0
	case "translate":
		return runTranslate(args[1:], out, errOut)
	case "models":
		return runModels(args[1:], out, errOut)
	case "languages":
		return runLanguages(args[1:], out, errOut)
	case "backends":
		return runBackends(args[1:], out, errOut)
	case "runs":
		return runRuns(args[1:], out, errOut)
	case "serve":
		return runServe(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "csvtrans CLI")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  csvtrans <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  translate  Translate every cell of a CSV file")
	fmt.Fprintln(w, "  models     List models served by a local chat server")
	fmt.Fprintln(w, "  languages  List language codes of a translation service")
	fmt.Fprintln(w, "  backends   List available translation backends")
	fmt.Fprintln(w, "  runs       Show recent runs from the ledger")
	fmt.Fprintln(w, "  serve      Start Echo API server")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Use \"csvtrans <command> -h\" for command-specific flags.")
}
