package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/specialistvlad/rungridgo/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("rungridgo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
RunGridGo - A declarative experiment orchestration engine for measured workloads.

Usage:
  rungridgo [options] [EXPERIMENT_PATH]

Arguments:
  EXPERIMENT_PATH
    Path to a single .hcl experiment file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	experimentFlag := flagSet.String("experiment", "", "Path to the experiment file or directory.")
	eFlag := flagSet.String("e", "", "Path to the experiment file or directory (shorthand).")
	resultsFlag := flagSet.String("results", "", "Results root directory, overriding the declaration. Empty keeps the declared one.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Print the generated run plan without executing anything.")
	statusPortFlag := flagSet.Int("status-port", 0, "Port for the HTTP status server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *experimentFlag != "" {
		path = *experimentFlag
	} else if *eFlag != "" {
		path = *eFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *statusPortFlag < 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid status-port: must not be negative"}
	}

	return &app.Config{
		ExperimentPath: path,
		ResultsDir:     *resultsFlag,
		LogFormat:      logFormat,
		LogLevel:       logLevel,
		StatusPort:     *statusPortFlag,
		DryRun:         *dryRunFlag,
	}, false, nil
}
