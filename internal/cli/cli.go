// Package cli translates command-line arguments into app configuration.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/paramdoc/internal/app"
)

// ExitError carries a specific process exit code alongside the message.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Parse processes command-line arguments. It returns the resolved config,
// a boolean indicating the program should exit cleanly (help or bare
// invocation), or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("paramdoc", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
paramdoc - a parametric document recompute tool.

Usage:
  paramdoc [options] [SNAPSHOT_PATH]

Arguments:
  SNAPSHOT_PATH
    Path to a document snapshot (.json). Omit to start from an empty document.

Options:
`)
		flagSet.PrintDefaults()
	}

	docFlag := flagSet.String("doc", "", "Path to the document snapshot.")
	dFlag := flagSet.String("d", "", "Path to the document snapshot (shorthand).")
	outFlag := flagSet.String("out", "", "Write the document back to this path after recomputing.")
	labelFlag := flagSet.String("label", "", "Label for a document created from scratch.")
	kernelFlag := flagSet.String("kernel", "", "Geometry backend. Options: 'sdfx' or 'stub'.")
	configFlag := flagSet.String("config", "", "Path to a YAML config file.")
	logFormatFlag := flagSet.String("log-format", "", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")

	var edits, formulas stringList
	flagSet.Var(&edits, "set", "Property assignment 'Object.Property=value'. Repeatable.")
	flagSet.Var(&formulas, "expr", "Formula binding 'Object.Property=formula'. Repeatable.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *docFlag != "" {
		path = *docFlag
	} else if *dFlag != "" {
		path = *dFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	if path == "" && len(edits) == 0 && len(formulas) == 0 && *outFlag == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	overrides := map[string]any{}
	if path != "" {
		overrides["doc"] = path
	}
	if *outFlag != "" {
		overrides["out"] = *outFlag
	}
	if *labelFlag != "" {
		overrides["label"] = *labelFlag
	}
	if *kernelFlag != "" {
		overrides["kernel"] = strings.ToLower(*kernelFlag)
	}
	if *logFormatFlag != "" {
		overrides["log_format"] = strings.ToLower(*logFormatFlag)
	}
	if *logLevelFlag != "" {
		overrides["log_level"] = strings.ToLower(*logLevelFlag)
	}
	if len(edits) > 0 {
		overrides["set"] = []string(edits)
	}
	if len(formulas) > 0 {
		overrides["expr"] = []string(formulas)
	}

	config, err := app.NewConfig(*configFlag, overrides)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
