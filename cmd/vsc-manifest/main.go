// Command vsc-manifest writes vsc/manifest.json and vsc/manifest.sha256 for
// the repository it lives in, or checks that they are current.
//
// Usage:
//
//	vsc-manifest [-root <repo>] [-v]          write the manifest and its digest
//	vsc-manifest verify [-root <repo>] [-v]   check the stored outputs
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mauludsadiq/kv-memory-vsc-v0/pkg/benchspec"
	"github.com/mauludsadiq/kv-memory-vsc-v0/pkg/vsc"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint for testing.
//
// Exit codes:
//
//	0 = success
//	1 = verification found stale or inconsistent outputs
//	2 = runtime or usage error
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		return runGenerate(nil, stdout, stderr)
	}

	switch args[1] {
	case "generate":
		return runGenerate(args[2:], stdout, stderr)
	case "verify":
		return runVerify(args[2:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		if strings.HasPrefix(args[1], "-") {
			return runGenerate(args[1:], stdout, stderr)
		}
		_, _ = fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  vsc-manifest [generate] [-root <repo>] [-v]   write vsc/manifest.json and vsc/manifest.sha256")
	_, _ = fmt.Fprintln(w, "  vsc-manifest verify [-root <repo>] [-v]       check the stored manifest against the tree")
}

type commonFlags struct {
	root    string
	verbose bool
}

func parseFlags(name string, args []string, stderr io.Writer) (*commonFlags, error) {
	cmd := flag.NewFlagSet(name, flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var f commonFlags
	cmd.StringVar(&f.root, "root", "", "Repository root (default: discovered from the binary location)")
	cmd.BoolVar(&f.verbose, "v", false, "Log every hashed file to stderr")

	if err := cmd.Parse(args); err != nil {
		return nil, err
	}
	if cmd.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", cmd.Args())
	}
	return &f, nil
}

// setup resolves the options and the benchmark document shared by all commands.
func setup(name string, args []string, stderr io.Writer) (vsc.Options, *benchspec.Document, error) {
	f, err := parseFlags(name, args, stderr)
	if err != nil {
		return vsc.Options{}, nil, err
	}

	level := slog.LevelInfo
	if f.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	root := f.root
	if root == "" {
		root, err = discoverRoot()
		if err != nil {
			return vsc.Options{}, nil, err
		}
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return vsc.Options{}, nil, fmt.Errorf("resolve root: %w", err)
	}

	doc, err := benchspec.Default()
	if err != nil {
		return vsc.Options{}, nil, err
	}

	opts := vsc.DefaultOptions(root)
	opts.Logger = logger
	return opts, doc, nil
}

func runGenerate(args []string, stdout, stderr io.Writer) int {
	opts, doc, err := setup("generate", args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 2
	}

	sum, err := vsc.Generate(opts, doc)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if _, err := sum.WriteTo(stdout); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

func runVerify(args []string, stdout, stderr io.Writer) int {
	opts, doc, err := setup("verify", args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 2
	}

	report, err := vsc.Verify(opts, doc)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: verification failed: %v\n", err)
		return 2
	}
	_, _ = report.WriteTo(stdout)
	if !report.Verified() {
		return 1
	}
	return 0
}
