// Package main provides the CLI entry point for docannot, a tool that
// extracts Doctrine-style annotations from the doc comments of PHP files.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"go.jacobcolvin.com/docannot/analyser"
	"go.jacobcolvin.com/docannot/log"
	"go.jacobcolvin.com/docannot/phpscan"
	"go.jacobcolvin.com/docannot/profile"
	"go.jacobcolvin.com/docannot/schemagen"
	"go.jacobcolvin.com/docannot/version"
)

var (
	// ErrWriteOutput indicates the results could not be written.
	ErrWriteOutput = errors.New("write output")
	// ErrUnknownFormat indicates an unrecognized --format value.
	ErrUnknownFormat = errors.New("unknown output format")
	// ErrFaults is returned with --fail-on-warning when a comment could not
	// be parsed.
	ErrFaults = errors.New("annotation faults")
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

type options struct {
	analyser      *analyser.Config
	log           *log.Config
	profile       *profile.Config
	output        string
	format        string
	exclude       []string
	concurrency   int
	failOnWarning bool
	strict        bool
	required      bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{
		analyser: analyser.NewConfig(),
		log:      log.NewConfig(),
		profile:  profile.NewConfig(),
	}

	var logger *slog.Logger

	rootCmd := &cobra.Command{
		Use:   "docannot [flags] <file.php|dir> [...]",
		Short: "Extract annotations from PHP doc comments",
		Long: `docannot scans PHP files for doc comments and prints the Doctrine-style
annotations they contain, such as @SWG\Get(path="/pets").

Malformed annotations do not stop the scan. Each one is logged as a warning
pointing at the line of the PHP file it appears on.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			var err error

			logger, err = opts.log.NewLogger(stderr)
			if err != nil {
				return err
			}

			slog.SetDefault(logger)

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.profile.NewProfiler().Run(func() error {
				return run(cmd.Context(), logger, opts, args, stdout)
			})
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.output, "output", "o", "", "write results to file instead of stdout")
	flags.StringVar(&opts.format, "format", "",
		"output format, one of: json, yaml (default yaml on a terminal, otherwise json)")
	flags.StringSliceVar(&opts.exclude, "exclude", nil,
		"skip files and directories matching glob (repeatable), e.g. vendor or '*Test.php'")
	flags.IntVar(&opts.concurrency, "concurrency", runtime.GOMAXPROCS(0), "number of files analysed at once")

	opts.analyser.RegisterFlags(flags)
	opts.profile.RegisterFlags(flags)
	opts.log.RegisterFlags(flags)

	rootCmd.Flags().BoolVar(&opts.failOnWarning, "fail-on-warning", false,
		"exit with an error if any annotation is malformed")

	completionErr := errors.Join(
		rootCmd.RegisterFlagCompletionFunc("format",
			cobra.FixedCompletions([]string{formatJSON, formatYAML}, cobra.ShellCompDirectiveNoFileComp)),
		rootCmd.RegisterFlagCompletionFunc("exclude", cobra.NoFileCompletions),
		opts.analyser.RegisterCompletions(rootCmd),
		opts.profile.RegisterCompletions(rootCmd),
		opts.log.RegisterCompletions(rootCmd),
	)
	if completionErr != nil {
		fmt.Fprintf(stderr, "register completions: %v\n", completionErr)
	}

	rootCmd.AddCommand(
		newRegistryCmd(opts, &logger, stdout),
		newVersionCmd(stdout),
	)

	return rootCmd
}

func newRegistryCmd(opts *options, logger **slog.Logger, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry [flags] <file.php|dir> [...]",
		Short: "Infer an annotation registry from PHP files",
		Long: `registry analyses PHP files like the root command, then prints a registry
document with one JSON Schema per annotation name, describing the fields seen
on it. The output can be edited and passed back with --registry.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.profile.NewProfiler().Run(func() error {
				return runRegistry(cmd.Context(), *logger, opts, args, stdout)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.strict, "strict", false, "disallow fields that were never observed")
	cmd.Flags().BoolVar(&opts.required, "required", false,
		"require fields present on every occurrence of an annotation")

	return cmd
}

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(stdout, "docannot %s\n", version.Get())
			if err != nil {
				return fmt.Errorf("%w: %w", ErrWriteOutput, err)
			}

			return nil
		},
	}
}

func run(ctx context.Context, logger *slog.Logger, opts *options, args []string, stdout io.Writer) error {
	format, err := outputFormat(opts.format, opts.output, stdout)
	if err != nil {
		return err
	}

	results, faults, err := analyse(ctx, logger, opts, args)
	if err != nil {
		return err
	}

	out, err := encode(results, format)
	if err != nil {
		return err
	}

	err = writeOutput(opts.output, stdout, out)
	if err != nil {
		return err
	}

	if faults > 0 && opts.failOnWarning {
		return fmt.Errorf("%w: %d malformed comment(s)", ErrFaults, faults)
	}

	return nil
}

func runRegistry(ctx context.Context, logger *slog.Logger, opts *options, args []string, stdout io.Writer) error {
	format, err := outputFormat(opts.format, opts.output, stdout)
	if err != nil {
		return err
	}

	results, _, err := analyse(ctx, logger, opts, args)
	if err != nil {
		return err
	}

	gen := schemagen.NewGenerator(
		schemagen.WithStrict(opts.strict),
		schemagen.WithRequired(opts.required),
	)

	for _, r := range results {
		gen.Add(r.Annotations...)
	}

	logger.DebugContext(ctx, "inferred registry", slog.Int("annotations", len(gen.Names())))

	out, err := encode(gen, format)
	if err != nil {
		return err
	}

	return writeOutput(opts.output, stdout, out)
}

// analyse extracts the annotations of every PHP file under args. Malformed
// comments are logged and counted.
func analyse(
	ctx context.Context, logger *slog.Logger, opts *options, args []string,
) ([]phpscan.Result, int64, error) {
	p, err := opts.analyser.NewDocParser()
	if err != nil {
		return nil, 0, err
	}

	var faults atomic.Int64

	base := analyser.SlogWarner{Logger: logger}
	a := analyser.New(
		analyser.WithParser(p),
		analyser.WithWarner(analyser.WarnerFunc(func(err error) {
			faults.Add(1)
			base.Warn(err)
		})),
	)

	paths, err := phpscan.Collect(args, opts.exclude...)
	if err != nil {
		return nil, 0, err
	}

	logger.DebugContext(ctx, "analysing files",
		slog.Int("files", len(paths)),
		slog.Int("concurrency", opts.concurrency),
	)

	results, err := phpscan.AnalyseFiles(ctx, a, paths, opts.concurrency)
	if err != nil {
		return nil, 0, err
	}

	return results, faults.Load(), nil
}

func writeOutput(output string, stdout io.Writer, out []byte) error {
	var err error

	if output == "" || output == "-" {
		_, err = stdout.Write(out)
	} else {
		err = os.WriteFile(output, out, 0o644)
	}

	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	return nil
}

// outputFormat picks the output format: the flag value if set, then the
// output file extension, then YAML for terminals and JSON otherwise.
func outputFormat(flag, output string, stdout io.Writer) (string, error) {
	switch strings.ToLower(flag) {
	case formatJSON:
		return formatJSON, nil
	case formatYAML, "yml":
		return formatYAML, nil
	case "":
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, flag)
	}

	if output != "" && output != "-" {
		switch strings.ToLower(filepath.Ext(output)) {
		case ".yaml", ".yml":
			return formatYAML, nil
		case ".json":
			return formatJSON, nil
		}
	}

	if f, ok := stdout.(*os.File); ok && (output == "" || output == "-") && term.IsTerminal(int(f.Fd())) {
		return formatYAML, nil
	}

	return formatJSON, nil
}

func encode(v any, format string) ([]byte, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	if format == formatYAML {
		out, err = yaml.JSONToYAML(out)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrWriteOutput, err)
		}

		return out, nil
	}

	return append(out, '\n'), nil
}
