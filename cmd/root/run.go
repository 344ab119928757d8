package root

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gosdccc/gosdccc/pkg/report"
	"github.com/gosdccc/gosdccc/pkg/sdccc"
)

type runFlags struct {
	exe        string
	runDir     string
	config     string
	testconfig string
	timeout    time.Duration
	set        []string
}

func newRunCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the SDCcc test suite",
		Long: `Run the SDCcc executable against a device under test and parse the
direct and invariant reports it writes into the test run directory.

The command exits with the tool's own exit code; SDCcc exits non-zero when
test cases fail.`,
		Example: `  # Run with explicit configuration
  gosdccc run --run-dir /tmp/run1 --config /abs/config.toml --testconfig /abs/requirements.toml

  # Cap the run at two hours and pass extra tool arguments
  gosdccc run --run-dir /tmp/run1 --config /abs/config.toml --testconfig /abs/requirements.toml \
    --timeout 2h --set device_epr=urn:uuid:1234`,
		Args: cobra.NoArgs,
		RunE: flags.run,
	}

	cmd.Flags().StringVar(&flags.exe, "exe", "", "Path to the SDCcc executable (defaults to the installed release)")
	cmd.Flags().StringVar(&flags.runDir, "run-dir", "", "Empty directory for test run artifacts (required)")
	cmd.Flags().StringVar(&flags.config, "config", "", "Absolute path to the tool configuration file (required)")
	cmd.Flags().StringVar(&flags.testconfig, "testconfig", "", "Absolute path to the requirement selection file (required)")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "Kill the tool after this duration (0 waits indefinitely)")
	cmd.Flags().StringArrayVar(&flags.set, "set", nil, "Additional tool argument as key=value (repeatable, bare key for a flag)")
	_ = cmd.MarkFlagRequired("run-dir")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("testconfig")

	return cmd
}

func (f *runFlags) run(cmd *cobra.Command, _ []string) error {
	extra, err := parseSetArgs(f.set)
	if err != nil {
		return err
	}

	runner, err := sdccc.New(f.exe, f.runDir)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	result, err := runner.Run(ctx, sdccc.RunOptions{
		Config:       f.config,
		Requirements: f.testconfig,
		Extra:        extra,
	})
	if err != nil {
		// A killed run may still have produced partial reports.
		if result.Direct != nil || result.Invariant != nil {
			printSuite(cmd, "direct", result.Direct)
			printSuite(cmd, "invariant", result.Invariant)
		}
		return err
	}
	printSuite(cmd, "direct", result.Direct)
	printSuite(cmd, "invariant", result.Invariant)

	if result.ExitCode != 0 {
		return &exitCodeError{
			code: result.ExitCode,
			msg:  fmt.Sprintf("sdccc exited with code %d", result.ExitCode),
		}
	}
	return nil
}

func printSuite(cmd *cobra.Command, kind string, suite *report.TestSuite) {
	out := cmd.OutOrStdout()
	if suite == nil {
		fmt.Fprintf(out, "%s: no report written\n", kind)
		return
	}
	verdict := "PASSED"
	if !suite.Passed() {
		verdict = "FAILED"
	}
	fmt.Fprintf(out, "%s: %s (%d tests, %d failures, %d errors, %d skipped)\n",
		kind, verdict, suite.Tests, suite.Failures, suite.Errors, suite.Skipped)
}

// parseSetArgs turns repeated `--set key=value` flags into tool arguments.
// A bare key becomes a boolean flag.
func parseSetArgs(set []string) (sdccc.Args, error) {
	if len(set) == 0 {
		return nil, nil
	}
	args := make(sdccc.Args, len(set))
	for _, s := range set {
		key, value, found := strings.Cut(s, "=")
		if key == "" {
			return nil, fmt.Errorf("invalid --set argument %q", s)
		}
		if found {
			args[key] = value
		} else {
			args[key] = true
		}
	}
	return args, nil
}
