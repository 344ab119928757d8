// Package sdccc runs the SDCcc conformance test suite executable and parses
// the reports it writes. It implements no test or protocol logic of its
// own; SDCcc is an external, independently versioned tool that this package
// configures, spawns and observes.
package sdccc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gosdccc/gosdccc/pkg/paths"
	"github.com/gosdccc/gosdccc/pkg/report"
)

// Names of the report files SDCcc writes into the test run directory.
const (
	DirectReportName    = "TEST-SDCcc_direct.xml"
	InvariantReportName = "TEST-SDCcc_invariant.xml"
)

// ErrNotInstalled is returned when no SDCcc executable can be located in
// the storage directory.
var ErrNotInstalled = errors.New("sdccc is not installed")

// Runner drives one SDCcc installation against one test run directory.
type Runner struct {
	exe    string
	runDir string
	log    *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger routes the tool's stdout and stderr lines through the given
// logger instead of slog.Default.
func WithLogger(log *slog.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// New creates a Runner for the executable at exe, writing test artifacts to
// runDir. Both paths must be absolute; exe must be an existing regular file
// and runDir an existing directory. An empty exe resolves the installed
// executable from the storage directory.
func New(exe, runDir string, opts ...Option) (*Runner, error) {
	if exe == "" {
		found, err := FindExecutable(paths.GetStorageDir())
		if err != nil {
			return nil, err
		}
		exe = found
	}
	if !filepath.IsAbs(exe) {
		return nil, fmt.Errorf("path to executable must be absolute, got %q", exe)
	}
	fi, err := os.Stat(exe)
	if err != nil {
		return nil, fmt.Errorf("no executable under %s: %w", exe, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", exe)
	}
	if !filepath.IsAbs(runDir) {
		return nil, fmt.Errorf("path to test run directory must be absolute, got %q", runDir)
	}
	fi, err = os.Stat(runDir)
	if err != nil {
		return nil, fmt.Errorf("test run directory: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("test run directory %s is not a directory", runDir)
	}

	r := &Runner{exe: exe, runDir: runDir, log: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Exe returns the absolute path of the SDCcc executable.
func (r *Runner) Exe() string { return r.exe }

// RunDir returns the absolute path of the test run directory.
func (r *Runner) RunDir() string { return r.runDir }

// FindExecutable locates the single SDCcc executable below dir, looking in
// dir itself and one directory level down (releases unpack into a
// per-version subdirectory). Zero or multiple candidates are an error.
func FindExecutable(dir string) (string, error) {
	patterns := []string{
		filepath.Join(dir, "sdccc-*"),
		filepath.Join(dir, "*", "sdccc-*"),
	}
	var exes []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return "", fmt.Errorf("searching %s: %w", dir, err)
		}
		for _, m := range matches {
			if fi, err := os.Stat(m); err == nil && fi.Mode().IsRegular() {
				exes = append(exes, m)
			}
		}
	}
	switch len(exes) {
	case 0:
		return "", fmt.Errorf("no sdccc executable found in %s: %w", dir, ErrNotInstalled)
	case 1:
		return filepath.Abs(exes[0])
	default:
		return "", fmt.Errorf("unable to determine correct executable, found %s in %s",
			strings.Join(exes, ", "), dir)
	}
}

// RunOptions parameterize one test run.
type RunOptions struct {
	// Config is the absolute path to the tool configuration file.
	Config string
	// Requirements is the absolute path to the requirement selection file.
	Requirements string
	// Extra holds additional command line arguments for the tool.
	Extra Args
}

// Result is the outcome of a completed (or killed) test run. Direct and
// Invariant are nil when the tool did not write the respective report.
type Result struct {
	ExitCode  int
	Direct    *report.TestSuite
	Invariant *report.TestSuite
}

func (r *Runner) prepareArgs(opts RunOptions) ([]string, error) {
	if !filepath.IsAbs(opts.Config) {
		return nil, fmt.Errorf("path to config file must be absolute, got %q", opts.Config)
	}
	if !filepath.IsAbs(opts.Requirements) {
		return nil, fmt.Errorf("path to requirements file must be absolute, got %q", opts.Requirements)
	}
	entries, err := os.ReadDir(r.runDir)
	if err != nil {
		return nil, fmt.Errorf("reading test run directory: %w", err)
	}
	if len(entries) > 0 {
		return nil, fmt.Errorf("test run directory %s is not empty", r.runDir)
	}

	args := make(Args, len(opts.Extra)+4)
	maps.Copy(args, opts.Extra)
	args["no_subdirectories"] = "true"
	args["test_run_directory"] = r.runDir
	args["config"] = opts.Config
	args["testconfig"] = opts.Requirements
	return BuildArgs(args), nil
}

// Run executes the tool and blocks until it exits or ctx is cancelled.
// Cancellation kills the process group; reports that were written before
// the kill are still parsed and returned alongside the error. A non-zero
// exit of the tool is not an error, it is reported via Result.ExitCode.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (Result, error) {
	run, err := r.Start(ctx, opts)
	if err != nil {
		return Result{}, err
	}
	return run.Result()
}

// Version reports the version of the SDCcc executable, taken from the
// trimmed stdout of `sdccc --version`.
func (r *Runner) Version(ctx context.Context) (string, error) {
	return ExeVersion(ctx, r.exe)
}

// ExeVersion probes the version of the SDCcc executable at the given path.
func ExeVersion(ctx context.Context, exe string) (string, error) {
	cmd := exec.CommandContext(ctx, exe, "--version")
	cmd.Dir = filepath.Dir(exe)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("probing sdccc version: %w (stderr: %s)",
			err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
