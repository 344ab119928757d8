package sdccc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/gosdccc/gosdccc/pkg/report"
)

// TestRun is a handle to a started test run. Completion is observed via
// Done or Result; both stdout and stderr of the tool keep streaming through
// the runner's logger while the run is in flight.
type TestRun struct {
	cmd *exec.Cmd
	// cancelKilled records that context cancellation killed the process,
	// as opposed to the tool exiting non-zero on its own.
	cancelKilled atomic.Bool
	done         chan struct{}
	result       Result
	err          error
}

// Start launches the tool and returns immediately. The run is subject to
// the same validation and cancellation semantics as Run.
func (r *Runner) Start(ctx context.Context, opts RunOptions) (*TestRun, error) {
	argv, err := r.prepareArgs(opts)
	if err != nil {
		return nil, err
	}
	return r.start(ctx, argv)
}

func (r *Runner) start(ctx context.Context, argv []string) (*TestRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, r.exe, argv...)
	cmd.Dir = filepath.Dir(r.exe)
	configureProcessGroup(cmd)

	run := &TestRun{cmd: cmd, done: make(chan struct{})}
	cmd.Cancel = func() error {
		run.cancelKilled.Store(true)
		return terminateProcess(cmd)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stderr pipe: %w", err)
	}

	r.log.Info("executing sdccc", "exe", r.exe, "args", strings.Join(argv, " "))
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", r.exe, err)
	}

	var pumps errgroup.Group
	pumps.Go(func() error {
		r.forward(stdout, slog.LevelInfo)
		return nil
	})
	pumps.Go(func() error {
		r.forward(stderr, slog.LevelError)
		return nil
	})

	go func() {
		defer close(run.done)
		_ = pumps.Wait()
		r.finish(ctx, run, cmd.Wait())
	}()

	return run, nil
}

// forward streams one pipe of the tool line by line into the logger.
func (r *Runner) forward(pipe io.Reader, level slog.Level) {
	sc := bufio.NewScanner(pipe)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		r.log.Log(context.Background(), level, sc.Text())
	}
	if err := sc.Err(); err != nil {
		r.log.Error("reading sdccc output", "error", err)
		// Keep draining so the tool does not block on a full pipe.
		_, _ = io.Copy(io.Discard, pipe)
	}
}

// finish interprets the wait outcome and reads whatever reports the tool
// managed to write.
func (r *Runner) finish(ctx context.Context, run *TestRun, waitErr error) {
	res := Result{}
	if ps := run.cmd.ProcessState; ps != nil {
		res.ExitCode = ps.ExitCode()
	}

	var errs []error
	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
	case run.cancelKilled.Load() && ctx.Err() != nil:
		errs = append(errs, fmt.Errorf("sdccc run aborted: %w", ctx.Err()))
	case errors.As(waitErr, &exitErr):
		// Tool exited non-zero on its own, e.g. because test cases
		// failed. Reported through ExitCode, not as an error.
	default:
		errs = append(errs, fmt.Errorf("waiting for sdccc: %w", waitErr))
	}

	var err error
	res.Direct, err = r.readReport(DirectReportName)
	if err != nil {
		errs = append(errs, err)
	}
	res.Invariant, err = r.readReport(InvariantReportName)
	if err != nil {
		errs = append(errs, err)
	}

	run.result = res
	run.err = errors.Join(errs...)
}

// readReport parses one report file from the run directory. A file the
// tool never wrote yields a nil suite.
func (r *Runner) readReport(name string) (*report.TestSuite, error) {
	path := filepath.Join(r.runDir, name)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("checking report %s: %w", path, err)
	}
	suite, err := report.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", name, err)
	}
	return suite, nil
}

// Done is closed once the tool has exited and its reports were read.
func (run *TestRun) Done() <-chan struct{} { return run.done }

// Result blocks until the run completes and returns its outcome. It is
// safe to call multiple times.
func (run *TestRun) Result() (Result, error) {
	<-run.done
	return run.result, run.err
}

// Kill forcibly terminates the tool's process group. The run still
// completes normally: reports written so far are parsed and Result
// unblocks.
func (run *TestRun) Kill() error {
	return terminateProcess(run.cmd)
}

// PID returns the process id of the running tool.
func (run *TestRun) PID() int {
	if run.cmd.Process == nil {
		return 0
	}
	return run.cmd.Process.Pid
}
