package root

import "errors"

// exitCodeError carries the exit code of the wrapped tool so main can
// propagate it.
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string { return e.msg }

// ExitCode returns the process exit code an error asks for, defaulting
// to 1.
func ExitCode(err error) int {
	var exitErr *exitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	return 1
}
