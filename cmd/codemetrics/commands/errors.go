package commands

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/codemetrics/pkg/config"
	"github.com/Sumatoshi-tech/codemetrics/pkg/metrics"
	"github.com/Sumatoshi-tech/codemetrics/pkg/report"
	"github.com/Sumatoshi-tech/codemetrics/pkg/settings"
	"github.com/Sumatoshi-tech/codemetrics/pkg/syntax"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitConfigError = 2
)

var (
	// ErrBreaches reports an assessment that found threshold breaches.
	ErrBreaches = errors.New("threshold breaches found")
	// ErrSortNotSelected reports a --sort metric outside the chosen metrics.
	ErrSortNotSelected = errors.New("sort metric must be one of the chosen metrics")
)

// ExitError carries the exit code of a failed command. Silent errors have
// already been reported to the user.
type ExitError struct {
	Err    error
	Code   int
	Silent bool
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// usageError marks err as a configuration problem.
func usageError(err error) error {
	return &ExitError{Err: err, Code: ExitConfigError}
}

// ExitCode maps a command error to its process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	for _, configErr := range []error{
		config.ErrInvalidWorkers,
		config.ErrInvalidFormat,
		config.ErrInvalidCacheSize,
		config.ErrInvalidLogLevel,
		metrics.ErrUnknownMetric,
		metrics.ErrUnknownAggregation,
		report.ErrUnknownFormat,
		settings.ErrInvalidSettings,
		settings.ErrUnknownSetting,
		settings.ErrInvalidThreshold,
		syntax.ErrUnknownFormat,
	} {
		if errors.Is(err, configErr) {
			return ExitConfigError
		}
	}

	return ExitFailure
}

// describe renders err for the terminal.
func describe(err error) string {
	return fmt.Sprintf("Error: %v", err)
}
