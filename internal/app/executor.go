package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsamuelsen/quotesync/internal/platform/logging"
)

// Mutating use cases run as validate → perform → verify → respond. Nothing
// is written before validation passes, and a caller only sees success once
// the written state has been checked.

// ExecutionStep names a stage of an operation.
type ExecutionStep string

const (
	StepValidate ExecutionStep = "validate"
	StepPerform  ExecutionStep = "perform"
	StepVerify   ExecutionStep = "verify"
	StepRespond  ExecutionStep = "respond"
)

// ExecutionError records the step an operation failed in.
type ExecutionError struct {
	Op    string
	Step  ExecutionStep
	Cause error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Op, e.Step, e.Cause)
}

// Unwrap exposes the cause so domain error helpers keep working.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Operation bundles the stages of one use case. Every stage is optional.
// I is the input, P what Perform produced and O what the caller receives.
type Operation[I, P, O any] struct {
	Name string

	Validate func(ctx context.Context, input I) error
	Perform  func(ctx context.Context, input I) (P, error)
	Verify   func(ctx context.Context, input I, performed P) error
	Respond  func(ctx context.Context, input I, performed P) (O, error)
}

// Executor runs operations with step-level logging.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates an executor. A nil logger uses slog.Default.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{logger: logger}
}

// Execute runs op over input.
func Execute[I, P, O any](ctx context.Context, exec *Executor, op Operation[I, P, O], input I) (O, error) {
	var zero O

	logger := logging.FromContextOr(ctx, exec.logger).With(slog.String("operation", op.Name))
	start := time.Now()

	fail := func(step ExecutionStep, err error) (O, error) {
		level := slog.LevelError
		if step == StepValidate {
			level = slog.LevelWarn
		}

		logger.Log(ctx, level, "operation failed", slog.String("step", string(step)), slog.Any("error", err))

		return zero, &ExecutionError{Op: op.Name, Step: step, Cause: err}
	}

	if op.Validate != nil {
		if err := op.Validate(ctx, input); err != nil {
			return fail(StepValidate, err)
		}
	}

	var performed P

	if op.Perform != nil {
		p, err := op.Perform(ctx, input)
		if err != nil {
			return fail(StepPerform, err)
		}

		performed = p
	}

	if op.Verify != nil {
		if err := op.Verify(ctx, input, performed); err != nil {
			return fail(StepVerify, err)
		}
	}

	var result O

	if op.Respond != nil {
		r, err := op.Respond(ctx, input, performed)
		if err != nil {
			return fail(StepRespond, err)
		}

		result = r
	}

	logger.DebugContext(ctx, "operation completed", slog.Duration("duration", time.Since(start)))

	return result, nil
}

// FailedStep extracts the step from an execution error.
func FailedStep(err error) (ExecutionStep, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Step, true
	}

	return "", false
}
