// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pubpublica/pubctl/internal/runtime"

	"github.com/charmbracelet/log"
)

type (
	// Dispatcher resolves operations against a table and runs them through
	// a runtime registry. It holds no per-dispatch state, so concurrent
	// dispatches are independent.
	Dispatcher struct {
		table    *Table
		settings Settings
		registry *runtime.Registry
		mode     runtime.Mode
		logger   *log.Logger
		tailSize int
		stdin    io.Reader
		stdout   io.Writer
		stderr   io.Writer
	}

	// Option configures a Dispatcher.
	Option func(*Dispatcher)

	// Request is one dispatch with its own streams and runtime mode. Zero
	// fields fall back to the dispatcher's defaults.
	Request struct {
		Operation OperationName
		Args      []string
		Mode      runtime.Mode
		Stdin     io.Reader
		Stdout    io.Writer
		Stderr    io.Writer
	}

	// Result describes a finished child process.
	Result struct {
		Invocation *Invocation
		Mode       runtime.Mode
		ExitCode   runtime.ExitCode
		Duration   time.Duration
	}
)

// WithTable replaces the default operation table.
func WithTable(t *Table) Option {
	return func(d *Dispatcher) { d.table = t }
}

// WithRegistry replaces the default runtime registry.
func WithRegistry(r *runtime.Registry) Option {
	return func(d *Dispatcher) { d.registry = r }
}

// WithMode sets the default runtime mode.
func WithMode(m runtime.Mode) Option {
	return func(d *Dispatcher) { d.mode = m }
}

// WithLogger sets the logger for dispatch diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithIO sets the default standard streams of children.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(d *Dispatcher) {
		d.stdin = stdin
		d.stdout = stdout
		d.stderr = stderr
	}
}

// WithTailSize sets how many bytes of output a failure keeps.
func WithTailSize(n int) Option {
	return func(d *Dispatcher) { d.tailSize = n }
}

// New creates a Dispatcher for the repository described by settings.
func New(settings Settings, opts ...Option) (*Dispatcher, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	d := &Dispatcher{
		table:    DefaultTable(),
		settings: settings,
		mode:     runtime.ModeNative,
		logger:   log.New(io.Discard),
		tailSize: defaultTailSize,
		stdin:    os.Stdin,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.registry == nil {
		d.registry = runtime.BuildRegistry()
	}
	if err := d.mode.Validate(); err != nil {
		return nil, err
	}
	if d.tailSize <= 0 {
		d.tailSize = defaultTailSize
	}
	return d, nil
}

// Table returns the dispatcher's operation table.
func (d *Dispatcher) Table() *Table { return d.table }

// Settings returns the dispatcher's repository settings.
func (d *Dispatcher) Settings() Settings { return d.settings }

// Mode returns the default runtime mode.
func (d *Dispatcher) Mode() runtime.Mode { return d.mode }

// Resolve builds the invocation for name and args without running it.
func (d *Dispatcher) Resolve(name OperationName, args []string) (*Invocation, error) {
	return Resolve(d.table, d.settings, name, args)
}

// Dispatch runs operation name with args using the default streams and mode.
func (d *Dispatcher) Dispatch(ctx context.Context, name OperationName, args []string) (*Result, error) {
	return d.Run(ctx, Request{Operation: name, Args: args})
}

// Run resolves req and runs its child to completion. Argument errors are
// returned before anything starts. A child that exits non-zero yields both a
// Result carrying its code and a *ChildProcessFailureError.
func (d *Dispatcher) Run(ctx context.Context, req Request) (*Result, error) {
	inv, err := d.Resolve(req.Operation, req.Args)
	if err != nil {
		return nil, err
	}

	mode := req.Mode
	if mode == "" {
		mode = d.mode
	}
	rt, err := d.registry.Get(mode)
	if err != nil {
		return nil, err
	}

	stdin, stdout, stderr := d.streams(req)
	tail := newTailBuffer(d.tailSize)

	execCtx := &runtime.ExecutionContext{
		Context:     ctx,
		ExecutionID: inv.ID,
		Argv:        inv.Argv,
		Dir:         inv.Dir,
		ExtraEnv:    inv.Env,
		Venv:        inv.Venv,
		IO: runtime.IOContext{
			Stdin:  stdin,
			Stdout: io.MultiWriter(stdout, tail),
			Stderr: io.MultiWriter(stderr, tail),
		},
	}

	d.logger.Debug("dispatching",
		"operation", inv.Operation.Name,
		"id", inv.ID,
		"runtime", mode,
		"argv", inv.Argv,
		"dir", inv.Dir,
	)

	start := time.Now()
	res := rt.Execute(execCtx)
	result := &Result{
		Invocation: inv,
		Mode:       mode,
		ExitCode:   res.ExitCode,
		Duration:   time.Since(start),
	}

	d.logger.Debug("child exited",
		"operation", inv.Operation.Name,
		"id", inv.ID,
		"code", res.ExitCode,
		"duration", result.Duration,
	)

	if res.Error != nil {
		return result, fmt.Errorf("%s: %w", inv.Operation.Name, res.Error)
	}
	if !res.ExitCode.IsSuccess() {
		return result, &ChildProcessFailureError{
			Operation: inv.Operation.Name,
			ExitCode:  res.ExitCode,
			Output:    tail.String(),
		}
	}
	return result, nil
}

func (d *Dispatcher) streams(req Request) (io.Reader, io.Writer, io.Writer) {
	stdin, stdout, stderr := req.Stdin, req.Stdout, req.Stderr
	if stdin == nil {
		stdin = d.stdin
	}
	if stdout == nil {
		stdout = d.stdout
	}
	if stderr == nil {
		stderr = d.stderr
	}
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	return stdin, stdout, stderr
}
