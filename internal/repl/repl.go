// Package repl implements the interactive calculator loop.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/calcengine/internal/color"
	"github.com/smykla-skalski/calcengine/pkg/logger"
	"github.com/smykla-skalski/calcengine/pkg/plugin"
)

// ExitCommand ends the loop when entered as an operation.
const ExitCommand = "exit"

const (
	promptOperation = "Enter operation: "
	promptOperandA  = "operandA: "
	promptOperandB  = "operandB: "
)

// Runner runs operations by name.
type Runner interface {
	IsSupported(pluginType, name string) bool
	Run(pluginType, name string, a, b float64) (float64, error)
}

// REPL reads whitespace-separated tokens: an operation name followed by two
// operands, until "exit" or end of input.
type REPL struct {
	runner  Runner
	scanner *bufio.Scanner
	out     io.Writer
	errOut  io.Writer
	prompts bool
	theme   color.Theme
	logger  logger.Logger
}

// Option configures a REPL.
type Option func(*REPL)

// WithPrompts enables or disables the input prompts.
func WithPrompts(enabled bool) Option {
	return func(r *REPL) {
		r.prompts = enabled
	}
}

// WithTheme sets the output styles.
func WithTheme(theme color.Theme) Option {
	return func(r *REPL) {
		r.theme = theme
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(log logger.Logger) Option {
	return func(r *REPL) {
		r.logger = log
	}
}

// WithErrorOutput sets where per-operation failures are written. Defaults
// to the regular output.
func WithErrorOutput(w io.Writer) Option {
	return func(r *REPL) {
		r.errOut = w
	}
}

// New creates a REPL reading from in and writing to out.
func New(runner Runner, in io.Reader, out io.Writer, opts ...Option) *REPL {
	scanner := bufio.NewScanner(in)
	scanner.Split(bufio.ScanWords)

	r := &REPL{
		runner:  runner,
		scanner: scanner,
		out:     out,
		errOut:  out,
		logger:  logger.NewNoOpLogger(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run loops until exit or end of input. Failed operations are reported and
// the loop continues; only read errors end it with an error.
func (r *REPL) Run() error {
	for {
		r.prompt(promptOperation)

		op, ok := r.next()
		if !ok || op == ExitCommand {
			return r.readErr()
		}

		if !r.runner.IsSupported(plugin.TypeOperation, op) {
			r.fail("Operation not supported")

			continue
		}

		a, ok := r.operand(promptOperandA)
		if !ok {
			return r.readErr()
		}

		b, ok := r.operand(promptOperandB)
		if !ok {
			return r.readErr()
		}

		if a == nil || b == nil {
			continue
		}

		result, err := r.runner.Run(plugin.TypeOperation, op, *a, *b)
		if err != nil {
			r.logger.Error("operation failed", "operation", op, "error", err)
			r.fail("Operation unavailable: " + err.Error())

			continue
		}

		r.println(r.theme.Result.Render(fmt.Sprintf("Result: %g", result)))
	}
}

// operand reads one number. The second result is false at end of input; a
// nil value means the token was not a number and has been reported.
func (r *REPL) operand(prompt string) (*float64, bool) {
	r.prompt(prompt)

	tok, ok := r.next()
	if !ok {
		return nil, false
	}

	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		r.fail(fmt.Sprintf("Invalid operand %q", tok))

		return nil, true
	}

	return &v, true
}

func (r *REPL) next() (string, bool) {
	if !r.scanner.Scan() {
		return "", false
	}

	return r.scanner.Text(), true
}

func (r *REPL) readErr() error {
	if err := r.scanner.Err(); err != nil {
		return errors.Wrap(err, "read input")
	}

	return nil
}

func (r *REPL) prompt(text string) {
	if r.prompts {
		_, _ = fmt.Fprint(r.out, r.theme.Prompt.Render(text))
	}
}

func (r *REPL) fail(text string) {
	_, _ = fmt.Fprintln(r.errOut, r.theme.Error.Render(text))
}

func (r *REPL) println(text string) {
	_, _ = fmt.Fprintln(r.out, text)
}
