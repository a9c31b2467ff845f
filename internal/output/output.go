// Package output provides terminal output for the peidocker pipeline,
// built on pterm. It mirrors the plumbing the CLI needs — quiet/verbose
// verbosity, color, and a global writer pair — the way the teacher's UI
// layer does it, plus a JSON mode (teacher's `output.JSONOutput`/
// `StatusResponse`/`ErrorResponse`) that the CLI's `--json` flag turns
// on for scripted callers that want to parse `configure`/`create`
// results instead of reading spinner/color output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pterm/pterm"
)

// Verbosity controls how much the pipeline prints.
type Verbosity int

const (
	VerbosityQuiet   Verbosity = -1
	VerbosityNormal  Verbosity = 0
	VerbosityVerbose Verbosity = 1
)

// Config holds output configuration for a `configure` or `create` run.
type Config struct {
	Verbosity Verbosity
	NoColor   bool
	JSON      bool
	Writer    io.Writer
	ErrWriter io.Writer
}

var (
	config   Config
	configMu sync.Mutex
)

func init() {
	config = Config{
		Verbosity: VerbosityNormal,
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
	}
}

// Configure sets up global output state for the process.
func Configure(cfg Config) {
	configMu.Lock()
	defer configMu.Unlock()

	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}
	if cfg.ErrWriter == nil {
		cfg.ErrWriter = os.Stderr
	}

	config = cfg

	if cfg.NoColor {
		pterm.DisableColor()
	} else {
		pterm.EnableColor()
	}
	pterm.SetDefaultOutput(cfg.Writer)
}

// IsQuiet reports whether quiet mode is active.
func IsQuiet() bool {
	configMu.Lock()
	defer configMu.Unlock()
	return config.Verbosity == VerbosityQuiet
}

// IsVerbose reports whether verbose mode is active.
func IsVerbose() bool {
	configMu.Lock()
	defer configMu.Unlock()
	return config.Verbosity == VerbosityVerbose
}

// IsJSON reports whether JSON output mode is active.
func IsJSON() bool {
	configMu.Lock()
	defer configMu.Unlock()
	return config.JSON
}

// Writer returns the configured standard writer.
func Writer() io.Writer {
	configMu.Lock()
	defer configMu.Unlock()
	return config.Writer
}

// ErrWriter returns the configured error writer.
func ErrWriter() io.Writer {
	configMu.Lock()
	defer configMu.Unlock()
	return config.ErrWriter
}

// StatusResponse is the JSON-mode rendering of Success, Error, Warning
// and Phase Done/Failed, one newline-delimited object per call: success
// lines go to the standard writer, error and warning lines to the error
// writer. Info and Verbose emit nothing in JSON mode.
type StatusResponse struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func emitJSONStatus(w io.Writer, level, message string) {
	enc := json.NewEncoder(w)
	_ = enc.Encode(StatusResponse{Level: level, Message: message})
}

// Success reports a successful step. In text mode it is suppressed in
// quiet mode; in JSON mode it is always emitted, since a scripted
// caller has no other way to learn the run succeeded.
func Success(format string, args ...interface{}) {
	if IsJSON() {
		emitJSONStatus(Writer(), "success", sprintf(format, args...))
		return
	}
	if IsQuiet() {
		return
	}
	pterm.Success.Printf(format+"\n", args...)
}

// Error reports a failure. Always shown, in both quiet and JSON mode.
func Error(format string, args ...interface{}) {
	if IsJSON() {
		emitJSONStatus(ErrWriter(), "error", sprintf(format, args...))
		return
	}
	pterm.Error.WithWriter(ErrWriter()).Printf(format+"\n", args...)
}

// Warning reports a non-fatal warning, such as the C4 destination
// collision and port duplicate warnings (spec §7). Suppressed in quiet
// text mode; always emitted in JSON mode.
func Warning(format string, args ...interface{}) {
	if IsJSON() {
		emitJSONStatus(ErrWriter(), "warning", sprintf(format, args...))
		return
	}
	if IsQuiet() {
		return
	}
	pterm.Warning.WithWriter(ErrWriter()).Printf(format+"\n", args...)
}

// Info reports an informational message, suppressed in quiet mode and
// in JSON mode (JSON output carries only status/error/warning levels
// that a scripted caller is expected to act on).
func Info(format string, args ...interface{}) {
	if IsJSON() || IsQuiet() {
		return
	}
	pterm.Info.Printf(format+"\n", args...)
}

// Verbose prints a message only when verbose text mode is active.
func Verbose(format string, args ...interface{}) {
	if IsJSON() || !IsVerbose() {
		return
	}
	pterm.FgGray.Printf(format+"\n", args...)
}

func sprintf(format string, args ...interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// Phase starts a spinner for one step of the configure pipeline.
// Returns a no-op phase in quiet or JSON mode — JSON callers only see
// the terminal Done/Failed status, not interim progress.
func Phase(message string) *PhaseTracker {
	if IsQuiet() || IsJSON() {
		return &PhaseTracker{label: message}
	}
	s, _ := pterm.DefaultSpinner.Start(message)
	return &PhaseTracker{printer: s, label: message}
}

// PhaseTracker wraps a pterm spinner for one pipeline step's
// lifetime, downgrading to a single JSON status line when JSON mode is
// active.
type PhaseTracker struct {
	printer *pterm.SpinnerPrinter
	label   string
}

// Done marks the phase as completed successfully.
func (p *PhaseTracker) Done(message string) {
	if IsJSON() {
		emitJSONStatus(Writer(), "success", message)
		return
	}
	if p.printer != nil {
		p.printer.Success(message)
	}
}

// Failed marks the phase as failed.
func (p *PhaseTracker) Failed(message string) {
	if IsJSON() {
		emitJSONStatus(ErrWriter(), "error", message)
		return
	}
	if p.printer != nil {
		p.printer.Fail(message)
	}
}
