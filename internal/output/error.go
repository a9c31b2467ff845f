package output

import (
	"errors"
	"fmt"
	"io"
	"strings"

	pdErrors "github.com/igamenovoer/peidocker/internal/errors"
	"github.com/pterm/pterm"
)

// ErrorFormatter renders a PeiError with category badge, cause, context,
// and hint, matching the teacher's pterm-based error rendering.
type ErrorFormatter struct {
	writer io.Writer
}

// NewErrorFormatter creates a formatter writing to w.
func NewErrorFormatter(w io.Writer) *ErrorFormatter {
	return &ErrorFormatter{writer: w}
}

// Format renders err as a human-readable string.
func (f *ErrorFormatter) Format(err error) string {
	if err == nil {
		return ""
	}

	var pe *pdErrors.PeiError
	if errors.As(err, &pe) {
		return f.formatPeiError(pe)
	}
	return fmt.Sprintf("%s %s\n", pterm.FgRed.Sprint("✗"), err.Error())
}

func (f *ErrorFormatter) formatPeiError(err *pdErrors.PeiError) string {
	var sb strings.Builder

	badge := pterm.NewStyle(pterm.BgRed, pterm.FgWhite, pterm.Bold).
		Sprintf(" %s ", strings.ToUpper(string(err.Category)))
	sb.WriteString(badge)
	sb.WriteString(" ")
	sb.WriteString(pterm.FgRed.Sprint(err.Message))
	sb.WriteString("\n")

	if err.Location != "" {
		sb.WriteString(pterm.FgBlue.Sprint("Location"))
		sb.WriteString(": ")
		sb.WriteString(err.Location)
		sb.WriteString("\n")
	}

	if err.Cause != nil {
		sb.WriteString(pterm.FgBlue.Sprint("Cause"))
		sb.WriteString(": ")
		sb.WriteString(err.Cause.Error())
		sb.WriteString("\n")
	}

	if len(err.Context) > 0 {
		sb.WriteString(pterm.FgBlue.Sprint("Context"))
		sb.WriteString(":\n")
		for k, v := range err.Context {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", pterm.FgGray.Sprint(k), v))
		}
	}

	if err.Hint != "" {
		sb.WriteString(pterm.FgCyan.Sprint("ℹ"))
		sb.WriteString(" ")
		sb.WriteString(pterm.FgGray.Sprint(err.Hint))
		sb.WriteString("\n")
	}

	return sb.String()
}

// Write formats and writes err to the formatter's writer.
func (f *ErrorFormatter) Write(err error) {
	if err == nil {
		return
	}
	fmt.Fprint(f.writer, f.Format(err))
}

// PrintError formats and prints err using the global error writer.
func PrintError(err error) {
	if err == nil {
		return
	}
	NewErrorFormatter(ErrWriter()).Write(err)
}

// FormatErrorBrief returns a compact one-line rendering of err.
func FormatErrorBrief(err error) string {
	if err == nil {
		return ""
	}
	var pe *pdErrors.PeiError
	if errors.As(err, &pe) {
		return fmt.Sprintf("[%s/%s] %s", pe.Category, pe.Code, pe.Message)
	}
	return err.Error()
}
